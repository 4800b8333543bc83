package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, BackendREST, cfg.Data.Backend)
	assert.Equal(t, AuthModeGoTrue, cfg.Auth.Mode)
	// auth falls back to the data service project
	assert.Equal(t, "https://project.supabase.co", cfg.Auth.URL)
	assert.Equal(t, "anon-key", cfg.Auth.APIKey)
	assert.Equal(t, "sb-access-token", cfg.Auth.CookieName)
	assert.Equal(t, time.Minute, cfg.Auth.CacheTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Generator.Delay)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Log.FluentEnabled)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", BackendPostgres)
	t.Setenv("AUTH_MODE", AuthModeJWT)
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("STORE_WRITE_TIMEOUT", "3s")
	t.Setenv("FLUENTBIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 3*time.Second, cfg.Store.WriteTimeout)
	assert.True(t, cfg.Log.FluentEnabled)
	assert.Equal(t, 4, cfg.Database.MaxConns)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "rest backend without credentials",
			env:  map[string]string{"DATA_BACKEND": BackendREST, "AUTH_MODE": AuthModeJWT, "AUTH_JWT_SECRET": "s"},
		},
		{
			name: "unknown backend",
			env:  map[string]string{"DATA_BACKEND": "mongo", "AUTH_MODE": AuthModeJWT, "AUTH_JWT_SECRET": "s"},
		},
		{
			name: "jwt mode without secret",
			env:  map[string]string{"DATA_BACKEND": BackendSQLite, "AUTH_MODE": AuthModeJWT},
		},
		{
			name: "bad port",
			env:  map[string]string{"DATA_BACKEND": BackendSQLite, "API_PORT": "http"},
		},
		{
			name: "bad duration",
			env:  map[string]string{"DATA_BACKEND": BackendSQLite, "GENERATOR_DELAY": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
