package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data backend identifiers
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Auth mode identifiers
const (
	AuthModeGoTrue = "gotrue"
	AuthModeJWT    = "jwt"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig
	Data      DataConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Log       LogConfig
	Store     StoreConfig
	Generator GeneratorConfig
}

// APIConfig holds HTTP server configuration
type APIConfig struct {
	Port           int
	AllowedOrigins []string
}

// DataConfig selects and configures the remote persistence backend
type DataConfig struct {
	Backend    string
	RESTURL    string
	RESTKey    string
	SQLitePath string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// AuthConfig holds session verification configuration
type AuthConfig struct {
	Mode        string
	URL         string
	APIKey      string
	JWTSecret   string
	LoginURL    string
	CookieName  string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// RedisConfig holds the optional session cache configuration
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level         string
	Format        string
	FluentEnabled bool
	FluentHost    string
	FluentPort    int
	FluentTag     string
}

// StoreConfig holds timeouts for calls made by the store
type StoreConfig struct {
	FetchTimeout time.Duration
	WriteTimeout time.Duration
}

// GeneratorConfig holds the ad copy generator configuration
type GeneratorConfig struct {
	Delay time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	apiPort, err := getEnvInt("API_PORT", 8080)
	if err != nil {
		return nil, err
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}

	fluentPort, err := getEnvInt("FLUENTBIT_PORT", 24224)
	if err != nil {
		return nil, err
	}

	fluentEnabled, err := strconv.ParseBool(getEnv("FLUENTBIT_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLUENTBIT_ENABLED: %w", err)
	}

	cacheTTL, err := getEnvDuration("SESSION_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}

	authTimeout, err := getEnvDuration("AUTH_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := getEnvDuration("STORE_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("STORE_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	generatorDelay, err := getEnvDuration("GENERATOR_DELAY", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			Port:           apiPort,
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:8080")},
		},
		Data: DataConfig{
			Backend:    getEnv("DATA_BACKEND", BackendREST),
			RESTURL:    getEnv("SUPABASE_URL", ""),
			RESTKey:    getEnv("SUPABASE_KEY", ""),
			SQLitePath: getEnv("SQLITE_PATH", "estate.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "estate"),
			Password: getEnv("DB_PASSWORD", "estate"),
			DBName:   getEnv("DB_NAME", "estate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Auth: AuthConfig{
			Mode:        getEnv("AUTH_MODE", AuthModeGoTrue),
			URL:         getEnv("AUTH_URL", getEnv("SUPABASE_URL", "")),
			APIKey:      getEnv("AUTH_API_KEY", getEnv("SUPABASE_KEY", "")),
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
			LoginURL:    getEnv("LOGIN_URL", "/login.html"),
			CookieName:  getEnv("SESSION_COOKIE", "sb-access-token"),
			CacheTTL:    cacheTTL,
			HTTPTimeout: authTimeout,
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "estate:session:"),
		},
		Log: LogConfig{
			Level:         getEnv("LOG_LEVEL", "info"),
			Format:        getEnv("LOG_FORMAT", "json"),
			FluentEnabled: fluentEnabled,
			FluentHost:    getEnv("FLUENTBIT_HOST", "localhost"),
			FluentPort:    fluentPort,
			FluentTag:     getEnv("FLUENTBIT_TAG", "estate-backoffice"),
		},
		Store: StoreConfig{
			FetchTimeout: fetchTimeout,
			WriteTimeout: writeTimeout,
		},
		Generator: GeneratorConfig{
			Delay: generatorDelay,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	switch c.Data.Backend {
	case BackendREST:
		if c.Data.RESTURL == "" || c.Data.RESTKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the %s backend", BackendREST)
		}
	case BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("invalid DATA_BACKEND: %s", c.Data.Backend)
	}

	switch c.Auth.Mode {
	case AuthModeGoTrue:
		if c.Auth.URL == "" {
			return fmt.Errorf("AUTH_URL is required for %s auth", AuthModeGoTrue)
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required for %s auth", AuthModeJWT)
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE: %s", c.Auth.Mode)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
