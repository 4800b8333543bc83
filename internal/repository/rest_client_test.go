package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

func newTestRESTBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := NewRESTClient(RESTConfig{BaseURL: server.URL + "/", APIKey: "anon-key"}, logger)
	return NewRESTBackend(client)
}

func TestRESTBackend_ListProperties(t *testing.T) {
	backend := newTestRESTBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/properties", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id": 9, "title": "Villa", "price": 2500000, "area": 320, "location": "دار مصر",
			 "type": "sale", "status": "available", "date_added": "2025-03-14",
			 "created_at": "2025-03-14T10:00:00.123456+00:00"}
		]`)
	})

	properties, err := backend.Properties.List(context.Background())
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, int64(9), properties[0].ID)
	assert.Equal(t, models.Date("2025-03-14"), properties[0].DateAdded)
	require.NotNil(t, properties[0].CreatedAt)
}

func TestRESTBackend_InsertClient(t *testing.T) {
	var received []map[string]interface{}
	backend := newTestRESTBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/clients", r.URL.Path)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	})

	err := backend.Clients.Insert(context.Background(), &models.ClientInsert{
		Name:     "Sara",
		Phone:    "0100",
		Budget:   900000,
		Interest: models.InterestVilla,
		Status:   models.LeadWarm,
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	row := received[0]
	assert.Equal(t, "Sara", row["name"])
	assert.Equal(t, 900000.0, row["budget"])
	// identity and timestamps are assigned by the service
	assert.NotContains(t, row, "id")
	assert.NotContains(t, row, "created_at")
}

func TestRESTBackend_ErrorResponse(t *testing.T) {
	backend := newTestRESTBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"42501","message":"permission denied for table properties"}`)
	})

	err := backend.Properties.Insert(context.Background(), &models.PropertyInsert{Title: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "permission denied for table properties")

	_, err = backend.Clients.List(context.Background())
	assert.Error(t, err)
}

func TestRESTBackend_Health(t *testing.T) {
	backend := newTestRESTBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[]`)
	})

	assert.NoError(t, backend.Health.Health(context.Background()))
}
