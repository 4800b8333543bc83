package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Raymond9734/estate-backoffice/internal/models"
	"github.com/Raymond9734/estate-backoffice/internal/service"
)

// APIHandler exposes the store as JSON commands and queries
type APIHandler struct {
	store  *service.Store
	logger *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store *service.Store, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		store:  store,
		logger: logger,
	}
}

// SubmitResult is returned when a record was accepted for persistence
type SubmitResult struct {
	Submission *models.Submission `json:"submission"`
	Stats      models.Stats       `json:"stats"`
}

// SessionResponse describes the signed-in user
type SessionResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// ListProperties handles GET /api/properties
func (h *APIHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, newListResult(h.store.Properties()))
}

// ListClients handles GET /api/clients
func (h *APIHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, newListResult(h.store.Clients()))
}

// GetStats handles GET /api/stats
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.store.Stats())
}

// CreateProperty handles POST /api/properties
func (h *APIHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePropertyRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := req.Validate(); err != nil {
		handleError(w, err, h.logger)
		return
	}

	sub, err := h.store.AddProperty(ownerContext(r), req.ToProperty())
	if err != nil {
		handleError(w, err, loggerFromContext(r.Context(), h.logger))
		return
	}

	respondAccepted(w, SubmitResult{Submission: sub, Stats: h.store.Stats()})
}

// CreateClient handles POST /api/clients
func (h *APIHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req service.CreateClientRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := req.Validate(); err != nil {
		handleError(w, err, h.logger)
		return
	}

	sub, err := h.store.AddClient(ownerContext(r), req.ToClient())
	if err != nil {
		handleError(w, err, loggerFromContext(r.Context(), h.logger))
		return
	}

	respondAccepted(w, SubmitResult{Submission: sub, Stats: h.store.Stats()})
}

// GetSubmission handles GET /api/submissions/{id}
func (h *APIHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.Submission(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, sub)
}

// ListSubmissions handles GET /api/submissions
func (h *APIHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, newListResult(h.store.Submissions()))
}

// Refresh handles POST /api/refresh.
// Fetch failures are silent; the response carries whatever is held locally.
func (h *APIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.store.FetchProperties(r.Context())
	h.store.FetchClients(r.Context())

	respondSuccess(w, h.store.Stats())
}

// GetSession handles GET /api/session
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no active session")
		return
	}

	respondSuccess(w, SessionResponse{
		UserID:      session.UserID,
		Email:       session.Email,
		DisplayName: session.DisplayName(),
	})
}
