package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Dashboard *DashboardHandler
	API       *APIHandler
	Events    *EventsHandler
	Health    *HealthHandler
	Auth      *AuthMiddleware
}

// NewRouter registers the HTML views, the event stream and the JSON API
func NewRouter(h Handlers, allowedOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", h.Health.Health)
	r.Post("/logout", h.Auth.SignOut)

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequirePage)

		r.Get("/", h.Dashboard.Dashboard)
		r.Get("/properties", h.Dashboard.Properties)
		r.Get("/properties/new", h.Dashboard.NewPropertyForm)
		r.Post("/properties", h.Dashboard.CreateProperty)
		r.Get("/clients", h.Dashboard.Clients)
		r.Get("/clients/new", h.Dashboard.NewClientForm)
		r.Post("/clients", h.Dashboard.CreateClient)
		r.Get("/ai-tools", h.Dashboard.AITools)
		r.Post("/ai-tools/generate", h.Dashboard.Generate)
		r.Get("/events", h.Events.Stream)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(CORSMiddleware(allowedOrigins))
		r.Use(h.Auth.RequireAPI)

		r.Get("/session", h.API.GetSession)
		r.Get("/stats", h.API.GetStats)
		r.Post("/refresh", h.API.Refresh)

		r.Get("/properties", h.API.ListProperties)
		r.Post("/properties", h.API.CreateProperty)
		r.Get("/clients", h.API.ListClients)
		r.Post("/clients", h.API.CreateClient)

		r.Get("/submissions", h.API.ListSubmissions)
		r.Get("/submissions/{id}", h.API.GetSubmission)
	})

	return r
}
