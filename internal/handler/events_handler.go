package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/Raymond9734/estate-backoffice/internal/events"
	"github.com/Raymond9734/estate-backoffice/internal/models"
)

const (
	keepAliveInterval = 15 * time.Second
	// element replaced by view patches
	viewSelector = "#app-view"
)

// ViewRenderer renders the content of a live view
type ViewRenderer interface {
	RenderView(ctx context.Context, view, query string) (string, error)
}

// EventsHandler streams store notifications to the browser as Datastar
// patches: refreshes re-render the open view in place and alerts run
// window.alert in the tab.
type EventsHandler struct {
	broker *events.Broker
	views  ViewRenderer
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(broker *events.Broker, views ViewRenderer, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broker: broker,
		views:  views,
		logger: logger,
	}
}

// Stream handles GET /events?view=&q=
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context(), h.logger)

	view := r.URL.Query().Get("view")
	if _, ok := liveViews[view]; view != "" && !ok {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "unknown view")
		return
	}
	query := r.URL.Query().Get("q")

	// the server write timeout would cut long-lived streams
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse := datastar.NewSSE(w, r)

	clientID, ch := h.broker.Subscribe(requestOwner(r))
	defer h.broker.Unsubscribe(clientID)

	logger = logger.With(slog.String("client_id", clientID), slog.String("view", view))
	logger.Debug("event stream opened")

	if err := sse.MarshalAndPatchSignals(map[string]any{"connected": true}); err != nil {
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case e, open := <-ch:
			if !open {
				return
			}
			if err := h.send(sse, e, view, query, logger); err != nil {
				logger.Debug("event stream write failed", slog.String("error", err.Error()))
				return
			}

		case <-keepAlive.C:
			if err := sse.PatchSignals([]byte(`{}`)); err != nil {
				return
			}

		case <-sse.Context().Done():
			logger.Debug("event stream closed")
			return
		}
	}
}

func (h *EventsHandler) send(sse *datastar.ServerSentEventGenerator, e events.Event, view, query string, logger *slog.Logger) error {
	switch e.Type {
	case events.TypeAlert:
		msg, err := json.Marshal(e.Msg)
		if err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}
		return sse.ExecuteScript(fmt.Sprintf("window.alert(%s)", msg))

	case events.TypeRefresh:
		if !refreshes(view, e.View) {
			return nil
		}
		html, err := h.views.RenderView(sse.Context(), view, query)
		if err != nil {
			logger.Error("failed to render view", slog.String("error", err.Error()))
			return nil
		}
		return sse.PatchElements(html,
			datastar.WithSelector(viewSelector),
			datastar.WithMode(datastar.ElementPatchModeInner),
		)
	}
	return nil
}

// refreshes reports whether a refresh of changed updates the open view.
// The dashboard shows both collections.
func refreshes(open, changed string) bool {
	if open == "" {
		return false
	}
	return open == changed || open == models.ViewDashboard
}
