package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// Event types pushed to connected browsers
const (
	TypeRefresh = "refresh"
	TypeAlert   = "alert"
)

const (
	clientBuffer = 32
	// undelivered alerts kept per owner until one of their pages connects
	maxPendingAlerts = 16
)

// Event is a single notification for an open dashboard tab
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	View       string    `json:"view,omitempty"`
	Msg        string    `json:"message,omitempty"`
	Submission string    `json:"submission,omitempty"`
	At         time.Time `json:"at"`
}

type subscriber struct {
	owner string
	ch    chan Event
}

// Broker fans store notifications out to open dashboard tabs.
// Refreshes go to every tab and are dropped for slow tabs. Alerts go
// only to the tabs of the submission's owner; an alert no tab received
// is held for the owner's next stream or claimed by the page they land on.
type Broker struct {
	mu      sync.RWMutex
	clients map[string]*subscriber
	pending map[string][]Event
	closed  bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewBroker creates an empty broker
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		clients: make(map[string]*subscriber),
		pending: make(map[string][]Event),
		logger:  logger.With(slog.String("component", "events")),
		now:     time.Now,
	}
}

// Subscribe registers a tab of owner and returns its id and event channel.
// Alerts held for owner are queued on the channel first.
func (b *Broker) Subscribe(owner string) (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, clientBuffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.clients[id] = &subscriber{owner: owner, ch: ch}

	replayed := b.replayLocked(owner, ch)
	if owner != "" {
		replayed += b.replayLocked("", ch)
	}

	b.logger.Debug("client subscribed",
		slog.String("client_id", id),
		slog.Int("clients", len(b.clients)),
		slog.Int("replayed_alerts", replayed),
	)
	return id, ch
}

func (b *Broker) replayLocked(owner string, ch chan Event) int {
	held := b.pending[owner]
	delete(b.pending, owner)
	for _, e := range held {
		ch <- e
	}
	return len(held)
}

// Unsubscribe removes the client and closes its channel
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(sub.ch)
		b.logger.Debug("client unsubscribed",
			slog.String("client_id", id),
			slog.Int("clients", len(b.clients)),
		)
	}
}

// Clients returns the number of connected subscribers
func (b *Broker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Refresh asks subscribers to re-render the given view
func (b *Broker) Refresh(view string) {
	e := b.stamp(Event{Type: TypeRefresh, View: view})

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.clients {
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("client channel is full, refresh dropped",
				slog.String("client_id", id),
			)
		}
	}
}

// Alert delivers message to the tabs of the submission's owner. A
// submission without owner alerts every tab.
func (b *Broker) Alert(sub *models.Submission, message string) {
	e := b.stamp(Event{Type: TypeAlert, Msg: message, Submission: sub.ID})
	owner := sub.Owner

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.logger.Warn("broker closed, alert not delivered", slog.String("submission_id", sub.ID))
		return
	}

	delivered := 0
	for _, s := range b.clients {
		if owner != "" && s.owner != owner {
			continue
		}
		select {
		case s.ch <- e:
			delivered++
		default:
		}
	}
	if delivered > 0 {
		return
	}

	held := append(b.pending[owner], e)
	if len(held) > maxPendingAlerts {
		b.logger.Warn("too many undelivered alerts, oldest dropped",
			slog.String("submission_id", held[0].Submission),
		)
		held = held[len(held)-maxPendingAlerts:]
	}
	b.pending[owner] = held

	b.logger.Info("alert held until the owner reconnects",
		slog.String("submission_id", sub.ID),
	)
}

// Claim removes the held alert for submissionID so the caller can show it
// itself. It returns false when no such alert is held, either because it
// was already delivered or because it has not been raised yet.
func (b *Broker) Claim(owner, submissionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	held := b.pending[owner]
	for i, e := range held {
		if e.Submission != submissionID {
			continue
		}
		held = append(held[:i], held[i+1:]...)
		if len(held) == 0 {
			delete(b.pending, owner)
		} else {
			b.pending[owner] = held
		}
		return true
	}
	return false
}

func (b *Broker) stamp(e Event) Event {
	e.ID = uuid.NewString()
	e.At = b.now()
	return e
}

// Close disconnects all subscribers
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.clients {
		close(sub.ch)
		delete(b.clients, id)
	}
}
