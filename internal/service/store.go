package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Raymond9734/estate-backoffice/internal/models"
	"github.com/Raymond9734/estate-backoffice/internal/repository"
)

// Alert messages shown when a remote write fails
const (
	AlertPropertySaveFailed = "فشل حفظ العقار في السحابة!"
	AlertClientSaveFailed   = "فشل حفظ العميل!"
)

const maxTrackedSubmissions = 256

// AlertMessage returns the failure message shown for a submission to collection
func AlertMessage(collection string) string {
	if collection == models.CollectionClients {
		return AlertClientSaveFailed
	}
	return AlertPropertySaveFailed
}

type ownerKey struct{}

// WithOwner tags adds made with ctx as submitted by owner. Failure
// alerts for those submissions are delivered to that owner only.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner set by WithOwner, or ""
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// Notifier is the view layer attached to the store
type Notifier interface {
	// Refresh asks views showing the named view to re-render
	Refresh(view string)
	// Alert shows a blocking message to the owner of the failed submission
	Alert(sub *models.Submission, message string)
}

// StoreConfig holds timeouts for remote calls
type StoreConfig struct {
	FetchTimeout time.Duration
	WriteTimeout time.Duration
}

// collection is one locally mirrored remote table.
// issued counts fetches started, applied is the sequence of the
// fetch whose result is currently held.
type collection[T any] struct {
	name    string
	view    string
	items   []*T
	issued  uint64
	applied uint64
}

type trackedSubmission struct {
	sub *models.Submission
	// fetches with a sequence above this value started after the insert succeeded
	afterSeq uint64
}

// Store is the in-process authority for properties and clients.
// Reads are served from memory, adds are applied optimistically and
// persisted in the background, and successful writes are reconciled by
// re-fetching the whole collection.
type Store struct {
	propertyRepo repository.PropertyRepository
	clientRepo   repository.ClientRepository
	logger       *slog.Logger
	now          func() time.Time

	fetchTimeout time.Duration
	writeTimeout time.Duration

	mu          sync.RWMutex
	properties  collection[models.Property]
	clients     collection[models.Client]
	view        Notifier
	submissions map[string]*trackedSubmission
	order       []string
	closed      bool

	writes sync.WaitGroup
}

// NewStore creates an empty store backed by the given repositories
func NewStore(
	propertyRepo repository.PropertyRepository,
	clientRepo repository.ClientRepository,
	cfg StoreConfig,
	logger *slog.Logger,
) *Store {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	return &Store{
		propertyRepo: propertyRepo,
		clientRepo:   clientRepo,
		logger:       logger.With(slog.String("component", "store")),
		now:          time.Now,
		fetchTimeout: cfg.FetchTimeout,
		writeTimeout: cfg.WriteTimeout,
		properties:   collection[models.Property]{name: models.CollectionProperties, view: models.ViewProperties},
		clients:      collection[models.Client]{name: models.CollectionClients, view: models.ViewClients},
		submissions:  make(map[string]*trackedSubmission),
	}
}

// AttachView sets the view layer notified on changes. nil detaches it.
func (s *Store) AttachView(n Notifier) {
	s.mu.Lock()
	s.view = n
	s.mu.Unlock()
}

func (s *Store) attachedView() Notifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Initialize loads properties, then clients, then refreshes the dashboard
func (s *Store) Initialize(ctx context.Context) {
	s.FetchProperties(ctx)
	s.FetchClients(ctx)

	if view := s.attachedView(); view != nil {
		view.Refresh(models.ViewDashboard)
	}

	s.logger.Info("store initialized",
		slog.Int("properties", len(s.Properties())),
		slog.Int("clients", len(s.Clients())),
	)
}

// FetchProperties replaces the local properties with the remote table.
// Failures are logged and leave the current collection untouched.
func (s *Store) FetchProperties(ctx context.Context) {
	fetchCollection(ctx, s, &s.properties, s.propertyRepo.List)
}

// FetchClients replaces the local clients with the remote table.
// Failures are logged and leave the current collection untouched.
func (s *Store) FetchClients(ctx context.Context) {
	fetchCollection(ctx, s, &s.clients, s.clientRepo.List)
}

func fetchCollection[T any](ctx context.Context, s *Store, c *collection[T], list func(context.Context) ([]*T, error)) {
	s.mu.Lock()
	c.issued++
	seq := c.issued
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	items, err := list(fetchCtx)
	if err != nil {
		s.logger.Error("failed to fetch collection",
			slog.String("collection", c.name),
			slog.String("error", err.Error()),
		)
		return
	}
	if items == nil {
		items = []*T{}
	}

	s.mu.Lock()
	if seq <= c.applied {
		s.mu.Unlock()
		s.logger.Debug("stale fetch result dropped",
			slog.String("collection", c.name),
			slog.Uint64("seq", seq),
		)
		return
	}
	c.items = items
	c.applied = seq
	confirmed := s.confirmLocked(c.name, seq)
	view := s.view
	s.mu.Unlock()

	s.logger.Debug("collection fetched",
		slog.String("collection", c.name),
		slog.Int("count", len(items)),
		slog.Int("confirmed", confirmed),
	)

	if view != nil {
		view.Refresh(c.view)
	}
}

// confirmLocked resolves persisted submissions covered by fetch seq
func (s *Store) confirmLocked(name string, seq uint64) int {
	confirmed := 0
	at := s.now()
	for _, t := range s.submissions {
		if t.sub.Collection != name || !t.sub.Persisted || seq <= t.afterSeq {
			continue
		}
		if t.sub.Confirm(at) {
			confirmed++
		}
	}
	return confirmed
}

// AddProperty shows the property immediately and persists it in the background.
// DateAdded is set to the current local date. The returned submission
// tracks the write.
func (s *Store) AddProperty(ctx context.Context, p *models.Property) (*models.Submission, error) {
	property := *p
	property.DateAdded = models.DateOf(s.now())
	row := property.InsertRow()

	sub, err := addOptimistic(s, &s.properties, &property, OwnerFromContext(ctx))
	if err != nil {
		return nil, err
	}

	go s.persist(ctx, sub.ID, &s.properties.issued, AlertMessage(models.CollectionProperties),
		func(ctx context.Context) error { return s.propertyRepo.Insert(ctx, row) },
		s.FetchProperties,
	)

	return sub, nil
}

// AddClient shows the client immediately and persists it in the background
func (s *Store) AddClient(ctx context.Context, c *models.Client) (*models.Submission, error) {
	client := *c
	row := client.InsertRow()

	sub, err := addOptimistic(s, &s.clients, &client, OwnerFromContext(ctx))
	if err != nil {
		return nil, err
	}

	go s.persist(ctx, sub.ID, &s.clients.issued, AlertMessage(models.CollectionClients),
		func(ctx context.Context) error { return s.clientRepo.Insert(ctx, row) },
		s.FetchClients,
	)

	return sub, nil
}

// addOptimistic prepends item and registers a pending submission.
// The write is counted in s.writes before the lock is released.
func addOptimistic[T any](s *Store, c *collection[T], item *T, owner string) (*models.Submission, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, models.ErrStoreClosed
	}

	items := make([]*T, 0, len(c.items)+1)
	items = append(items, item)
	c.items = append(items, c.items...)

	sub := &models.Submission{
		ID:          uuid.NewString(),
		Collection:  c.name,
		Owner:       owner,
		State:       models.SubmissionPending,
		SubmittedAt: s.now(),
	}
	s.trackLocked(sub)
	s.writes.Add(1)
	view := s.view
	snapshot := *sub
	s.mu.Unlock()

	s.logger.Info("record added locally",
		slog.String("collection", c.name),
		slog.String("submission_id", sub.ID),
	)

	if view != nil {
		view.Refresh(c.view)
	}

	return &snapshot, nil
}

// persist runs the remote insert detached from the caller and either
// reconciles or alerts. Once issued, the write is not cancellable.
func (s *Store) persist(
	ctx context.Context,
	subID string,
	issued *uint64,
	alert string,
	insert func(context.Context) error,
	reconcile func(context.Context),
) {
	defer s.writes.Done()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	err := insert(writeCtx)

	s.mu.Lock()
	t := s.submissions[subID]
	if err != nil {
		orphaned := models.Submission{ID: subID, State: models.SubmissionOrphaned}
		if t != nil {
			t.sub.Orphan(s.now(), err)
			orphaned = *t.sub
		}
		view := s.view
		s.mu.Unlock()

		s.logger.Error("failed to persist record",
			slog.String("submission_id", subID),
			slog.String("error", err.Error()),
		)
		if view != nil {
			view.Alert(&orphaned, alert)
		} else {
			s.logger.Warn("no view attached, alert not shown",
				slog.String("submission_id", subID),
			)
		}
		return
	}
	if t != nil {
		t.sub.MarkPersisted()
		t.afterSeq = *issued
	}
	s.mu.Unlock()

	s.logger.Info("record persisted",
		slog.String("submission_id", subID),
	)

	reconcile(writeCtx)
}

func (s *Store) trackLocked(sub *models.Submission) {
	s.submissions[sub.ID] = &trackedSubmission{sub: sub}
	s.order = append(s.order, sub.ID)

	if len(s.order) <= maxTrackedSubmissions {
		return
	}
	kept := s.order[:0]
	excess := len(s.order) - maxTrackedSubmissions
	for _, id := range s.order {
		if excess > 0 && s.submissions[id].sub.IsResolved() {
			delete(s.submissions, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Properties returns a copy of the local properties, newest first
func (s *Store) Properties() []*models.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.properties.items)
}

// Clients returns a copy of the local clients, newest first
func (s *Store) Clients() []*models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.clients.items)
}

func cloneItems[T any](items []*T) []*T {
	out := make([]*T, len(items))
	for i, item := range items {
		v := *item
		out[i] = &v
	}
	return out
}

// Stats computes the dashboard aggregates from the local collections.
// Rentals never count towards the total value.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.ComputeStats(s.properties.items, len(s.clients.items))
}

// Submission returns a snapshot of the tracked submission
func (s *Store) Submission(id string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.submissions[id]
	if !ok {
		return nil, models.ErrNotFoundWithMsg("submission not found")
	}
	snapshot := *t.sub
	return &snapshot, nil
}

// Submissions returns snapshots of all tracked submissions, oldest first
func (s *Store) Submissions() []*models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Submission, 0, len(s.order))
	for _, id := range s.order {
		snapshot := *s.submissions[id].sub
		out = append(out, &snapshot)
	}
	return out
}

// Wait blocks until every background write and its reconciliation finished
func (s *Store) Wait() {
	s.writes.Wait()
}

// Close rejects further adds and waits for in-flight writes
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.writes.Wait()
	s.logger.Info("store closed")
}
