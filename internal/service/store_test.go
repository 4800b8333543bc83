package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/estate-backoffice/internal/events"
	"github.com/Raymond9734/estate-backoffice/internal/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(props *mockPropertyRepository, clients *mockClientRepository) *Store {
	s := NewStore(props, clients, StoreConfig{FetchTimeout: time.Second, WriteTimeout: time.Second}, discardLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func sampleProperty(title string, price float64, typ, status string) *models.Property {
	return &models.Property{
		Title:    title,
		Price:    price,
		Area:     100,
		Location: "X",
		Type:     typ,
		Status:   status,
	}
}

func TestStore_EmptyStats(t *testing.T) {
	s := newTestStore(&mockPropertyRepository{}, &mockClientRepository{})

	assert.Equal(t, models.Stats{}, s.Stats())
	assert.Empty(t, s.Properties())
	assert.Empty(t, s.Clients())
}

func TestStore_AddProperty_Optimistic(t *testing.T) {
	props := &mockPropertyRepository{insertGate: make(chan struct{})}
	s := newTestStore(props, &mockClientRepository{})
	view := &recordingView{}
	s.AttachView(view)

	sub, err := s.AddProperty(context.Background(),
		sampleProperty("A", 1000000, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)

	// visible before the remote insert resolves
	got := s.Properties()
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, models.Date("2025-03-14"), got[0].DateAdded)
	assert.Zero(t, got[0].ID)

	assert.Equal(t, models.SubmissionPending, sub.State)
	assert.Equal(t, models.CollectionProperties, sub.Collection)
	assert.Equal(t, []string{models.ViewProperties}, view.Refreshes())

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalProperties)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 1000000.0, stats.TotalValue)

	close(props.insertGate)
	s.Wait()

	// reconciled with the remote copy
	got = s.Properties()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	require.NotNil(t, got[0].CreatedAt)

	confirmed, err := s.Submission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, confirmed.State)
	assert.True(t, confirmed.Persisted)
	assert.NotNil(t, confirmed.ResolvedAt)

	require.Len(t, props.inserted, 1)
	assert.Equal(t, models.Date("2025-03-14"), props.inserted[0].DateAdded)
	assert.Empty(t, view.Alerts())
}

func TestStore_AddPrependsBeforeExisting(t *testing.T) {
	props := &mockPropertyRepository{
		rows:       []*models.Property{{ID: 7, Title: "Existing", Type: models.PropertyTypeRent}},
		insertGate: make(chan struct{}),
	}
	clients := &mockClientRepository{rows: []*models.Client{{ID: 3, Name: "Old"}}}
	s := newTestStore(props, clients)
	s.Initialize(context.Background())

	_, err := s.AddProperty(context.Background(), sampleProperty("New", 10, models.PropertyTypeSale, models.PropertyStatusSold))
	require.NoError(t, err)
	_, err = s.AddClient(context.Background(), &models.Client{Name: "Mona", Phone: "0100"})
	require.NoError(t, err)

	got := s.Properties()
	require.Len(t, got, 2)
	assert.Equal(t, "New", got[0].Title)
	assert.Equal(t, "Existing", got[1].Title)

	gotClients := s.Clients()
	require.NotEmpty(t, gotClients)
	assert.Equal(t, "Mona", gotClients[0].Name)

	close(props.insertGate)
	s.Wait()
}

func TestStore_AddClient_Optimistic(t *testing.T) {
	clients := &mockClientRepository{}
	s := newTestStore(&mockPropertyRepository{}, clients)

	sub, err := s.AddClient(context.Background(), &models.Client{
		Name: "Sara", Phone: "0100", Interest: models.InterestVilla, Status: models.LeadWarm,
	})
	require.NoError(t, err)

	got := s.Clients()
	require.Len(t, got, 1)
	assert.Equal(t, "Sara", got[0].Name)
	assert.Equal(t, 1, s.Stats().Clients)

	s.Wait()

	got = s.Clients()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	resolved, err := s.Submission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, resolved.State)
	require.Len(t, clients.inserted, 1)
	assert.Equal(t, "0100", clients.inserted[0].Phone)
}

func TestStore_WriteFailure_NoRollbackSingleAlert(t *testing.T) {
	tests := []struct {
		name      string
		add       func(s *Store) (*models.Submission, error)
		wantAlert string
		count     func(s *Store) int
	}{
		{
			name: "property",
			add: func(s *Store) (*models.Submission, error) {
				return s.AddProperty(WithOwner(context.Background(), "agent-1"), sampleProperty("A", 5, models.PropertyTypeSale, models.PropertyStatusAvailable))
			},
			wantAlert: AlertPropertySaveFailed,
			count:     func(s *Store) int { return len(s.Properties()) },
		},
		{
			name: "client",
			add: func(s *Store) (*models.Submission, error) {
				return s.AddClient(WithOwner(context.Background(), "agent-1"), &models.Client{Name: "Sara", Phone: "0100"})
			},
			wantAlert: AlertClientSaveFailed,
			count:     func(s *Store) int { return len(s.Clients()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := &mockPropertyRepository{insertErr: errors.New("permission denied")}
			clients := &mockClientRepository{insertErr: errors.New("permission denied")}
			s := newTestStore(props, clients)
			view := &recordingView{}
			s.AttachView(view)

			sub, err := tt.add(s)
			require.NoError(t, err)
			s.Wait()

			assert.Equal(t, 1, tt.count(s))
			assert.Equal(t, []string{tt.wantAlert}, view.Alerts())
			alerted := view.Alerted()
			require.Len(t, alerted, 1)
			assert.Equal(t, sub.ID, alerted[0].ID)
			assert.Equal(t, "agent-1", alerted[0].Owner)
			assert.Equal(t, models.SubmissionOrphaned, alerted[0].State)

			orphaned, err := s.Submission(sub.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionOrphaned, orphaned.State)
			assert.False(t, orphaned.Persisted)
			require.NotNil(t, orphaned.LastError)
			assert.Contains(t, *orphaned.LastError, "permission denied")

			// no reconciliation after a failed write
			assert.Equal(t, 0, props.listCount())
		})
	}
}

func TestStore_WriteFailureAlertReachesOwnerAfterReconnect(t *testing.T) {
	props := &mockPropertyRepository{insertErr: errors.New("permission denied")}
	s := newTestStore(props, &mockClientRepository{})
	broker := events.NewBroker(discardLogger())
	s.AttachView(broker)

	// the submitting page is between streams while the insert fails
	sub, err := s.AddProperty(WithOwner(context.Background(), "agent-1"), sampleProperty("A", 5, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)
	s.Wait()

	_, other := broker.Subscribe("agent-2")
	_, next := broker.Subscribe("agent-1")

	require.Len(t, next, 1)
	e := <-next
	assert.Equal(t, events.TypeAlert, e.Type)
	assert.Equal(t, AlertPropertySaveFailed, e.Msg)
	assert.Equal(t, sub.ID, e.Submission)
	assert.Empty(t, other)
}

func TestAlertMessage(t *testing.T) {
	assert.Equal(t, AlertPropertySaveFailed, AlertMessage(models.CollectionProperties))
	assert.Equal(t, AlertClientSaveFailed, AlertMessage(models.CollectionClients))
}

func TestStore_FetchReplacesWholeCollection(t *testing.T) {
	props := &mockPropertyRepository{insertErr: errors.New("offline")}
	s := newTestStore(props, &mockClientRepository{})

	_, err := s.AddProperty(context.Background(), sampleProperty("Local only", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)
	s.Wait()

	created := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	remote := []*models.Property{
		{ID: 2, Title: "Second", Type: models.PropertyTypeRent, Status: models.PropertyStatusSold, CreatedAt: &created},
		{ID: 1, Title: "First", Type: models.PropertyTypeSale, Status: models.PropertyStatusAvailable, Price: 300},
	}
	props.setRows(remote)

	s.FetchProperties(context.Background())

	assert.Equal(t, remote, s.Properties())
}

func TestStore_FetchFailureIsSilent(t *testing.T) {
	props := &mockPropertyRepository{rows: []*models.Property{{ID: 1, Title: "Kept"}}}
	clients := &mockClientRepository{rows: []*models.Client{{ID: 1, Name: "Kept"}}}
	s := newTestStore(props, clients)
	view := &recordingView{}
	s.AttachView(view)
	s.Initialize(context.Background())

	props.setListErr(errors.New("timeout"))
	clients.mu.Lock()
	clients.listErr = errors.New("timeout")
	clients.mu.Unlock()

	s.FetchProperties(context.Background())
	s.FetchClients(context.Background())

	require.Len(t, s.Properties(), 1)
	assert.Equal(t, "Kept", s.Properties()[0].Title)
	require.Len(t, s.Clients(), 1)
	assert.Empty(t, view.Alerts())
}

func TestStore_StaleFetchDropped(t *testing.T) {
	old := []*models.Property{{ID: 1, Title: "Old"}}
	fresh := []*models.Property{{ID: 2, Title: "Fresh"}, {ID: 1, Title: "Old"}}

	started := make(chan struct{})
	release := make(chan struct{})
	props := &mockPropertyRepository{rows: old}
	props.listHook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	s := newTestStore(props, &mockClientRepository{})

	done := make(chan struct{})
	go func() {
		s.FetchProperties(context.Background())
		close(done)
	}()
	<-started

	props.setRows(fresh)
	s.FetchProperties(context.Background())
	require.Len(t, s.Properties(), 2)

	close(release)
	<-done

	// the slower, earlier fetch must not overwrite the newer snapshot
	got := s.Properties()
	require.Len(t, got, 2)
	assert.Equal(t, "Fresh", got[0].Title)
}

func TestStore_StatsExcludeRentals(t *testing.T) {
	tests := []struct {
		name string
		rows []*models.Property
		want models.Stats
	}{
		{
			name: "rent never counts towards value",
			rows: []*models.Property{
				sampleProperty("Rent", 5000, models.PropertyTypeRent, models.PropertyStatusAvailable),
				sampleProperty("Rent sold", 7000, models.PropertyTypeRent, models.PropertyStatusSold),
			},
			want: models.Stats{TotalProperties: 2, Available: 1},
		},
		{
			name: "sold sales still count",
			rows: []*models.Property{
				sampleProperty("Sale", 1000000, models.PropertyTypeSale, models.PropertyStatusSold),
				sampleProperty("Sale 2", 250000, models.PropertyTypeSale, models.PropertyStatusAvailable),
				sampleProperty("Rent", 9000, models.PropertyTypeRent, models.PropertyStatusAvailable),
			},
			want: models.Stats{TotalProperties: 3, Available: 2, TotalValue: 1250000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := &mockPropertyRepository{rows: tt.rows}
			s := newTestStore(props, &mockClientRepository{})
			s.FetchProperties(context.Background())

			stats := s.Stats()
			assert.Equal(t, tt.want, stats)
			assert.Equal(t, len(s.Properties()), stats.TotalProperties)
		})
	}
}

func TestStore_InitializeOrder(t *testing.T) {
	calls := &callLog{}
	props := &mockPropertyRepository{calls: calls}
	clients := &mockClientRepository{calls: calls}
	s := newTestStore(props, clients)
	s.AttachView(&recordingView{calls: calls})

	s.Initialize(context.Background())

	assert.Equal(t, []string{
		"list properties",
		"refresh " + models.ViewProperties,
		"list clients",
		"refresh " + models.ViewClients,
		"refresh " + models.ViewDashboard,
	}, calls.all())
}

func TestStore_ReconcileFailureKeepsSubmissionPending(t *testing.T) {
	props := &mockPropertyRepository{listErr: errors.New("read replica down")}
	s := newTestStore(props, &mockClientRepository{})
	view := &recordingView{}
	s.AttachView(view)

	sub, err := s.AddProperty(context.Background(), sampleProperty("A", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)
	s.Wait()

	pending, err := s.Submission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, pending.State)
	assert.True(t, pending.Persisted)
	assert.Empty(t, view.Alerts())

	props.setListErr(nil)
	s.FetchProperties(context.Background())

	confirmed, err := s.Submission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, confirmed.State)
}

func TestStore_ReturnsCopies(t *testing.T) {
	props := &mockPropertyRepository{rows: []*models.Property{{ID: 1, Title: "Original"}}}
	s := newTestStore(props, &mockClientRepository{})
	s.FetchProperties(context.Background())

	got := s.Properties()
	got[0].Title = "Changed"
	got[0] = &models.Property{Title: "Injected"}

	assert.Equal(t, "Original", s.Properties()[0].Title)
	assert.Len(t, s.Properties(), 1)
}

func TestStore_Close(t *testing.T) {
	props := &mockPropertyRepository{insertGate: make(chan struct{})}
	s := newTestStore(props, &mockClientRepository{})

	_, err := s.AddProperty(context.Background(), sampleProperty("A", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight write finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(props.insertGate)
	<-closed

	_, err = s.AddProperty(context.Background(), sampleProperty("B", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	assert.ErrorIs(t, err, models.ErrStoreClosed)
	_, err = s.AddClient(context.Background(), &models.Client{Name: "x", Phone: "y"})
	assert.ErrorIs(t, err, models.ErrStoreClosed)
	assert.Len(t, props.inserted, 1)
}

func TestStore_WriteSurvivesCallerCancellation(t *testing.T) {
	props := &mockPropertyRepository{}
	s := newTestStore(props, &mockClientRepository{})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.AddProperty(ctx, sampleProperty("A", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)
	cancel()
	s.Wait()

	require.Len(t, props.inserted, 1)
	assert.Equal(t, int64(1), s.Properties()[0].ID)
}

func TestStore_Submissions(t *testing.T) {
	s := newTestStore(&mockPropertyRepository{}, &mockClientRepository{})

	first, err := s.AddProperty(context.Background(), sampleProperty("A", 1, models.PropertyTypeSale, models.PropertyStatusAvailable))
	require.NoError(t, err)
	second, err := s.AddClient(context.Background(), &models.Client{Name: "Sara", Phone: "0100"})
	require.NoError(t, err)
	s.Wait()

	all := s.Submissions()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	_, err = s.Submission("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_TrimsResolvedSubmissions(t *testing.T) {
	clients := &mockClientRepository{}
	s := newTestStore(&mockPropertyRepository{}, clients)

	for i := 0; i < maxTrackedSubmissions+10; i++ {
		_, err := s.AddClient(context.Background(), &models.Client{Name: "c", Phone: "p"})
		require.NoError(t, err)
		s.Wait()
	}

	assert.LessOrEqual(t, len(s.Submissions()), maxTrackedSubmissions)
}
