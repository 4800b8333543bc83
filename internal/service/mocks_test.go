package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPropertyRepository is an in-memory remote properties table
type mockPropertyRepository struct {
	mu        sync.Mutex
	rows      []*models.Property
	listErr   error
	insertErr error
	listCalls int
	inserted  []*models.PropertyInsert
	nextID    int64
	// listHook runs after the rows were read, outside the lock
	listHook func(call int)
	// insertGate, when set, holds inserts until it is closed
	insertGate chan struct{}
	calls      *callLog
}

func (m *mockPropertyRepository) List(ctx context.Context) ([]*models.Property, error) {
	m.mu.Lock()
	m.listCalls++
	call := m.listCalls
	hook := m.listHook
	err := m.listErr
	rows := make([]*models.Property, len(m.rows))
	for i, r := range m.rows {
		v := *r
		rows[i] = &v
	}
	m.mu.Unlock()

	if m.calls != nil {
		m.calls.add("list properties")
	}
	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *mockPropertyRepository) Insert(ctx context.Context, row *models.PropertyInsert) error {
	if m.insertGate != nil {
		<-m.insertGate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, row)
	m.nextID++
	created := time.Date(2025, 3, 14, 10, 0, int(m.nextID), 0, time.UTC)
	m.rows = append([]*models.Property{{
		ID:        m.nextID,
		Title:     row.Title,
		Price:     row.Price,
		Area:      row.Area,
		Location:  row.Location,
		Type:      row.Type,
		Status:    row.Status,
		DateAdded: row.DateAdded,
		CreatedAt: &created,
	}}, m.rows...)
	return nil
}

func (m *mockPropertyRepository) setRows(rows []*models.Property) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
}

func (m *mockPropertyRepository) setListErr(err error) {
	m.mu.Lock()
	m.listErr = err
	m.mu.Unlock()
}

func (m *mockPropertyRepository) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// mockClientRepository is an in-memory remote clients table
type mockClientRepository struct {
	mu        sync.Mutex
	rows      []*models.Client
	listErr   error
	insertErr error
	listCalls int
	inserted  []*models.ClientInsert
	nextID    int64
	calls     *callLog
}

func (m *mockClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	m.mu.Lock()
	m.listCalls++
	err := m.listErr
	rows := make([]*models.Client, len(m.rows))
	for i, r := range m.rows {
		v := *r
		rows[i] = &v
	}
	m.mu.Unlock()

	if m.calls != nil {
		m.calls.add("list clients")
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *mockClientRepository) Insert(ctx context.Context, row *models.ClientInsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, row)
	m.nextID++
	m.rows = append([]*models.Client{{
		ID:       m.nextID,
		Name:     row.Name,
		Phone:    row.Phone,
		Budget:   row.Budget,
		Interest: row.Interest,
		Status:   row.Status,
	}}, m.rows...)
	return nil
}

// recordingView captures store notifications
type recordingView struct {
	mu        sync.Mutex
	refreshes []string
	alerts    []string
	alerted   []*models.Submission
	calls     *callLog
}

func (v *recordingView) Refresh(view string) {
	v.mu.Lock()
	v.refreshes = append(v.refreshes, view)
	v.mu.Unlock()
	if v.calls != nil {
		v.calls.add("refresh " + view)
	}
}

func (v *recordingView) Alert(sub *models.Submission, message string) {
	v.mu.Lock()
	v.alerts = append(v.alerts, message)
	v.alerted = append(v.alerted, sub)
	v.mu.Unlock()
}

func (v *recordingView) Alerted() []*models.Submission {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*models.Submission(nil), v.alerted...)
}

func (v *recordingView) Alerts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.alerts...)
}

func (v *recordingView) Refreshes() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.refreshes...)
}

// callLog records the order of collaborator calls
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (c *callLog) add(entry string) {
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.entries...)
}
