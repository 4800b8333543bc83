package models

import "time"

// Collection names, identical to the remote table names
const (
	CollectionProperties = "properties"
	CollectionClients    = "clients"
)

// Submission state constants
const (
	SubmissionPending   = "pending"
	SubmissionConfirmed = "confirmed"
	SubmissionOrphaned  = "orphaned"
)

// Submission tracks one optimistic add from the moment it is shown
// locally until the remote service confirms it or the write fails.
type Submission struct {
	ID          string     `json:"id"`
	Collection  string     `json:"collection"`
	Owner       string     `json:"owner,omitempty"`
	State       string     `json:"state"`
	Persisted   bool       `json:"persisted"`
	LastError   *string    `json:"last_error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// IsResolved reports whether the submission reached a terminal state
func (s *Submission) IsResolved() bool {
	return s.State == SubmissionConfirmed || s.State == SubmissionOrphaned
}

// MarkPersisted records a successful remote insert
func (s *Submission) MarkPersisted() {
	if s.State == SubmissionPending {
		s.Persisted = true
	}
}

// Confirm moves a persisted pending submission to confirmed.
// It returns false when the transition does not apply.
func (s *Submission) Confirm(at time.Time) bool {
	if s.State != SubmissionPending || !s.Persisted {
		return false
	}
	s.State = SubmissionConfirmed
	s.ResolvedAt = &at
	return true
}

// Orphan moves a pending submission to orphaned after a failed write
func (s *Submission) Orphan(at time.Time, cause error) bool {
	if s.State != SubmissionPending {
		return false
	}
	s.State = SubmissionOrphaned
	s.ResolvedAt = &at
	if cause != nil {
		msg := cause.Error()
		s.LastError = &msg
	}
	return true
}
