package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job application.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApplied    Status = "applied"
	StatusDenied     Status = "denied"
	StatusAccepted   Status = "accepted"
	StatusNoResponse Status = "no_response"
)

// ParseStatus validates a raw status string. Unknown values are rejected here
// so they can never reach the ledger.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApplied, StatusDenied, StatusAccepted, StatusNoResponse:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsTerminal reports whether a status can never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDenied, StatusAccepted, StatusNoResponse:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Transitions are monotonic: pending -> applied -> terminal, with
// pending -> terminal also allowed (an application closed without ever being
// auto-submitted).
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusApplied || next.IsTerminal()
	case StatusApplied:
		return next.IsTerminal()
	}
	return false
}

// Rank orders statuses for the default listing: most actionable first.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusApplied:
		return 2
	case StatusDenied:
		return 3
	case StatusAccepted:
		return 4
	}
	return 5
}

// JobApplication is one row in the ledger. DraftFilename is the natural key;
// re-inserting the same draft resolves to the existing row.
type JobApplication struct {
	ID              uuid.UUID  `json:"id"`
	DraftFilename   string     `json:"draft_filename"`
	Company         string     `json:"company"`
	Position        string     `json:"position"`
	FitScore        int        `json:"fit_score"`
	ConfidenceScore int        `json:"confidence_score"`
	Status          Status     `json:"status"`
	ContactEmail    *string    `json:"contact_email"`
	ContactName     *string    `json:"contact_name"`
	ContactPhone    *string    `json:"contact_phone"`
	JobURL          *string    `json:"job_url"`
	Source          *string    `json:"source"`
	CreatedDate     time.Time  `json:"created_date"`
	AppliedDate     *time.Time `json:"applied_date"`
	ResponseDate    *time.Time `json:"response_date"`
	Notes           string     `json:"notes"`
}

// DuplicateMatch is the result of an active-application lookup for a
// company/position pair.
type DuplicateMatch struct {
	Status Status    `json:"status"`
	Date   time.Time `json:"date"`
}

// Stats summarizes the ledger for the reporting surface.
type Stats struct {
	Pending     int `json:"pending"`
	Applied     int `json:"applied"`
	Denied      int `json:"denied"`
	AvgFitScore int `json:"avg_fit_score"`
}
