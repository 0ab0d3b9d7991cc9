package models

import "time"

// AuditEntry records one gate evaluation, approved or not. Entries are
// appended before the verdict is returned so a crash right after evaluation
// still leaves a trace of what was decided.
type AuditEntry struct {
	DraftFilename   string    `json:"draft_filename"`
	Company         string    `json:"company"`
	Position        string    `json:"position"`
	FitScore        int       `json:"fit_score"`
	ConfidenceScore int       `json:"confidence_score"`
	Approved        bool      `json:"approved"`
	ReasonCode      string    `json:"reason_code"`
	Message         string    `json:"message"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}
