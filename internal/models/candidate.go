package models

// Candidate is a scored job found by the scanning collaborator. It is
// untrusted input: required fields are validated before insertion.
type Candidate struct {
	DraftFilename   string  `json:"draft_filename"`
	Company         string  `json:"company"`
	Position        string  `json:"position"`
	Title           string  `json:"title"` // raw posting title; empty falls back to Position
	FitScore        int     `json:"fit_score"`
	ConfidenceScore int     `json:"confidence_score"`
	ContactEmail    *string `json:"contact_email"`
	ContactName     *string `json:"contact_name"`
	ContactPhone    *string `json:"contact_phone"`
	JobURL          *string `json:"job_url"`
	Source          *string `json:"source"`
}
