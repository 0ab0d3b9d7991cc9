package validation

import (
	"fmt"
	"strings"

	"autoapply/internal/models"
)

// NormalizeName lowercases and trims a company name or keyword so set
// membership and equality checks are case-insensitive.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateCandidate checks the required fields of a scanner-supplied
// candidate. Candidates are untrusted input; a malformed one is skipped and
// logged, never inserted.
func ValidateCandidate(cand *models.Candidate) error {
	if strings.TrimSpace(cand.DraftFilename) == "" {
		return fmt.Errorf("draft_filename is required")
	}
	if strings.TrimSpace(cand.Company) == "" {
		return fmt.Errorf("company is required")
	}
	if strings.TrimSpace(cand.Position) == "" {
		return fmt.Errorf("position is required")
	}
	if cand.FitScore < 0 || cand.FitScore > 100 {
		return fmt.Errorf("fit_score must be between 0 and 100, got %d", cand.FitScore)
	}
	if cand.ConfidenceScore < 0 || cand.ConfidenceScore > 100 {
		return fmt.Errorf("confidence_score must be between 0 and 100, got %d", cand.ConfidenceScore)
	}
	return nil
}
