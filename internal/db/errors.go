package db

import "errors"

// Domain-level database error sentinels.
var (
	// Ledger errors
	ErrJobNotFound       = errors.New("job application not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotApplied        = errors.New("job application is not in applied status")
)
