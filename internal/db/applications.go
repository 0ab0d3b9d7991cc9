package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"autoapply/internal/models"
)

// jobColumns is the standard column list for ledger queries.
const jobColumns = `id, draft_filename, company, position, fit_score, confidence_score,
	status, contact_email, contact_name, contact_phone, job_url, source,
	created_date, applied_date, response_date, notes`

// scanJob scans a row into a JobApplication struct.
func scanJob(row pgx.Row) (*models.JobApplication, error) {
	var job models.JobApplication
	err := row.Scan(
		&job.ID,
		&job.DraftFilename,
		&job.Company,
		&job.Position,
		&job.FitScore,
		&job.ConfidenceScore,
		&job.Status,
		&job.ContactEmail,
		&job.ContactName,
		&job.ContactPhone,
		&job.JobURL,
		&job.Source,
		&job.CreatedDate,
		&job.AppliedDate,
		&job.ResponseDate,
		&job.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// scanJobs scans multiple rows into a slice of JobApplications.
func scanJobs(rows pgx.Rows) ([]models.JobApplication, error) {
	defer rows.Close()

	var jobs []models.JobApplication
	for rows.Next() {
		var job models.JobApplication
		if err := rows.Scan(
			&job.ID,
			&job.DraftFilename,
			&job.Company,
			&job.Position,
			&job.FitScore,
			&job.ConfidenceScore,
			&job.Status,
			&job.ContactEmail,
			&job.ContactName,
			&job.ContactPhone,
			&job.JobURL,
			&job.Source,
			&job.CreatedDate,
			&job.AppliedDate,
			&job.ResponseDate,
			&job.Notes,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// AddJob inserts a new pending application. If the draft filename already
// exists the insert resolves to the existing row's id instead of failing, so
// re-running a crashed batch lands on the same record.
func (d *DB) AddJob(ctx context.Context, cand *models.Candidate) (uuid.UUID, error) {
	query := `
		INSERT INTO job_statuses
			(draft_filename, company, position, fit_score, confidence_score,
			 contact_email, contact_name, contact_phone, job_url, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
		ON CONFLICT (draft_filename) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := d.Pool.QueryRow(ctx, query,
		cand.DraftFilename,
		cand.Company,
		cand.Position,
		cand.FitScore,
		cand.ConfidenceScore,
		cand.ContactEmail,
		cand.ContactName,
		cand.ContactPhone,
		cand.JobURL,
		cand.Source,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: fetch the existing identity.
		err = d.Pool.QueryRow(ctx,
			"SELECT id FROM job_statuses WHERE draft_filename = $1",
			cand.DraftFilename,
		).Scan(&id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to fetch existing job: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetJobByDraft returns the application with the given draft filename.
func (d *DB) GetJobByDraft(ctx context.Context, draftFilename string) (*models.JobApplication, error) {
	query := "SELECT " + jobColumns + " FROM job_statuses WHERE draft_filename = $1"
	return scanJob(d.Pool.QueryRow(ctx, query, draftFilename))
}

// UpdateStatus moves an application through the state machine. The applied
// and response dates are stamped exactly once, on the transition that reaches
// them. Terminal records cannot move; invalid moves return
// ErrInvalidTransition.
func (d *DB) UpdateStatus(ctx context.Context, draftFilename string, newStatus models.Status, note string, at time.Time) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current models.Status
	err = tx.QueryRow(ctx,
		"SELECT status FROM job_statuses WHERE draft_filename = $1 FOR UPDATE",
		draftFilename,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return err
	}

	if !current.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, newStatus)
	}

	query := `
		UPDATE job_statuses
		SET status = $2,
			applied_date = CASE WHEN $3 THEN COALESCE(applied_date, $5) ELSE applied_date END,
			response_date = CASE WHEN $4 THEN COALESCE(response_date, $5) ELSE response_date END,
			notes = CASE WHEN $6 = '' THEN notes
				WHEN notes = '' THEN $6
				ELSE notes || E'\n' || $6 END
		WHERE draft_filename = $1
	`
	_, err = tx.Exec(ctx, query,
		draftFilename,
		newStatus,
		newStatus == models.StatusApplied,
		newStatus.IsTerminal(),
		at,
		note,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AppendNote appends free text to an application's notes.
func (d *DB) AppendNote(ctx context.Context, draftFilename, note string) error {
	query := `
		UPDATE job_statuses
		SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END
		WHERE draft_filename = $1
	`
	tag, err := d.Pool.Exec(ctx, query, draftFilename, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RevertToPending undoes an applied transition after the submission
// collaborator reported a failure. This is the single sanctioned exception to
// the write-once applied_date: the date is cleared so the rate limiter stops
// counting a submission that never happened.
func (d *DB) RevertToPending(ctx context.Context, draftFilename, reason string) error {
	query := `
		UPDATE job_statuses
		SET status = 'pending',
			applied_date = NULL,
			notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END
		WHERE draft_filename = $1 AND status = 'applied'
	`
	note := "submission failed, reverted to pending: " + reason
	tag, err := d.Pool.Exec(ctx, query, draftFilename, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := d.GetJobByDraft(ctx, draftFilename); err != nil {
			return err
		}
		return ErrNotApplied
	}
	return nil
}

// statusRankOrder builds the listing ORDER BY expression from the status
// ranking on the model, so the SQL ordering cannot drift from it.
func statusRankOrder() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, s := range []models.Status{
		models.StatusPending,
		models.StatusApplied,
		models.StatusDenied,
		models.StatusAccepted,
		models.StatusNoResponse,
	} {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, s.Rank())
	}
	b.WriteString(" ELSE 6 END")
	return b.String()
}

// GetJobsByStatus returns applications with the given status, newest first.
// With a nil filter it returns everything, ordered so the most actionable
// work surfaces first: pending, then applied, then closed.
func (d *DB) GetJobsByStatus(ctx context.Context, status *models.Status) ([]models.JobApplication, error) {
	var rows pgx.Rows
	var err error

	if status != nil {
		query := "SELECT " + jobColumns + ` FROM job_statuses
			WHERE status = $1
			ORDER BY created_date DESC`
		rows, err = d.Pool.Query(ctx, query, *status)
	} else {
		query := "SELECT " + jobColumns + ` FROM job_statuses
			ORDER BY ` + statusRankOrder() + `, created_date DESC`
		rows, err = d.Pool.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	return scanJobs(rows)
}

// CountRecentApplied counts applications whose applied_date falls at or after
// the given instant. The rate limiter recomputes its windows from this on
// every check instead of keeping its own counters.
func (d *DB) CountRecentApplied(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM job_statuses WHERE applied_date IS NOT NULL AND applied_date >= $1",
		since,
	).Scan(&count)
	return count, err
}

// CheckDuplicate looks for an application to the same company and position,
// compared case-insensitively. An active (pending or applied) match always
// blocks. When cooldown is non-zero, a closed application whose last activity
// falls inside the window also blocks. The pending row identified by
// excludeDraft is ignored: a candidate under evaluation must not collide with
// the ledger row the pipeline just created for it, while its own row in
// applied status still blocks a re-run.
func (d *DB) CheckDuplicate(ctx context.Context, company, position, excludeDraft string, cooldown time.Duration, now time.Time) (*models.DuplicateMatch, error) {
	query := `
		SELECT status, COALESCE(applied_date, created_date)
		FROM job_statuses
		WHERE LOWER(company) = LOWER($1)
		AND LOWER(position) = LOWER($2)
		AND status IN ('pending', 'applied')
		AND NOT (draft_filename = $3 AND status = 'pending')
		ORDER BY created_date DESC
		LIMIT 1
	`
	var match models.DuplicateMatch
	err := d.Pool.QueryRow(ctx, query, company, position, excludeDraft).Scan(&match.Status, &match.Date)
	if err == nil {
		return &match, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if cooldown <= 0 {
		return nil, nil
	}

	// Optional cooldown layer over closed applications.
	cooldownQuery := `
		SELECT status, COALESCE(response_date, applied_date, created_date)
		FROM job_statuses
		WHERE LOWER(company) = LOWER($1)
		AND LOWER(position) = LOWER($2)
		AND status IN ('denied', 'accepted', 'no_response')
		AND COALESCE(response_date, applied_date, created_date) >= $3
		ORDER BY created_date DESC
		LIMIT 1
	`
	err = d.Pool.QueryRow(ctx, cooldownQuery, company, position, now.Add(-cooldown)).Scan(&match.Status, &match.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetStats summarizes the ledger for the reporting surface.
func (d *DB) GetStats(ctx context.Context) (*models.Stats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'applied'),
			COUNT(*) FILTER (WHERE status = 'denied'),
			COALESCE(AVG(fit_score), 0)::int
		FROM job_statuses
	`
	var stats models.Stats
	err := d.Pool.QueryRow(ctx, query).Scan(&stats.Pending, &stats.Applied, &stats.Denied, &stats.AvgFitScore)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
