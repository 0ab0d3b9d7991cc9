package db

import (
	"context"

	"autoapply/internal/models"
)

// AppendAudit records one gate evaluation in the audit table.
func (d *DB) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO evaluation_audit
			(draft_filename, company, position, fit_score, confidence_score,
			 approved, reason_code, message, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.DraftFilename,
		entry.Company,
		entry.Position,
		entry.FitScore,
		entry.ConfidenceScore,
		entry.Approved,
		entry.ReasonCode,
		entry.Message,
		entry.EvaluatedAt,
	)
	return err
}

// RecentAudit returns the latest audit entries, newest first.
func (d *DB) RecentAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT draft_filename, company, position, fit_score, confidence_score,
			approved, reason_code, message, evaluated_at
		FROM evaluation_audit
		ORDER BY evaluated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(
			&e.DraftFilename,
			&e.Company,
			&e.Position,
			&e.FitScore,
			&e.ConfidenceScore,
			&e.Approved,
			&e.ReasonCode,
			&e.Message,
			&e.EvaluatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
