package db

import (
	"context"
	"time"

	"autoapply/internal/models"
)

// GetKillSwitch reads the persisted kill-switch state. Callers must not cache
// the result: the whole point of the switch is that flipping it is observed
// by the very next evaluation.
func (d *DB) GetKillSwitch(ctx context.Context) (*models.KillSwitchState, error) {
	var state models.KillSwitchState
	err := d.Pool.QueryRow(ctx,
		"SELECT active, reason, activated_at FROM kill_switch WHERE id = TRUE",
	).Scan(&state.Active, &state.Reason, &state.ActivatedAt)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ActivateKillSwitch halts all autonomous submissions. The single-row UPDATE
// is atomic, so concurrent readers see either the old state or the new one,
// never a half-written record.
func (d *DB) ActivateKillSwitch(ctx context.Context, reason string, at time.Time) error {
	_, err := d.Pool.Exec(ctx,
		"UPDATE kill_switch SET active = TRUE, reason = $1, activated_at = $2 WHERE id = TRUE",
		reason, at)
	return err
}

// DeactivateKillSwitch re-enables autonomous submissions.
func (d *DB) DeactivateKillSwitch(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx,
		"UPDATE kill_switch SET active = FALSE, reason = '', activated_at = NULL WHERE id = TRUE")
	return err
}
