package db

import (
	"context"
	"testing"
	"time"

	"autoapply/internal/models"
)

func TestKillSwitchLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	state, err := db.GetKillSwitch(ctx)
	if err != nil {
		t.Fatalf("GetKillSwitch() error = %v", err)
	}
	if state.Active {
		t.Fatal("kill switch active on a fresh database")
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := db.ActivateKillSwitch(ctx, "suspicious scanner output", at); err != nil {
		t.Fatalf("ActivateKillSwitch() error = %v", err)
	}

	state, err = db.GetKillSwitch(ctx)
	if err != nil {
		t.Fatalf("GetKillSwitch() error = %v", err)
	}
	if !state.Active {
		t.Error("kill switch not active after activation")
	}
	if state.Reason != "suspicious scanner output" {
		t.Errorf("reason = %q, want activation reason", state.Reason)
	}
	if state.ActivatedAt == nil || !state.ActivatedAt.Equal(at) {
		t.Errorf("activated_at = %v, want %v", state.ActivatedAt, at)
	}

	if err := db.DeactivateKillSwitch(ctx); err != nil {
		t.Fatalf("DeactivateKillSwitch() error = %v", err)
	}

	state, err = db.GetKillSwitch(ctx)
	if err != nil {
		t.Fatalf("GetKillSwitch() error = %v", err)
	}
	if state.Active || state.Reason != "" || state.ActivatedAt != nil {
		t.Errorf("state after deactivation = %+v, want cleared", state)
	}
}

func TestAudit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		entry := &models.AuditEntry{
			DraftFilename:   "drafts/a.md",
			Company:         "Acme Corp",
			Position:        "Engineer",
			FitScore:        90,
			ConfidenceScore: 90,
			Approved:        i == 2,
			ReasonCode:      "rate_limit_exceeded",
			Message:         "hourly limit reached",
			EvaluatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if i == 2 {
			entry.ReasonCode = "approved"
			entry.Message = "all safety checks passed"
		}
		if err := db.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("AppendAudit() error = %v", err)
		}
	}

	entries, err := db.RecentAudit(ctx, 2)
	if err != nil {
		t.Fatalf("RecentAudit() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("RecentAudit(2) = %d entries, want 2", len(entries))
	}
	// Newest first.
	if !entries[0].Approved {
		t.Errorf("first entry = %+v, want the newest (approved) decision", entries[0])
	}
	if entries[0].EvaluatedAt.Before(entries[1].EvaluatedAt) {
		t.Error("RecentAudit() not ordered newest first")
	}
}
