package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"autoapply/internal/db"
	"autoapply/internal/models"
	"autoapply/internal/safety"
	"autoapply/internal/testutil"
)

func integrationPipeline(t *testing.T, clock safety.Clock) (*Pipeline, *db.DB, func()) {
	t.Helper()
	database, cleanup := testutil.TestDB(t)

	gate := safety.NewGate(database, clock, safety.Thresholds{
		MinFitScore:   80,
		MinConfidence: 85,
		MaxPerHour:    3,
		MaxPerDay:     10,
	})
	return New(database, database, gate, clock, nil, nil), database, cleanup
}

func TestPipelineIntegration_EndToEnd(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	pipe, database, cleanup := integrationPipeline(t, clock)
	defer cleanup()

	ctx := context.Background()
	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)

	verdict, err := pipe.Process(ctx, &cand)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !verdict.Approved {
		t.Fatalf("Process() rejected: %s (%s)", verdict.ReasonCode, verdict.Message)
	}

	job, err := database.GetJobByDraft(ctx, "drafts/acme.md")
	if err != nil {
		t.Fatalf("GetJobByDraft() error = %v", err)
	}
	if job.Status != models.StatusApplied {
		t.Errorf("status = %q, want applied", job.Status)
	}
	if job.AppliedDate == nil {
		t.Error("applied_date not stamped")
	}

	// Re-running the same draft hits its own applied row and stays rejected.
	verdict, err = pipe.Process(ctx, &cand)
	if err != nil {
		t.Fatalf("Process() retry error = %v", err)
	}
	if verdict.ReasonCode != safety.ReasonDuplicate {
		t.Errorf("retry reason = %q, want %q", verdict.ReasonCode, safety.ReasonDuplicate)
	}

	entries, err := database.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAudit() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("audit entries = %d, want 2", len(entries))
	}
}

func TestPipelineIntegration_RateWindow(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	pipe, database, cleanup := integrationPipeline(t, clock)
	defer cleanup()

	// Fill the hourly window with three recent submissions.
	for i := 0; i < 3; i++ {
		draft := fmt.Sprintf("drafts/seed_%d.md", i)
		testutil.CreateTestJob(t, database, draft, fmt.Sprintf("Seed Corp %d", i), "Engineer", "pending")
		testutil.MarkApplied(t, database, draft, clock.now.Add(-time.Duration(i+1)*10*time.Minute))
	}

	cand := candidate("drafts/blocked.md", "Acme Corp", 90, 95)
	verdict, err := pipe.Process(context.Background(), &cand)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if verdict.ReasonCode != safety.ReasonRateLimitExceeded {
		t.Fatalf("reason = %q, want %q", verdict.ReasonCode, safety.ReasonRateLimitExceeded)
	}

	// Once the window rolls past the seeds, the same candidate clears.
	clock.now = clock.now.Add(61 * time.Minute)
	verdict, err = pipe.Process(context.Background(), &cand)
	if err != nil {
		t.Fatalf("Process() after rollover error = %v", err)
	}
	if !verdict.Approved {
		t.Errorf("still rejected after window rolled: %s (%s)", verdict.ReasonCode, verdict.Message)
	}
}
