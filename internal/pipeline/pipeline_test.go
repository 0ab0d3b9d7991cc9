package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"autoapply/internal/models"
	"autoapply/internal/safety"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeBackend is an in-memory stand-in for the database, implementing the
// ledger, the safety store, and the run locker against one shared state so
// approvals immediately consume rate-limit headroom like the real thing.
type fakeBackend struct {
	jobs       map[string]*models.JobApplication
	killSwitch models.KillSwitchState
	audit      []models.AuditEntry
	lockBusy   bool
	lockCount  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{jobs: make(map[string]*models.JobApplication)}
}

func (b *fakeBackend) AddJob(ctx context.Context, cand *models.Candidate) (uuid.UUID, error) {
	if job, ok := b.jobs[cand.DraftFilename]; ok {
		return job.ID, nil
	}
	job := &models.JobApplication{
		ID:              uuid.New(),
		DraftFilename:   cand.DraftFilename,
		Company:         cand.Company,
		Position:        cand.Position,
		FitScore:        cand.FitScore,
		ConfidenceScore: cand.ConfidenceScore,
		Status:          models.StatusPending,
		CreatedDate:     time.Now(),
	}
	b.jobs[cand.DraftFilename] = job
	return job.ID, nil
}

func (b *fakeBackend) GetJobByDraft(ctx context.Context, draft string) (*models.JobApplication, error) {
	job, ok := b.jobs[draft]
	if !ok {
		return nil, errors.New("not found")
	}
	dup := *job
	return &dup, nil
}

func (b *fakeBackend) UpdateStatus(ctx context.Context, draft string, newStatus models.Status, note string, at time.Time) error {
	job, ok := b.jobs[draft]
	if !ok {
		return errors.New("not found")
	}
	if !job.Status.CanTransitionTo(newStatus) {
		return errors.New("invalid transition")
	}
	job.Status = newStatus
	if newStatus == models.StatusApplied && job.AppliedDate == nil {
		t := at
		job.AppliedDate = &t
	}
	if note != "" {
		job.Notes = appendNote(job.Notes, note)
	}
	return nil
}

func (b *fakeBackend) AppendNote(ctx context.Context, draft, note string) error {
	job, ok := b.jobs[draft]
	if !ok {
		return errors.New("not found")
	}
	job.Notes = appendNote(job.Notes, note)
	return nil
}

func (b *fakeBackend) RevertToPending(ctx context.Context, draft, reason string) error {
	job, ok := b.jobs[draft]
	if !ok {
		return errors.New("not found")
	}
	if job.Status != models.StatusApplied {
		return errors.New("not applied")
	}
	job.Status = models.StatusPending
	job.AppliedDate = nil
	job.Notes = appendNote(job.Notes, "reverted: "+reason)
	return nil
}

func (b *fakeBackend) GetJobsByStatus(ctx context.Context, status *models.Status) ([]models.JobApplication, error) {
	var out []models.JobApplication
	for _, job := range b.jobs {
		if status == nil || job.Status == *status {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetKillSwitch(ctx context.Context) (*models.KillSwitchState, error) {
	ks := b.killSwitch
	return &ks, nil
}

func (b *fakeBackend) IsBlacklisted(ctx context.Context, company, title string) (bool, error) {
	return false, nil
}

func (b *fakeBackend) CheckDuplicate(ctx context.Context, company, position, excludeDraft string, cooldown time.Duration, now time.Time) (*models.DuplicateMatch, error) {
	for _, job := range b.jobs {
		if !strings.EqualFold(job.Company, company) || !strings.EqualFold(job.Position, position) {
			continue
		}
		if job.Status == models.StatusPending && job.DraftFilename == excludeDraft {
			continue
		}
		if job.Status == models.StatusPending || job.Status == models.StatusApplied {
			return &models.DuplicateMatch{Status: job.Status, Date: job.CreatedDate}, nil
		}
	}
	return nil, nil
}

func (b *fakeBackend) CountRecentApplied(ctx context.Context, since time.Time) (int, error) {
	count := 0
	for _, job := range b.jobs {
		if job.AppliedDate != nil && !job.AppliedDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (b *fakeBackend) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	b.audit = append(b.audit, *entry)
	return nil
}

func (b *fakeBackend) AcquireRunLock(ctx context.Context) (func(), bool, error) {
	if b.lockBusy {
		return nil, false, nil
	}
	b.lockBusy = true
	b.lockCount++
	return func() { b.lockBusy = false }, true, nil
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishApplicationApproved(ctx context.Context, job *models.JobApplication) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, job.DraftFilename)
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) NotifyApplicationSent(job *models.JobApplication) {
	n.sent = append(n.sent, job.DraftFilename)
}

func testPipeline(backend *fakeBackend, publisher Publisher, notifier Notifier) *Pipeline {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	gate := safety.NewGate(backend, clock, safety.Thresholds{
		MinFitScore:   80,
		MinConfidence: 85,
		MaxPerHour:    3,
		MaxPerDay:     10,
	})
	return New(backend, backend, gate, clock, publisher, notifier)
}

func candidate(draft, company string, fit, confidence int) models.Candidate {
	return models.Candidate{
		DraftFilename:   draft,
		Company:         company,
		Position:        "Software Engineer",
		FitScore:        fit,
		ConfidenceScore: confidence,
	}
}

func TestProcess_Approval(t *testing.T) {
	backend := newFakeBackend()
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}
	pipe := testPipeline(backend, publisher, notifier)

	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)
	verdict, err := pipe.Process(context.Background(), &cand)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !verdict.Approved {
		t.Fatalf("Process() rejected: %s (%s)", verdict.ReasonCode, verdict.Message)
	}

	job := backend.jobs["drafts/acme.md"]
	if job.Status != models.StatusApplied {
		t.Errorf("status = %q, want applied", job.Status)
	}
	if job.AppliedDate == nil {
		t.Error("applied_date not stamped")
	}
	if len(publisher.published) != 1 || publisher.published[0] != "drafts/acme.md" {
		t.Errorf("published = %v, want the approved draft", publisher.published)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifications = %v, want one", notifier.sent)
	}
	if len(backend.audit) != 1 || !backend.audit[0].Approved {
		t.Errorf("audit = %+v, want one approved entry", backend.audit)
	}
}

func TestProcess_Rejection(t *testing.T) {
	backend := newFakeBackend()
	publisher := &fakePublisher{}
	pipe := testPipeline(backend, publisher, nil)

	cand := candidate("drafts/weak.md", "Acme Corp", 50, 95)
	verdict, err := pipe.Process(context.Background(), &cand)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if verdict.Approved {
		t.Fatal("Process() approved a low-fit candidate")
	}

	job := backend.jobs["drafts/weak.md"]
	if job.Status != models.StatusPending {
		t.Errorf("status = %q, want pending (rejected candidates stay tracked)", job.Status)
	}
	if !strings.Contains(job.Notes, safety.ReasonFitScoreLow) {
		t.Errorf("notes = %q, want rejection reason recorded", job.Notes)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published = %v, want none", publisher.published)
	}
}

func TestProcess_InvalidCandidate(t *testing.T) {
	backend := newFakeBackend()
	pipe := testPipeline(backend, nil, nil)

	cand := candidate("", "Acme Corp", 90, 95)
	_, err := pipe.Process(context.Background(), &cand)
	if !errors.Is(err, ErrInvalidCandidate) {
		t.Errorf("Process() error = %v, want ErrInvalidCandidate", err)
	}
	if len(backend.jobs) != 0 {
		t.Error("malformed candidate reached the ledger")
	}
}

func TestProcess_LockBusy(t *testing.T) {
	backend := newFakeBackend()
	backend.lockBusy = true
	pipe := testPipeline(backend, nil, nil)

	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)
	_, err := pipe.Process(context.Background(), &cand)
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Process() error = %v, want ErrRunInProgress", err)
	}
}

func TestProcess_PublishFailureLeavesPending(t *testing.T) {
	backend := newFakeBackend()
	publisher := &fakePublisher{err: errors.New("nats down")}
	notifier := &fakeNotifier{}
	pipe := testPipeline(backend, publisher, notifier)

	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)
	_, err := pipe.Process(context.Background(), &cand)
	if err == nil {
		t.Fatal("Process() succeeded despite a failed hand-off")
	}

	job := backend.jobs["drafts/acme.md"]
	if job.Status != models.StatusPending {
		t.Errorf("status = %q, want pending so a later run retries", job.Status)
	}
	if job.AppliedDate != nil {
		t.Error("applied_date stamped for a submission that never happened")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("notifications = %v, want none", notifier.sent)
	}
}

func TestProcessBatch_RateLimitAcrossBatch(t *testing.T) {
	backend := newFakeBackend()
	pipe := testPipeline(backend, nil, nil)

	cands := []models.Candidate{
		candidate("drafts/a.md", "Alpha", 90, 95),
		candidate("drafts/b.md", "Beta", 90, 95),
		candidate("drafts/c.md", "Gamma", 90, 95),
		candidate("drafts/d.md", "Delta", 90, 95),
		candidate("drafts/e.md", "Epsilon", 90, 95),
	}

	results, err := pipe.ProcessBatch(context.Background(), cands)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("ProcessBatch() = %d results, want 5", len(results))
	}

	approved := 0
	for _, r := range results {
		if r.Verdict.Approved {
			approved++
		}
	}
	if approved != 3 {
		t.Errorf("approved = %d, want 3 (hourly limit)", approved)
	}
	for _, r := range results[3:] {
		if r.Verdict.ReasonCode != safety.ReasonRateLimitExceeded {
			t.Errorf("%s reason = %q, want %q", r.DraftFilename, r.Verdict.ReasonCode, safety.ReasonRateLimitExceeded)
		}
	}
	if backend.lockCount != 1 {
		t.Errorf("lock acquired %d times, want once for the whole batch", backend.lockCount)
	}
}

func TestProcessBatch_DuplicateWithinBatch(t *testing.T) {
	backend := newFakeBackend()
	pipe := testPipeline(backend, nil, nil)

	cands := []models.Candidate{
		candidate("drafts/first.md", "Acme Corp", 90, 95),
		candidate("drafts/second.md", "Acme Corp", 95, 95),
	}

	results, err := pipe.ProcessBatch(context.Background(), cands)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if !results[0].Verdict.Approved {
		t.Fatalf("first candidate rejected: %s", results[0].Verdict.Message)
	}
	if results[1].Verdict.ReasonCode != safety.ReasonDuplicate {
		t.Errorf("second candidate reason = %q, want %q", results[1].Verdict.ReasonCode, safety.ReasonDuplicate)
	}
}

func TestProcess_KillSwitchBlocks(t *testing.T) {
	backend := newFakeBackend()
	backend.killSwitch = models.KillSwitchState{Active: true, Reason: "halted"}
	pipe := testPipeline(backend, nil, nil)

	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)
	verdict, err := pipe.Process(context.Background(), &cand)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if verdict.ReasonCode != safety.ReasonKillSwitchActive {
		t.Errorf("reason = %q, want %q", verdict.ReasonCode, safety.ReasonKillSwitchActive)
	}
}

func TestReportSubmissionFailure(t *testing.T) {
	backend := newFakeBackend()
	pipe := testPipeline(backend, nil, nil)

	cand := candidate("drafts/acme.md", "Acme Corp", 90, 95)
	if _, err := pipe.Process(context.Background(), &cand); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if err := pipe.ReportSubmissionFailure(context.Background(), "drafts/acme.md", "captcha wall"); err != nil {
		t.Fatalf("ReportSubmissionFailure() error = %v", err)
	}

	job := backend.jobs["drafts/acme.md"]
	if job.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if job.AppliedDate != nil {
		t.Error("applied_date not cleared on revert")
	}
}
