// Package pipeline orchestrates candidate processing: ledger insertion,
// safety-gate evaluation, and hand-off to the submission collaborator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"autoapply/internal/metrics"
	"autoapply/internal/models"
	"autoapply/internal/safety"
	"autoapply/internal/validation"
)

var (
	// ErrRunInProgress is returned when another pipeline run holds the run lock.
	ErrRunInProgress = errors.New("another pipeline run is in progress")

	// ErrInvalidCandidate is returned for malformed scanner input.
	ErrInvalidCandidate = errors.New("invalid candidate")
)

// Ledger is the persistence the pipeline mutates.
type Ledger interface {
	AddJob(ctx context.Context, cand *models.Candidate) (uuid.UUID, error)
	GetJobByDraft(ctx context.Context, draftFilename string) (*models.JobApplication, error)
	UpdateStatus(ctx context.Context, draftFilename string, newStatus models.Status, note string, at time.Time) error
	AppendNote(ctx context.Context, draftFilename, note string) error
	RevertToPending(ctx context.Context, draftFilename, reason string) error
	GetJobsByStatus(ctx context.Context, status *models.Status) ([]models.JobApplication, error)
}

// RunLocker serializes pipeline runs so two concurrent runs cannot both read
// the same rate-limit headroom and overshoot the caps together.
type RunLocker interface {
	AcquireRunLock(ctx context.Context) (release func(), ok bool, err error)
}

// Publisher hands approved applications to the submission collaborator.
type Publisher interface {
	PublishApplicationApproved(ctx context.Context, job *models.JobApplication) error
}

// Notifier alerts the operator after an application was handed off.
type Notifier interface {
	NotifyApplicationSent(job *models.JobApplication)
}

// Result is the outcome of processing one candidate.
type Result struct {
	DraftFilename string         `json:"draft_filename"`
	Verdict       safety.Verdict `json:"verdict"`
	Err           error          `json:"-"`
}

// Pipeline runs scored candidates through the safety gate and records the
// outcome in the ledger.
type Pipeline struct {
	ledger    Ledger
	locker    RunLocker
	gate      *safety.Gate
	clock     safety.Clock
	publisher Publisher
	notifier  Notifier
}

// New creates a pipeline. publisher and notifier may be nil when the
// corresponding collaborator is not configured.
func New(ledger Ledger, locker RunLocker, gate *safety.Gate, clock safety.Clock, publisher Publisher, notifier Notifier) *Pipeline {
	return &Pipeline{
		ledger:    ledger,
		locker:    locker,
		gate:      gate,
		clock:     clock,
		publisher: publisher,
		notifier:  notifier,
	}
}

// Process runs a single candidate under the run lock. Safe to retry: the
// ledger insert is idempotent and an already-applied candidate re-evaluates
// to a stable rejection.
func (p *Pipeline) Process(ctx context.Context, cand *models.Candidate) (safety.Verdict, error) {
	release, ok, err := p.locker.AcquireRunLock(ctx)
	if err != nil {
		return safety.Verdict{}, err
	}
	if !ok {
		return safety.Verdict{}, ErrRunInProgress
	}
	defer release()

	return p.processOne(ctx, cand, false)
}

// ProcessBatch runs a batch of candidates sequentially under one run lock.
// Cancellation between candidates is safe; the next run resumes correctly
// because each candidate's evaluate-then-update is the atomic unit.
func (p *Pipeline) ProcessBatch(ctx context.Context, cands []models.Candidate) ([]Result, error) {
	release, ok, err := p.locker.AcquireRunLock(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer release()

	results := make([]Result, 0, len(cands))
	for i := range cands {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cand := &cands[i]
		verdict, err := p.processOne(ctx, cand, false)
		results = append(results, Result{DraftFilename: cand.DraftFilename, Verdict: verdict, Err: err})
	}
	return results, nil
}

// processOne is the smallest unit of work that must complete atomically.
// quiet suppresses rejection notes during background re-evaluation, which
// would otherwise restate the same reason every interval.
func (p *Pipeline) processOne(ctx context.Context, cand *models.Candidate, quiet bool) (safety.Verdict, error) {
	if err := validation.ValidateCandidate(cand); err != nil {
		log.Printf("Skipping malformed candidate %q: %v", cand.DraftFilename, err)
		return safety.Verdict{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	if _, err := p.ledger.AddJob(ctx, cand); err != nil {
		return safety.Verdict{}, fmt.Errorf("failed to add job: %w", err)
	}

	verdict := p.gate.Evaluate(ctx, cand)
	metrics.RecordDecision(verdict.ReasonCode)

	if !verdict.Approved {
		if !quiet {
			note := fmt.Sprintf("gate rejected (%s): %s", verdict.ReasonCode, verdict.Message)
			if err := p.ledger.AppendNote(ctx, cand.DraftFilename, note); err != nil {
				log.Printf("Failed to record rejection note for %s: %v", cand.DraftFilename, err)
			}
		}
		return verdict, nil
	}

	job, err := p.ledger.GetJobByDraft(ctx, cand.DraftFilename)
	if err != nil {
		return verdict, fmt.Errorf("failed to load job after approval: %w", err)
	}

	// Hand off to the submission collaborator before marking applied. A
	// failed hand-off leaves the record pending so a later run retries it.
	if p.publisher != nil {
		if err := p.publisher.PublishApplicationApproved(ctx, job); err != nil {
			note := "submission hand-off failed: " + err.Error()
			if nerr := p.ledger.AppendNote(ctx, cand.DraftFilename, note); nerr != nil {
				log.Printf("Failed to record hand-off failure for %s: %v", cand.DraftFilename, nerr)
			}
			return verdict, fmt.Errorf("submission hand-off failed: %w", err)
		}
	}

	note := fmt.Sprintf("auto-applied (fit %d, confidence %d)", cand.FitScore, cand.ConfidenceScore)
	if err := p.ledger.UpdateStatus(ctx, cand.DraftFilename, models.StatusApplied, note, p.clock.Now()); err != nil {
		return verdict, fmt.Errorf("failed to mark applied: %w", err)
	}

	if p.notifier != nil {
		job.Status = models.StatusApplied
		p.notifier.NotifyApplicationSent(job)
	}

	return verdict, nil
}

// ReportSubmissionFailure reverts an application the collaborator could not
// actually submit. This is the one place a status transition runs backwards,
// and it is always audited in the record's notes.
func (p *Pipeline) ReportSubmissionFailure(ctx context.Context, draftFilename, reason string) error {
	if err := p.ledger.RevertToPending(ctx, draftFilename, reason); err != nil {
		return err
	}
	log.Printf("Reverted %s to pending after submission failure: %s", draftFilename, reason)
	return nil
}

// Start runs the background loop that periodically re-evaluates pending
// applications, picking up candidates that were previously blocked by a full
// rate window or a since-lifted kill switch.
func (p *Pipeline) Start(ctx context.Context, interval time.Duration) {
	log.Printf("Application pipeline started (interval: %v)", interval)

	p.runPending(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Application pipeline stopped")
			return
		case <-ticker.C:
			p.runPending(ctx)
		}
	}
}

// runPending re-evaluates every pending application in one locked run.
func (p *Pipeline) runPending(ctx context.Context) {
	status := models.StatusPending
	jobs, err := p.ledger.GetJobsByStatus(ctx, &status)
	if err != nil {
		log.Printf("Pipeline: failed to list pending applications: %v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	release, ok, err := p.locker.AcquireRunLock(ctx)
	if err != nil {
		log.Printf("Pipeline: failed to take run lock: %v", err)
		return
	}
	if !ok {
		log.Println("Pipeline: skipping scheduled run, another run is active")
		return
	}
	defer release()

	log.Printf("Pipeline: re-evaluating %d pending applications", len(jobs))

	for i := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cand := candidateFromJob(&jobs[i])
		if _, err := p.processOne(ctx, cand, true); err != nil {
			log.Printf("Pipeline: failed to process %s: %v", cand.DraftFilename, err)
		}
	}
}

// candidateFromJob rebuilds the gate input from a ledger row.
func candidateFromJob(job *models.JobApplication) *models.Candidate {
	return &models.Candidate{
		DraftFilename:   job.DraftFilename,
		Company:         job.Company,
		Position:        job.Position,
		FitScore:        job.FitScore,
		ConfidenceScore: job.ConfidenceScore,
		ContactEmail:    job.ContactEmail,
		ContactName:     job.ContactName,
		ContactPhone:    job.ContactPhone,
		JobURL:          job.JobURL,
		Source:          job.Source,
	}
}
