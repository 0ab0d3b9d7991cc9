package safety

import (
	"context"
	"fmt"
	"log"
	"time"

	"autoapply/internal/config"
	"autoapply/internal/models"
)

// Verdict reason codes. Every rejection carries exactly one, named after the
// first check that failed.
const (
	ReasonApproved          = "approved"
	ReasonKillSwitchActive  = "kill_switch_active"
	ReasonBlacklisted       = "blacklisted"
	ReasonFitScoreLow       = "fit_score_below_threshold"
	ReasonConfidenceLow     = "confidence_below_threshold"
	ReasonDuplicate         = "duplicate_application"
	ReasonRateLimitExceeded = "rate_limit_exceeded"
)

// Verdict is the gate's decision for one candidate.
type Verdict struct {
	Approved   bool   `json:"approved"`
	ReasonCode string `json:"reason_code"`
	Message    string `json:"message"`
}

func reject(code, message string) Verdict {
	return Verdict{ReasonCode: code, Message: message}
}

// Store is the persistence the gate consults. All reads hit the store fresh
// on every evaluation; nothing here is cached.
type Store interface {
	GetKillSwitch(ctx context.Context) (*models.KillSwitchState, error)
	IsBlacklisted(ctx context.Context, company, title string) (bool, error)
	CheckDuplicate(ctx context.Context, company, position, excludeDraft string, cooldown time.Duration, now time.Time) (*models.DuplicateMatch, error)
	CountRecentApplied(ctx context.Context, since time.Time) (int, error)
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
}

// Thresholds are the score and quota limits one gate enforces. They are
// passed in explicitly so independent gates can run with different limits.
type Thresholds struct {
	MinFitScore       int
	MinConfidence     int
	MaxPerHour        int
	MaxPerDay         int
	DuplicateCooldown time.Duration
}

// ThresholdsFromConfig builds gate thresholds from the service configuration.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		MinFitScore:       cfg.MinFitScore,
		MinConfidence:     cfg.MinConfidence,
		MaxPerHour:        cfg.MaxPerHour,
		MaxPerDay:         cfg.MaxPerDay,
		DuplicateCooldown: cfg.CooldownWindow(),
	}
}

// Gate composes the kill switch, blacklist, score thresholds, duplicate
// guard, and rate limiter into one ordered verdict function.
type Gate struct {
	store      Store
	clock      Clock
	limiter    *RateLimiter
	thresholds Thresholds
}

// NewGate creates a safety gate with the given thresholds.
func NewGate(store Store, clock Clock, thresholds Thresholds) *Gate {
	return &Gate{
		store:      store,
		clock:      clock,
		limiter:    NewRateLimiter(store, clock, thresholds.MaxPerHour, thresholds.MaxPerDay),
		thresholds: thresholds,
	}
}

// Evaluate runs the ordered safety checks and returns the verdict. The first
// failing check wins, so every rejection has one unambiguous reason. The
// decision is appended to the audit log before it is returned; a verdict that
// could not be recorded is discarded and the gate fails closed, so no
// application is ever handed off without a durable trace of the approval.
func (g *Gate) Evaluate(ctx context.Context, cand *models.Candidate) Verdict {
	verdict := g.evaluate(ctx, cand)

	entry := &models.AuditEntry{
		DraftFilename:   cand.DraftFilename,
		Company:         cand.Company,
		Position:        cand.Position,
		FitScore:        cand.FitScore,
		ConfidenceScore: cand.ConfidenceScore,
		Approved:        verdict.Approved,
		ReasonCode:      verdict.ReasonCode,
		Message:         verdict.Message,
		EvaluatedAt:     g.clock.Now(),
	}
	if err := g.store.AppendAudit(ctx, entry); err != nil {
		return g.failClosed("audit append", err)
	}

	return verdict
}

func (g *Gate) evaluate(ctx context.Context, cand *models.Candidate) Verdict {
	// 1. Kill switch. A store failure here, or in any later check, fails
	// closed: with no trustworthy safety data, nothing may be approved.
	ks, err := g.store.GetKillSwitch(ctx)
	if err != nil {
		return g.failClosed("kill switch check", err)
	}
	if ks.Active {
		msg := "kill switch active"
		if ks.Reason != "" {
			msg += ": " + ks.Reason
		}
		return reject(ReasonKillSwitchActive, msg)
	}

	// 2. Blacklist, before scores: an excluded employer is out no matter how
	// well it matches.
	title := cand.Title
	if title == "" {
		title = cand.Position
	}
	blocked, err := g.store.IsBlacklisted(ctx, cand.Company, title)
	if err != nil {
		return g.failClosed("blacklist check", err)
	}
	if blocked {
		return reject(ReasonBlacklisted, fmt.Sprintf("company %q or title matched the blacklist", cand.Company))
	}

	// 3. Fit score.
	if cand.FitScore < g.thresholds.MinFitScore {
		return reject(ReasonFitScoreLow,
			fmt.Sprintf("fit score %d below threshold %d", cand.FitScore, g.thresholds.MinFitScore))
	}

	// 4. Confidence score.
	if cand.ConfidenceScore < g.thresholds.MinConfidence {
		return reject(ReasonConfidenceLow,
			fmt.Sprintf("confidence %d below threshold %d", cand.ConfidenceScore, g.thresholds.MinConfidence))
	}

	// 5. Duplicate guard.
	match, err := g.store.CheckDuplicate(ctx, cand.Company, cand.Position, cand.DraftFilename, g.thresholds.DuplicateCooldown, g.clock.Now())
	if err != nil {
		return g.failClosed("duplicate check", err)
	}
	if match != nil {
		return reject(ReasonDuplicate,
			fmt.Sprintf("existing %s application to %s / %s from %s",
				match.Status, cand.Company, cand.Position, match.Date.Format(time.RFC3339)))
	}

	// 6. Rate limits, last: only candidates that cleared everything else
	// spend quota headroom.
	rate, err := g.limiter.Check(ctx)
	if err != nil {
		return g.failClosed("rate limit check", err)
	}
	if !rate.Allowed {
		if rate.HourlyExceeded() {
			return reject(ReasonRateLimitExceeded,
				fmt.Sprintf("hourly limit reached (%d/%d)", rate.HourlyCount, g.thresholds.MaxPerHour))
		}
		return reject(ReasonRateLimitExceeded,
			fmt.Sprintf("daily limit reached (%d/%d)", rate.DailyCount, g.thresholds.MaxPerDay))
	}

	return Verdict{Approved: true, ReasonCode: ReasonApproved, Message: "all safety checks passed"}
}

// failClosed converts a store error into a rejection. An unreachable ledger
// is treated like an active kill switch rather than a reason to proceed on
// stale data.
func (g *Gate) failClosed(check string, err error) Verdict {
	log.Printf("Safety store unavailable during %s: %v", check, err)
	return reject(ReasonKillSwitchActive, fmt.Sprintf("safety store unavailable during %s, failing closed", check))
}
