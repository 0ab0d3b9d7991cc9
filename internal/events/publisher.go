// Package events publishes approved-application events for the submission
// collaborator over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"autoapply/internal/models"
)

const (
	// ApprovedSubject carries applications cleared by the safety gate. The
	// subscriber performs the actual form submission.
	ApprovedSubject = "jobs.applications.approved"

	connectTimeout = 10 * time.Second
)

// ApplicationApprovedEvent is the wire format handed to the submission
// collaborator.
type ApplicationApprovedEvent struct {
	DraftFilename   string    `json:"draft_filename"`
	Company         string    `json:"company"`
	Position        string    `json:"position"`
	FitScore        int       `json:"fit_score"`
	ConfidenceScore int       `json:"confidence_score"`
	JobURL          *string   `json:"job_url,omitempty"`
	ContactEmail    *string   `json:"contact_email,omitempty"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// Publisher publishes application events to NATS.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher connects to NATS. The connection retries forever in the
// background so a broker restart does not take the pipeline down with it.
func NewPublisher(natsURL string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return &Publisher{nc: nc}, nil
}

// PublishApplicationApproved hands an approved application to the submission
// collaborator. The pipeline treats a publish failure as a failed hand-off
// and leaves the ledger record pending.
func (p *Publisher) PublishApplicationApproved(ctx context.Context, job *models.JobApplication) error {
	event := ApplicationApprovedEvent{
		DraftFilename:   job.DraftFilename,
		Company:         job.Company,
		Position:        job.Position,
		FitScore:        job.FitScore,
		ConfidenceScore: job.ConfidenceScore,
		JobURL:          job.JobURL,
		ContactEmail:    job.ContactEmail,
		ApprovedAt:      time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.nc.Publish(ApprovedSubject, data); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	log.Printf("Published approved application %s (%s / %s)", job.DraftFilename, job.Company, job.Position)
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
