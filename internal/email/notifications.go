package email

import (
	"fmt"
	"time"

	"autoapply/internal/config"
	"autoapply/internal/models"
)

// Notifier sends operator alerts for pipeline events.
type Notifier struct {
	service *Service
	cfg     *config.Config
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		service: NewService(cfg),
		cfg:     cfg,
	}
}

// NotifyApplicationSent alerts the operator that an application was handed
// off to the submission collaborator.
func (n *Notifier) NotifyApplicationSent(job *models.JobApplication) {
	if !n.service.IsEnabled() {
		return
	}

	subject := fmt.Sprintf("Application sent: %s", job.Company)
	body := fmt.Sprintf(
		"Position: %s\nCompany: %s\nFit score: %d/100\nConfidence: %d/100\nDraft: %s\n",
		job.Position, job.Company, job.FitScore, job.ConfidenceScore, job.DraftFilename)
	if job.JobURL != nil {
		body += fmt.Sprintf("URL: %s\n", *job.JobURL)
	}

	n.service.SendAsync([]string{n.cfg.OperatorEmail}, subject, body)
}

// NotifyKillSwitchActivated alerts the operator that all autonomous
// submissions were halted.
func (n *Notifier) NotifyKillSwitchActivated(reason string, at time.Time) {
	if !n.service.IsEnabled() {
		return
	}

	subject := "Kill switch activated - all applications stopped"
	body := fmt.Sprintf("Reason: %s\nActivated at: %s\n", reason, at.Format(time.RFC3339))

	n.service.SendAsync([]string{n.cfg.OperatorEmail}, subject, body)
}
