package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/db"
	"autoapply/internal/models"
	"autoapply/internal/pipeline"
	"autoapply/internal/safety"
)

// JobHandler serves the ledger to reporting collaborators and lets operators
// and the feedback-ingestion collaborator move applications through the
// state machine.
type JobHandler struct {
	db       *db.DB
	pipeline *pipeline.Pipeline
	clock    safety.Clock
}

// NewJobHandler creates a new job handler.
func NewJobHandler(database *db.DB, p *pipeline.Pipeline, clock safety.Clock) *JobHandler {
	return &JobHandler{db: database, pipeline: p, clock: clock}
}

// List returns jobs filtered by ?status=, or the full ordered listing.
func (h *JobHandler) List(c fiber.Ctx) error {
	var filter *models.Status
	if raw := c.Query("status", ""); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		filter = &status
	}

	jobs, err := h.db.GetJobsByStatus(c.Context(), filter)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch jobs")
	}

	return jsonSuccess(c, jobs)
}

// Get returns a single job by draft filename.
func (h *JobHandler) Get(c fiber.Ctx) error {
	job, err := h.db.GetJobByDraft(c.Context(), c.Params("draft"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return jsonError(c, fiber.StatusNotFound, "job not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch job")
	}

	return jsonSuccess(c, job)
}

// UpdateStatus applies a manual status transition, typically a terminal one
// recorded from an employer response.
func (h *JobHandler) UpdateStatus(c fiber.Ctx) error {
	draft := c.Params("draft")

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	status, err := models.ParseStatus(body.Status)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.UpdateStatus(c.Context(), draft, status, body.Notes, h.clock.Now()); err != nil {
		switch {
		case errors.Is(err, db.ErrJobNotFound):
			return jsonError(c, fiber.StatusNotFound, "job not found")
		case errors.Is(err, db.ErrInvalidTransition):
			return jsonError(c, fiber.StatusConflict, err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update status")
	}

	job, err := h.db.GetJobByDraft(c.Context(), draft)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch job")
	}
	return jsonSuccess(c, job)
}

// AppendNote appends free text to a job's notes.
func (h *JobHandler) AppendNote(c fiber.Ctx) error {
	draft := c.Params("draft")

	var body struct {
		Note string `json:"note"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Note == "" {
		return jsonError(c, fiber.StatusBadRequest, "note is required")
	}

	if err := h.db.AppendNote(c.Context(), draft, body.Note); err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return jsonError(c, fiber.StatusNotFound, "job not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to append note")
	}

	return jsonSuccess(c, fiber.Map{"draft_filename": draft})
}

// SubmissionFailure records that the submission collaborator could not
// deliver an application the gate had approved; the record goes back to
// pending instead of staying falsely applied.
func (h *JobHandler) SubmissionFailure(c fiber.Ctx) error {
	draft := c.Params("draft")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Reason == "" {
		return jsonError(c, fiber.StatusBadRequest, "reason is required")
	}

	if err := h.pipeline.ReportSubmissionFailure(c.Context(), draft, body.Reason); err != nil {
		switch {
		case errors.Is(err, db.ErrJobNotFound):
			return jsonError(c, fiber.StatusNotFound, "job not found")
		case errors.Is(err, db.ErrNotApplied):
			return jsonError(c, fiber.StatusConflict, "job is not in applied status")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to revert application")
	}

	return jsonSuccess(c, fiber.Map{"draft_filename": draft, "status": models.StatusPending})
}
