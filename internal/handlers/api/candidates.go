package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/models"
	"autoapply/internal/pipeline"
)

// CandidateHandler receives scored candidates from the scanning collaborator.
type CandidateHandler struct {
	pipeline *pipeline.Pipeline
}

// NewCandidateHandler creates a new candidate handler.
func NewCandidateHandler(p *pipeline.Pipeline) *CandidateHandler {
	return &CandidateHandler{pipeline: p}
}

// Create runs one candidate through the pipeline and returns the verdict.
func (h *CandidateHandler) Create(c fiber.Ctx) error {
	var cand models.Candidate
	if err := json.Unmarshal(c.Body(), &cand); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	verdict, err := h.pipeline.Process(c.Context(), &cand)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return jsonError(c, fiber.StatusConflict, "another pipeline run is in progress")
		}
		if errors.Is(err, pipeline.ErrInvalidCandidate) {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to process candidate")
	}

	return jsonSuccess(c, fiber.Map{
		"draft_filename": cand.DraftFilename,
		"company":        cand.Company,
		"position":       cand.Position,
		"verdict":        verdict,
	})
}

// CreateBatch runs a batch of candidates sequentially and returns per-item
// results.
func (h *CandidateHandler) CreateBatch(c fiber.Ctx) error {
	var cands []models.Candidate
	if err := json.Unmarshal(c.Body(), &cands); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(cands) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "empty batch")
	}

	results, err := h.pipeline.ProcessBatch(c.Context(), cands)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return jsonError(c, fiber.StatusConflict, "another pipeline run is in progress")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to process batch")
	}

	items := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		item := fiber.Map{
			"draft_filename": r.DraftFilename,
			"verdict":        r.Verdict,
		}
		if r.Err != nil {
			item["error"] = r.Err.Error()
		}
		items = append(items, item)
	}
	return jsonSuccess(c, items)
}
