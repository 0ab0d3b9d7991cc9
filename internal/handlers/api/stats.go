package api

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/db"
)

// StatsHandler serves the statistics surface for reporting collaborators.
type StatsHandler struct {
	db *db.DB
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(database *db.DB) *StatsHandler {
	return &StatsHandler{db: database}
}

// Get returns application counts and the average fit score.
func (h *StatsHandler) Get(c fiber.Ctx) error {
	stats, err := h.db.GetStats(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch stats")
	}
	return jsonSuccess(c, stats)
}

// Audit returns the most recent gate evaluations, newest first.
func (h *StatsHandler) Audit(c fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return jsonError(c, fiber.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = n
	}

	entries, err := h.db.RecentAudit(c.Context(), limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch audit log")
	}
	return jsonSuccess(c, entries)
}
