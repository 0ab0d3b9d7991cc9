package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/db"
)

// BlacklistHandler manages the excluded-employer and keyword sets.
type BlacklistHandler struct {
	db *db.DB
}

// NewBlacklistHandler creates a new blacklist handler.
func NewBlacklistHandler(database *db.DB) *BlacklistHandler {
	return &BlacklistHandler{db: database}
}

// List returns the blacklisted companies and title keywords.
func (h *BlacklistHandler) List(c fiber.Ctx) error {
	companies, err := h.db.ListBlacklistCompanies(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch blacklist")
	}

	keywords, err := h.db.ListBlacklistKeywords(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch blacklist")
	}

	return jsonSuccess(c, fiber.Map{
		"companies": companies,
		"keywords":  keywords,
	})
}

// AddCompany adds an excluded employer. Takes effect on the very next gate
// evaluation; no restart needed.
func (h *BlacklistHandler) AddCompany(c fiber.Ctx) error {
	var body struct {
		Company string `json:"company"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.Company) == "" {
		return jsonError(c, fiber.StatusBadRequest, "company is required")
	}

	if err := h.db.AddBlacklistCompany(c.Context(), body.Company, body.Reason); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to add company")
	}

	return jsonSuccess(c, fiber.Map{"company": body.Company})
}

// AddKeyword adds an excluded title keyword.
func (h *BlacklistHandler) AddKeyword(c fiber.Ctx) error {
	var body struct {
		Keyword string `json:"keyword"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.Keyword) == "" {
		return jsonError(c, fiber.StatusBadRequest, "keyword is required")
	}

	if err := h.db.AddBlacklistKeyword(c.Context(), body.Keyword); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to add keyword")
	}

	return jsonSuccess(c, fiber.Map{"keyword": body.Keyword})
}
