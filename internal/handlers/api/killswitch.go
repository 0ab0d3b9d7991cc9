package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/db"
	"autoapply/internal/email"
	"autoapply/internal/safety"
)

// KillSwitchHandler exposes the global emergency stop to operators.
type KillSwitchHandler struct {
	db       *db.DB
	clock    safety.Clock
	notifier *email.Notifier
}

// NewKillSwitchHandler creates a new kill-switch handler.
func NewKillSwitchHandler(database *db.DB, clock safety.Clock, notifier *email.Notifier) *KillSwitchHandler {
	return &KillSwitchHandler{db: database, clock: clock, notifier: notifier}
}

// Get returns the current kill-switch state.
func (h *KillSwitchHandler) Get(c fiber.Ctx) error {
	state, err := h.db.GetKillSwitch(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to read kill switch")
	}
	return jsonSuccess(c, state)
}

// Activate halts all autonomous submissions. The next gate evaluation sees
// the flag, including ones already mid-flight between polling cycles.
func (h *KillSwitchHandler) Activate(c fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Reason == "" {
		body.Reason = "manual activation"
	}

	now := h.clock.Now()
	if err := h.db.ActivateKillSwitch(c.Context(), body.Reason, now); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to activate kill switch")
	}

	if h.notifier != nil {
		h.notifier.NotifyKillSwitchActivated(body.Reason, now)
	}

	state, err := h.db.GetKillSwitch(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to read kill switch")
	}
	return jsonSuccess(c, state)
}

// Deactivate re-enables autonomous submissions.
func (h *KillSwitchHandler) Deactivate(c fiber.Ctx) error {
	if err := h.db.DeactivateKillSwitch(c.Context()); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to deactivate kill switch")
	}

	state, err := h.db.GetKillSwitch(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to read kill switch")
	}
	return jsonSuccess(c, state)
}
