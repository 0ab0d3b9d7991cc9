// Package api implements the JSON surface for the scanner and operator
// tooling. Every endpoint answers in a single envelope, so callers switch on
// "status" without caring which handler responded.
package api

import "github.com/gofiber/fiber/v3"

// jsonSuccess wraps data in the ok envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"status": "ok", "data": data})
}

// jsonError responds with the given HTTP status and a human-readable message.
// Verdict reason codes ride inside the data payload, not here: an evaluated
// rejection is a successful request.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "error": message})
}
