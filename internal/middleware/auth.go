package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"

	"autoapply/internal/config"
)

// AuthMiddleware authenticates the scanner and operator tooling with a
// static bearer token.
type AuthMiddleware struct {
	cfg *config.Config
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// RequireToken rejects requests without a valid Authorization: Bearer header.
// When no API token is configured the check is skipped, which is only
// sensible for local development.
func (m *AuthMiddleware) RequireToken(c fiber.Ctx) error {
	if m.cfg.APIToken == "" {
		return c.Next()
	}

	token := extractBearerToken(c.Get("Authorization"))
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.APIToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "unauthorized",
		})
	}

	return c.Next()
}

// extractBearerToken pulls the token out of an Authorization header value.
func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
