package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// The webhook only takes POSTs; GET covers the ops endpoints.
var (
	defaultCORSMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}
	defaultCORSHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderXRequestID}
)

const defaultCORSMaxAge = 24 * 60 * 60

// NewCORS builds the CORS middleware. Empty lists in cfg fall back to the
// defaults above, and an empty origin list allows any origin.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     joinOr(cfg.AllowedOrigins, []string{"*"}),
		AllowMethods:     joinOr(cfg.AllowedMethods, defaultCORSMethods),
		AllowHeaders:     joinOr(cfg.AllowedHeaders, defaultCORSHeaders),
		ExposeHeaders:    joinOr(cfg.ExposeHeaders, []string{fiber.HeaderXRequestID}),
		AllowCredentials: cfg.Credentials,
		MaxAge:           maxAge,
	})
}

func joinOr(values, fallback []string) string {
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ",")
}
