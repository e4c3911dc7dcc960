package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[ip] = limiter
	}
	return limiter
}

// NewRateLimiter limits requests per client IP. Rejected requests get a 429
// and never reach the skill.
func NewRateLimiter(cfg config.RateLimitingConfig, log *zap.Logger) fiber.Handler {
	store := &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(cfg.Rate),
		burst:    cfg.Burst,
	}

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !store.getLimiter(ip).Allow() {
			log.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Rate limit exceeded. Try again later."})
		}
		return c.Next()
	}
}
