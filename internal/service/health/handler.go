package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler serves the liveness and readiness endpoints.
type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes mounts /health and /ready plus their Kubernetes-style aliases.
func (h *FiberHandler) RegisterRoutes(r fiber.Router) {
	for _, path := range []string{"/health", "/healthz"} {
		r.Get(path, h.Health)
	}
	for _, path := range []string{"/ready", "/readyz"} {
		r.Get(path, h.Ready)
	}
}

func (h *FiberHandler) Health(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(h.service.Health(c.UserContext()))
}

// Ready answers 503 only when a check is unhealthy. Degraded upstreams keep
// the skill in rotation because every turn still gets a spoken reply.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	response := h.service.Ready(c.UserContext())

	status := fiber.StatusOK
	if !response.Ready {
		status = fiber.StatusServiceUnavailable
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).JSON(response)
}
