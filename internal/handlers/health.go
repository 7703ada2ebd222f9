package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health is the liveness probe polled by the keep-alive job and by devices
// deciding whether to flush their SOS queue
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if err := h.db.Ping(ctx); err != nil {
		log.Printf("Health check: database unreachable: %v", err)
		database = "unavailable"
	}

	return Success(c, fiber.Map{
		"status":   "ok",
		"time":     h.now().UTC(),
		"database": database,
	})
}
