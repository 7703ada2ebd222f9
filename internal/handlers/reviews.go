package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/middleware"
	"github.com/foxxcyber/trail-guide/internal/models"
)

const maxCommentLength = 2000

// ListReviews returns the reviews of a trail
func (h *Handler) ListReviews(c *fiber.Ctx) error {
	trailID := c.Params("id")
	if _, err := uuid.Parse(trailID); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	reviews, err := h.db.ListReviews(c.Context(), trailID)
	if err != nil {
		log.Printf("Failed to list reviews: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to list reviews")
	}
	return Success(c, reviews)
}

// CreateReview records the caller's review of a trail. Already-loaded lists
// keep their aggregates until they are fetched again.
func (h *Handler) CreateReview(c *fiber.Ctx) error {
	trailID := c.Params("id")
	if _, err := uuid.Parse(trailID); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	var req models.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return Error(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		if len(trimmed) > maxCommentLength {
			return Error(c, fiber.StatusBadRequest, "comment is too long")
		}
		if trimmed == "" {
			req.Comment = nil
		} else {
			req.Comment = &trimmed
		}
	}

	if _, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey); err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to create review")
	}

	review, err := h.db.CreateReview(c.Context(), trailID, middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, database.ErrTrailNotFound) {
			return Error(c, fiber.StatusNotFound, "trail not found")
		}
		log.Printf("Failed to create review: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to create review")
	}
	return Created(c, review)
}
