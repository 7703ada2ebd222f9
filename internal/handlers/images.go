package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/services"
)

const maxImageSize = 10 << 20

// UploadTrailImage stores a new cover image for a trail
// POST /api/trails/:id/image (multipart field "image")
func (h *Handler) UploadTrailImage(c *fiber.Ctx) error {
	if h.images == nil {
		return Error(c, fiber.StatusServiceUnavailable, "image storage is not configured")
	}

	trailID := c.Params("id")
	if _, err := uuid.Parse(trailID); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}
	if file.Size > maxImageSize {
		return Error(c, fiber.StatusBadRequest, "image must be 10MB or smaller")
	}

	trail, err := h.db.GetTrailByID(c.Context(), trailID)
	if err != nil {
		return trailLookupError(c, err)
	}

	f, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to read image")
	}
	defer f.Close()

	key, err := h.images.UploadTrailImage(c.Context(), trailID, f, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedImage) {
			return Error(c, fiber.StatusBadRequest, "image must be JPEG, PNG or WebP")
		}
		log.Printf("Failed to upload trail image: %v", err)
		return Error(c, fiber.StatusBadGateway, "failed to store image")
	}

	if err := h.db.SetTrailImage(c.Context(), trailID, key); err != nil {
		if errors.Is(err, database.ErrTrailNotFound) {
			return Error(c, fiber.StatusNotFound, "trail not found")
		}
		log.Printf("Failed to record trail image: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to save image")
	}

	if trail.ImageKey != nil && *trail.ImageKey != key {
		if err := h.images.Delete(c.Context(), *trail.ImageKey); err != nil {
			log.Printf("Failed to delete previous image %s: %v", *trail.ImageKey, err)
		}
	}

	url, err := h.images.ImageURL(c.Context(), key)
	if err != nil {
		log.Printf("Failed to presign image: %v", err)
	}
	return Created(c, fiber.Map{"trail_id": trailID, "image_key": key, "image_url": url})
}
