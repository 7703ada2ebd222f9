package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/middleware"
	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/services"
)

// ListFavorites returns the caller's favorite trails
func (h *Handler) ListFavorites(c *fiber.Ctx) error {
	favorites, err := h.db.ListFavorites(c.Context(), middleware.GetUserID(c))
	if err != nil {
		log.Printf("Failed to list favorites: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to list favorites")
	}
	computedAt := h.now()

	trails := make([]*models.Trail, 0, len(favorites))
	for _, f := range favorites {
		trails = append(trails, f.Trail)
	}
	h.present(c, trails)

	return SuccessWithMeta(c, favorites, len(favorites), computedAt)
}

// CheckFavorite reports whether a trail is in the caller's favorites
func (h *Handler) CheckFavorite(c *fiber.Ctx) error {
	trailID := c.Params("trailId")
	if _, err := uuid.Parse(trailID); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	ok, err := h.db.IsFavorite(c.Context(), middleware.GetUserID(c), trailID)
	if err != nil {
		log.Printf("Failed to check favorite: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to check favorite")
	}
	return Success(c, models.FavoriteStatus{TrailID: trailID, IsFavorite: ok})
}

func parseFavoriteRequest(c *fiber.Ctx) (string, error) {
	var req models.FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	if req.TrailID == "" {
		return "", errors.New("trail_id is required")
	}
	if _, err := uuid.Parse(req.TrailID); err != nil {
		return "", errors.New("invalid trail_id")
	}
	return req.TrailID, nil
}

// AddFavorite adds a trail to the caller's favorites. Adding an existing
// favorite returns it unchanged.
func (h *Handler) AddFavorite(c *fiber.Ctx) error {
	trailID, err := parseFavoriteRequest(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey); err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to add favorite")
	}

	favorite, err := h.db.AddFavorite(c.Context(), middleware.GetUserID(c), trailID)
	if err != nil {
		if errors.Is(err, database.ErrTrailNotFound) {
			return Error(c, fiber.StatusNotFound, "trail not found")
		}
		log.Printf("Failed to add favorite: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to add favorite")
	}
	return Created(c, favorite)
}

// ToggleFavorite flips membership of a trail in the caller's favorites
func (h *Handler) ToggleFavorite(c *fiber.Ctx) error {
	trailID, err := parseFavoriteRequest(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey); err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to toggle favorite")
	}

	status, err := h.favorites.Toggle(c.Context(), middleware.GetUserID(c), trailID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrToggleInFlight):
			return Error(c, fiber.StatusConflict, "favorite update already in progress")
		case errors.Is(err, database.ErrTrailNotFound):
			return Error(c, fiber.StatusNotFound, "trail not found")
		}
		log.Printf("Failed to toggle favorite: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to toggle favorite")
	}
	return Success(c, status)
}

// RemoveFavorite removes a trail from the caller's favorites
func (h *Handler) RemoveFavorite(c *fiber.Ctx) error {
	trailID := c.Params("trailId")
	if _, err := uuid.Parse(trailID); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	removed, err := h.db.RemoveFavorite(c.Context(), middleware.GetUserID(c), trailID)
	if err != nil {
		log.Printf("Failed to remove favorite: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to remove favorite")
	}
	if !removed {
		return Error(c, fiber.StatusNotFound, "favorite not found")
	}
	return Success(c, models.FavoriteStatus{TrailID: trailID, IsFavorite: false})
}
