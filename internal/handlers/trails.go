package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/discovery"
	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/units"
)

const (
	defaultFeaturedLimit = 6
	maxFeaturedLimit     = 50
)

// ListTrails returns every trail with derived ratings. The optional search,
// difficulty, feature and sort parameters run the discovery pipeline; units
// adds display labels.
func (h *Handler) ListTrails(c *fiber.Ctx) error {
	filter := discovery.DefaultFilter()
	filter.Query = c.Query("search")

	difficulty, ok := discovery.ParseDifficulty(c.Query("difficulty"))
	if !ok {
		return Error(c, fiber.StatusBadRequest, "difficulty must be one of all, easy, moderate, hard")
	}
	filter.Difficulty = difficulty

	feature, ok := discovery.ParseFeature(c.Query("feature"))
	if !ok {
		return Error(c, fiber.StatusBadRequest, "unknown feature filter")
	}
	filter.Feature = feature

	if sort := c.Query("sort"); sort != "" {
		filter.Sort = discovery.SortOption(strings.ToLower(sort))
	}

	trails, err := h.db.ListTrails(c.Context())
	if err != nil {
		log.Printf("Failed to list trails: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to list trails")
	}
	computedAt := h.now()

	visible := discovery.Apply(trails, filter)
	h.present(c, visible)
	return SuccessWithMeta(c, visible, len(visible), computedAt)
}

// ListFeaturedTrails returns featured trails by popularity
func (h *Handler) ListFeaturedTrails(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultFeaturedLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}

	trails, err := h.db.ListFeaturedTrails(c.Context(), limit)
	if err != nil {
		log.Printf("Failed to list featured trails: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to list featured trails")
	}
	computedAt := h.now()

	h.present(c, trails)
	return SuccessWithMeta(c, trails, len(trails), computedAt)
}

// GetTrail returns a single trail by ID
func (h *Handler) GetTrail(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid trail id")
	}

	trail, err := h.db.GetTrailByID(c.Context(), id)
	if err != nil {
		return trailLookupError(c, err)
	}

	h.present(c, []*models.Trail{trail})
	return Success(c, trail)
}

// GetTrailBySlug returns a single trail by slug
func (h *Handler) GetTrailBySlug(c *fiber.Ctx) error {
	trail, err := h.db.GetTrailBySlug(c.Context(), strings.ToLower(c.Params("slug")))
	if err != nil {
		return trailLookupError(c, err)
	}

	h.present(c, []*models.Trail{trail})
	return Success(c, trail)
}

// ListTrailsByDifficulty returns trails of one difficulty level
func (h *Handler) ListTrailsByDifficulty(c *fiber.Ctx) error {
	difficulty := strings.ToLower(c.Params("difficulty"))
	if !models.IsValidDifficulty(difficulty) {
		return Error(c, fiber.StatusBadRequest, "difficulty must be one of easy, moderate, hard")
	}

	trails, err := h.db.ListTrailsByDifficulty(c.Context(), difficulty)
	if err != nil {
		log.Printf("Failed to list %s trails: %v", difficulty, err)
		return Error(c, fiber.StatusInternalServerError, "failed to list trails")
	}
	computedAt := h.now()

	h.present(c, trails)
	return SuccessWithMeta(c, trails, len(trails), computedAt)
}

func trailLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, database.ErrTrailNotFound) {
		return Error(c, fiber.StatusNotFound, "trail not found")
	}
	log.Printf("Failed to get trail: %v", err)
	return Error(c, fiber.StatusInternalServerError, "failed to get trail")
}

// unitsParam rejects a units query parameter other than imperial or metric
func unitsParam(c *fiber.Ctx) error {
	switch models.UnitSystem(strings.ToLower(c.Query("units"))) {
	case "", models.UnitsImperial, models.UnitsMetric:
		return c.Next()
	}
	return Error(c, fiber.StatusBadRequest, "units must be imperial or metric")
}

// present attaches presigned image URLs and, when the units query parameter
// is set, display labels
func (h *Handler) present(c *fiber.Ctx, trails []*models.Trail) {
	labels := c.Query("units") != ""
	prefs := units.Parse(strings.ToLower(c.Query("units")))

	for _, t := range trails {
		if labels {
			prefs.Label(t)
		}
		if h.images == nil || t.ImageKey == nil {
			continue
		}
		u, err := h.images.ImageURL(c.Context(), *t.ImageKey)
		if err != nil {
			log.Printf("Failed to presign image for trail %s: %v", t.ID, err)
			continue
		}
		t.ImageURL = u
	}
}
