package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/trail-guide/internal/config"
	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/inflight"
	"github.com/foxxcyber/trail-guide/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	db            *database.DB
	cfg           *config.Config
	encryptionKey []byte
	weather       *services.WeatherService
	favorites     *services.FavoriteService
	images        services.ImageStore
	notifier      services.AlertNotifier
	now           func() time.Time
}

// Deps are the optional collaborators of a Handler. Nil fields fall back to
// defaults built from the config: an uncached weather proxy, an in-process
// favorite in-flight set and the SMTP mailer. A nil Images disables uploads.
type Deps struct {
	Weather   *services.WeatherService
	Favorites *services.FavoriteService
	Images    services.ImageStore
	Notifier  services.AlertNotifier
}

// New creates a new Handler instance
func New(db *database.DB, cfg *config.Config, deps Deps) *Handler {
	h := &Handler{
		db:            db,
		cfg:           cfg,
		encryptionKey: database.DeriveEncryptionKey(cfg.ContactsSecret),
		weather:       deps.Weather,
		favorites:     deps.Favorites,
		images:        deps.Images,
		notifier:      deps.Notifier,
		now:           time.Now,
	}
	if h.weather == nil {
		h.weather = services.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherBaseURL, nil, 0)
	}
	if h.favorites == nil {
		h.favorites = services.NewFavoriteService(db, inflight.NewMemorySet())
	}
	if h.notifier == nil {
		h.notifier = services.NewEmailService(cfg)
	}
	return h
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes a list payload. ComputedAt is when derived fields such as
// avg_rating were last computed.
type Meta struct {
	Total      int       `json:"total"`
	ComputedAt time.Time `json:"computed_at"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 with the created resource
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful list response
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total int, computedAt time.Time) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			ComputedAt: computedAt.UTC(),
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}
