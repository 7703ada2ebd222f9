package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/middleware"
	"github.com/foxxcyber/trail-guide/internal/models"
)

const maxEmergencyContacts = 5

// GetMe returns the caller's profile, creating it on first sight
func (h *Handler) GetMe(c *fiber.Ctx) error {
	user, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey)
	if err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to get profile")
	}
	return Success(c, user)
}

// GetUser returns a user by ID. Other users' profiles are public-only.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if id == middleware.GetUserID(c) {
		return h.GetMe(c)
	}

	user, err := h.db.GetUserByID(c.Context(), id, h.encryptionKey)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		log.Printf("Failed to get user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}

	return Success(c, user.ToPublic())
}

// UpdateUser updates a user's profile
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	// Users can only update their own profile
	if id != middleware.GetUserID(c) {
		return Error(c, fiber.StatusForbidden, "cannot update another user's profile")
	}

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateUpdate(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey); err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	user, err := h.db.UpdateUser(c.Context(), id, &req, h.encryptionKey)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusConflict, "username already taken")
		}
		log.Printf("Failed to update user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return Success(c, user)
}

func validateUpdate(req *models.UpdateUserRequest) error {
	if req.Username != nil {
		if len(*req.Username) < 3 || len(*req.Username) > 50 {
			return errors.New("username must be between 3 and 50 characters")
		}
	}

	if req.UnitSystem != nil {
		switch *req.UnitSystem {
		case models.UnitsImperial, models.UnitsMetric:
		default:
			return errors.New("unit_system must be imperial or metric")
		}
	}

	if req.EmergencyContacts != nil {
		contacts := *req.EmergencyContacts
		if len(contacts) > maxEmergencyContacts {
			return fmt.Errorf("at most %d emergency contacts are allowed", maxEmergencyContacts)
		}
		for i := range contacts {
			ec := &contacts[i]
			ec.Name = strings.TrimSpace(ec.Name)
			ec.Phone = strings.TrimSpace(ec.Phone)
			ec.Email = strings.TrimSpace(ec.Email)
			if ec.Name == "" {
				return errors.New("emergency contact name is required")
			}
			if ec.Phone == "" && ec.Email == "" {
				return fmt.Errorf("emergency contact %s needs a phone or email", ec.Name)
			}
			if ec.Email != "" {
				if _, err := mail.ParseAddress(ec.Email); err != nil {
					return fmt.Errorf("emergency contact %s has an invalid email", ec.Name)
				}
			}
		}
	}
	return nil
}

// GetUserStats returns statistics for a user
func (h *Handler) GetUserStats(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	stats, err := h.db.GetUserStats(c.Context(), id)
	if err != nil {
		log.Printf("Failed to get user stats: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to get user stats")
	}

	return Success(c, stats)
}
