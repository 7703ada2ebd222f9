package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/metrics"
	"github.com/foxxcyber/trail-guide/internal/middleware"
	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/services"
)

const maxAlertMessageLength = 1000

// CreateAlert records an SOS alert. Alerts flushed from a device queue arrive
// with status pending and are stored as sent. Emergency contacts are emailed
// only when the alert is first seen, so a re-sent alert does not email again.
func (h *Handler) CreateAlert(c *fiber.Ctx) error {
	var req models.CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateAlert(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.db.EnsureUser(c.Context(), middleware.GetAuthUser(c), h.encryptionKey)
	if err != nil {
		log.Printf("Failed to ensure user: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to record alert")
	}

	reported := req.Status
	if reported == "" {
		reported = models.AlertSent
	}

	alert, inserted, err := h.db.CreateAlert(c.Context(), &user.ID, &req)
	if err != nil {
		if errors.Is(err, database.ErrAlertExists) {
			return Error(c, fiber.StatusConflict, "alert id already in use")
		}
		log.Printf("Failed to record alert: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to record alert")
	}
	if !inserted {
		log.Printf("SOS alert %s re-sent by user %s", alert.ID, user.ID)
		return Success(c, fiber.Map{"alert": alert, "contacts_notified": 0})
	}
	metrics.AlertsRecorded.WithLabelValues(string(reported)).Inc()
	log.Printf("SOS alert %s recorded for user %s (reported %s)", alert.ID, user.ID, reported)

	notified, err := h.notifier.NotifyContacts(c.Context(), user, alert)
	switch {
	case errors.Is(err, services.ErrSMTPNotConfigured):
	case err != nil:
		log.Printf("Failed to email emergency contacts for alert %s: %v", alert.ID, err)
	}

	return Created(c, fiber.Map{"alert": alert, "contacts_notified": notified})
}

func validateAlert(req *models.CreateAlertRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return errors.New("message is required")
	}
	if len(req.Message) > maxAlertMessageLength {
		return errors.New("message is too long")
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			return errors.New("invalid alert id")
		}
	}
	if req.TrailID != nil {
		if _, err := uuid.Parse(*req.TrailID); err != nil {
			return errors.New("invalid trail_id")
		}
	}
	switch req.Status {
	case "", models.AlertPending, models.AlertSent:
	default:
		return errors.New("status must be pending or sent")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return errors.New("latitude and longitude must be provided together")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180) {
		return errors.New("coordinates are out of range")
	}
	return nil
}

// ListAlerts returns the caller's alerts, newest first
func (h *Handler) ListAlerts(c *fiber.Ctx) error {
	alerts, err := h.db.ListAlerts(c.Context(), middleware.GetUserID(c))
	if err != nil {
		log.Printf("Failed to list alerts: %v", err)
		return Error(c, fiber.StatusInternalServerError, "failed to list alerts")
	}
	return Success(c, alerts)
}
