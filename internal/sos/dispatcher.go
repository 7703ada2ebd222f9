package sos

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// Locator returns the last known device position. A nil location with a nil
// error means no fix is available.
type Locator interface {
	LastKnown(ctx context.Context) (*models.Location, error)
}

// SMSSender sends one message to several recipients
type SMSSender interface {
	Send(ctx context.Context, recipients []string, body string) error
}

// MessageComposer opens the device messaging app pre-filled for one recipient
type MessageComposer interface {
	Compose(ctx context.Context, recipient, body string) error
}

// Prober reports whether the backend is reachable
type Prober interface {
	Online(ctx context.Context) bool
}

// Trip describes who raised the SOS and where
type Trip struct {
	Name      string
	TrailID   *string
	TrailName *string
	Contacts  []models.EmergencyContact
}

// Result describes what a dispatch did. Queued is set when the alert could
// not be written remotely and is waiting in the offline queue.
type Result struct {
	Alert          models.Alert     `json:"alert"`
	Location       *models.Location `json:"location,omitempty"`
	Message        string           `json:"message"`
	SMSRecipients  int              `json:"sms_recipients"`
	ComposerOpened bool             `json:"composer_opened"`
	Queued         bool             `json:"queued"`
}

// Dispatcher delivers an SOS once the countdown has expired. SMS and Composer
// may be nil; without an SMS sender the composer is opened for the first
// contact with a phone number.
type Dispatcher struct {
	Locator  Locator
	SMS      SMSSender
	Composer MessageComposer
	Prober   Prober
	Writer   AlertWriter
	Queue    *Queue
	Logger   *slog.Logger

	now func() time.Time
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Dispatcher) clock() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}

// Dispatch locates the device, messages the contacts and records the alert.
// Being offline is not an error: the alert is queued and Result.Queued is set.
// An error is returned only when the alert could be neither written nor queued.
func (d *Dispatcher) Dispatch(ctx context.Context, trip Trip) (*Result, error) {
	log := d.logger()
	at := d.clock().UTC()

	var loc *models.Location
	if d.Locator != nil {
		l, err := d.Locator.LastKnown(ctx)
		if err != nil {
			log.Warn("last known location unavailable", "error", err)
		}
		loc = l
	}

	trailName := ""
	if trip.TrailName != nil {
		trailName = *trip.TrailName
	}
	res := &Result{
		Location: loc,
		Message:  ComposeMessage(trip.Name, trailName, loc, at.Local()),
	}

	d.notify(ctx, trip.Contacts, res)

	alert := models.Alert{
		ID:        uuid.NewString(),
		TrailID:   trip.TrailID,
		TrailName: trip.TrailName,
		Message:   res.Message,
		Status:    models.AlertSent,
		CreatedAt: at,
	}
	if loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		alert.Latitude, alert.Longitude = &lat, &lon
	}

	if d.Writer != nil && d.Prober != nil && d.Prober.Online(ctx) {
		stored, err := d.Writer.CreateAlert(ctx, sentRequest(alert))
		if err == nil {
			res.Alert = *stored
			log.Info("sos alert recorded", "alert_id", stored.ID)
			return res, nil
		}
		log.Warn("sos alert write failed, queueing", "alert_id", alert.ID, "error", err)
	}

	if d.Queue == nil {
		return res, fmt.Errorf("sos alert %s: offline and no queue configured", alert.ID)
	}
	queued, err := d.Queue.Append(ctx, alert)
	if err != nil {
		return res, fmt.Errorf("queue sos alert: %w", err)
	}
	res.Alert = queued
	res.Queued = true
	log.Info("sos alert queued until connectivity returns", "alert_id", queued.ID)
	return res, nil
}

func (d *Dispatcher) notify(ctx context.Context, contacts []models.EmergencyContact, res *Result) {
	var phones []string
	for _, c := range contacts {
		if c.Phone != "" {
			phones = append(phones, c.Phone)
		}
	}
	if len(phones) == 0 {
		return
	}

	log := d.logger()
	if d.SMS != nil {
		if err := d.SMS.Send(ctx, phones, res.Message); err != nil {
			log.Warn("sos sms failed", "recipients", len(phones), "error", err)
			return
		}
		res.SMSRecipients = len(phones)
		return
	}
	if d.Composer != nil {
		if err := d.Composer.Compose(ctx, phones[0], res.Message); err != nil {
			log.Warn("sos composer failed", "error", err)
			return
		}
		res.ComposerOpened = true
	}
}
