package models

import "time"

// AlertStatus tracks whether an SOS alert reached the backend
type AlertStatus string

const (
	AlertPending AlertStatus = "pending"
	AlertSent    AlertStatus = "sent"
)

// Location is a best-effort device position
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Alert is an SOS alert raised from the trail. Offline alerts are held in
// the device queue with status pending until they can be written.
type Alert struct {
	ID        string      `json:"id"`
	UserID    *string     `json:"user_id,omitempty"`
	TrailID   *string     `json:"trail_id,omitempty"`
	TrailName *string     `json:"trail_name,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Message   string      `json:"message"`
	Status    AlertStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateAlertRequest is the request body for recording an SOS alert
type CreateAlertRequest struct {
	ID        string      `json:"id,omitempty"`
	TrailID   *string     `json:"trail_id,omitempty"`
	TrailName *string     `json:"trail_name,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Message   string      `json:"message"`
	Status    AlertStatus `json:"status,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
}
