package models

import (
	"time"
)

// UnitSystem is the measurement system a user prefers for display
type UnitSystem string

const (
	UnitsImperial UnitSystem = "imperial"
	UnitsMetric   UnitSystem = "metric"
)

// AuthUser is the identity returned by the auth provider for a bearer token
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// EmergencyContact is someone notified when the user raises an SOS alert
type EmergencyContact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
	Email string `json:"email,omitempty" yaml:"email"`
}

// User is the profile row kept alongside the auth provider's identity
type User struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	FullName          *string            `json:"full_name,omitempty"`
	Username          *string            `json:"username,omitempty"`
	AvatarURL         *string            `json:"avatar_url,omitempty"`
	UnitSystem        UnitSystem         `json:"unit_system"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// UserPublic is the public-safe representation of a user
type UserPublic struct {
	ID        string    `json:"id"`
	Username  *string   `json:"username,omitempty"`
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts a User to its public representation
func (u *User) ToPublic() *UserPublic {
	return &UserPublic{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// UpdateUserRequest is the request body for updating a profile
type UpdateUserRequest struct {
	FullName          *string             `json:"full_name,omitempty"`
	Username          *string             `json:"username,omitempty"`
	AvatarURL         *string             `json:"avatar_url,omitempty"`
	UnitSystem        *UnitSystem         `json:"unit_system,omitempty"`
	EmergencyContacts *[]EmergencyContact `json:"emergency_contacts,omitempty"`
}

// UserStats represents aggregated activity for a user
type UserStats struct {
	FavoritesCount     int      `json:"favorites_count"`
	ReviewsCount       int      `json:"reviews_count"`
	AlertsCount        int      `json:"alerts_count"`
	TrailsReviewed     int      `json:"trails_reviewed"`
	AverageRatingGiven *float64 `json:"average_rating_given"`
}
