package models

import "time"

// Favorite links a user to a trail they saved
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TrailID   string    `json:"trail_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteTrail is a favorite joined with the trail it points to
type FavoriteTrail struct {
	Favorite
	Trail *Trail `json:"trail"`
}

// FavoriteRequest is the request body for adding or toggling a favorite
type FavoriteRequest struct {
	TrailID string `json:"trail_id"`
}

// FavoriteStatus reports whether a trail is in the user's favorites
type FavoriteStatus struct {
	TrailID    string `json:"trail_id"`
	IsFavorite bool   `json:"is_favorite"`
}
