package models

import (
	"strings"
	"time"
)

// Difficulty levels a trail can carry
const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

// Trail represents a trail in the park along with its derived review aggregates
type Trail struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ParkArea         string    `json:"park_area"`
	ShortDescription string    `json:"short_description"`
	LongDescription  string    `json:"long_description"`
	TrailheadName    string    `json:"trailhead_name"`
	RouteType        string    `json:"route_type"`
	Difficulty       string    `json:"difficulty"`
	Tags             []string  `json:"tags"`
	DogFriendly      bool      `json:"dog_friendly"`
	KidFriendly      bool      `json:"kid_friendly"`
	DistanceMiles    *float64  `json:"distance_miles,omitempty"`
	ElevationGainFt  *int      `json:"elevation_gain_ft,omitempty"`
	PopularityRank   *int      `json:"popularity_rank,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	Featured         bool      `json:"featured"`
	ImageKey         *string   `json:"-"`
	ImageURL         string    `json:"image_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Derived once from the trail's reviews when the record is loaded
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int      `json:"review_count"`

	// Display strings, only set when a unit system was requested
	DistanceLabel  string `json:"distance_label,omitempty"`
	ElevationLabel string `json:"elevation_label,omitempty"`
}

// ApplyRatings derives AvgRating and ReviewCount from the nested review ratings.
// A trail with no reviews gets a nil average.
func (t *Trail) ApplyRatings(ratings []int32) {
	t.ReviewCount = len(ratings)
	if len(ratings) == 0 {
		t.AvgRating = nil
		return
	}

	var sum int32
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	t.AvgRating = &avg
}

// Distance returns distance_miles with absent treated as 0
func (t *Trail) Distance() float64 {
	if t.DistanceMiles == nil {
		return 0
	}
	return *t.DistanceMiles
}

// Rating returns avg_rating with absent treated as 0
func (t *Trail) Rating() float64 {
	if t.AvgRating == nil {
		return 0
	}
	return *t.AvgRating
}

// Rank returns popularity_rank with absent treated as 999
func (t *Trail) Rank() int {
	if t.PopularityRank == nil {
		return 999
	}
	return *t.PopularityRank
}

// IsValidDifficulty reports whether d names a difficulty level (case-insensitive)
func IsValidDifficulty(d string) bool {
	switch strings.ToLower(d) {
	case DifficultyEasy, DifficultyModerate, DifficultyHard:
		return true
	}
	return false
}

// TrailReview is a single user review of a trail
type TrailReview struct {
	ID        string    `json:"id"`
	TrailID   string    `json:"trail_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	Username  *string   `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateReviewRequest is the request body for reviewing a trail
type CreateReviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

// TrailSeed is a trail record as it appears in a seed file
type TrailSeed struct {
	Name             string   `yaml:"name"`
	Slug             string   `yaml:"slug"`
	ParkArea         string   `yaml:"park_area"`
	ShortDescription string   `yaml:"short_description"`
	LongDescription  string   `yaml:"long_description"`
	TrailheadName    string   `yaml:"trailhead_name"`
	RouteType        string   `yaml:"route_type"`
	Difficulty       string   `yaml:"difficulty"`
	Tags             []string `yaml:"tags"`
	DogFriendly      bool     `yaml:"dog_friendly"`
	KidFriendly      bool     `yaml:"kid_friendly"`
	DistanceMiles    *float64 `yaml:"distance_miles"`
	ElevationGainFt  *int     `yaml:"elevation_gain_ft"`
	PopularityRank   *int     `yaml:"popularity_rank"`
	Latitude         *float64 `yaml:"latitude"`
	Longitude        *float64 `yaml:"longitude"`
	Featured         bool     `yaml:"featured"`
}
