package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/trail-guide/internal/models"
)

var (
	ErrTrailNotFound = errors.New("trail not found")
)

// trailSelect returns every trail column plus the nested review ratings
const trailSelect = `
	SELECT
		t.id::text, t.name, t.slug, t.park_area, t.short_description, t.long_description,
		t.trailhead_name, t.route_type, t.difficulty, t.tags, t.dog_friendly, t.kid_friendly,
		t.distance_miles, t.elevation_gain_ft, t.popularity_rank, t.latitude, t.longitude,
		t.featured, t.image_key, t.created_at, t.updated_at,
		COALESCE(ARRAY_AGG(r.rating) FILTER (WHERE r.rating IS NOT NULL), '{}')::int[] AS ratings
	FROM trails t
	LEFT JOIN trail_reviews r ON r.trail_id = t.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrail scans the trailSelect columns. Extra destinations are scanned
// first, for queries that select other columns ahead of the trail.
func scanTrail(row rowScanner, extra ...any) (*models.Trail, error) {
	t := &models.Trail{}
	var ratings []int32
	dest := append(extra,
		&t.ID, &t.Name, &t.Slug, &t.ParkArea, &t.ShortDescription, &t.LongDescription,
		&t.TrailheadName, &t.RouteType, &t.Difficulty, &t.Tags, &t.DogFriendly, &t.KidFriendly,
		&t.DistanceMiles, &t.ElevationGainFt, &t.PopularityRank, &t.Latitude, &t.Longitude,
		&t.Featured, &t.ImageKey, &t.CreatedAt, &t.UpdatedAt,
		&ratings,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t.ApplyRatings(ratings)
	return t, nil
}

func (db *DB) queryTrails(ctx context.Context, query string, args ...any) ([]*models.Trail, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trails := []*models.Trail{}
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		trails = append(trails, t)
	}
	return trails, rows.Err()
}

func (db *DB) queryTrail(ctx context.Context, query string, args ...any) (*models.Trail, error) {
	t, err := scanTrail(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrailNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTrails returns every trail with derived ratings, most popular first
func (db *DB) ListTrails(ctx context.Context) ([]*models.Trail, error) {
	return db.queryTrails(ctx, trailSelect+`
		GROUP BY t.id
		ORDER BY COALESCE(t.popularity_rank, 999), t.name
	`)
}

// ListFeaturedTrails returns up to limit featured trails by popularity
func (db *DB) ListFeaturedTrails(ctx context.Context, limit int) ([]*models.Trail, error) {
	return db.queryTrails(ctx, trailSelect+`
		WHERE t.featured = TRUE
		GROUP BY t.id
		ORDER BY COALESCE(t.popularity_rank, 999), t.name
		LIMIT $1
	`, limit)
}

// ListTrailsByDifficulty returns trails of one difficulty level
func (db *DB) ListTrailsByDifficulty(ctx context.Context, difficulty string) ([]*models.Trail, error) {
	return db.queryTrails(ctx, trailSelect+`
		WHERE LOWER(t.difficulty) = $1
		GROUP BY t.id
		ORDER BY COALESCE(t.popularity_rank, 999), t.name
	`, strings.ToLower(difficulty))
}

// GetTrailByID returns a trail by id
func (db *DB) GetTrailByID(ctx context.Context, id string) (*models.Trail, error) {
	return db.queryTrail(ctx, trailSelect+`
		WHERE t.id = $1
		GROUP BY t.id
	`, id)
}

// GetTrailBySlug returns a trail by slug
func (db *DB) GetTrailBySlug(ctx context.Context, slug string) (*models.Trail, error) {
	return db.queryTrail(ctx, trailSelect+`
		WHERE t.slug = $1
		GROUP BY t.id
	`, slug)
}

// TrailExists reports whether a trail with id exists
func (db *DB) TrailExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM trails WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// SetTrailImage records the storage key of a trail's cover image
func (db *DB) SetTrailImage(ctx context.Context, id, key string) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE trails SET image_key = $2, updated_at = NOW() WHERE id = $1",
		id, key,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrailNotFound
	}
	return nil
}

// UpsertTrail inserts a trail or updates the existing one with the same slug
func (db *DB) UpsertTrail(ctx context.Context, s *models.TrailSeed) (string, error) {
	if s.Slug == "" {
		s.Slug = Slugify(s.Name)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO trails (
			name, slug, park_area, short_description, long_description, trailhead_name,
			route_type, difficulty, tags, dog_friendly, kid_friendly, distance_miles,
			elevation_gain_ft, popularity_rank, latitude, longitude, featured
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			park_area = EXCLUDED.park_area,
			short_description = EXCLUDED.short_description,
			long_description = EXCLUDED.long_description,
			trailhead_name = EXCLUDED.trailhead_name,
			route_type = EXCLUDED.route_type,
			difficulty = EXCLUDED.difficulty,
			tags = EXCLUDED.tags,
			dog_friendly = EXCLUDED.dog_friendly,
			kid_friendly = EXCLUDED.kid_friendly,
			distance_miles = EXCLUDED.distance_miles,
			elevation_gain_ft = EXCLUDED.elevation_gain_ft,
			popularity_rank = EXCLUDED.popularity_rank,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			featured = EXCLUDED.featured,
			updated_at = NOW()
		RETURNING id::text
	`,
		s.Name, s.Slug, s.ParkArea, s.ShortDescription, s.LongDescription, s.TrailheadName,
		s.RouteType, strings.ToLower(s.Difficulty), s.Tags, s.DogFriendly, s.KidFriendly, s.DistanceMiles,
		s.ElevationGainFt, s.PopularityRank, s.Latitude, s.Longitude, s.Featured,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert trail %q: %w", s.Slug, err)
	}
	return id, nil
}

// Slugify turns a trail name into a URL slug
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
