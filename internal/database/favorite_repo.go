package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/trail-guide/internal/models"
)

const pgForeignKeyViolation = "23503"

// ListFavorites returns the user's favorite trails, most recent first
func (db *DB) ListFavorites(ctx context.Context, userID string) ([]*models.FavoriteTrail, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT
			f.id::text, f.user_id::text, f.trail_id::text, f.created_at,
			t.id::text, t.name, t.slug, t.park_area, t.short_description, t.long_description,
			t.trailhead_name, t.route_type, t.difficulty, t.tags, t.dog_friendly, t.kid_friendly,
			t.distance_miles, t.elevation_gain_ft, t.popularity_rank, t.latitude, t.longitude,
			t.featured, t.image_key, t.created_at, t.updated_at,
			COALESCE(ARRAY_AGG(r.rating) FILTER (WHERE r.rating IS NOT NULL), '{}')::int[] AS ratings
		FROM favorites f
		JOIN trails t ON t.id = f.trail_id
		LEFT JOIN trail_reviews r ON r.trail_id = t.id
		WHERE f.user_id = $1
		GROUP BY f.id, t.id
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []*models.FavoriteTrail{}
	for rows.Next() {
		f := &models.FavoriteTrail{}
		trail, err := scanTrail(rows, &f.ID, &f.UserID, &f.TrailID, &f.CreatedAt)
		if err != nil {
			return nil, err
		}
		f.Trail = trail
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// IsFavorite reports whether the user has favorited the trail
func (db *DB) IsFavorite(ctx context.Context, userID, trailID string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND trail_id = $2)",
		userID, trailID,
	).Scan(&exists)
	return exists, err
}

// AddFavorite links the trail to the user. Adding an existing favorite
// returns the existing row.
func (db *DB) AddFavorite(ctx context.Context, userID, trailID string) (*models.Favorite, error) {
	f := &models.Favorite{UserID: userID, TrailID: trailID}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO favorites (id, user_id, trail_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, trail_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id::text, created_at
	`, uuid.NewString(), userID, trailID).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrTrailNotFound
		}
		return nil, err
	}
	return f, nil
}

// RemoveFavorite unlinks the trail and reports whether a row was removed
func (db *DB) RemoveFavorite(ctx context.Context, userID, trailID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND trail_id = $2",
		userID, trailID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
