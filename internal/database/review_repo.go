package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// ListReviews returns a trail's reviews, newest first
func (db *DB) ListReviews(ctx context.Context, trailID string) ([]*models.TrailReview, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT r.id::text, r.trail_id::text, r.user_id::text, r.rating, r.comment, u.username, r.created_at
		FROM trail_reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.trail_id = $1
		ORDER BY r.created_at DESC
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*models.TrailReview{}
	for rows.Next() {
		r := &models.TrailReview{}
		if err := rows.Scan(&r.ID, &r.TrailID, &r.UserID, &r.Rating, &r.Comment, &r.Username, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CreateReview records a review. Aggregates on already-loaded trail lists
// are not updated; clients see the new rating on their next fetch.
func (db *DB) CreateReview(ctx context.Context, trailID, userID string, req *models.CreateReviewRequest) (*models.TrailReview, error) {
	r := &models.TrailReview{TrailID: trailID, UserID: userID, Rating: req.Rating, Comment: req.Comment}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO trail_reviews (trail_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, trailID, userID, req.Rating, req.Comment).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrTrailNotFound
		}
		return nil, err
	}
	return r, nil
}
