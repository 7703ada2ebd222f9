package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// ErrAlertExists is returned when an alert id is already held by another user
var ErrAlertExists = errors.New("alert id belongs to another user")

// CreateAlert records an SOS alert. Alerts carry a client-generated id, so a
// queue flush that repeats one of the caller's alerts is absorbed here and the
// stored row is returned with inserted false.
func (db *DB) CreateAlert(ctx context.Context, userID *string, req *models.CreateAlertRequest) (*models.Alert, bool, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := time.Now().UTC()
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	a := &models.Alert{}
	var inserted bool
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO sos_alerts (id, user_id, trail_id, trail_name, latitude, longitude, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
		WHERE sos_alerts.user_id IS NOT DISTINCT FROM EXCLUDED.user_id
		RETURNING id::text, user_id::text, trail_id::text, trail_name, latitude, longitude, message, status, created_at, (xmax = 0) AS inserted
	`, id, userID, req.TrailID, req.TrailName, req.Latitude, req.Longitude, req.Message, string(models.AlertSent), createdAt).Scan(
		&a.ID, &a.UserID, &a.TrailID, &a.TrailName, &a.Latitude, &a.Longitude, &a.Message, &a.Status, &a.CreatedAt, &inserted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrAlertExists
		}
		return nil, false, err
	}
	return a, inserted, nil
}

// ListAlerts returns the user's alerts, newest first
func (db *DB) ListAlerts(ctx context.Context, userID string) ([]*models.Alert, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, user_id::text, trail_id::text, trail_name, latitude, longitude, message, status, created_at
		FROM sos_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []*models.Alert{}
	for rows.Next() {
		a := &models.Alert{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.TrailID, &a.TrailName, &a.Latitude, &a.Longitude, &a.Message, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
