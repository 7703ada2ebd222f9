package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/trail-guide/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

const pgUniqueViolation = "23505"

const userColumns = `id::text, email, full_name, username, avatar_url, unit_system, emergency_contacts, created_at, updated_at`

func scanUser(row rowScanner, encryptionKey []byte) (*models.User, error) {
	user := &models.User{}
	var contacts *string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Username,
		&user.AvatarURL,
		&user.UnitSystem,
		&contacts,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.EmergencyContacts, err = openContacts(contacts, encryptionKey)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func openContacts(sealed *string, key []byte) ([]models.EmergencyContact, error) {
	contacts := []models.EmergencyContact{}
	if sealed == nil || *sealed == "" {
		return contacts, nil
	}

	plain, err := decrypt(*sealed, key)
	if err != nil {
		return nil, fmt.Errorf("decrypt emergency contacts: %w", err)
	}
	if err := json.Unmarshal([]byte(plain), &contacts); err != nil {
		return nil, fmt.Errorf("decode emergency contacts: %w", err)
	}
	return contacts, nil
}

func sealContacts(contacts []models.EmergencyContact, key []byte) (string, error) {
	raw, err := json.Marshal(contacts)
	if err != nil {
		return "", err
	}
	return encrypt(string(raw), key)
}

// EnsureUser returns the profile for an authenticated identity, creating it
// on first sight
func (db *DB) EnsureUser(ctx context.Context, auth *models.AuthUser, encryptionKey []byte) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+userColumns,
		auth.ID, auth.Email,
	), encryptionKey)
}

// GetUserByID retrieves a user by id
func (db *DB) GetUserByID(ctx context.Context, id string, encryptionKey []byte) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id,
	), encryptionKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's profile. Nil fields are left unchanged.
func (db *DB) UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest, encryptionKey []byte) (*models.User, error) {
	var sealed *string
	if req.EmergencyContacts != nil {
		s, err := sealContacts(*req.EmergencyContacts, encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("seal emergency contacts: %w", err)
		}
		sealed = &s
	}

	var units *string
	if req.UnitSystem != nil {
		u := string(*req.UnitSystem)
		units = &u
	}

	user, err := scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    username = COALESCE($3, username),
		    avatar_url = COALESCE($4, avatar_url),
		    unit_system = COALESCE($5, unit_system),
		    emergency_contacts = COALESCE($6, emergency_contacts),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.FullName, req.Username, req.AvatarURL, units, sealed,
	), encryptionKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return user, nil
}

// GetUserStats retrieves activity counts for a user
func (db *DB) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}

	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM favorites WHERE user_id = $1) AS favorites_count,
			(SELECT COUNT(*) FROM trail_reviews WHERE user_id = $1) AS reviews_count,
			(SELECT COUNT(*) FROM sos_alerts WHERE user_id = $1) AS alerts_count,
			(SELECT COUNT(DISTINCT trail_id) FROM trail_reviews WHERE user_id = $1) AS trails_reviewed,
			(SELECT AVG(rating)::float8 FROM trail_reviews WHERE user_id = $1) AS average_rating_given
	`, userID).Scan(
		&stats.FavoritesCount,
		&stats.ReviewsCount,
		&stats.AlertsCount,
		&stats.TrailsReviewed,
		&stats.AverageRatingGiven,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
