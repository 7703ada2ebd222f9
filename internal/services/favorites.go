package services

import (
	"context"
	"errors"

	"github.com/foxxcyber/trail-guide/internal/inflight"
	"github.com/foxxcyber/trail-guide/internal/metrics"
	"github.com/foxxcyber/trail-guide/internal/models"
)

// ErrToggleInFlight is returned when the same favorite is already being toggled
var ErrToggleInFlight = errors.New("favorite toggle already in progress")

// FavoriteStore is the persistence the toggle needs
type FavoriteStore interface {
	IsFavorite(ctx context.Context, userID, trailID string) (bool, error)
	AddFavorite(ctx context.Context, userID, trailID string) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, trailID string) (bool, error)
}

// FavoriteService flips favorite membership with at most one toggle in
// flight per user and trail
type FavoriteService struct {
	store    FavoriteStore
	inflight inflight.Set
}

func NewFavoriteService(store FavoriteStore, set inflight.Set) *FavoriteService {
	return &FavoriteService{store: store, inflight: set}
}

// FavoriteKey is the in-flight key guarding one user's favorite of one trail
func FavoriteKey(userID, trailID string) string {
	return "favorite:" + userID + ":" + trailID
}

// Toggle removes the favorite when present and adds it otherwise
func (s *FavoriteService) Toggle(ctx context.Context, userID, trailID string) (*models.FavoriteStatus, error) {
	status := &models.FavoriteStatus{TrailID: trailID}

	err := inflight.Do(ctx, s.inflight, FavoriteKey(userID, trailID), func(ctx context.Context) error {
		present, err := s.store.IsFavorite(ctx, userID, trailID)
		if err != nil {
			return err
		}

		if present {
			if _, err := s.store.RemoveFavorite(ctx, userID, trailID); err != nil {
				return err
			}
			status.IsFavorite = false
			return nil
		}

		if _, err := s.store.AddFavorite(ctx, userID, trailID); err != nil {
			return err
		}
		status.IsFavorite = true
		return nil
	})

	switch {
	case errors.Is(err, inflight.ErrBusy):
		metrics.FavoriteToggles.WithLabelValues("conflict").Inc()
		return nil, ErrToggleInFlight
	case err != nil:
		metrics.FavoriteToggles.WithLabelValues("error").Inc()
		return nil, err
	case status.IsFavorite:
		metrics.FavoriteToggles.WithLabelValues("added").Inc()
	default:
		metrics.FavoriteToggles.WithLabelValues("removed").Inc()
	}
	return status, nil
}
