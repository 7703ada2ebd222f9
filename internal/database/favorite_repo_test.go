package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/foxxcyber/trail-guide/internal/models"
)

func TestListFavoritesJoinsTrail(t *testing.T) {
	mock := newMock(t)
	added := time.Date(2024, 8, 2, 9, 0, 0, 0, time.UTC)
	cols := append([]string{"f_id", "f_user_id", "f_trail_id", "f_created_at"}, trailColumns...)
	row := append([]any{"f-1", "u-1", "t-1", added}, trailRow("t-1", "Emerald Lake", intp(1), []int32{5})...)

	mock.ExpectQuery(`FROM favorites f\s+JOIN trails t`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(row...))

	favs, err := New(mock).ListFavorites(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}
	f := favs[0]
	if f.ID != "f-1" || f.TrailID != "t-1" || !f.CreatedAt.Equal(added) {
		t.Fatalf("unexpected favorite %+v", f.Favorite)
	}
	if f.Trail == nil || f.Trail.Name != "Emerald Lake" || f.Trail.ReviewCount != 1 {
		t.Fatalf("unexpected trail %+v", f.Trail)
	}
}

func TestAddFavoriteUnknownTrail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO favorites`).
		WithArgs(pgxmock.AnyArg(), "u-1", "t-404").
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

	_, err := New(mock).AddFavorite(context.Background(), "u-1", "t-404")
	if !errors.Is(err, ErrTrailNotFound) {
		t.Fatalf("expected ErrTrailNotFound, got %v", err)
	}
}

func TestAddFavorite(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`ON CONFLICT \(user_id, trail_id\)`).
		WithArgs(pgxmock.AnyArg(), "u-1", "t-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("f-9", now))

	fav, err := New(mock).AddFavorite(context.Background(), "u-1", "t-1")
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if fav.ID != "f-9" || fav.UserID != "u-1" || fav.TrailID != "t-1" {
		t.Fatalf("unexpected favorite %+v", fav)
	}
}

func TestRemoveFavorite(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs("u-1", "t-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs("u-1", "t-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	db := New(mock)
	removed, err := db.RemoveFavorite(context.Background(), "u-1", "t-1")
	if err != nil || !removed {
		t.Fatalf("first remove: %v %v", removed, err)
	}
	removed, err = db.RemoveFavorite(context.Background(), "u-1", "t-1")
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op: %v %v", removed, err)
	}
}

func TestIsFavorite(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u-1", "t-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := New(mock).IsFavorite(context.Background(), "u-1", "t-1")
	if err != nil || !ok {
		t.Fatalf("expected favorite: %v %v", ok, err)
	}
}

func TestCreateAlertKeepsClientID(t *testing.T) {
	mock := newMock(t)
	at := time.Date(2024, 9, 1, 15, 4, 0, 0, time.UTC)
	lat, lon := 40.31, -105.64
	req := &models.CreateAlertRequest{
		ID:        "6f1c2d7e-0000-4000-8000-000000000001",
		TrailName: strp("Sky Pond"),
		Latitude:  &lat,
		Longitude: &lon,
		Message:   "SOS",
		CreatedAt: &at,
	}
	user := "u-1"

	mock.ExpectQuery(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(req.ID, &user, (*string)(nil), req.TrailName, &lat, &lon, "SOS", "sent", at).
		WillReturnRows(pgxmock.NewRows(alertColumns).
			AddRow(req.ID, &user, (*string)(nil), req.TrailName, &lat, &lon, "SOS", models.AlertSent, at, true))

	alert, inserted, err := New(mock).CreateAlert(context.Background(), &user, req)
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	if !inserted || alert.ID != req.ID || alert.Status != models.AlertSent || !alert.CreatedAt.Equal(at) {
		t.Fatalf("unexpected alert %+v inserted=%v", alert, inserted)
	}
}

var alertColumns = []string{"id", "user_id", "trail_id", "trail_name", "latitude", "longitude", "message", "status", "created_at", "inserted"}

func TestCreateAlertRepeatedID(t *testing.T) {
	mock := newMock(t)
	at := time.Date(2024, 9, 1, 15, 4, 0, 0, time.UTC)
	req := &models.CreateAlertRequest{ID: "6f1c2d7e-0000-4000-8000-000000000002", Message: "SOS", CreatedAt: &at}
	user := "u-1"

	mock.ExpectQuery(`WHERE sos_alerts\.user_id IS NOT DISTINCT FROM EXCLUDED\.user_id`).
		WithArgs(req.ID, &user, (*string)(nil), (*string)(nil), (*float64)(nil), (*float64)(nil), "SOS", "sent", at).
		WillReturnRows(pgxmock.NewRows(alertColumns).
			AddRow(req.ID, &user, (*string)(nil), (*string)(nil), (*float64)(nil), (*float64)(nil), "SOS", models.AlertSent, at, false))

	alert, inserted, err := New(mock).CreateAlert(context.Background(), &user, req)
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	if inserted || alert.ID != req.ID {
		t.Fatalf("expected the stored alert back, got %+v inserted=%v", alert, inserted)
	}
}

func TestCreateAlertOtherUsersID(t *testing.T) {
	mock := newMock(t)
	at := time.Date(2024, 9, 1, 15, 4, 0, 0, time.UTC)
	req := &models.CreateAlertRequest{ID: "6f1c2d7e-0000-4000-8000-000000000003", Message: "SOS", CreatedAt: &at}
	user := "u-2"

	mock.ExpectQuery(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(req.ID, &user, (*string)(nil), (*string)(nil), (*float64)(nil), (*float64)(nil), "SOS", "sent", at).
		WillReturnRows(pgxmock.NewRows(alertColumns))

	alert, _, err := New(mock).CreateAlert(context.Background(), &user, req)
	if !errors.Is(err, ErrAlertExists) || alert != nil {
		t.Fatalf("expected ErrAlertExists, got %+v %v", alert, err)
	}
}
