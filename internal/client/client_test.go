package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/trail-guide/internal/models"
)

func sessionToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "6f1c2b1e-9d4a-4c1e-8f5a-0b7d3e2a9c10",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("not-the-server-secret"))
	require.NoError(t, err)
	return token
}

func writeEnvelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 400}
	if data != nil {
		body["data"] = data
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	json.NewEncoder(w).Encode(body)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := TokenExpiry(sessionToken(t, exp))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))

	_, err = TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}

func TestSignedInActionsNeedSession(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	_, err := c.ToggleFavorite(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.False(t, c.SignedIn())

	c = New("http://127.0.0.1:1", sessionToken(t, time.Now().Add(-time.Minute)))
	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestTrailsUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trails", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, []map[string]any{
			{"id": "t-1", "name": "Emerald Lake", "difficulty": "moderate", "avg_rating": 4.5, "review_count": 2},
		}, "")
	}))
	defer srv.Close()

	trails, err := New(srv.URL, "").Trails(context.Background())
	require.NoError(t, err)
	require.Len(t, trails, 1)
	assert.Equal(t, "Emerald Lake", trails[0].Name)
	require.NotNil(t, trails[0].AvgRating)
	assert.Equal(t, 4.5, *trails[0].AvgRating)
}

func TestTrailBySlugNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trails/slug/nowhere", r.URL.Path)
		writeEnvelope(w, http.StatusNotFound, nil, "trail not found")
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Trail(context.Background(), "nowhere")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "trail not found", apiErr.Message)
}

func TestToggleFavoriteGuardsDoubleTap(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")

		var req models.FavoriteRequest
		json.NewDecoder(r.Body).Decode(&req)
		entered <- struct{}{}
		<-release
		writeEnvelope(w, http.StatusOK, models.FavoriteStatus{TrailID: req.TrailID, IsFavorite: true}, "")
	}))
	defer srv.Close()

	c := New(srv.URL, sessionToken(t, time.Now().Add(time.Hour)))
	done := make(chan *models.FavoriteStatus, 1)
	go func() {
		status, err := c.ToggleFavorite(context.Background(), "t-1")
		assert.NoError(t, err)
		done <- status
	}()

	<-entered
	_, err := c.ToggleFavorite(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrToggleInFlight)
	close(release)

	status := <-done
	require.NotNil(t, status)
	assert.True(t, status.IsFavorite)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestToggleFavoriteServerConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, nil, "favorite update already in progress")
	}))
	defer srv.Close()

	c := New(srv.URL, sessionToken(t, time.Now().Add(time.Hour)))
	_, err := c.ToggleFavorite(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrToggleInFlight)
}

func TestCreateAlertAndOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			writeEnvelope(w, http.StatusOK, map[string]any{"status": "ok"}, "")
		case "/api/alerts":
			var req models.CreateAlertRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeEnvelope(w, http.StatusCreated, map[string]any{
				"alert":             models.Alert{ID: req.ID, Message: req.Message, Status: models.AlertSent},
				"contacts_notified": 1,
			}, "")
		default:
			http.NotFound(w, r)
		}
	}))

	c := New(srv.URL, sessionToken(t, time.Now().Add(time.Hour)))
	assert.True(t, c.Online(context.Background()))

	alert, err := c.CreateAlert(context.Background(), &models.CreateAlertRequest{ID: "a-1", Message: "help", Status: models.AlertSent})
	require.NoError(t, err)
	assert.Equal(t, "a-1", alert.ID)
	assert.Equal(t, models.AlertSent, alert.Status)

	srv.Close()
	assert.False(t, c.Online(context.Background()))
}
