// Package client is the device-side TrailGuide API client. It unwraps the
// response envelope, refuses signed-in actions without a live session and
// guards favorite toggles against double taps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foxxcyber/trail-guide/internal/inflight"
	"github.com/foxxcyber/trail-guide/internal/models"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrNotSignedIn is returned for actions that need a session when there is none
	ErrNotSignedIn = errors.New("sign in required")
	// ErrSessionExpired is returned when the stored token has expired
	ErrSessionExpired = errors.New("session expired, sign in again")
	// ErrToggleInFlight is returned when the same favorite is already being toggled
	ErrToggleInFlight = errors.New("favorite toggle already in progress")
)

// APIError is a failed response from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Meta mirrors the list metadata returned with trail lists
type Meta struct {
	Total      int       `json:"total"`
	ComputedAt time.Time `json:"computed_at"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

// Client talks to the TrailGuide API
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	toggling *inflight.MemorySet
	now      func() time.Time
}

// New creates a client for baseURL. token may be empty for guest use.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		token:    token,
		toggling: inflight.NewMemorySet(),
		now:      time.Now,
	}
}

// TokenExpiry reads the exp claim of a session token. The signature is not
// checked; the server verifies every token with the auth provider.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse session token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// session returns the token for a signed-in request
func (c *Client) session() (string, error) {
	if c.token == "" {
		return "", ErrNotSignedIn
	}
	exp, err := TokenExpiry(c.token)
	if err != nil {
		return "", err
	}
	if !exp.IsZero() && !c.now().Before(exp) {
		return "", ErrSessionExpired
	}
	return c.token, nil
}

// SignedIn reports whether the client holds an unexpired session
func (c *Client) SignedIn() bool {
	_, err := c.session()
	return err == nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) (*Meta, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.session()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "unreadable response"}
	}
	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return env.Meta, nil
}

// Online reports whether the API health endpoint answers
func (c *Client) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil, false)
	return err == nil
}

// Trails returns every trail with derived ratings
func (c *Client) Trails(ctx context.Context) ([]*models.Trail, error) {
	var trails []*models.Trail
	_, err := c.do(ctx, http.MethodGet, "/api/trails", nil, nil, &trails, false)
	return trails, err
}

// Featured returns up to limit featured trails
func (c *Client) Featured(ctx context.Context, limit int) ([]*models.Trail, error) {
	var trails []*models.Trail
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	_, err := c.do(ctx, http.MethodGet, "/api/trails/featured", q, nil, &trails, false)
	return trails, err
}

// Trail looks a trail up by UUID or slug
func (c *Client) Trail(ctx context.Context, idOrSlug string) (*models.Trail, error) {
	path := "/api/trails/slug/" + url.PathEscape(idOrSlug)
	if looksLikeUUID(idOrSlug) {
		path = "/api/trails/" + idOrSlug
	}
	var t models.Trail
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &t, false); err != nil {
		return nil, err
	}
	return &t, nil
}

func looksLikeUUID(s string) bool {
	return len(s) == 36 && strings.Count(s, "-") == 4
}

// Weather returns current conditions at the park
func (c *Client) Weather(ctx context.Context, units string) (*models.CurrentWeather, error) {
	var w models.CurrentWeather
	if _, err := c.do(ctx, http.MethodGet, "/api/weather", url.Values{"units": {units}}, nil, &w, false); err != nil {
		return nil, err
	}
	return &w, nil
}

// Forecast returns the daily forecast at the park
func (c *Client) Forecast(ctx context.Context, units string, days int) ([]models.ForecastDay, error) {
	var f []models.ForecastDay
	q := url.Values{"units": {units}, "days": {strconv.Itoa(days)}}
	_, err := c.do(ctx, http.MethodGet, "/api/weather/forecast", q, nil, &f, false)
	return f, err
}

// Me returns the signed-in user's profile
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if _, err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// Favorites returns the signed-in user's favorite trails
func (c *Client) Favorites(ctx context.Context) ([]*models.FavoriteTrail, error) {
	var favs []*models.FavoriteTrail
	_, err := c.do(ctx, http.MethodGet, "/api/favorites", nil, nil, &favs, true)
	return favs, err
}

// ToggleFavorite flips a trail's favorite state. A second toggle of the same
// trail while one is in flight returns ErrToggleInFlight without a request.
func (c *Client) ToggleFavorite(ctx context.Context, trailID string) (*models.FavoriteStatus, error) {
	if _, err := c.session(); err != nil {
		return nil, err
	}

	var status models.FavoriteStatus
	err := inflight.Do(ctx, c.toggling, trailID, func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodPost, "/api/favorites/toggle", nil,
			models.FavoriteRequest{TrailID: trailID}, &status, true)
		return err
	})
	var apiErr *APIError
	if errors.Is(err, inflight.ErrBusy) || (errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict) {
		return nil, ErrToggleInFlight
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateAlert records an SOS alert for the signed-in user
func (c *Client) CreateAlert(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	var out struct {
		Alert models.Alert `json:"alert"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/alerts", nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out.Alert, nil
}
