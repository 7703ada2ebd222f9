package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/foxxcyber/trail-guide/internal/models"
)

var (
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrAuthUnavailable   = errors.New("auth provider unavailable")
	ErrAuthNotConfigured = errors.New("auth provider not configured")
)

// TokenVerifier resolves a bearer token to the identity that owns it
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.AuthUser, error)
}

// AuthVerifier checks bearer tokens by asking the auth provider who they
// belong to. Nothing is cached: every call is a round trip.
type AuthVerifier struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

type authUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewAuthVerifier creates a verifier for the provider at baseURL
func NewAuthVerifier(baseURL, anonKey string) *AuthVerifier {
	return &AuthVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// VerifyToken returns the identity for token. Rejections map to
// ErrInvalidToken; network failures and provider errors map to
// ErrAuthUnavailable.
func (v *AuthVerifier) VerifyToken(ctx context.Context, token string) (*models.AuthUser, error) {
	if v.baseURL == "" {
		return nil, ErrAuthNotConfigured
	}
	if token == "" {
		return nil, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAuthUnavailable, resp.StatusCode)
	}

	var u authUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if u.ID == "" {
		return nil, ErrInvalidToken
	}

	return &models.AuthUser{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}
