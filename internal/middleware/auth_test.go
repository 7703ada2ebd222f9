package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/services"
)

type stubVerifier map[string]error

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*models.AuthUser, error) {
	if err, ok := s[token]; ok {
		return nil, err
	}
	return &models.AuthUser{ID: "user-" + token, Email: token + "@example.com"}, nil
}

func newAuthApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/who", h, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": GetUserID(c), "known": GetAuthUser(c) != nil})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	verifier := stubVerifier{
		"expired": services.ErrInvalidToken,
		"down":    fmt.Errorf("%w: dial tcp", services.ErrAuthUnavailable),
	}
	app := newAuthApp(AuthRequired(verifier))

	cases := []struct {
		header string
		status int
	}{
		{"", fiber.StatusUnauthorized},
		{"Token abc", fiber.StatusUnauthorized},
		{"Bearer ", fiber.StatusUnauthorized},
		{"Bearer expired", fiber.StatusUnauthorized},
		{"Bearer down", fiber.StatusServiceUnavailable},
		{"Bearer pat", fiber.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/who", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.status, resp.StatusCode)
		}

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if tc.status != fiber.StatusOK && body["success"] != false {
			t.Fatalf("header %q: expected envelope with success=false, got %v", tc.header, body)
		}
		if tc.status == fiber.StatusOK && body["id"] != "user-pat" {
			t.Fatalf("expected identity in context, got %v", body)
		}
	}
}
