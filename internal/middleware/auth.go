package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/services"
)

func deny(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// AuthRequired verifies the bearer token with the auth provider on every
// request and stores the identity in the context
func AuthRequired(verifier services.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return deny(c, fiber.StatusUnauthorized, "missing authorization header")
		}

		token, ok := bearerToken(c)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "invalid authorization format")
		}

		user, err := verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				return deny(c, fiber.StatusUnauthorized, "invalid or expired token")
			}
			log.Printf("Token verification failed: %v", err)
			return deny(c, fiber.StatusServiceUnavailable, "authentication service unavailable")
		}

		setUser(c, user)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, user *models.AuthUser) {
	c.Locals("auth_user", user)
	c.Locals("user_id", user.ID)
}

// GetUserID extracts the user ID from the context
func GetUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// GetAuthUser returns the verified identity, or nil for anonymous requests
func GetAuthUser(c *fiber.Ctx) *models.AuthUser {
	if u, ok := c.Locals("auth_user").(*models.AuthUser); ok {
		return u
	}
	return nil
}
