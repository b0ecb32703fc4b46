package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taskbid/taskbid-api/internal/utils"
)

// TokenRevoker reports whether a user's tokens have been invalidated (logout).
type TokenRevoker interface {
	IsRevoked(ctx context.Context, userID string) bool
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func parseClaims(tokenStr, secret string) (*jwt.Token, *utils.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &utils.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, nil, fiber.ErrUnauthorized
	}
	claims, ok := token.Claims.(*utils.Claims)
	if !ok {
		return nil, nil, fiber.ErrUnauthorized
	}
	return token, claims, nil
}

// RequireJWT reads the bearer token from the Authorization header.
func RequireJWT(secret string, revoker TokenRevoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		token, claims, err := parseClaims(tokenStr, secret)
		if err != nil {
			return err
		}

		if revoker != nil && revoker.IsRevoked(c.Context(), claims.UserID) {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", token)
		return c.Next()
	}
}

// OptionalJWT attaches identity when a valid bearer token is present and lets
// anonymous requests through. Used on listings that are role-scoped but public.
func OptionalJWT(secret string, revoker TokenRevoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return c.Next()
		}

		token, claims, err := parseClaims(tokenStr, secret)
		if err != nil {
			// invalid token on an optional route -> treat as anonymous
			return c.Next()
		}

		if revoker != nil && revoker.IsRevoked(c.Context(), claims.UserID) {
			return c.Next()
		}

		c.Locals("user", token)
		attachClaims(c, claims)
		return c.Next()
	}
}
