package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taskbid/taskbid-api/internal/utils"
)

func attachClaims(c *fiber.Ctx, claims *utils.Claims) {
	c.Locals("userId", strings.TrimSpace(claims.UserID))
	c.Locals("role", strings.ToUpper(strings.TrimSpace(claims.Role)))
	if claims.FreelancerID != "" {
		c.Locals("freelancerId", claims.FreelancerID)
	}
}

func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Locals("user")
		if raw == nil {
			return fiber.ErrUnauthorized
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		if strings.TrimSpace(claims.UserID) == "" {
			return fiber.ErrUnauthorized
		}

		attachClaims(c, claims)
		return c.Next()
	}
}
