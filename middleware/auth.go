package middleware

import (
	"strings"

	"battle-manager/models"
	"battle-manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequireAuth validates the session JWT and attaches user_id/user_role to
// the request. Websocket upgrades carry the token as ?token= since browsers
// cannot set headers there.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing session token"})
		}

		claims, err := utils.ParseSession(secret, tokenString)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("🚫 rejected session token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", claims.Role)
		return c.Next()
	}
}

// RequireAdmin gates the back-office routes. The client-side role check is
// UX only; this is the real authorization boundary.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role != models.RoleAdmin {
			log.Warn().Str("path", c.Path()).Msg("🚫 non-admin request to admin route")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}

// UserID reads the authenticated user id set by RequireAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// IsAdmin reports whether the authenticated session carries the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("user_role").(string)
	return role == models.RoleAdmin
}
