package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

// TokenCookie is the HTTP-only cookie carrying the session token.
const TokenCookie = "token"

const sessionContextKey = "session"

// AuthMiddleware validates the session token from the Authorization header
// or the token cookie and stores the session in context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerOrCookie(c)
		if err != nil {
			return err
		}

		session, err := utils.ParseToken(secret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(sessionContextKey, session)
		return c.Next()
	}
}

func bearerOrCookie(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie := c.Cookies(TokenCookie); cookie != "" {
		return cookie, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization token")
}

// RequireRoles rejects sessions whose role is not listed. It must run after
// AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := GetSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		if !lo.Contains(roles, session.Role) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// GetSession extracts the authenticated session from context.
func GetSession(c *fiber.Ctx) (utils.Session, bool) {
	session, ok := c.Locals(sessionContextKey).(utils.Session)
	return session, ok
}

// OptionalAuth attaches a session when a valid token is present and lets
// anonymous requests through unchanged.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, err := bearerOrCookie(c); err == nil {
			if session, err := utils.ParseToken(secret, token); err == nil {
				c.Locals(sessionContextKey, session)
			}
		}
		return c.Next()
	}
}
