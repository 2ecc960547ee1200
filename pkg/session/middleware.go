package session

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

// LocalsKey is the fiber locals key the resolved user is stored under.
const LocalsKey = "user"

// Middleware attaches the session user to the request context when the request carries a valid
// session. Requests without one pass through; handlers that need a user reject them.
func Middleware(store Store, logger *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		sessionID := c.Cookies(CookieName)
		if sessionID == "" {
			sessionID = c.Get(HeaderName)
		}

		if sessionID == "" {
			return c.Next()
		}

		user, err := store.Lookup(c.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				logger.WarnContext(c.Context(), "Failed to resolve session", "error", err)
			}

			return c.Next()
		}

		c.Locals(LocalsKey, user)
		c.SetContext(WithUser(c.Context(), user))

		return c.Next()
	}
}
