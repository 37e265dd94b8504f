package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"ingexai/auth"
	"ingexai/store"
	"ingexai/types"
)

const UserKey = "user"

// Auth resolves the authenticated caller from a Bearer token and stashes the
// user in the request locals for the handlers behind it.
func Auth(userStore store.DBStorer, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return auth.ErrInvalidToken
		}

		username, err := auth.ParseToken(token, jwtSecret)
		if err != nil {
			return err
		}

		user, err := userStore.GetUserByUsername(c.Context(), username)
		if err != nil {
			// A token naming an unknown user is a credential problem;
			// anything else is a store failure and keeps its own error.
			if errors.Is(err, types.ErrNotFound) {
				return auth.ErrInvalidToken
			}
			return err
		}

		c.Locals(UserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user placed in locals by Auth.
func CurrentUser(c *fiber.Ctx) (*types.User, bool) {
	user, ok := c.Locals(UserKey).(*types.User)
	return user, ok
}
