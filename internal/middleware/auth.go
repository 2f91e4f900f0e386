package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/store"
)

const (
	userContextKey        = "currentUserID"
	currentUserContextKey = "currentUser"
)

// TokenVerifier resolves a session token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// UserFinder loads users by id.
type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireAuthenticated validates the session token and stores the caller's
// user ID in the request context. It never touches the datastore.
func RequireAuthenticated(tokens TokenVerifier, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			RequestLogger(c, log).Debug().Str("path", c.Path()).Msg("rejected session token")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// RequireAdmin lets the request through only when the authenticated caller
// exists and holds the admin role. It must run after RequireAuthenticated.
func RequireAdmin(users UserFinder, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		user, err := users.FindUserByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
			}
			return err
		}

		if !user.Role.IsAdmin() {
			RequestLogger(c, log).Warn().
				Str("user_id", userID.String()).
				Str("path", c.Path()).
				Msg("non-admin access to admin route")
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		c.Locals(currentUserContextKey, user)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentUser returns the user loaded by RequireAdmin, if any.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(currentUserContextKey).(*models.User)
	return user, ok && user != nil
}

// extractToken accepts both a raw token and the "Bearer <token>" form.
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if strings.ContainsAny(header, " \t") {
		return ""
	}
	return header
}
