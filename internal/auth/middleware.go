package auth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware resolves the current user from the session or a bearer token.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions *SessionManager
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions *SessionManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// LoadSession attaches the session's user, if any, to the request.
// Sessions pointing at a vanished user are treated as anonymous.
func (m *AuthMiddleware) LoadSession(c *fiber.Ctx) error {
	userID, err := m.sessions.UserID(c)
	if err != nil {
		return err
	}
	if userID == "" {
		return c.Next()
	}
	user, err := m.users.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Next()
		}
		return apperrors.MapError(err)
	}
	c.Locals(principalKey, user)
	return c.Next()
}

// RequireLogin redirects anonymous callers to the login page, remembering
// where they were going.
func (m *AuthMiddleware) RequireLogin(c *fiber.Ctx) error {
	if _, ok := CurrentUser(c); ok {
		return c.Next()
	}
	return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}

// Bearer validates bearer tokens for the JSON API.
func (m *AuthMiddleware) Bearer(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}

	user, err := m.users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// CurrentUser retrieves the authenticated user.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

// SetCurrentUser stores user as the request principal.
func SetCurrentUser(c *fiber.Ctx, user *domain.User) {
	c.Locals(principalKey, user)
}
