package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

const callerIDKey = "auth_caller_id"

// Middleware validates bearer tokens and stores the caller identity.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(callerIDKey, claims.UserID)
	return c.Next()
}

// CallerIDFromContext retrieves the authenticated user ID.
func CallerIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(callerIDKey).(string)
	return id, ok && id != ""
}
