package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

func callerID(c *fiber.Ctx) (string, error) {
	id, ok := auth.CallerIDFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("caller required")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// parseTimeParam reads an RFC3339 query parameter. Missing values return nil.
func parseTimeParam(c *fiber.Ctx, name string) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(name))
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewFieldError(name, apperrors.ReasonInvalidValue, name+" must be RFC3339")
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func optionalQuery(c *fiber.Ctx, name string) *string {
	val := strings.TrimSpace(c.Query(name))
	if val == "" {
		return nil
	}
	return &val
}
