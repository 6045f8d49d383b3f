package rest

import (
	"strings"

	"maternityCare/domain"
	"maternityCare/internal/middleware"

	"github.com/labstack/echo/v4"
)

// subjectFor resolves which user a request acts on. An empty requested id
// means the caller. A different id is only accepted from admins when
// allowAdmin is set.
func subjectFor(c echo.Context, requested string, allowAdmin bool) (string, error) {
	caller := middleware.CallerID(c)
	if caller == "" {
		return "", echo.ErrUnauthorized
	}

	requested = strings.TrimSpace(requested)
	if requested == "" || requested == caller {
		return caller, nil
	}
	if allowAdmin && middleware.IsAdmin(c) {
		return requested, nil
	}
	return "", domain.ErrIdentityMismatch
}

func badRequest(err error) error {
	return domain.NewValidationError("BAD_REQUEST", err.Error())
}
