package middleware

import (
	"errors"
	"net/http"

	"maternityCare/domain"
	"maternityCare/pkg/logger"
	jsonres "maternityCare/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler turns errors returned from handlers into the shared error
// envelope. Anything unrecognised becomes a generic 500 so store and oracle
// details never reach the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"user_id", CallerID(c),
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logger.Error("failed to write error response", "error", writeErr)
	}
}

func mapError(err error) (int, interface{}) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, jsonres.Error(validationErr.Code, validationErr.Message, nil)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, jsonres.Error(codeForStatus(httpErr.Code), msg, nil)
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, jsonres.Error("RATE_LIMITED", "Too many events, slow down", nil)
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, jsonres.Error("NOT_FOUND", "Profile not found", nil)
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound, jsonres.Error("NOT_FOUND", "No signal snapshot yet", nil)
	case errors.Is(err, domain.ErrAlertNotFound):
		return http.StatusNotFound, jsonres.Error("NOT_FOUND", "Alert not found", nil)
	case errors.Is(err, domain.ErrIdentityMismatch):
		return http.StatusForbidden, jsonres.Error("FORBIDDEN", "You can only act on your own data", nil)
	case errors.Is(err, domain.ErrAlertAlreadyResolved):
		return http.StatusConflict, jsonres.Error("CONFLICT", "Alert already resolved", nil)
	}

	return http.StatusInternalServerError, jsonres.Error("INTERNAL_ERROR", "Something went wrong", nil)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "ERROR"
}
