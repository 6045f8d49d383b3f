package domain

import "errors"

var (
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrSnapshotNotFound     = errors.New("signal snapshot not found")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrAlertAlreadyResolved = errors.New("alert already resolved")
	ErrIdentityMismatch     = errors.New("user id does not match caller identity")
	ErrOracleExhausted      = errors.New("all oracles failed")
	ErrPlanNotCached        = errors.New("plan not cached")
)

const (
	CodeInvalidKind     = "INVALID_KIND"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeMissingField    = "MISSING_FIELD"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
)

// ValidationError rejects a request before any side effect.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
