package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by the checkout and cancellation flows.
var (
	ErrNetwork           = errors.New("network error")
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("validation failed")
	ErrTerminalState     = errors.New("lifecycle is in a terminal state")
	ErrAlreadyInProgress = errors.New("lifecycle already in progress")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrTimeout           = errors.New("timeout")
	ErrInternal          = errors.New("internal error")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Err, target)
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// wrap joins the kind sentinel with an optional cause so both match errors.Is.
func wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Network creates a transient transport error.
func Network(op string, cause error) *AppError {
	return &AppError{
		Code:       "NETWORK_ERROR",
		Message:    fmt.Sprintf("%s failed", op),
		StatusCode: http.StatusBadGateway,
		Err:        wrap(ErrNetwork, cause),
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        ErrValidation,
	}
}

// TerminalState creates an error for a mutation attempted on a closed lifecycle.
func TerminalState(message string) *AppError {
	if message == "" {
		message = "no further changes are allowed"
	}
	return &AppError{
		Code:       "TERMINAL_STATE",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrTerminalState,
	}
}

// AlreadyInProgress creates an error for a duplicate concurrent start.
func AlreadyInProgress(message string) *AppError {
	if message == "" {
		message = "already in progress"
	}
	return &AppError{
		Code:       "ALREADY_IN_PROGRESS",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrAlreadyInProgress,
	}
}

// UnknownStatus creates an error for an enum value the client does not recognise.
// The raw value is kept in Details["value"].
func UnknownStatus(kind, value string) *AppError {
	return &AppError{
		Code:       "UNKNOWN_STATUS",
		Message:    fmt.Sprintf("unknown %s status %q", kind, value),
		StatusCode: http.StatusUnprocessableEntity,
		Err:        ErrUnknownStatus,
		Details:    map[string]any{"kind": kind, "value": value},
	}
}

// Timeout creates a timeout error.
func Timeout(message string) *AppError {
	if message == "" {
		message = "request timeout"
	}
	return &AppError{
		Code:       "TIMEOUT",
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Err:        ErrTimeout,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        wrap(ErrInternal, err),
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTerminalState), errors.Is(err, ErrAlreadyInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Error Checking Helpers ---

// IsNetwork checks if the error is a transient transport error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTerminalState checks if the error is a terminal state error.
func IsTerminalState(err error) bool {
	return errors.Is(err, ErrTerminalState)
}

// IsAlreadyInProgress checks if the error is an already in progress error.
func IsAlreadyInProgress(err error) bool {
	return errors.Is(err, ErrAlreadyInProgress)
}

// IsUnknownStatus checks if the error is an unknown status error.
func IsUnknownStatus(err error) bool {
	return errors.Is(err, ErrUnknownStatus)
}

// IsTimeout checks if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
