package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the machine-readable classification of a domain error. Clients
// branch on Kind, humans read Message.
type Kind string

const (
	KindInvalidTransition Kind = "invalid_transition"
	KindOTPMismatch       Kind = "otp_mismatch"
	KindOTPExpired        Kind = "otp_expired"
	KindOTPNotFound       Kind = "otp_not_found"
	KindOTPBlocked        Kind = "otp_blocked"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindValidation        Kind = "validation"
)

// Error is a domain error with a machine-readable kind.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports an action attempted from a state that does not
// permit it, identifying current vs attempted so the client can re-fetch and
// re-render the correct actions.
func InvalidTransition(current, attempted string) *Error {
	return Newf(KindInvalidTransition, "cannot %s from status %q", attempted, current)
}

func NotFound(entity string) *Error {
	return Newf(KindNotFound, "%s not found", entity)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// HTTPStatus maps an error kind to the HTTP status code the controllers
// respond with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound, KindOTPNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindInvalidTransition, KindConflict:
		return fiber.StatusConflict
	case KindOTPMismatch, KindOTPExpired, KindValidation:
		return fiber.StatusBadRequest
	case KindOTPBlocked:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// AsError unwraps err into a domain *Error if it is one.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
