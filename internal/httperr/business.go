package httperr

import (
	"errors"
	"fmt"
)

// Scheduling/booking business error codes. Every expected failure of the
// booking core maps to exactly one of these; handlers translate them to
// HTTP statuses.
const (
	CodeInvalidInterval     = "invalid_interval"
	CodeInvalidRequest      = "invalid_request"
	CodeNoQualifiedMechanic = "no_qualified_mechanic"
	CodeNoAvailability      = "no_availability"
	CodeConflict            = "time_conflict"
	CodeIllegalTransition   = "illegal_transition"
	CodeNotFound            = "not_found"
	CodeReleaseFailed       = "release_failed"
)

type BusinessError struct {
	Code    string
	Message string
}

func (e BusinessError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func ErrBusinessf(code string, format string, args ...any) error {
	return BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// BusinessCode extracts the code of a business error, or "" when err is
// not one (an unexpected failure).
func BusinessCode(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
