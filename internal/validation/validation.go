package validation

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel every rejected input wraps
var ErrInvalidInput = errors.New("invalid input")

// Error names the field that failed validation
type Error struct {
	Field   string
	Message string
}

// Errorf builds a validation error for field
func Errorf(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrInvalidInput
}

// FieldOf returns the failing field of a validation error, or "" if err is not one
func FieldOf(err error) string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}
