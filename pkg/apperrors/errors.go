// Package apperrors holds the error taxonomy shared by the business layer,
// the identity chain and the relay. The REST boundary maps these to status
// codes; nothing below it should pick HTTP codes itself.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrMFARequired     = fmt.Errorf("mfa setup required: %w", ErrForbidden)
)

// ProcessingError is a broken business rule: duplicate name, cross-case
// reference, ownership mismatch and the like.
type ProcessingError struct {
	Message string
	Data    interface{}
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// ValidationError carries field-level messages for a malformed request body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "data error"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "data error: " + strings.Join(parts, "; ")
}

// NotFound wraps ErrNotFound with the name of the missing thing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func Processing(message string, data interface{}) error {
	return &ProcessingError{Message: message, Data: data}
}

func Invalid(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// FromBinding converts gin/validator binding errors into a ValidationError.
// Decoding errors that are not validator errors end up under "body".
func FromBinding(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonFieldName(fe)] = describe(fe)
		}
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{Fields: map[string]string{"body": "malformed request body"}}
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	var out []rune
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing data for required field"
	case "min":
		return "shorter than minimum length " + fe.Param()
	case "max":
		return "longer than maximum length " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "invalid value"
	}
}
