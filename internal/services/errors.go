package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors mapped to HTTP statuses at the handler boundary.
// Ownership failures are deliberately reported as ErrNotFound so a
// non-owner cannot tell "not mine" from "doesn't exist".
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError carries per-field failure detail for 422 responses.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, field+": "+strings.Join(messages, "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// newValidationError translates validator.v10 failures into the
// field-keyed shape the API returns.
func newValidationError(err error) error {
	fields := map[string][]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			fields[field] = append(fields[field], validationMessage(fe))
		}
	} else {
		fields["request"] = []string{err.Error()}
	}
	return &ValidationError{Fields: fields}
}

func fieldValidationError(field, message string) error {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "is too short or too small (min " + fe.Param() + ")"
	case "max":
		return "is too long or too large (max " + fe.Param() + ")"
	case "uuid":
		return "must be a valid uuid"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
