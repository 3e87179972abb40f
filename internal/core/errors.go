package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Storage and services wrap these with
// %w; the HTTP layer maps them to status codes with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// Invalid returns a validation error carrying a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns ErrNotFound annotated with the missing entity.
func NotFound(entity, id string) error {
	if id == "" {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return fmt.Errorf("%s %q %w", entity, id, ErrNotFound)
}

// NoRowsAffected reports a bulk mutation that matched nothing.
func NoRowsAffected(entity string) error {
	return fmt.Errorf("%w: no %s matched the given ids", ErrConflict, entity)
}
