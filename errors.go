package meta

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContextGroup indicates a context group name that does not
	// match the required pattern.
	ErrInvalidContextGroup = errors.New("meta: invalid context group name")
	// ErrStoreRequired indicates resolver construction without a metadata
	// store.
	ErrStoreRequired = errors.New("meta: store must be provided")
)

// ValidationError reports a malformed caller input together with the value
// that failed and the pattern it had to match. It wraps a sentinel so callers
// can branch with errors.Is.
type ValidationError struct {
	Field   string
	Value   string
	Pattern string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v: %s %q must match %q", e.Err, e.Field, e.Value, e.Pattern)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidContextGroup(value string) error {
	return &ValidationError{
		Field:   "context group",
		Value:   value,
		Pattern: contextGroupPattern.String(),
		Err:     ErrInvalidContextGroup,
	}
}
