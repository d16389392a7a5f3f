package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a name is not part of the schema.
	ErrUnknownField = errors.New("schema: unknown field")
	// ErrInvalidValue is returned when a value cannot be stored in a field.
	ErrInvalidValue = errors.New("schema: invalid value")
	// ErrNotList is returned when a list operation targets a scalar field.
	ErrNotList = errors.New("schema: field is not a list")
	// ErrIndexOutOfRange is returned for list indices outside the list.
	ErrIndexOutOfRange = errors.New("schema: index out of range")
)

// ValueError describes a value that could not be coerced into a field.
type ValueError struct {
	Field    string
	Expected string
	Value    any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("schema: field %q expects %s, got %T", e.Field, e.Expected, e.Value)
}

func (e *ValueError) Unwrap() error { return ErrInvalidValue }

func unknownField(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownField, name)
}
