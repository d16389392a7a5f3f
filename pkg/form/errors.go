package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdraft/internal/model"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

var (
	// ErrUnknownField aliases the schema error so callers only import form.
	ErrUnknownField = schema.ErrUnknownField
	// ErrInvalidValue is returned when a value cannot be coerced.
	ErrInvalidValue = schema.ErrInvalidValue
	// ErrFieldNotOwned is returned when a scope touches a field it does not own.
	ErrFieldNotOwned = errors.New("form: field not owned by scope")
	// ErrInvalid is matched by every *ValidationError.
	ErrInvalid = errors.New("form: draft is invalid")
)

// ValidationError is returned by Submit when the draft fails validation. The
// handler was not invoked.
type ValidationError struct {
	Result schema.Result
}

func (e *ValidationError) Error() string {
	paths := e.Result.Paths()
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", model.PathLabel(path), strings.Join(e.Result.Messages(path), ", ")))
	}
	return fmt.Sprintf("form: %d invalid field(s): %s", len(paths), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// ServerErrors is the result of mapping a backend error payload onto the
// draft: field messages keyed by dotted path plus messages that could not be
// tied to a field.
type ServerErrors struct {
	Fields map[string][]string
	Form   []string
}
