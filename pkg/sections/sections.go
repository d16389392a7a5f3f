// Package sections splits each form into sub-sections that own a disjoint
// set of fields. A section reads and writes only through the form.Editor it
// is handed, so it cannot touch fields owned by another section.
package sections

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formdraft/pkg/form"
)

// ErrOverlap is returned when two sections claim the same field.
var ErrOverlap = errors.New("sections: field owned by more than one section")

// Question is a free text prompt.
type Question struct {
	Message   string
	Default   string
	Help      string
	Secret    bool
	Multiline bool
}

// Choice is a single selection prompt.
type Choice struct {
	Message string
	Options []string
	Default int
	Help    string
}

// Prompter is the interaction surface sections render onto.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
	Choose(ctx context.Context, c Choice) (int, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Notice(ctx context.Context, msg string) error
}

// Section edits a slice of a draft.
type Section interface {
	Name() string
	// Fields lists the schema fields the section owns.
	Fields() []string
	Render(ctx context.Context, ed form.Editor, p Prompter) error
}

// CheckDisjoint fails when a field is owned by more than one section.
func CheckDisjoint(secs ...Section) error {
	owner := make(map[string]string)
	for _, sec := range secs {
		for _, name := range sec.Fields() {
			if prev, ok := owner[name]; ok {
				return fmt.Errorf("%w: %q claimed by %s and %s", ErrOverlap, name, prev, sec.Name())
			}
			owner[name] = sec.Name()
		}
	}
	return nil
}

// RenderAll renders secs in order against c, each through a scope limited to
// its own fields.
func RenderAll[D any](ctx context.Context, c *form.Controller[D], p Prompter, secs ...Section) error {
	if err := CheckDisjoint(secs...); err != nil {
		return err
	}
	for _, sec := range secs {
		scope, err := c.Scope(sec.Fields()...)
		if err != nil {
			return fmt.Errorf("sections: %s: %w", sec.Name(), err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sec.Render(ctx, scope, p); err != nil {
			return fmt.Errorf("sections: %s: %w", sec.Name(), err)
		}
	}
	return nil
}
