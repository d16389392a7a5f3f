package sections

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/form"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

// Fields is a section of scalar fields prompted one after another.
type Fields struct {
	name   string
	fields []string
}

// NewFields returns a section named name owning fields.
func NewFields(name string, fields ...string) *Fields {
	return &Fields{name: name, fields: append([]string(nil), fields...)}
}

func (s *Fields) Name() string     { return s.name }
func (s *Fields) Fields() []string { return append([]string(nil), s.fields...) }

func (s *Fields) Render(ctx context.Context, ed form.Editor, p Prompter) error {
	for _, name := range s.fields {
		meta, ok := ed.Meta(name)
		if !ok {
			return fmt.Errorf("%w: %q", form.ErrFieldNotOwned, name)
		}
		if meta.IsList() {
			return fmt.Errorf("sections: %s is a list, use a list section", name)
		}
		t := target{
			meta: meta,
			path: name,
			get:  func() (any, error) { return ed.Get(name) },
			set:  func(v any) error { return ed.SetField(name, v) },
		}
		if err := promptValue(ctx, ed, p, t); err != nil {
			return err
		}
	}
	return nil
}

// target is one editable value: a root field or a list member field.
type target struct {
	meta schema.Meta
	path string
	get  func() (any, error)
	set  func(any) error
}

// promptValue asks for t until it validates. Answering the same value twice
// keeps it despite errors; cross-field rules are settled by the final
// validation on submit.
func promptValue(ctx context.Context, ed form.Editor, p Prompter, t target) error {
	var previous *string
	for {
		current, err := t.get()
		if err != nil {
			return err
		}

		var answer string
		if len(t.meta.Options) > 0 {
			idx, err := p.Choose(ctx, Choice{
				Message: message(t.meta),
				Options: optionLabels(t.meta),
				Default: optionIndex(t.meta, current),
				Help:    help(t.meta),
			})
			if err != nil {
				return err
			}
			if idx < 0 || idx >= len(t.meta.Options) {
				if err := p.Notice(ctx, fmt.Sprintf("%s: pick one of the listed options", t.meta.Label)); err != nil {
					return err
				}
				continue
			}
			answer = strconv.Itoa(idx)
			err = t.set(t.meta.Options[idx].Value)
			if err != nil {
				return err
			}
		} else {
			def := display(current)
			if t.meta.Secret {
				def = ""
			}
			answer, err = p.Ask(ctx, Question{
				Message:   message(t.meta),
				Default:   def,
				Help:      help(t.meta),
				Secret:    t.meta.Secret,
				Multiline: t.meta.Multiline,
			})
			if err != nil {
				return err
			}
			if err := t.set(answer); err != nil {
				if !errors.Is(err, form.ErrInvalidValue) {
					return err
				}
				if err := p.Notice(ctx, fmt.Sprintf("%s: %v", t.meta.Label, err)); err != nil {
					return err
				}
				continue
			}
		}

		msgs := ed.Errors().Messages(t.path)
		if len(msgs) == 0 || (previous != nil && *previous == answer) {
			return nil
		}
		if err := p.Notice(ctx, fmt.Sprintf("%s: %s", t.meta.Label, strings.Join(msgs, ", "))); err != nil {
			return err
		}
		previous = &answer
	}
}

func message(meta schema.Meta) string {
	if meta.Required() {
		return meta.Label + " *"
	}
	return meta.Label
}

func help(meta schema.Meta) string {
	if meta.Help != "" {
		return meta.Help
	}
	return meta.Placeholder
}

func optionLabels(meta schema.Meta) []string {
	out := make([]string, len(meta.Options))
	for i, opt := range meta.Options {
		out[i] = opt.Label
	}
	return out
}

func optionIndex(meta schema.Meta, value any) int {
	for i, opt := range meta.Options {
		if opt.Value == value {
			return i
		}
	}
	return 0
}

func display(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
