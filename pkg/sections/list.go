package sections

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formdraft/pkg/form"
)

// List actions offered by a list section, in menu order.
const (
	ActionAdd = iota
	ActionEdit
	ActionRemove
	ActionMove
	ActionDone
)

var listActions = []string{"Add item", "Edit item", "Remove item", "Move item", "Done"}

// List is a section owning one list field. Items are appended with their
// defaults, edited in place, removed by index and reordered.
type List struct {
	name  string
	field string
	// summary names the member field shown in item pickers.
	summary string
}

// NewList returns a section named name owning the list field. summary is the
// member field used to label items; empty for string lists.
func NewList(name, field, summary string) *List {
	return &List{name: name, field: field, summary: summary}
}

func (s *List) Name() string     { return s.name }
func (s *List) Fields() []string { return []string{s.field} }

func (s *List) Render(ctx context.Context, ed form.Editor, p Prompter) error {
	meta, ok := ed.Meta(s.field)
	if !ok {
		return fmt.Errorf("%w: %q", form.ErrFieldNotOwned, s.field)
	}
	if !meta.IsList() {
		return fmt.Errorf("sections: %s is not a list", s.field)
	}

	for {
		n, err := ed.Len(s.field)
		if err != nil {
			return err
		}
		action, err := p.Choose(ctx, Choice{
			Message: fmt.Sprintf("%s (%d)", meta.Label, n),
			Options: listActions,
			Default: ActionAdd,
		})
		if err != nil {
			return err
		}

		switch action {
		case ActionAdd:
			idx, err := ed.AppendItem(s.field)
			if err != nil {
				return err
			}
			if err := s.editItem(ctx, ed, p, idx); err != nil {
				return err
			}
		case ActionEdit, ActionRemove, ActionMove:
			if n == 0 {
				if err := p.Notice(ctx, meta.Label+": no items yet"); err != nil {
					return err
				}
				continue
			}
			idx, err := s.pick(ctx, ed, p, "Which item?", n)
			if err != nil {
				return err
			}
			switch action {
			case ActionEdit:
				err = s.editItem(ctx, ed, p, idx)
			case ActionRemove:
				err = ed.RemoveItem(s.field, idx)
			case ActionMove:
				var to int
				to, err = s.pick(ctx, ed, p, "Move to position", n)
				if err == nil {
					err = ed.MoveItem(s.field, idx, to)
				}
			}
			if err != nil {
				return err
			}
		case ActionDone:
			if msgs := ed.Errors().Messages(s.field); len(msgs) > 0 {
				if err := p.Notice(ctx, fmt.Sprintf("%s: %v", meta.Label, msgs[0])); err != nil {
					return err
				}
			}
			return nil
		default:
			if err := p.Notice(ctx, "pick one of the listed actions"); err != nil {
				return err
			}
		}
	}
}

func (s *List) pick(ctx context.Context, ed form.Editor, p Prompter, msg string, n int) (int, error) {
	options := make([]string, n)
	for i := 0; i < n; i++ {
		options[i] = "#" + strconv.Itoa(i+1)
		if v, err := ed.Item(s.field, i, s.summary); err == nil {
			if text := display(v); text != "" {
				options[i] += " " + text
			}
		}
	}
	for {
		idx, err := p.Choose(ctx, Choice{Message: msg, Options: options})
		if err != nil {
			return 0, err
		}
		if idx >= 0 && idx < n {
			return idx, nil
		}
		if err := p.Notice(ctx, "pick one of the listed items"); err != nil {
			return 0, err
		}
	}
}

func (s *List) editItem(ctx context.Context, ed form.Editor, p Prompter, idx int) error {
	meta, _ := ed.Meta(s.field)
	prefix := s.field + "." + strconv.Itoa(idx)

	if len(meta.Items) == 0 {
		item := meta
		item.Label = fmt.Sprintf("%s #%d", meta.Label, idx+1)
		item.Options = nil
		return promptValue(ctx, ed, p, target{
			meta: item,
			path: prefix,
			get:  func() (any, error) { return ed.Item(s.field, idx, "") },
			set:  func(v any) error { return ed.SetItemField(s.field, idx, "", v) },
		})
	}

	for _, im := range meta.Items {
		field := im.Name
		item := im
		item.Label = fmt.Sprintf("#%d %s", idx+1, im.Label)
		err := promptValue(ctx, ed, p, target{
			meta: item,
			path: prefix + "." + field,
			get:  func() (any, error) { return ed.Item(s.field, idx, field) },
			set:  func(v any) error { return ed.SetItemField(s.field, idx, field, v) },
		})
		if err != nil {
			return err
		}
	}
	return nil
}
