package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/schema"
)

// Editor is the narrow contract sub-sections work against. It exposes only
// the fields a section owns; everything else is rejected with
// ErrFieldNotOwned.
type Editor interface {
	Names() []string
	Meta(name string) (schema.Meta, bool)
	Get(name string) (any, error)
	SetField(name string, value any) error
	Len(name string) (int, error)
	AppendItem(name string) (int, error)
	RemoveItem(name string, index int) error
	MoveItem(name string, from, to int) error
	Item(name string, index int, field string) (any, error)
	SetItemField(name string, index int, field string, value any) error
	Errors() schema.Result
}

// Scope restricts a controller to a subset of field names.
type Scope[D any] struct {
	c     *Controller[D]
	names []string
	owned map[string]struct{}
}

var _ Editor = (*Scope[struct{}])(nil)

// Scope returns an Editor limited to names. Every name must exist in the
// schema.
func (c *Controller[D]) Scope(names ...string) (*Scope[D], error) {
	s := &Scope[D]{c: c, owned: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if !c.schema.Has(name) {
			return nil, fmt.Errorf("form: scope %q: %w", name, schema.ErrUnknownField)
		}
		if _, dup := s.owned[name]; dup {
			continue
		}
		s.owned[name] = struct{}{}
		s.names = append(s.names, name)
	}
	return s, nil
}

func (s *Scope[D]) check(name string) error {
	if _, ok := s.owned[name]; !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotOwned, name)
	}
	return nil
}

// Names lists the owned fields in the order they were given.
func (s *Scope[D]) Names() []string {
	return append([]string(nil), s.names...)
}

// Owns reports whether name belongs to the scope.
func (s *Scope[D]) Owns(name string) bool {
	_, ok := s.owned[name]
	return ok
}

// Meta returns the metadata of an owned field.
func (s *Scope[D]) Meta(name string) (schema.Meta, bool) {
	if !s.Owns(name) {
		return schema.Meta{}, false
	}
	return s.c.schema.Meta(name)
}

// Get reads an owned field.
func (s *Scope[D]) Get(name string) (any, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.c.Get(name)
}

// SetField writes an owned field through the controller.
func (s *Scope[D]) SetField(name string, value any) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.c.SetField(name, value)
}

// Len returns the length of an owned list field.
func (s *Scope[D]) Len(name string) (int, error) {
	if err := s.check(name); err != nil {
		return 0, err
	}
	return s.c.Len(name)
}

// AppendItem appends a defaulted item to an owned list and returns its index.
func (s *Scope[D]) AppendItem(name string) (int, error) {
	if err := s.check(name); err != nil {
		return 0, err
	}
	return s.c.AppendItem(name)
}

// RemoveItem deletes the item at index from an owned list.
func (s *Scope[D]) RemoveItem(name string, index int) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.c.RemoveItem(name, index)
}

// MoveItem moves an item of an owned list from one index to another.
func (s *Scope[D]) MoveItem(name string, from, to int) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.c.MoveItem(name, from, to)
}

// Item reads a field of an owned list member.
func (s *Scope[D]) Item(name string, index int, field string) (any, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.c.Item(name, index, field)
}

// SetItemField writes a field of an owned list member.
func (s *Scope[D]) SetItemField(name string, index int, field string, value any) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.c.SetItemField(name, index, field, value)
}

// Errors returns the controller's current messages for owned paths only.
func (s *Scope[D]) Errors() schema.Result {
	all := s.c.Errors().Map()
	owned := make(map[string][]string)
	for path, msgs := range all {
		root := path
		if idx := strings.IndexByte(path, '.'); idx >= 0 {
			root = path[:idx]
		}
		if s.Owns(root) {
			owned[path] = msgs
		}
	}
	return schema.NewResult(owned)
}
