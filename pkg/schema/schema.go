package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema is the immutable, ordered field set of one entity type D. Field
// names are fixed at construction; every read and write of a draft goes
// through the typed accessors the fields were declared with.
type Schema[D any] struct {
	entity     string
	fields     []Field[D]
	index      map[string]int
	dependents map[string][]string
}

// FieldValue is one entry of a draft projection, in schema order.
type FieldValue struct {
	Name  string
	Type  string
	Value any
}

// New builds a schema for entity from the given fields. Duplicate or empty
// names and cross-field rules referencing unknown fields are rejected.
func New[D any](entity string, fields ...Field[D]) (*Schema[D], error) {
	s := &Schema[D]{
		entity:     strings.TrimSpace(entity),
		fields:     make([]Field[D], 0, len(fields)),
		index:      make(map[string]int, len(fields)),
		dependents: make(map[string][]string),
	}
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("schema %s: field name required", s.entity)
		}
		if strings.Contains(name, ".") {
			return nil, fmt.Errorf("schema %s: field name %q must not contain '.'", s.entity, name)
		}
		if f.get == nil || f.set == nil {
			return nil, fmt.Errorf("schema %s: field %q has no accessor", s.entity, name)
		}
		if _, exists := s.index[name]; exists {
			return nil, fmt.Errorf("schema %s: duplicate field %q", s.entity, name)
		}
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	for _, f := range s.fields {
		for _, rule := range f.Rules {
			for _, dep := range rule.Fields {
				if _, ok := s.index[dep]; !ok {
					return nil, fmt.Errorf("schema %s: field %q rule references %w", s.entity, f.Name, unknownField(dep))
				}
				s.addDependent(dep, f.Name)
			}
		}
	}
	return s, nil
}

// MustNew is New for package-level schema declarations.
func MustNew[D any](entity string, fields ...Field[D]) *Schema[D] {
	s, err := New(entity, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema[D]) addDependent(source, dependent string) {
	for _, existing := range s.dependents[source] {
		if existing == dependent {
			return
		}
	}
	s.dependents[source] = append(s.dependents[source], dependent)
}

// Entity returns the entity name the schema describes.
func (s *Schema[D]) Entity() string {
	return s.entity
}

// Names lists field names in declaration order.
func (s *Schema[D]) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Metas returns a copy of every field's metadata in declaration order.
func (s *Schema[D]) Metas() []Meta {
	out := make([]Meta, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Meta.clone()
	}
	return out
}

// Meta returns the metadata of the named field.
func (s *Schema[D]) Meta(name string) (Meta, bool) {
	f, ok := s.field(name)
	if !ok {
		return Meta{}, false
	}
	return f.Meta.clone(), true
}

// Has reports whether name is a field of the schema.
func (s *Schema[D]) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema[D]) field(name string) (*Field[D], bool) {
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.fields[idx], true
}

// Defaults returns a draft with every field holding its declared default.
// Fields without a default keep the zero value of their type; lists are
// empty, never nil.
func (s *Schema[D]) Defaults() D {
	var d D
	for i := range s.fields {
		f := &s.fields[i]
		v := f.DefaultValue()
		if v == nil && f.list == nil {
			continue
		}
		if err := f.set(&d, v); err != nil {
			panic(fmt.Sprintf("schema %s: default for %q: %v", s.entity, f.Name, err))
		}
	}
	return d
}

// Clone returns a deep copy of d. List fields are copied so that mutations
// of the clone never reach the source.
func (s *Schema[D]) Clone(d D) D {
	out := d
	for i := range s.fields {
		if s.fields[i].copy != nil {
			s.fields[i].copy(&out, &d)
		}
	}
	return out
}

// Get returns the current value of name.
func (s *Schema[D]) Get(d *D, name string) (any, bool) {
	f, ok := s.field(name)
	if !ok {
		return nil, false
	}
	return f.get(d), true
}

// Set coerces value into the named field. Sanitized string fields are
// stripped of markup first.
func (s *Schema[D]) Set(d *D, name string, value any) error {
	f, ok := s.field(name)
	if !ok {
		return unknownField(name)
	}
	if f.Sanitize && f.list == nil {
		if str, isString := value.(string); isString {
			value = sanitizeText(str)
		}
	}
	return f.set(d, value)
}

// Values exposes the draft as rule siblings.
func (s *Schema[D]) Values(d *D) Values {
	return ValuesFunc(func(name string) (any, bool) {
		return s.Get(d, name)
	})
}

// Validate evaluates every field and returns the combined result.
func (s *Schema[D]) Validate(d *D) Result {
	out := Result{}
	for i := range s.fields {
		out = out.Merge(s.validateField(d, &s.fields[i]))
	}
	return out
}

// ValidateField evaluates one field, including the members of list fields.
func (s *Schema[D]) ValidateField(d *D, name string) (Result, error) {
	f, ok := s.field(name)
	if !ok {
		return Result{}, unknownField(name)
	}
	return s.validateField(d, f), nil
}

func (s *Schema[D]) validateField(d *D, f *Field[D]) Result {
	out := Result{}
	value := f.get(d)
	siblings := s.Values(d)
	for _, rule := range f.Rules {
		if err := rule.Evaluate(value, siblings); err != nil {
			out = out.with(f.Name, err.Error())
		}
	}
	if f.list != nil && f.list.validate != nil {
		out = out.Merge(f.list.validate(d).prefixed(f.Name))
	}
	return out
}

// Dependents lists the fields whose rules read name.
func (s *Schema[D]) Dependents(name string) []string {
	return append([]string(nil), s.dependents[name]...)
}

// Project returns every field value in declaration order.
func (s *Schema[D]) Project(d *D) []FieldValue {
	clone := s.Clone(*d)
	out := make([]FieldValue, len(s.fields))
	for i, f := range s.fields {
		out[i] = FieldValue{Name: f.Name, Type: string(f.Type), Value: f.get(&clone)}
	}
	return out
}

// Len returns the number of members of a list field.
func (s *Schema[D]) Len(d *D, name string) (int, error) {
	ops, err := s.listOps(name)
	if err != nil {
		return 0, err
	}
	return ops.length(d), nil
}

// AppendItem adds a member populated with item defaults and returns its
// index.
func (s *Schema[D]) AppendItem(d *D, name string) (int, error) {
	ops, err := s.listOps(name)
	if err != nil {
		return 0, err
	}
	return ops.appendNew(d), nil
}

// RemoveItem deletes the member at index, preserving the order of the rest.
func (s *Schema[D]) RemoveItem(d *D, name string, index int) error {
	ops, err := s.listOps(name)
	if err != nil {
		return err
	}
	if err := checkIndex(name, index, ops.length(d)); err != nil {
		return err
	}
	ops.removeAt(d, index)
	return nil
}

// MoveItem relocates the member at from to position to.
func (s *Schema[D]) MoveItem(d *D, name string, from, to int) error {
	ops, err := s.listOps(name)
	if err != nil {
		return err
	}
	n := ops.length(d)
	if err := checkIndex(name, from, n); err != nil {
		return err
	}
	if err := checkIndex(name, to, n); err != nil {
		return err
	}
	ops.move(d, from, to)
	return nil
}

// Item reads a list member. field is empty for scalar lists.
func (s *Schema[D]) Item(d *D, name string, index int, field string) (any, error) {
	ops, err := s.listOps(name)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(name, index, ops.length(d)); err != nil {
		return nil, err
	}
	return ops.getItem(d, index, field)
}

// SetItem writes a list member in place. field is empty for scalar lists.
func (s *Schema[D]) SetItem(d *D, name string, index int, field string, value any) error {
	ops, err := s.listOps(name)
	if err != nil {
		return err
	}
	if err := checkIndex(name, index, ops.length(d)); err != nil {
		return err
	}
	return ops.setItem(d, index, field, value)
}

func (s *Schema[D]) listOps(name string) (*listOps[D], error) {
	f, ok := s.field(name)
	if !ok {
		return nil, unknownField(name)
	}
	if f.list == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotList, name)
	}
	return f.list, nil
}

func checkIndex(name string, index, length int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%w: %s[%s] (len %d)", ErrIndexOutOfRange, name, strconv.Itoa(index), length)
	}
	return nil
}
