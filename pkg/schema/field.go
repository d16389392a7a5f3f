package schema

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-formdraft/internal/model"
)

// Meta carries the non-generic description of a field: wire name, type,
// display hints, rules, and default. Renderers read Meta; drafts are only
// touched through the owning Schema.
type Meta struct {
	Name        string
	Type        model.FieldType
	Label       string
	Placeholder string
	Help        string
	Options     []model.Option
	Rules       []Rule
	// Default is used when DefaultFunc is nil. Lists always start empty.
	Default     any
	DefaultFunc func() any
	Sanitize    bool
	Secret      bool
	Multiline   bool

	// ItemType, ItemRules and Items describe list members. Items is set for
	// lists of records and lists the record's fields.
	ItemType  model.FieldType
	ItemRules []Rule
	Items     []Meta
}

// Required reports whether the field carries a Required rule.
func (m Meta) Required() bool {
	for _, r := range m.Rules {
		if r.Kind == model.ValidationRuleRequired {
			return true
		}
	}
	return false
}

// IsList reports whether the field holds an ordered list.
func (m Meta) IsList() bool {
	return m.Type == model.FieldTypeArray
}

// DefaultValue resolves the field default.
func (m Meta) DefaultValue() any {
	if m.DefaultFunc != nil {
		return m.DefaultFunc()
	}
	return m.Default
}

// ItemMeta returns the metadata of a record list member field.
func (m Meta) ItemMeta(name string) (Meta, bool) {
	for _, item := range m.Items {
		if item.Name == name {
			return item, true
		}
	}
	return Meta{}, false
}

func (m Meta) clone() Meta {
	out := m
	out.Options = append([]model.Option(nil), m.Options...)
	out.Rules = append([]Rule(nil), m.Rules...)
	out.ItemRules = append([]Rule(nil), m.ItemRules...)
	if len(m.Items) > 0 {
		out.Items = make([]Meta, len(m.Items))
		for i, item := range m.Items {
			out.Items[i] = item.clone()
		}
	}
	return out
}

// FieldOption adjusts field metadata during construction.
type FieldOption func(*Meta)

// Label sets the display label. Without it the name is humanised.
func Label(label string) FieldOption {
	return func(m *Meta) { m.Label = label }
}

// Placeholder sets the input placeholder.
func Placeholder(text string) FieldOption {
	return func(m *Meta) { m.Placeholder = text }
}

// Help sets the help text shown next to the input.
func Help(text string) FieldOption {
	return func(m *Meta) { m.Help = text }
}

// Options restricts the field to enumerated choices.
func Options(opts ...model.Option) FieldOption {
	return func(m *Meta) { m.Options = append(m.Options, opts...) }
}

// Rules appends validation rules.
func Rules(rules ...Rule) FieldOption {
	return func(m *Meta) { m.Rules = append(m.Rules, rules...) }
}

// ItemRules appends rules evaluated against every member of a scalar list.
func ItemRules(rules ...Rule) FieldOption {
	return func(m *Meta) { m.ItemRules = append(m.ItemRules, rules...) }
}

// Default sets a static default value.
func Default(v any) FieldOption {
	return func(m *Meta) { m.Default = v }
}

// DefaultFunc computes the default every time a draft is initialised.
func DefaultFunc(fn func() any) FieldOption {
	return func(m *Meta) { m.DefaultFunc = fn }
}

// Sanitized strips markup from string values as they are set.
func Sanitized() FieldOption {
	return func(m *Meta) { m.Sanitize = true }
}

// Secret marks values that must not be echoed (passwords).
func Secret() FieldOption {
	return func(m *Meta) { m.Secret = true }
}

// Multiline hints renderers to use a text area.
func Multiline() FieldOption {
	return func(m *Meta) { m.Multiline = true }
}

// Field binds a Meta to accessors on the draft type D.
type Field[D any] struct {
	Meta

	get  func(*D) any
	set  func(*D, any) error
	copy func(dst, src *D)
	list *listOps[D]
}

type listOps[D any] struct {
	length    func(*D) int
	appendNew func(*D) int
	removeAt  func(*D, int)
	move      func(*D, int, int)
	getItem   func(*D, int, string) (any, error)
	setItem   func(*D, int, string, any) error
	validate  func(*D) Result
}

func newMeta(name string, typ model.FieldType, opts []FieldOption) Meta {
	m := Meta{Name: name, Type: typ}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if m.Label == "" {
		m.Label = model.DefaultLabeler(name)
	}
	return m
}

// String declares a text field stored at ref.
func String[D any](name string, ref func(*D) *string, opts ...FieldOption) Field[D] {
	return Field[D]{
		Meta: newMeta(name, model.FieldTypeString, opts),
		get:  func(d *D) any { return *ref(d) },
		set: func(d *D, v any) error {
			s, err := coerceString(name, v)
			if err != nil {
				return err
			}
			*ref(d) = s
			return nil
		},
	}
}

// Int declares an integer field stored at ref.
func Int[D any](name string, ref func(*D) *int, opts ...FieldOption) Field[D] {
	return Field[D]{
		Meta: newMeta(name, model.FieldTypeInteger, opts),
		get:  func(d *D) any { return *ref(d) },
		set: func(d *D, v any) error {
			n, err := coerceInt(name, v)
			if err != nil {
				return err
			}
			*ref(d) = n
			return nil
		},
	}
}

// Float declares a decimal field stored at ref.
func Float[D any](name string, ref func(*D) *float64, opts ...FieldOption) Field[D] {
	return Field[D]{
		Meta: newMeta(name, model.FieldTypeNumber, opts),
		get:  func(d *D) any { return *ref(d) },
		set: func(d *D, v any) error {
			n, err := coerceFloat(name, v)
			if err != nil {
				return err
			}
			*ref(d) = n
			return nil
		},
	}
}

// StringList declares an ordered list of strings stored at ref. Member rules
// are supplied with ItemRules and reported under "name.index".
func StringList[D any](name string, ref func(*D) *[]string, opts ...FieldOption) Field[D] {
	meta := newMeta(name, model.FieldTypeArray, opts)
	meta.ItemType = model.FieldTypeString
	meta.Default = nil
	meta.DefaultFunc = func() any { return []string{} }
	itemRules := meta.ItemRules
	sanitize := meta.Sanitize

	return Field[D]{
		Meta: meta,
		get:  func(d *D) any { return *ref(d) },
		set: func(d *D, v any) error {
			items, err := coerceStrings(name, v)
			if err != nil {
				return err
			}
			if sanitize {
				for i := range items {
					items[i] = sanitizeText(items[i])
				}
			}
			*ref(d) = items
			return nil
		},
		copy: func(dst, src *D) {
			*ref(dst) = append([]string{}, *ref(src)...)
		},
		list: &listOps[D]{
			length: func(d *D) int { return len(*ref(d)) },
			appendNew: func(d *D) int {
				*ref(d) = append(*ref(d), "")
				return len(*ref(d)) - 1
			},
			removeAt: func(d *D, idx int) {
				*ref(d) = removeIndex(*ref(d), idx)
			},
			move: func(d *D, from, to int) {
				*ref(d) = moveIndex(*ref(d), from, to)
			},
			getItem: func(d *D, idx int, field string) (any, error) {
				if field != "" {
					return nil, unknownField(name + "." + field)
				}
				return (*ref(d))[idx], nil
			},
			setItem: func(d *D, idx int, field string, v any) error {
				if field != "" {
					return unknownField(name + "." + field)
				}
				s, err := coerceString(name, v)
				if err != nil {
					return err
				}
				if sanitize {
					s = sanitizeText(s)
				}
				(*ref(d))[idx] = s
				return nil
			},
			validate: func(d *D) Result {
				var out Result
				for i, item := range *ref(d) {
					for _, rule := range itemRules {
						if err := rule.Evaluate(item, nil); err != nil {
							out = out.with(strconv.Itoa(i), err.Error())
						}
					}
				}
				return out
			},
		},
	}
}

// List declares an ordered list of records of type T stored at ref. New
// members start from item.Defaults(); members are validated with item and
// reported under "name.index.field".
func List[D, T any](name string, ref func(*D) *[]T, item *Schema[T], opts ...FieldOption) Field[D] {
	if item == nil {
		panic(fmt.Sprintf("schema: list field %q requires an item schema", name))
	}
	meta := newMeta(name, model.FieldTypeArray, opts)
	meta.ItemType = model.FieldTypeObject
	meta.Items = item.Metas()
	meta.Default = nil
	meta.DefaultFunc = func() any { return []T{} }

	return Field[D]{
		Meta: meta,
		get:  func(d *D) any { return *ref(d) },
		set: func(d *D, v any) error {
			switch items := v.(type) {
			case nil:
				*ref(d) = []T{}
			case []T:
				cp := make([]T, len(items))
				for i := range items {
					cp[i] = item.Clone(items[i])
				}
				*ref(d) = cp
			default:
				return &ValueError{Field: name, Expected: fmt.Sprintf("[]%T", *new(T)), Value: v}
			}
			return nil
		},
		copy: func(dst, src *D) {
			s := *ref(src)
			cp := make([]T, len(s))
			for i := range s {
				cp[i] = item.Clone(s[i])
			}
			*ref(dst) = cp
		},
		list: &listOps[D]{
			length: func(d *D) int { return len(*ref(d)) },
			appendNew: func(d *D) int {
				*ref(d) = append(*ref(d), item.Defaults())
				return len(*ref(d)) - 1
			},
			removeAt: func(d *D, idx int) {
				*ref(d) = removeIndex(*ref(d), idx)
			},
			move: func(d *D, from, to int) {
				*ref(d) = moveIndex(*ref(d), from, to)
			},
			getItem: func(d *D, idx int, field string) (any, error) {
				v, ok := item.Get(&(*ref(d))[idx], field)
				if !ok {
					return nil, unknownField(name + "." + field)
				}
				return v, nil
			},
			setItem: func(d *D, idx int, field string, v any) error {
				return item.Set(&(*ref(d))[idx], field, v)
			},
			validate: func(d *D) Result {
				var out Result
				for i := range *ref(d) {
					out = out.Merge(item.Validate(&(*ref(d))[i]).prefixed(strconv.Itoa(i)))
				}
				return out
			},
		},
	}
}

func removeIndex[T any](items []T, idx int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func moveIndex[T any](items []T, from, to int) []T {
	if from == to {
		return items
	}
	moved := items[from]
	out := removeIndex(items, from)
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out
}
