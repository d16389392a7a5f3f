// Package form holds the state of one draft while it is being edited: the
// current values, which fields were touched, and the latest validation
// result. It never performs I/O; Submit hands a snapshot to a caller supplied
// handler.
package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formdraft/pkg/observability"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

// Handler receives a validated snapshot of the draft.
type Handler[D any] func(ctx context.Context, draft D) error

// Change describes a mutation applied to the draft. Index is -1 for scalar
// fields.
type Change struct {
	Field string
	Index int
	Op    string
}

// Change operations.
const (
	OpSet    = "set"
	OpAppend = "append"
	OpRemove = "remove"
	OpMove   = "move"
	OpReset  = "reset"
	OpServer = "server"
)

// Option configures a Controller.
type Option[D any] func(*Controller[D])

// WithInitial starts the form from an existing draft (edit mode) instead of
// the schema defaults.
func WithInitial[D any](draft D) Option[D] {
	return func(c *Controller[D]) {
		c.initial = c.schema.Clone(draft)
	}
}

// WithLogger sets the logger used for debug traces of field changes.
func WithLogger[D any](logger observability.Logger) Option[D] {
	return func(c *Controller[D]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns one draft. It is not safe for concurrent use; a form is
// driven from a single event loop.
type Controller[D any] struct {
	schema  *schema.Schema[D]
	initial D
	draft   D
	errors  schema.Result
	dirty   map[string]bool
	server  []string
	logger  observability.Logger

	listeners map[int]func(Change)
	nextID    int
}

// New initialises a controller with every field holding its default.
func New[D any](s *schema.Schema[D], opts ...Option[D]) *Controller[D] {
	if s == nil {
		panic("form: schema required")
	}
	c := &Controller[D]{
		schema:    s,
		initial:   s.Defaults(),
		logger:    observability.Nop{},
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.draft = s.Clone(c.initial)
	c.dirty = make(map[string]bool)
	return c
}

// Schema returns the schema the form is bound to.
func (c *Controller[D]) Schema() *schema.Schema[D] {
	return c.schema
}

// Snapshot returns a deep copy of the current draft.
func (c *Controller[D]) Snapshot() D {
	return c.schema.Clone(c.draft)
}

// Get returns the current value of a field.
func (c *Controller[D]) Get(name string) (any, error) {
	v, ok := c.schema.Get(&c.draft, name)
	if !ok {
		return nil, fmt.Errorf("form: get %q: %w", name, schema.ErrUnknownField)
	}
	return v, nil
}

// SetField stores value in the named field and re-validates it together
// with any field whose rules read it.
func (c *Controller[D]) SetField(name string, value any) error {
	if err := c.schema.Set(&c.draft, name, value); err != nil {
		return fmt.Errorf("form: set %s: %w", name, err)
	}
	c.touched(name, -1, OpSet)
	return nil
}

// Len returns the number of members of a list field.
func (c *Controller[D]) Len(name string) (int, error) {
	n, err := c.schema.Len(&c.draft, name)
	if err != nil {
		return 0, fmt.Errorf("form: len %s: %w", name, err)
	}
	return n, nil
}

// AppendItem adds a list member populated with its defaults and returns the
// new index.
func (c *Controller[D]) AppendItem(name string) (int, error) {
	idx, err := c.schema.AppendItem(&c.draft, name)
	if err != nil {
		return 0, fmt.Errorf("form: append %s: %w", name, err)
	}
	c.touched(name, idx, OpAppend)
	return idx, nil
}

// RemoveItem deletes the list member at index.
func (c *Controller[D]) RemoveItem(name string, index int) error {
	if err := c.schema.RemoveItem(&c.draft, name, index); err != nil {
		return fmt.Errorf("form: remove %s: %w", name, err)
	}
	c.touched(name, index, OpRemove)
	return nil
}

// MoveItem reorders a list member.
func (c *Controller[D]) MoveItem(name string, from, to int) error {
	if err := c.schema.MoveItem(&c.draft, name, from, to); err != nil {
		return fmt.Errorf("form: move %s: %w", name, err)
	}
	c.touched(name, to, OpMove)
	return nil
}

// Item reads one list member. field is empty for lists of strings.
func (c *Controller[D]) Item(name string, index int, field string) (any, error) {
	v, err := c.schema.Item(&c.draft, name, index, field)
	if err != nil {
		return nil, fmt.Errorf("form: item %s: %w", name, err)
	}
	return v, nil
}

// SetItemField edits one list member in place.
func (c *Controller[D]) SetItemField(name string, index int, field string, value any) error {
	if err := c.schema.SetItem(&c.draft, name, index, field, value); err != nil {
		return fmt.Errorf("form: set %s[%d]: %w", name, index, err)
	}
	c.touched(name, index, OpSet)
	return nil
}

func (c *Controller[D]) touched(name string, index int, op string) {
	c.dirty[name] = true
	c.revalidate(name)
	for _, dep := range c.schema.Dependents(name) {
		c.revalidate(dep)
	}
	c.logger.Debug("form field changed", "entity", c.schema.Entity(), "field", name, "index", index, "op", op)
	c.emit(Change{Field: name, Index: index, Op: op})
}

func (c *Controller[D]) revalidate(name string) {
	res, err := c.schema.ValidateField(&c.draft, name)
	if err != nil {
		return
	}
	c.errors = c.errors.Replace(name, res)
}

// ValidateAll evaluates every field, stores and returns the result.
func (c *Controller[D]) ValidateAll() schema.Result {
	c.errors = c.schema.Validate(&c.draft)
	c.server = nil
	return c.errors
}

// Errors returns the latest validation result without re-evaluating.
func (c *Controller[D]) Errors() schema.Result {
	return c.errors
}

// FormErrors returns messages from the last server response that could not
// be tied to a field.
func (c *Controller[D]) FormErrors() []string {
	return append([]string(nil), c.server...)
}

// Dirty reports whether name was changed since initialisation or Reset.
func (c *Controller[D]) Dirty(name string) bool {
	return c.dirty[name]
}

// IsDirty reports whether any field changed.
func (c *Controller[D]) IsDirty() bool {
	return len(c.dirty) > 0
}

// Reset restores the initial draft and clears errors and dirty flags.
func (c *Controller[D]) Reset() {
	c.draft = c.schema.Clone(c.initial)
	c.errors = schema.Result{}
	c.server = nil
	c.dirty = make(map[string]bool)
	c.emit(Change{Field: "", Index: -1, Op: OpReset})
}

// Submit validates the whole draft and, only when it is valid, invokes
// handler with a snapshot. Invalid drafts yield a *ValidationError and the
// handler is not called. Handler errors are returned unchanged.
func (c *Controller[D]) Submit(ctx context.Context, handler Handler[D]) error {
	if handler == nil {
		return errors.New("form: submit: handler required")
	}
	res := c.ValidateAll()
	if !res.Valid() {
		c.logger.Debug("form submit blocked", "entity", c.schema.Entity(), "invalid", res.Paths())
		return &ValidationError{Result: res}
	}
	return handler(ctx, c.Snapshot())
}

// OnChange registers fn to run after every mutation. The returned function
// removes the listener.
func (c *Controller[D]) OnChange(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller[D]) emit(change Change) {
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fn(change)
		}
	}
}
