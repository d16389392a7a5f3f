// Package formdraft wires a draft's schema, form state, attachment handler and
// submission pipeline into one Form per entity. It is the simplest entry point
// for callers that want to edit and submit a proforma, user or customer.
package formdraft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/contract"
	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/events"
	"github.com/goliatone/go-formdraft/pkg/form"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/observability"
	"github.com/goliatone/go-formdraft/pkg/schema"
	"github.com/goliatone/go-formdraft/pkg/sections"
	"github.com/goliatone/go-formdraft/pkg/submit"
)

// Outcome aliases submit.Outcome for callers that only import the root
// package.
type Outcome = submit.Outcome

// Notification aliases notify.Notification.
type Notification = notify.Notification

// Option configures a Form.
type Option func(*options)

type options struct {
	transport   submit.Transport
	notifier    notify.Notifier
	invalidator events.Invalidator
	view        submit.View
	contract    *contract.Contract
	path        string
	store       attachment.PreviewStore
	files       *attachment.Handler
	maxSize     int64
	overlay     *schema.Overlay
	logger      observability.Logger
	metrics     observability.MetricsCollector
}

// WithTransport sets how requests reach the backend. Required.
func WithTransport(t submit.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithBaseURL sends requests through an HTTPTransport rooted at baseURL.
func WithBaseURL(baseURL string, opts ...submit.HTTPOption) Option {
	return func(o *options) { o.transport = submit.NewHTTPTransport(baseURL, opts...) }
}

// WithNotifier sets where success and failure toasts go.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithInvalidator sets the target of the list-changed signal.
func WithInvalidator(inv events.Invalidator) Option {
	return func(o *options) { o.invalidator = inv }
}

// WithView binds the view hosting the form.
func WithView(v submit.View) Option {
	return func(o *options) { o.view = v }
}

// WithContract validates payloads against c and resolves the endpoint from
// it unless WithPath is also given.
func WithContract(c *contract.Contract) Option {
	return func(o *options) { o.contract = c }
}

// WithPath overrides the entity endpoint.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithPreviewStore sets where attachment previews are created.
func WithPreviewStore(store attachment.PreviewStore) Option {
	return func(o *options) { o.store = store }
}

// WithAttachments hands the form a handler owned by the caller, such as one
// from attachment.Scoped. WithPreviewStore and WithMaxAttachmentSize are
// ignored when it is set.
func WithAttachments(h *attachment.Handler) Option {
	return func(o *options) { o.files = h }
}

// WithMaxAttachmentSize overrides the inclusive attachment size limit.
func WithMaxAttachmentSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithOverlay applies label, help and default overrides to the schema.
func WithOverlay(overlay schema.Overlay) Option {
	return func(o *options) { o.overlay = &overlay }
}

// WithLogger sets the logger shared by every component of the form.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the collector shared by every component of the form.
func WithMetrics(collector observability.MetricsCollector) Option {
	return func(o *options) { o.metrics = collector }
}

// Form is one editable draft bound to its submission pipeline.
type Form[D any] struct {
	desc       entity.Descriptor
	controller *form.Controller[D]
	files      *attachment.Handler
	pipeline   *submit.Pipeline
	logger     observability.Logger
	metrics    observability.MetricsCollector

	mu         sync.Mutex
	listeners  map[int]func(bool)
	nextID     int
	submitting bool
}

// New builds a form for kind over s. The schema's draft type must match the
// kind; the typed constructors below are the usual entry points.
func New[D any](kind entity.Kind, s *schema.Schema[D], opts ...Option) (*Form[D], error) {
	desc, err := entity.Describe(kind)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("formdraft: schema required")
	}
	cfg := options{logger: observability.Nop{}, metrics: observability.Nop{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.transport == nil {
		return nil, errors.New("formdraft: transport required")
	}
	if cfg.overlay != nil {
		if s, err = s.WithOverlay(*cfg.overlay); err != nil {
			return nil, fmt.Errorf("formdraft: overlay: %w", err)
		}
	}

	f := &Form[D]{
		desc:       desc,
		controller: form.New(s, form.WithLogger[D](cfg.logger)),
		logger:     cfg.logger,
		metrics:    cfg.metrics,
		listeners:  make(map[int]func(bool)),
	}
	switch {
	case desc.AttachmentField == "" && cfg.files != nil:
		return nil, fmt.Errorf("formdraft: %s takes no attachment", kind)
	case cfg.files != nil:
		f.files = cfg.files
	case desc.AttachmentField != "":
		f.files = attachment.NewHandler(cfg.store,
			attachment.WithMaxSize(cfg.maxSize),
			attachment.WithLogger(cfg.logger),
			attachment.WithMetrics(cfg.metrics, string(kind)),
		)
	}

	path := cfg.path
	pipeOpts := []submit.Option{
		submit.WithNotifier(cfg.notifier),
		submit.WithInvalidator(cfg.invalidator),
		submit.WithLogger(cfg.logger),
		submit.WithMetrics(cfg.metrics),
		submit.WithPendingHook(f.pendingChanged),
	}
	if cfg.view != nil {
		pipeOpts = append(pipeOpts, submit.WithView(cfg.view))
	}
	if cfg.contract != nil {
		pipeOpts = append(pipeOpts, submit.WithValidator(cfg.contract))
		if path == "" {
			if path, err = cfg.contract.PathFor(desc.OperationID); err != nil {
				return nil, fmt.Errorf("formdraft: %w", err)
			}
		}
	}
	pipeOpts = append(pipeOpts, submit.WithPath(path))

	if f.pipeline, err = submit.New(desc, cfg.transport, pipeOpts...); err != nil {
		return nil, err
	}
	return f, nil
}

// NewProforma returns a proforma form.
func NewProforma(opts ...Option) (*Form[entity.Proforma], error) {
	return New(entity.KindProforma, entity.ProformaSchema, opts...)
}

// NewUser returns a user registration form with a profile image attachment.
func NewUser(opts ...Option) (*Form[entity.User], error) {
	return New(entity.KindUser, entity.UserSchema, opts...)
}

// NewCustomer returns a customer form.
func NewCustomer(opts ...Option) (*Form[entity.Customer], error) {
	return New(entity.KindCustomer, entity.CustomerSchema, opts...)
}

// Descriptor returns the entity facts the form submits with.
func (f *Form[D]) Descriptor() entity.Descriptor { return f.desc }

// Controller exposes the draft state.
func (f *Form[D]) Controller() *form.Controller[D] { return f.controller }

// Attachments returns the attachment handler, nil for entities without one.
func (f *Form[D]) Attachments() *attachment.Handler { return f.files }

// Path is the endpoint the form posts to.
func (f *Form[D]) Path() string { return f.pipeline.Path() }

// Layout returns the sections that edit this form, in display order.
func (f *Form[D]) Layout() []sections.Section {
	return f.LayoutWith(nil)
}

// LayoutWith is Layout with a custom attachment loader.
func (f *Form[D]) LayoutWith(load sections.Loader) []sections.Section {
	switch f.desc.Kind {
	case entity.KindProforma:
		return sections.ProformaLayout()
	case entity.KindUser:
		return sections.UserLayout(f.files, load)
	default:
		return sections.CustomerLayout()
	}
}

// Pending reports whether a submission is in flight.
func (f *Form[D]) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting || f.pipeline.Pending()
}

// OnPendingChange registers fn to run when a submission starts (true) and
// ends (false). The returned function removes the listener.
func (f *Form[D]) OnPendingChange(fn func(bool)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *Form[D]) pendingChanged(pending bool) {
	f.mu.Lock()
	fns := make([]func(bool), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(pending)
	}
}

// Payload projects the current draft and attachment without validating.
func (f *Form[D]) Payload() submit.Payload {
	draft := f.controller.Snapshot()
	return f.payloadOf(&draft)
}

func (f *Form[D]) payloadOf(draft *D) submit.Payload {
	var file *attachment.File
	if f.files != nil {
		if selected, ok := f.files.File(); ok {
			file = &selected
		}
	}
	return submit.Prepare(f.controller.Schema().Project(draft), file, f.desc.AttachmentField)
}

// Submit validates the draft and, when it is valid, sends it once and applies
// the outcome. Invalid drafts return a *form.ValidationError and nothing is
// sent. A call made while another is in flight returns submit.ErrPending
// without touching the draft. On success the attachment preview is released.
// Field messages from a failed reply or a contract rejection are merged into
// the form errors; the draft values are left untouched.
func (f *Form[D]) Submit(ctx context.Context) (Outcome, error) {
	if !f.claim() {
		return Outcome{}, submit.ErrPending
	}
	defer f.release()

	var outcome Outcome
	err := f.controller.Submit(ctx, func(ctx context.Context, draft D) error {
		var err error
		outcome, err = f.pipeline.Run(ctx, f.payloadOf(&draft))
		return err
	})
	if err != nil {
		var invalid *form.ValidationError
		if errors.As(err, &invalid) {
			f.metrics.IncrementCounter(observability.MetricValidationFailures, map[string]string{
				observability.LabelEntity: string(f.desc.Kind),
			})
		}
		return outcome, err
	}
	if outcome.Succeeded() {
		if err := f.Close(context.WithoutCancel(ctx)); err != nil {
			f.logger.Warn("release attachment after submit", "entity", f.desc.Kind, "error", err)
		}
		return outcome, nil
	}

	var status *submit.StatusError
	if errors.As(outcome.Err, &status) {
		mapped := f.controller.ApplyServerErrors(status.FieldErrors())
		f.logger.Debug("server errors applied", "entity", f.desc.Kind, "fields", len(mapped.Fields), "form", len(mapped.Form))
	}
	var violation *contract.ViolationError
	if errors.As(outcome.Err, &violation) {
		f.controller.ApplyServerErrors(violation.Fields)
	}
	return outcome, nil
}

func (f *Form[D]) claim() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return false
	}
	f.submitting = true
	return true
}

func (f *Form[D]) release() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()
}

// Close releases the attachment preview. Later calls are no-ops.
func (f *Form[D]) Close(ctx context.Context) error {
	if f.files == nil {
		return nil
	}
	return f.files.Teardown(ctx)
}
