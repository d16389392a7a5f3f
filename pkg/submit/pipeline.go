package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/events"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/observability"
)

// View is the parent surface hosting the form. Alive turns false once the
// view is torn down; the pipeline then skips every UI mutation.
type View interface {
	Alive() bool
	Close()
}

// PayloadValidator checks a payload against an API contract before it is
// sent.
type PayloadValidator interface {
	ValidatePayload(ctx context.Context, operationID string, p Payload) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier sets where toasts go.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithInvalidator sets the list-changed signal target.
func WithInvalidator(inv events.Invalidator) Option {
	return func(p *Pipeline) {
		if inv != nil {
			p.invalidator = inv
		}
	}
}

// WithView binds the hosting view.
func WithView(v View) Option {
	return func(p *Pipeline) { p.view = v }
}

// WithValidator enables contract validation of payloads.
func WithValidator(v PayloadValidator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithPath overrides the descriptor endpoint.
func WithPath(path string) Option {
	return func(p *Pipeline) {
		if path != "" {
			p.path = path
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records submission counters and durations.
func WithMetrics(collector observability.MetricsCollector) Option {
	return func(p *Pipeline) {
		if collector != nil {
			p.metrics = collector
		}
	}
}

// WithPendingHook is called with true when a submit starts and false when
// it ends.
func WithPendingHook(fn func(bool)) Option {
	return func(p *Pipeline) { p.onPending = fn }
}

// Pipeline submits payloads for one entity. At most one submit is in flight
// at a time.
type Pipeline struct {
	desc        entity.Descriptor
	path        string
	transport   Transport
	notifier    notify.Notifier
	invalidator events.Invalidator
	view        View
	validator   PayloadValidator
	logger      observability.Logger
	metrics     observability.MetricsCollector
	onPending   func(bool)

	mu      sync.Mutex
	pending bool
}

// New returns a pipeline for desc that sends through transport.
func New(desc entity.Descriptor, transport Transport, opts ...Option) (*Pipeline, error) {
	if transport == nil {
		return nil, errors.New("submit: transport required")
	}
	p := &Pipeline{
		desc:        desc,
		path:        desc.Path,
		transport:   transport,
		notifier:    notify.NotifierFunc(func(context.Context, notify.Notification) {}),
		invalidator: events.InvalidatorFunc(func(context.Context, string) {}),
		logger:      observability.Nop{},
		metrics:     observability.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.path == "" {
		return nil, fmt.Errorf("submit: no endpoint for %s", desc.Kind)
	}
	return p, nil
}

// Descriptor returns the entity descriptor the pipeline serves.
func (p *Pipeline) Descriptor() entity.Descriptor {
	return p.desc
}

// Path returns the endpoint the pipeline posts to.
func (p *Pipeline) Path() string {
	return p.path
}

// Pending reports whether a submit is in flight.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *Pipeline) begin() bool {
	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return false
	}
	p.pending = true
	p.mu.Unlock()
	if p.onPending != nil {
		p.onPending(true)
	}
	return true
}

func (p *Pipeline) end() {
	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
	if p.onPending != nil {
		p.onPending(false)
	}
}

// Submit issues exactly one request for payload and classifies the reply.
// Transport and status failures are reported in the Outcome; the returned
// error is only ErrPending.
func (p *Pipeline) Submit(ctx context.Context, payload Payload) (Outcome, error) {
	if !p.begin() {
		return Outcome{}, ErrPending
	}
	defer p.end()

	requestID := uuid.NewString()
	start := time.Now()
	outcome := p.send(ctx, payload, requestID)
	outcome.RequestID = requestID
	outcome.Duration = time.Since(start)

	labels := map[string]string{
		observability.LabelEntity:  string(p.desc.Kind),
		observability.LabelOutcome: outcome.Kind.String(),
	}
	p.metrics.IncrementCounter(observability.MetricSubmissions, labels)
	p.metrics.RecordDuration(observability.MetricSubmissionDuration, outcome.Duration, labels)

	switch {
	case outcome.Succeeded():
		observability.LogInfo(ctx, p.logger, "submission succeeded",
			"entity", p.desc.Kind, "status", outcome.Status, "request_id", requestID, "multipart", payload.Multipart())
	case !outcome.Sent:
		observability.LogError(ctx, p.logger, "submission rejected before send", outcome.Err,
			"entity", p.desc.Kind, "request_id", requestID, "sent", false)
	default:
		observability.LogError(ctx, p.logger, "submission failed", outcome.Err,
			"entity", p.desc.Kind, "status", outcome.Status, "request_id", requestID, "sent", true)
	}
	return outcome, nil
}

func (p *Pipeline) send(ctx context.Context, payload Payload, requestID string) Outcome {
	if p.validator != nil {
		if err := p.validator.ValidatePayload(ctx, p.desc.OperationID, payload); err != nil {
			return Outcome{Kind: Failure, Err: fmt.Errorf("%w: %w", ErrRejected, err)}
		}
	}

	contentType, body, err := payload.Body()
	if err != nil {
		return Outcome{Kind: Failure, Err: err}
	}
	if closer, ok := body.(io.Closer); ok {
		// Unblocks the multipart writer if the transport stops reading early.
		defer closer.Close()
	}
	resp, err := p.transport.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        p.path,
		ContentType: contentType,
		Body:        body,
		RequestID:   requestID,
	})
	if err != nil {
		return Outcome{Kind: Failure, Status: resp.Status, Body: resp.Body, Err: err, Sent: true}
	}

	kind := Classify(resp.Status)
	out := Outcome{Kind: kind, Status: resp.Status, Body: resp.Body, Sent: true}
	if kind == Failure {
		out.Err = &StatusError{Status: resp.Status, Body: resp.Body}
	}
	return out
}

// OnOutcome applies the side effects of outcome. Success: one default
// notification, one invalidation of the entity topic, then the view closes.
// Failure: one destructive notification and the view stays open. When the
// view is gone, notifications and closing are skipped; the invalidation
// still fires because list views other than the form may be listening.
func (p *Pipeline) OnOutcome(ctx context.Context, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("outcome handler panicked", "entity", p.desc.Kind, "panic", fmt.Sprint(r))
		}
	}()

	alive := p.view == nil || p.view.Alive()
	if outcome.Succeeded() {
		p.invalidator.Invalidate(ctx, p.desc.Topic)
		if !alive {
			p.logger.Debug("view gone, skipping success effects", "entity", p.desc.Kind)
			return
		}
		p.notifier.Notify(ctx, notify.Success(p.desc.SuccessMessage))
		if p.view != nil {
			p.view.Close()
		}
		return
	}

	if !alive {
		p.logger.Debug("view gone, skipping failure notification", "entity", p.desc.Kind)
		return
	}
	p.notifier.Notify(ctx, notify.Failure(p.desc.FailureMessage))
}

// Run submits payload and applies the outcome side effects.
func (p *Pipeline) Run(ctx context.Context, payload Payload) (Outcome, error) {
	outcome, err := p.Submit(ctx, payload)
	if err != nil {
		return outcome, err
	}
	p.OnOutcome(ctx, outcome)
	return outcome, nil
}

// Dialog is a minimal View: open until Close, alive until Unmount.
type Dialog struct {
	mu        sync.Mutex
	closed    bool
	unmounted bool
	closes    int
}

// NewDialog returns an open, mounted dialog.
func NewDialog() *Dialog {
	return &Dialog{}
}

func (d *Dialog) Alive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.unmounted
}

func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.closes++
}

// Unmount marks the dialog as torn down.
func (d *Dialog) Unmount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmounted = true
}

// Open reports whether the dialog is still open.
func (d *Dialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

// Closes returns how many times Close was called.
func (d *Dialog) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}
