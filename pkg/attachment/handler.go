package attachment

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formdraft/pkg/observability"
)

// Option configures a Handler.
type Option func(*Handler)

// WithMaxSize overrides the inclusive size limit. Non-positive values keep
// the default.
func WithMaxSize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxSize = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger observability.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records selections and the live preview gauge for entity.
func WithMetrics(collector observability.MetricsCollector, entity string) Option {
	return func(h *Handler) {
		if collector != nil {
			h.metrics = collector
			h.entity = entity
		}
	}
}

// Handler holds at most one selected file and its preview handle. A
// Handler is owned by one form and is not safe for concurrent use.
type Handler struct {
	store   PreviewStore
	maxSize int64
	logger  observability.Logger
	metrics observability.MetricsCollector
	entity  string

	state   State
	file    File
	preview Preview
	notice  string
	closed  bool
}

// NewHandler returns an empty handler that derives previews from store.
func NewHandler(store PreviewStore, opts ...Option) *Handler {
	if store == nil {
		store = NewMemoryStore()
	}
	h := &Handler{
		store:   store,
		maxSize: MaxSize,
		logger:  observability.Nop{},
		metrics: observability.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Select applies the selection policy to f. Oversized files return a
// *PolicyError wrapping ErrTooLarge. Non-image files are logged and kept as
// the notice; Select returns nil for them. In both cases the state is left
// untouched. Accepted files release the previous preview before the new one
// is created.
func (h *Handler) Select(ctx context.Context, f File) error {
	if h.closed {
		return ErrClosed
	}
	h.notice = ""

	if f.Size > h.maxSize {
		err := &PolicyError{Name: f.Name, Size: f.Size, Limit: h.maxSize, ContentType: f.ContentType, Err: ErrTooLarge}
		h.notice = err.Error()
		h.record("too_large")
		h.logger.Warn("attachment rejected", "name", f.Name, "size", f.Size, "limit", h.maxSize)
		return err
	}
	if !f.IsImage() {
		err := &PolicyError{Name: f.Name, Size: f.Size, Limit: h.maxSize, ContentType: f.ContentType, Err: ErrUnsupportedType}
		h.notice = err.Error()
		h.record("unsupported_type")
		h.logger.Error("attachment ignored", "name", f.Name, "content_type", f.ContentType)
		return nil
	}

	if err := h.release(ctx); err != nil {
		return err
	}
	preview, err := h.store.Create(ctx, f)
	if err != nil {
		h.state = StateEmpty
		h.file = File{}
		return fmt.Errorf("attachment: create preview: %w", err)
	}
	h.file = f
	h.preview = preview
	h.state = StateSelected
	h.record("selected")
	h.logger.Debug("attachment selected", "name", f.Name, "size", f.Size, "preview", preview.URL)
	return nil
}

// Remove releases the held preview and returns to Empty.
func (h *Handler) Remove(ctx context.Context) error {
	if h.closed {
		return ErrClosed
	}
	h.notice = ""
	return h.release(ctx)
}

// Teardown releases any held preview. Only the first call has an effect;
// afterwards Select and Remove return ErrClosed.
func (h *Handler) Teardown(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.release(ctx)
}

func (h *Handler) release(ctx context.Context) error {
	if h.state != StateSelected {
		return nil
	}
	preview := h.preview
	h.state = StateEmpty
	h.file = File{}
	h.preview = Preview{}
	defer h.gauge()
	if err := h.store.Release(ctx, preview); err != nil && !errors.Is(err, ErrUnknownPreview) {
		return fmt.Errorf("attachment: release preview: %w", err)
	}
	return nil
}

// State returns the current state.
func (h *Handler) State() State {
	return h.state
}

// File returns the selected file.
func (h *Handler) File() (File, bool) {
	if h.state != StateSelected {
		return File{}, false
	}
	return h.file, true
}

// Preview returns the live preview handle.
func (h *Handler) Preview() (Preview, bool) {
	if h.state != StateSelected {
		return Preview{}, false
	}
	return h.preview, true
}

// Notice returns the message of the last rejected selection, cleared by the
// next Select or Remove.
func (h *Handler) Notice() string {
	return h.notice
}

// Closed reports whether Teardown ran.
func (h *Handler) Closed() bool {
	return h.closed
}

func (h *Handler) record(result string) {
	h.metrics.IncrementCounter(observability.MetricAttachments, map[string]string{
		observability.LabelEntity: h.entity,
		observability.LabelResult: result,
	})
	h.gauge()
}

func (h *Handler) gauge() {
	h.metrics.SetGauge(observability.MetricLivePreviews, float64(h.store.Live()), map[string]string{
		observability.LabelEntity: h.entity,
	})
}
