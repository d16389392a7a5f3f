package formdraft_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	formdraft "github.com/goliatone/go-formdraft"
	"github.com/goliatone/go-formdraft/internal/echoserver"
	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/contract"
	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/events"
	"github.com/goliatone/go-formdraft/pkg/form"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/observability"
	"github.com/goliatone/go-formdraft/pkg/submit"
)

type countingMetrics struct {
	mu       sync.Mutex
	counters map[string]int
}

func (m *countingMetrics) IncrementCounter(name string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	m.counters[name]++
}

func (m *countingMetrics) RecordDuration(string, time.Duration, map[string]string) {}
func (m *countingMetrics) SetGauge(string, float64, map[string]string)             {}

func (m *countingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

type fixture struct {
	backend *echoserver.Server
	url     string
	notes   *notify.Recorder
	signals *events.Recorder
	dialog  *submit.Dialog
	metrics *countingMetrics
}

func newFixture(t *testing.T, opts ...echoserver.Option) *fixture {
	t.Helper()
	backend := echoserver.New(opts...)
	srv := httptest.NewServer(backend.Routes())
	t.Cleanup(srv.Close)
	return &fixture{
		backend: backend,
		url:     srv.URL,
		notes:   &notify.Recorder{},
		signals: &events.Recorder{},
		dialog:  submit.NewDialog(),
		metrics: &countingMetrics{},
	}
}

func (f *fixture) options(extra ...formdraft.Option) []formdraft.Option {
	return append([]formdraft.Option{
		formdraft.WithBaseURL(f.url),
		formdraft.WithNotifier(f.notes),
		formdraft.WithInvalidator(f.signals),
		formdraft.WithView(f.dialog),
		formdraft.WithMetrics(f.metrics),
	}, extra...)
}

func fillCustomer(t *testing.T, c *form.Controller[entity.Customer]) {
	t.Helper()
	for name, value := range map[string]string{"name": "Ana", "email": "a@x.com", "phone": "70000000"} {
		if err := c.SetField(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func fillUser(t *testing.T, c *form.Controller[entity.User]) {
	t.Helper()
	for name, value := range map[string]string{
		"username": "ana", "password": "secret-pass", "email": "a@x.com",
		"name": "Ana", "lastname": "Rojas", "document_number": "123", "phone": "7000",
	} {
		if err := c.SetField(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func TestCustomerSubmitSucceeds(t *testing.T) {
	fx := newFixture(t)
	f, err := formdraft.NewCustomer(fx.options()...)
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	fillCustomer(t, f.Controller())

	var transitions []bool
	f.OnPendingChange(func(p bool) { transitions = append(transitions, p) })

	outcome, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Succeeded() || outcome.Status != http.StatusCreated {
		t.Fatalf("expected 201 success, got %s", outcome.StatusText())
	}
	if diff := cmp.Diff([]string{"customers"}, fx.signals.Topics()); diff != "" {
		t.Fatalf("invalidations mismatch (-want +got):\n%s", diff)
	}
	if fx.dialog.Open() {
		t.Fatalf("form should close on success")
	}
	if diff := cmp.Diff([]bool{true, false}, transitions); diff != "" {
		t.Fatalf("pending transitions mismatch (-want +got):\n%s", diff)
	}
	if f.Pending() {
		t.Fatalf("pending must be cleared")
	}
	received := fx.backend.Received()
	if len(received) != 1 || received[0].JSON["email"] != "a@x.com" {
		t.Fatalf("unexpected requests %+v", received)
	}
}

func TestServerFieldErrorsAreMerged(t *testing.T) {
	fx := newFixture(t,
		echoserver.WithStatus("/customers", http.StatusUnprocessableEntity),
		echoserver.WithErrorBody("/customers", map[string]any{
			"errors":  map[string]any{"email": []string{"already registered"}},
			"message": "Validation failed",
		}),
	)
	f, err := formdraft.NewCustomer(fx.options()...)
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	fillCustomer(t, f.Controller())
	before := f.Controller().Snapshot()

	outcome, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Succeeded() {
		t.Fatalf("expected failure")
	}
	if got := f.Controller().Errors().First("email"); got != "already registered" {
		t.Fatalf("server message not merged, got %q", got)
	}
	if diff := cmp.Diff([]string{"Validation failed"}, f.Controller().FormErrors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, f.Controller().Snapshot()); diff != "" {
		t.Fatalf("draft changed (-want +got):\n%s", diff)
	}
	if !fx.dialog.Open() || fx.notes.Count(notify.SeverityDestructive) != 1 {
		t.Fatalf("expected open form and one failure toast")
	}
}

func TestInvalidDraftIsNotSent(t *testing.T) {
	fx := newFixture(t)
	f, err := formdraft.NewCustomer(fx.options()...)
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}

	_, err = f.Submit(context.Background())
	var invalid *form.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fx.backend.Received()) != 0 {
		t.Fatalf("invalid draft reached the backend")
	}
	if got := fx.metrics.count(observability.MetricValidationFailures); got != 1 {
		t.Fatalf("expected one validation failure recorded, got %d", got)
	}
}

func TestUserWithImageSubmitsMultipart(t *testing.T) {
	fx := newFixture(t)
	store := attachment.NewMemoryStore()
	f, err := formdraft.NewUser(fx.options(formdraft.WithPreviewStore(store))...)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	fillUser(t, f.Controller())
	ctx := context.Background()
	if err := f.Attachments().Select(ctx, attachment.FromBytes("me.png", "image/png", []byte("pixels"))); err != nil {
		t.Fatalf("select: %v", err)
	}

	outcome, err := f.Submit(ctx)
	if err != nil || !outcome.Succeeded() {
		t.Fatalf("submit: %v %s", err, outcome.StatusText())
	}
	received := fx.backend.Received()
	if len(received) != 1 || !received[0].Multipart() {
		t.Fatalf("expected one multipart request, got %+v", received)
	}
	want := []echoserver.FilePart{{Field: "image", Filename: "me.png", ContentType: "image/png", Size: 6}}
	if diff := cmp.Diff(want, received[0].Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if received[0].Fields["role"] != "2" {
		t.Fatalf("role should default to employee, got %q", received[0].Fields["role"])
	}
	if store.Live() != 0 || !f.Attachments().Closed() {
		t.Fatalf("preview must be released once the submission succeeds, live=%d", store.Live())
	}

	if err := f.Close(ctx); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
}

func TestUserFailureKeepsPreview(t *testing.T) {
	fx := newFixture(t, echoserver.WithStatus("/auth/register", http.StatusInternalServerError))
	store := attachment.NewMemoryStore()
	f, err := formdraft.NewUser(fx.options(formdraft.WithPreviewStore(store))...)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	fillUser(t, f.Controller())
	ctx := context.Background()
	if err := f.Attachments().Select(ctx, attachment.FromBytes("me.png", "image/png", []byte("pixels"))); err != nil {
		t.Fatalf("select: %v", err)
	}

	outcome, err := f.Submit(ctx)
	if err != nil || outcome.Succeeded() {
		t.Fatalf("expected a failure outcome, got %s %v", outcome.StatusText(), err)
	}
	if store.Live() != 1 || f.Attachments().State() != attachment.StateSelected {
		t.Fatalf("failed submit must keep the attachment for a retry, live=%d", store.Live())
	}
	if err := f.Close(ctx); err != nil || store.Live() != 0 {
		t.Fatalf("close: %v live=%d", err, store.Live())
	}
}

func TestScopedAttachmentsAreReleased(t *testing.T) {
	fx := newFixture(t)
	store := attachment.NewMemoryStore()
	ctx := context.Background()

	err := attachment.Scoped(ctx, store, func(h *attachment.Handler) error {
		f, err := formdraft.NewUser(fx.options(formdraft.WithAttachments(h))...)
		if err != nil {
			return err
		}
		if f.Attachments() != h {
			t.Fatalf("form should use the scoped handler")
		}
		fillUser(t, f.Controller())
		if err := h.Select(ctx, attachment.FromBytes("me.png", "image/png", []byte("pixels"))); err != nil {
			return err
		}
		fx.backend.SetStatus("/auth/register", http.StatusInternalServerError)
		if _, err := f.Submit(ctx); err != nil {
			return err
		}
		if store.Live() != 1 {
			t.Fatalf("expected a live preview before scope exit, got %d", store.Live())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scoped: %v", err)
	}
	if store.Live() != 0 {
		t.Fatalf("scope exit must release the preview, live=%d", store.Live())
	}

	if _, err := formdraft.NewCustomer(fx.options(formdraft.WithAttachments(attachment.NewHandler(store)))...); err == nil {
		t.Fatalf("customers take no attachment")
	}
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	transport := submit.TransportFunc(func(ctx context.Context, req submit.Request) (submit.Response, error) {
		_, _ = io.Copy(io.Discard, req.Body)
		close(entered)
		<-unblock
		return submit.Response{Status: http.StatusCreated}, nil
	})
	fx := newFixture(t)
	f, err := formdraft.NewCustomer(fx.options(formdraft.WithTransport(transport))...)
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	fillCustomer(t, f.Controller())

	type result struct {
		outcome formdraft.Outcome
		err     error
	}
	first := make(chan result, 1)
	go func() {
		outcome, err := f.Submit(context.Background())
		first <- result{outcome, err}
	}()
	<-entered

	if !f.Pending() {
		t.Fatalf("expected a pending submission")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, submit.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	close(unblock)

	got := <-first
	if got.err != nil || !got.outcome.Succeeded() {
		t.Fatalf("first submit: %v %s", got.err, got.outcome.StatusText())
	}
	if f.Pending() {
		t.Fatalf("pending must be cleared")
	}
	if fx.notes.Count(notify.SeverityDefault) != 1 || len(fx.signals.Topics()) != 1 {
		t.Fatalf("the rejected call must not produce side effects")
	}
}

func TestContractResolvesPaths(t *testing.T) {
	ctx := context.Background()
	c, err := contract.Default(ctx)
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	fx := newFixture(t)

	f, err := formdraft.NewProforma(fx.options(formdraft.WithContract(c))...)
	if err != nil {
		t.Fatalf("new proforma: %v", err)
	}
	if f.Path() != "/proformas" {
		t.Fatalf("unexpected path %q", f.Path())
	}

	f, err = formdraft.NewProforma(fx.options(formdraft.WithContract(c), formdraft.WithPath("/v2/proformas"))...)
	if err != nil {
		t.Fatalf("new proforma: %v", err)
	}
	if f.Path() != "/v2/proformas" {
		t.Fatalf("path override ignored, got %q", f.Path())
	}
	if f.Attachments() != nil {
		t.Fatalf("proformas take no attachment")
	}
	if len(f.Layout()) != 4 {
		t.Fatalf("expected four proforma sections, got %d", len(f.Layout()))
	}
}

func TestNewRequiresTransport(t *testing.T) {
	if _, err := formdraft.NewCustomer(); err == nil {
		t.Fatalf("expected an error without transport")
	}
}
