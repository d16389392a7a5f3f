package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-formdraft/pkg/observability"
)

func TestCountersAndGauges(t *testing.T) {
	c := New("")
	labels := map[string]string{
		observability.LabelEntity:  "customer",
		observability.LabelOutcome: "success",
		"ignored":                  "x",
	}
	c.IncrementCounter(observability.MetricSubmissions, labels)
	c.IncrementCounter(observability.MetricSubmissions, labels)
	c.IncrementCounter(observability.MetricSubmissions, map[string]string{
		observability.LabelEntity:  "customer",
		observability.LabelOutcome: "failure",
	})
	c.SetGauge(observability.MetricLivePreviews, 1, map[string]string{observability.LabelEntity: "user"})
	c.IncrementCounter("not_declared", labels)

	submissions := c.counters[observability.MetricSubmissions]
	if got := testutil.ToFloat64(submissions.WithLabelValues("customer", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(submissions.WithLabelValues("customer", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.gauges[observability.MetricLivePreviews].WithLabelValues("user")); got != 1 {
		t.Fatalf("expected one live preview, got %v", got)
	}
}

func TestDurationsAreObserved(t *testing.T) {
	c := New("test")
	labels := map[string]string{observability.LabelEntity: "proforma", observability.LabelOutcome: "success"}
	c.RecordDuration(observability.MetricSubmissionDuration, 120*time.Millisecond, labels)
	c.RecordDuration(observability.MetricSubmissionDuration, 3*time.Second, labels)

	if n := testutil.CollectAndCount(c.histograms[observability.MetricSubmissionDuration]); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
	expected := `
# HELP test_validation_failures_total Submits blocked by local validation.
# TYPE test_validation_failures_total counter
test_validation_failures_total{entity="user"} 1
`
	c.IncrementCounter(observability.MetricValidationFailures, map[string]string{observability.LabelEntity: "user"})
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_validation_failures_total"); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	c := New("formdraft")
	c.IncrementCounter(observability.MetricAttachments, map[string]string{
		observability.LabelEntity: "user",
		observability.LabelResult: "selected",
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `formdraft_attachment_selections_total{entity="user",result="selected"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}
