// Package observability declares the dependency-free logging and metrics
// hooks the form packages call into. *slog.Logger satisfies Logger; the
// metrics package provides a Prometheus backed MetricsCollector.
package observability

import (
	"context"
	"time"
)

// Logger receives structured key/value log records.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector records pipeline counters and durations.
type MetricsCollector interface {
	IncrementCounter(metric string, labels map[string]string)
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	SetGauge(metric string, value float64, labels map[string]string)
}

// ContextualLogger is used instead of Logger when the implementation
// supports it, so request scoped attributes travel with the record.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Metric names shared by the pipeline and the Prometheus collector.
const (
	MetricSubmissions        = "submissions_total"
	MetricSubmissionDuration = "submission_duration_seconds"
	MetricValidationFailures = "validation_failures_total"
	MetricAttachments        = "attachment_selections_total"
	MetricLivePreviews       = "live_previews"
)

// Label keys.
const (
	LabelEntity  = "entity"
	LabelOutcome = "outcome"
	LabelResult  = "result"
)

// Nop discards every record. It is the default for optional hooks.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

func (Nop) IncrementCounter(string, map[string]string)              {}
func (Nop) RecordDuration(string, time.Duration, map[string]string) {}
func (Nop) SetGauge(string, float64, map[string]string)             {}

// LogError logs err at error level, preferring the context aware method.
func LogError(ctx context.Context, logger Logger, msg string, err error, args ...any) {
	if logger == nil {
		return
	}
	all := args
	if err != nil {
		all = append([]any{"error", err.Error()}, args...)
	}
	if cl, ok := logger.(ContextualLogger); ok && ctx != nil {
		cl.ErrorContext(ctx, msg, all...)
		return
	}
	logger.Error(msg, all...)
}

// LogInfo logs at info level, preferring the context aware method.
func LogInfo(ctx context.Context, logger Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	if cl, ok := logger.(ContextualLogger); ok && ctx != nil {
		cl.InfoContext(ctx, msg, args...)
		return
	}
	logger.Info(msg, args...)
}
