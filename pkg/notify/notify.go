// Package notify models the user-facing toasts raised by the submission
// pipeline.
package notify

import (
	"context"
	"sync"

	"github.com/goliatone/go-formdraft/pkg/observability"
)

// Severity selects how a notification is presented.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification is one toast.
type Notification struct {
	Title    string
	Message  string
	Severity Severity
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Success builds a default severity notification.
func Success(msg string) Notification {
	return Notification{Message: msg, Severity: SeverityDefault}
}

// Failure builds a destructive notification.
func Failure(msg string) Notification {
	return Notification{Message: msg, Severity: SeverityDestructive}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Count returns the number of notifications with severity.
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Severity == severity {
			n++
		}
	}
	return n
}

// LogNotifier writes notifications to a logger, destructive ones at warn
// level.
type LogNotifier struct {
	Logger observability.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	if l.Logger == nil {
		return
	}
	if n.Severity == SeverityDestructive {
		l.Logger.Warn(n.Message, "title", n.Title, "severity", string(n.Severity))
		return
	}
	l.Logger.Info(n.Message, "title", n.Title, "severity", string(n.Severity))
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
