package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/events"
)

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := events.New()
	users := &events.Recorder{}
	proformas := &events.Recorder{}
	bus.Subscribe("users", "user-list", users)
	bus.Subscribe("proformas", "proforma-list", proformas)

	bus.Invalidate(context.Background(), "users")

	if users.Count("users") != 1 {
		t.Fatalf("expected one users invalidation, got %v", users.Topics())
	}
	if len(proformas.Topics()) != 0 {
		t.Fatalf("unrelated topic received %v", proformas.Topics())
	}
}

func TestBusContinuesAfterHandlerError(t *testing.T) {
	bus := events.New()
	var order []string
	bus.Subscribe("customers", "failing", events.HandlerFunc(func(context.Context, events.Invalidation) error {
		order = append(order, "failing")
		return errors.New("refresh failed")
	}))
	bus.Subscribe("customers", "list", events.HandlerFunc(func(_ context.Context, evt events.Invalidation) error {
		if evt.ID == "" {
			t.Fatalf("invalidation id missing")
		}
		order = append(order, "list")
		return nil
	}))

	bus.Invalidate(context.Background(), "customers")
	if diff := cmp.Diff([]string{"failing", "list"}, order); diff != "" {
		t.Fatalf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := events.New()
	rec := &events.Recorder{}
	stop := bus.Subscribe("users", "list", rec)
	stop()
	bus.Invalidate(context.Background(), "users")
	if len(rec.Topics()) != 0 {
		t.Fatalf("unsubscribed handler was called: %v", rec.Topics())
	}
}
