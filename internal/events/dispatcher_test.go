package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.RecordID)
		return nil
	})
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.RecordID)
		return nil
	})
	d.Subscribe(EventOrderAccepted, func(_ context.Context, e Event) error {
		got = append(got, "wrong-type")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventOrderCreated, RecordID: "o1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(got) != 2 || got[0] != "first:o1" || got[1] != "second:o1" {
		t.Fatalf("handlers invoked = %v, want [first:o1 second:o1]", got)
	}
}

func TestDispatcherContinuesPastFailingHandler(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var reached bool
	d.Subscribe(EventMessageAdded, func(context.Context, Event) error {
		return errors.New("handler failure")
	})
	d.Subscribe(EventMessageAdded, func(context.Context, Event) error {
		reached = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventMessageAdded}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !reached {
		t.Fatal("a failing handler must not block later handlers")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	if err := d.Publish(context.Background(), Event{Type: EventBookingCreated}); err != nil {
		t.Fatalf("Publish with no subscribers: %v", err)
	}
}
