package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls int
	boom := errors.New("boom")

	d.Subscribe(EventRoleChanged, func(context.Context, Event) error { calls++; return boom })
	d.Subscribe(EventRoleChanged, func(context.Context, Event) error { calls++; return nil })
	d.Subscribe(EventSessionRevoked, func(context.Context, Event) error { calls += 100; return nil })

	err := d.Publish(context.Background(), Event{Type: EventRoleChanged})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want joined handler error", err)
	}

	if err := d.Publish(context.Background(), Event{Type: EventMagicLinkVerified}); err != nil {
		t.Errorf("publish without listeners err = %v", err)
	}
}
