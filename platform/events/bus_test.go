package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubEvent struct{ BaseEvent }

func (stubEvent) EventName() string { return "stub.event" }

func TestPublishDetachesHandlerContext(t *testing.T) {
	bus := NewInMemoryBus(nil)

	release := make(chan struct{})
	handlerErr := make(chan error, 1)
	bus.Subscribe("stub.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		<-release
		handlerErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, stubEvent{BaseEvent: NewBaseEvent()})
	cancel()
	close(release)

	select {
	case err := <-handlerErr:
		if err != nil {
			t.Fatalf("handler context error = %v, want nil after caller cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestPublishSyncReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(nil)

	want := errors.New("delivery failed")
	bus.Subscribe("stub.event", HandlerFunc(func(context.Context, Event) error { return want }))
	bus.Subscribe("stub.event", HandlerFunc(func(context.Context, Event) error { return errors.New("second") }))

	if err := bus.PublishSync(context.Background(), stubEvent{BaseEvent: NewBaseEvent()}); !errors.Is(err, want) {
		t.Fatalf("PublishSync() error = %v, want %v", err, want)
	}
}
