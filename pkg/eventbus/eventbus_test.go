package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pinged struct{}

func (pinged) Name() string { return "test.pinged" }

func TestBus_PublishDeliversToAllListeners(t *testing.T) {
	bus := New(zap.NewNop())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.pinged", func(context.Context, Event) error {
			calls.Add(1)
			return nil
		})
	}
	bus.Subscribe("other", func(context.Context, Event) error {
		t.Error("listener of another event must not be called")
		return nil
	})

	bus.Publish(context.Background(), pinged{})
	bus.Wait()

	assert.EqualValues(t, 3, calls.Load())
}

func TestBus_ListenerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(zap.NewNop())
	var ok atomic.Bool
	bus.Subscribe("test.pinged", func(context.Context, Event) error { return errors.New("boom") })
	bus.Subscribe("test.pinged", func(context.Context, Event) error {
		ok.Store(true)
		return nil
	})

	bus.Publish(context.Background(), pinged{})
	bus.Wait()

	assert.True(t, ok.Load())
}

func TestBus_ListenerOutlivesCancelledContext(t *testing.T) {
	bus := New(zap.NewNop())
	var ctxErr atomic.Value
	bus.Subscribe("test.pinged", func(ctx context.Context, _ Event) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pinged{})
	bus.Wait()

	assert.Equal(t, true, ctxErr.Load())
}
