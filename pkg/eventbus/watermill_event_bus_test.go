package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueira/formpilot/pkg/channels/gochannel"
	"github.com/mfigueira/formpilot/pkg/events"
)

func TestWatermillEventBus_RoundTrip(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer bus.Close()

	received := make(chan *events.RunProgress, 1)

	err = bus.Handle(events.RunProgressEvent, func(_ context.Context, event any) error {
		progress, ok := event.(*events.RunProgress)
		require.True(t, ok)
		received <- progress

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	progress := events.RunProgress{
		BaseEvent: events.NewBaseEvent(events.RunProgressEvent, "run-1", "wf-1"),
		RecordID:  "r1",
		Processed: 1,
		Succeeded: 1,
		Total:     2,
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", progress))

	select {
	case got := <-received:
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, "r1", got.RecordID)
		assert.Equal(t, 1, got.Succeeded)
	case <-time.After(5 * time.Second):
		t.Fatal("event never arrived")
	}
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered: publish must still succeed and not wedge the
	// subscription loop.
	stopped := events.RunStopped{
		BaseEvent: events.NewBaseEvent(events.RunStoppedEvent, "run-1", "wf-1"),
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", stopped))
}

func TestGenerateID_Unique(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer bus.Close()

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
