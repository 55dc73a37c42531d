package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_SignalSatisfiesWait(t *testing.T) {
	gate := NewGate()
	waited := make(chan error, 1)

	go func() {
		waited <- gate.Wait(context.Background())
	}()

	require.Eventually(t, gate.Waiting, time.Second, time.Millisecond)
	require.NoError(t, gate.Signal())

	select {
	case err := <-waited:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait never satisfied")
	}
}

func TestGate_SignalWithoutWaiterFails(t *testing.T) {
	gate := NewGate()

	assert.ErrorIs(t, gate.Signal(), ErrNotWaiting)
}

func TestGate_OneSignalPerWait(t *testing.T) {
	gate := NewGate()
	waited := make(chan error, 1)

	go func() {
		waited <- gate.Wait(context.Background())
	}()

	require.Eventually(t, gate.Waiting, time.Second, time.Millisecond)
	require.NoError(t, gate.Signal())
	require.NoError(t, <-waited)

	// The signal was consumed; the next wait must block again.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, gate.Wait(ctx), context.DeadlineExceeded)
}

func TestGate_AbortReleasesWaiter(t *testing.T) {
	gate := NewGate()
	waited := make(chan error, 1)

	go func() {
		waited <- gate.Wait(context.Background())
	}()

	require.Eventually(t, gate.Waiting, time.Second, time.Millisecond)
	gate.Abort()

	select {
	case err := <-waited:
		assert.ErrorIs(t, err, ErrWaitAborted)
	case <-time.After(time.Second):
		t.Fatal("abort did not release the waiter")
	}

	// Aborted gates refuse further waits until reset.
	assert.ErrorIs(t, gate.Wait(context.Background()), ErrWaitAborted)

	gate.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, gate.Wait(ctx), context.DeadlineExceeded)
}

func TestGate_ContextCancel(t *testing.T) {
	gate := NewGate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, gate.Wait(ctx), context.Canceled)
}
