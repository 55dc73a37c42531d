package runner

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotWaiting is returned by Signal when no wait is pending; a continue
	// signal cannot be banked for later.
	ErrNotWaiting = errors.New("no pending wait to continue")

	// ErrWaitAborted is returned to a waiter when the run is stopped.
	ErrWaitAborted = errors.New("wait aborted: run stopped")
)

// Gate is the single-consumer continuation gate wait_for_user steps and the
// login wait block on. Each Wait consumes exactly one Signal; Abort releases
// a pending waiter with ErrWaitAborted.
type Gate struct {
	mu      sync.Mutex
	signal  chan struct{}
	abort   chan struct{}
	aborted bool
	waiting bool
}

func NewGate() *Gate {
	return &Gate{
		signal: make(chan struct{}, 1),
		abort:  make(chan struct{}),
	}
}

// Wait blocks until a continue signal arrives, the gate is aborted, or the
// context ends.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if g.aborted {
		g.mu.Unlock()

		return ErrWaitAborted
	}

	g.waiting = true
	abort := g.abort
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.waiting = false
		g.mu.Unlock()
	}()

	select {
	case <-g.signal:
		return nil
	case <-abort:
		return ErrWaitAborted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signal satisfies the pending wait. It fails when nothing is waiting so
// callers can surface "nothing to continue" instead of silently queueing.
func (g *Gate) Signal() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.waiting {
		return ErrNotWaiting
	}

	select {
	case g.signal <- struct{}{}:
	default: // a signal is already pending for this wait
	}

	return nil
}

// Abort releases any pending waiter and refuses future waits until Reset.
func (g *Gate) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.aborted {
		return
	}

	g.aborted = true
	close(g.abort)
}

// Waiting reports whether a waiter is currently blocked.
func (g *Gate) Waiting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.waiting
}

// Reset re-arms the gate for a new run, draining any unconsumed signal.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.signal:
	default:
	}

	if g.aborted {
		g.abort = make(chan struct{})
		g.aborted = false
	}
}
