// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Base carries the lifecycle state machine shared by stockroom's servers.
// Concrete servers embed it and call the Transition* helpers from their
// Start/Stop paths.
//
// A server instance is single-use: once stopped or failed, create a new one.
type Base struct {
	state atomic.Int32

	// Guards lastErr and startedAt.
	mu        sync.Mutex
	lastErr   error
	startedAt time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
}

// NewBase creates a Base in the Created state. The error channel buffer
// defaults to 1; use WithErrorChannel to widen it.
func NewBase(opts ...Option) *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// State returns the current server state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns the channel carrying asynchronous serve errors.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that moved the server to Failed, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Uptime returns how long the server has been running, or zero if it never
// reached the Running state.
func (b *Base) Uptime() time.Duration {
	b.mu.Lock()
	startedAt := b.startedAt
	b.mu.Unlock()

	if startedAt.IsZero() {
		return 0
	}
	return time.Since(startedAt)
}

// TransitionToStarting moves the server from Created to Starting and creates
// the internal lifecycle context. It must be the first call in Start.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// An already-cancelled context is rejected before any setup so the serve
	// goroutine cannot reach Running after the caller has given up.
	select {
	case <-ctx.Done():
		err := fmt.Errorf("context cancelled before start: %w", ctx.Err())
		b.TransitionToFailed(err)
		return err
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())

	return nil
}

// TransitionToRunning marks the server ready and closes the started channel.
// It is a no-op unless the server is currently Starting.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		b.mu.Lock()
		b.startedAt = time.Now()
		b.mu.Unlock()
		close(b.startedCh)
	}
}

// TransitionToFailed records err, moves the server to Failed, cancels the
// lifecycle context and publishes the error on the error channel.
func (b *Base) TransitionToFailed(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}

	b.SendError(err)
}

// TransitionToStopping moves a Starting or Running server to Stopping and
// cancels the lifecycle context. It returns false when there is nothing to
// shut down: the server already stopped, failed, or never started. A Created
// server is marked Stopped directly.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateStopped, StateFailed, StateStopping:
			return false
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server fully stopped. Call it after every
// tracked goroutine has exited.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForReady blocks until the server reaches Running or ctx is done.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// WaitForShutdown blocks until all tracked goroutines have finished.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// Context returns the lifecycle context, or nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// AddGoroutine registers a background goroutine. Call before starting it.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine marks a tracked goroutine finished. Defer it first thing.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

// SendError publishes err on the error channel without blocking. When the
// buffer is full the error is dropped.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes the error channel. Call once, after the server is
// fully stopped.
func (b *Base) CloseErrChannel() {
	close(b.errCh)
}

// StartedChannel returns the channel closed when the server reaches Running.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}
