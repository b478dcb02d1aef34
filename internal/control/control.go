// Package control implements the per-execution Control Plane (spec §4.8):
// a pause flag, a single-shot resume signal, and a cancellation token. The
// cancellation token is plumbed into the Requester and checked at every
// scheduler checkpoint and at the top of every Step Runner wait. The
// implementation composes context.Context/CancelFunc with a small
// channel-based resume gate the way internal/orchestrator/state.go's
// RunState composes its own mutex-guarded fields; the pause/resume
// vocabulary echoes the retrieved pack's petal-labs-petalflow runtime
// (ShouldPause/EventStepPaused/EventStepResumed).
package control

import (
	"context"
	"sync"
)

// Block is one execution's control plane: paused flag, resume signal, and
// cancellation token. Exactly one driver reads it per execution; external
// callers (Façade operations) write the flags.
type Block struct {
	mu     sync.Mutex
	paused bool

	resumeCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a fresh control Block wired to a cancellable context derived
// from parent.
func New(parent context.Context) *Block {
	ctx, cancel := context.WithCancel(parent)
	return &Block{
		resumeCh: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Context is the cancellation token to plumb into the Requester and to
// select on at every checkpoint.
func (b *Block) Context() context.Context {
	return b.ctx
}

// Cancelled reports whether the cancellation token has fired.
func (b *Block) Cancelled() bool {
	select {
	case <-b.ctx.Done():
		return true
	default:
		return false
	}
}

// Pause sets the paused flag. Returns false if already paused (no-op).
// The driver only observes this at its pause checkpoint between waves
// (§4.8: "pause is cooperative and between waves, never mid-request").
func (b *Block) Pause() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused {
		return false
	}
	b.paused = true
	return true
}

// IsPaused reports the current paused flag, published safely for the
// driver's pause checkpoint to observe the latest write.
func (b *Block) IsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Resume clears the paused flag and wakes the driver if it is blocked at
// the pause gate. Returns false if not currently paused.
func (b *Block) Resume() bool {
	b.mu.Lock()
	if !b.paused {
		b.mu.Unlock()
		return false
	}
	b.paused = false
	ch := b.resumeCh
	b.resumeCh = make(chan struct{})
	b.mu.Unlock()

	close(ch)
	return true
}

// Cancel fires the cancellation token. If the execution is currently
// paused, it first clears the pause flag and wakes the resume gate so the
// driver advances to observe the cancellation (§4.8: "if paused, first
// clear paused and signal resume so the driver advances; then fire the
// cancelToken").
func (b *Block) Cancel() {
	b.mu.Lock()
	wasPaused := b.paused
	b.paused = false
	ch := b.resumeCh
	b.resumeCh = make(chan struct{})
	b.mu.Unlock()

	if wasPaused {
		close(ch)
	}
	b.cancel()
}

// AwaitResumeOrCancel blocks until Resume or Cancel is called, whichever
// comes first. This is the driver's pause-gate wait.
func (b *Block) AwaitResumeOrCancel() {
	b.mu.Lock()
	ch := b.resumeCh
	b.mu.Unlock()

	select {
	case <-ch:
	case <-b.ctx.Done():
	}
}
