// Package admission implements the Admission Controller (spec §4.9): a
// process-wide bounded-concurrency semaphore with a FIFO waiter queue.
// Hand-rolled rather than built on golang.org/x/time/rate, whose
// token-bucket refill model has no notion of a fixed capacity pool with
// explicit, ordered release (see DESIGN.md). The shape — a capacity
// counter plus an ordered list of waiter channels — mirrors the
// actor-count gating used elsewhere in the retrieved pack's worker-pool
// code.
package admission

import "sync"

// Controller bounds concurrent admissions to capacity, serving waiters in
// FIFO order.
type Controller struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  []chan struct{}
}

// New creates a Controller with the given capacity. A capacity <= 0 is
// treated as 1; the default of 3 is applied by the Façade's Config.
func New(capacity int) *Controller {
	if capacity <= 0 {
		capacity = 1
	}
	return &Controller{capacity: capacity}
}

// Acquire blocks until a slot is available or done fires, whichever
// comes first. Returns false if done fired before a slot was granted.
func (c *Controller) Acquire(done <-chan struct{}) bool {
	c.mu.Lock()
	if c.inUse < c.capacity {
		c.inUse++
		c.mu.Unlock()
		return true
	}

	wait := make(chan struct{})
	c.waiters = append(c.waiters, wait)
	c.mu.Unlock()

	select {
	case <-wait:
		return true
	case <-done:
		c.removeWaiter(wait)
		return false
	}
}

// Release frees one slot, waking the oldest queued waiter if any;
// otherwise it simply increments available capacity. Safe to call exactly
// once per successful Acquire (the driver's guaranteed-to-run cleanup
// path per §4.9).
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) > 0 {
		next := c.waiters[0]
		c.waiters = c.waiters[1:]
		close(next)
		return
	}
	if c.inUse > 0 {
		c.inUse--
	}
}

// removeWaiter drops wait from the queue (used when a caller abandons its
// Acquire due to cancellation before being granted a slot). If wait was
// already granted concurrently with the cancellation, the slot it received
// is passed to the next-oldest waiter, or returned as free capacity if none
// remain.
func (c *Controller) removeWaiter(wait chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == wait {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
	// Already granted (closed) concurrently with cancellation; the caller
	// ignored the grant, so release the slot it implicitly holds.
	select {
	case <-wait:
		c.inUseUnlockedRelease()
	default:
	}
}

func (c *Controller) inUseUnlockedRelease() {
	if len(c.waiters) > 0 {
		next := c.waiters[0]
		c.waiters = c.waiters[1:]
		close(next)
		return
	}
	if c.inUse > 0 {
		c.inUse--
	}
}

// InUse reports the current number of held slots (for metrics/tests).
func (c *Controller) InUse() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse
}

// QueueDepth reports the current number of queued waiters (for metrics).
func (c *Controller) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
