package admission

import (
	"testing"
	"time"
)

func TestAcquire_WithinCapacityIsImmediate(t *testing.T) {
	c := New(2)
	done := make(chan struct{})

	if !c.Acquire(done) {
		t.Fatal("expected immediate acquire")
	}
	if !c.Acquire(done) {
		t.Fatal("expected immediate acquire")
	}
	if c.InUse() != 2 {
		t.Errorf("expected InUse=2, got %d", c.InUse())
	}
}

func TestAcquire_FIFOOrdering(t *testing.T) {
	c := New(1)
	done := make(chan struct{})
	c.Acquire(done) // occupy the only slot

	order := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			if c.Acquire(done) {
				order <- i
			}
		}()
		time.Sleep(5 * time.Millisecond) // preserve submission order
	}

	time.Sleep(10 * time.Millisecond)
	c.Release() // free the original slot, waiters drain one at a time

	for want := 0; want < 3; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Errorf("expected admission order %d, got %d", want, got)
			}
			c.Release()
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for waiter %d", want)
		}
	}
}

func TestAcquire_CancelledBeforeGrantReturnsFalse(t *testing.T) {
	c := New(1)
	blocker := make(chan struct{})
	c.Acquire(blocker)

	cancelled := make(chan struct{})
	close(cancelled)

	if c.Acquire(cancelled) {
		t.Error("expected Acquire to return false when done fires first")
	}
	if c.QueueDepth() != 0 {
		t.Errorf("expected waiter removed from queue, depth=%d", c.QueueDepth())
	}
}
