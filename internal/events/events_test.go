package events

import (
	"sync"
	"testing"
	"time"

	"github.com/arsava/scenarios/internal/domain"
)

func TestPublish_DeliversToAllSubscribersInOrder(t *testing.T) {
	s := New(nil)
	var got []Topic
	s.Subscribe(func(ev Event) { got = append(got, ev.Topic) })
	s.Subscribe(func(ev Event) { got = append(got, ev.Topic) })

	s.Publish(Event{Topic: TopicStarted, Execution: domain.Snapshot{ID: "e1"}})

	if len(got) != 2 || got[0] != TopicStarted || got[1] != TopicStarted {
		t.Errorf("expected both subscribers to receive the event, got %v", got)
	}
}

func TestPublish_PanickingSubscriberDoesNotPropagate(t *testing.T) {
	s := New(nil)
	delivered := false
	s.Subscribe(func(Event) { panic("boom") })
	s.Subscribe(func(Event) { delivered = true })

	s.Publish(Event{Topic: TopicUpdated, Execution: domain.Snapshot{ID: "e1"}})

	if !delivered {
		t.Error("expected second subscriber to still receive the event despite the first panicking")
	}
}

// TestPublish_ConcurrentCallsNeverOverlap guards against the wave-barrier
// goroutines in internal/scheduler/driver.go calling Publish at the same
// time: a subscriber must never be entered re-entrantly, which is exactly
// the failure mode that corrupted the Broadcaster's single shared AMQP
// channel.
func TestPublish_ConcurrentCallsNeverOverlap(t *testing.T) {
	s := New(nil)

	var mu sync.Mutex
	inFlight := 0
	overlapped := false
	s.Subscribe(func(Event) {
		mu.Lock()
		inFlight++
		if inFlight > 1 {
			overlapped = true
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Publish(Event{Topic: TopicUpdated, Execution: domain.Snapshot{ID: "e1"}})
		}()
	}
	wg.Wait()

	if overlapped {
		t.Error("expected Publish calls from concurrent goroutines to never overlap inside a subscriber")
	}
}
