// Package events implements the Event Stream (spec §4.12): topic
// subscription and synchronous, in-order fan-out of execution lifecycle
// transitions. Grounded in internal/worker/handlers.go's publishCompletion
// philosophy: publish, log on failure, never let a subscriber's failure
// propagate into the driver.
package events

import (
	"log/slog"
	"sync"

	"github.com/arsava/scenarios/internal/domain"
)

// Topic names the kind of lifecycle transition an Event carries.
type Topic string

const (
	TopicStarted   Topic = "execution:started"
	TopicUpdated   Topic = "execution:updated"
	TopicPaused    Topic = "execution:paused"
	TopicResumed   Topic = "execution:resumed"
	TopicCancelled Topic = "execution:cancelled"
	TopicCompleted Topic = "execution:completed"
	TopicFailed    Topic = "execution:failed"
)

// Event is one emitted lifecycle transition, carrying the execution
// snapshot at the moment of emission.
type Event struct {
	Topic     Topic
	Execution domain.Snapshot
}

// Subscriber receives events. Implementations must not block for long —
// the driver delivers synchronously and in order.
type Subscriber func(Event)

// Stream is an in-process, synchronous event bus. A Broadcaster (e.g. the
// optional RabbitMQ collaborator) subscribes the same way any in-process
// observer does; the core never knows the difference.
//
// The DAG Scheduler's wave barrier launches one goroutine per ready step
// (internal/scheduler/driver.go's runWave), and each can reach Publish
// concurrently. §4.12 requires delivery to stay synchronous-in-order from
// the driver's point of view, so Publish serializes deliveries under mu —
// a subscriber is never entered re-entrantly and never sees two events
// overlap, even though the goroutines that published them run concurrently.
type Stream struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers []Subscriber
}

// New creates a Stream. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{logger: logger}
}

// Subscribe registers sub for every topic. There is no per-topic filtering
// at this layer — callers that only care about some topics check
// Event.Topic themselves, matching the "subscribers register by topic" line
// in §4.12 while keeping the registry itself simple.
func (s *Stream) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Publish delivers ev to every subscriber, synchronously and in
// registration order. It holds mu for the whole delivery so two Publish
// calls from different wave goroutines never interleave: the second
// caller blocks until the first has finished delivering to every
// subscriber. A panicking or erroring subscriber is recovered and logged;
// it never propagates into the caller (the driver).
func (s *Stream) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		s.deliver(sub, ev)
	}
}

func (s *Stream) deliver(sub Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("event subscriber panicked", "topic", ev.Topic, "execution_id", ev.Execution.ID, "panic", r)
		}
	}()
	sub(ev)
}
