package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/events"
)

func TestMetrics_CountsStartedAndCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	stream := events.New(nil)
	m.Subscribe(stream)

	snap := domain.Snapshot{ID: "exec-1", ScenarioID: "scn-1", Status: domain.StatusCompleted, Duration: 2 * time.Second}
	stream.Publish(events.Event{Topic: events.TopicStarted, Execution: domain.Snapshot{ID: "exec-1", ScenarioID: "scn-1", Status: domain.StatusPending}})
	stream.Publish(events.Event{Topic: events.TopicCompleted, Execution: snap})

	if got := testutil.ToFloat64(m.executionsStarted.WithLabelValues("scn-1")); got != 1 {
		t.Errorf("expected 1 started, got %v", got)
	}
	if got := testutil.ToFloat64(m.executionsCompleted.WithLabelValues("scn-1", "completed")); got != 1 {
		t.Errorf("expected 1 completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.executionsActive.WithLabelValues("pending")); got != 0 {
		t.Errorf("expected pending gauge back to 0 after completion, got %v", got)
	}
}

// TestMetrics_DeadlockedExecutionDoesNotLeakPendingGauge covers a deadlock:
// execution:started fires (status=pending), then execution:failed fires
// directly with zero StepResults ever appended (no execution:updated in
// between). The pending gauge must return to 0, not leak at +1 with
// "running" driven negative.
func TestMetrics_DeadlockedExecutionDoesNotLeakPendingGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	stream := events.New(nil)
	m.Subscribe(stream)

	stream.Publish(events.Event{Topic: events.TopicStarted, Execution: domain.Snapshot{ID: "exec-1", ScenarioID: "scn-1", Status: domain.StatusPending}})
	stream.Publish(events.Event{Topic: events.TopicFailed, Execution: domain.Snapshot{ID: "exec-1", ScenarioID: "scn-1", Status: domain.StatusFailed, FailureReason: "Deadlock: ..."}})

	if got := testutil.ToFloat64(m.executionsActive.WithLabelValues("pending")); got != 0 {
		t.Errorf("expected pending gauge at 0, got %v (leaked)", got)
	}
	if got := testutil.ToFloat64(m.executionsActive.WithLabelValues("running")); got != 0 {
		t.Errorf("expected running gauge at 0, got %v (driven negative)", got)
	}
}

// TestMetrics_ZeroStepScenarioDoesNotLeakPendingGauge covers a scenario with
// no steps: started -> completed with no execution:updated in between.
func TestMetrics_ZeroStepScenarioDoesNotLeakPendingGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	stream := events.New(nil)
	m.Subscribe(stream)

	stream.Publish(events.Event{Topic: events.TopicStarted, Execution: domain.Snapshot{ID: "exec-2", ScenarioID: "scn-1", Status: domain.StatusPending}})
	stream.Publish(events.Event{Topic: events.TopicCompleted, Execution: domain.Snapshot{ID: "exec-2", ScenarioID: "scn-1", Status: domain.StatusCompleted}})

	if got := testutil.ToFloat64(m.executionsActive.WithLabelValues("pending")); got != 0 {
		t.Errorf("expected pending gauge at 0, got %v (leaked)", got)
	}
}

func TestMetrics_StepOutcomesCountedOnceDespiteRepeatedUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	stream := events.New(nil)
	m.Subscribe(stream)

	step := domain.StepResult{StepID: "step-1", Status: domain.StepCompleted, Attempts: 3}
	snap := domain.Snapshot{ID: "exec-1", ScenarioID: "scn-1", Steps: []domain.StepResult{step}}

	stream.Publish(events.Event{Topic: events.TopicUpdated, Execution: snap})
	stream.Publish(events.Event{Topic: events.TopicUpdated, Execution: snap})

	if got := testutil.ToFloat64(m.stepOutcomes.WithLabelValues("completed")); got != 1 {
		t.Errorf("expected step outcome counted once, got %v", got)
	}
	if got := testutil.ToFloat64(m.stepRetries); got != 2 {
		t.Errorf("expected 2 retries recorded, got %v", got)
	}
}
