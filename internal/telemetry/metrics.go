package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/events"
)

// Metrics is the engine's Prometheus surface: gauges, counters, and a
// duration histogram derived entirely from Event Stream subscriptions,
// never from the core directly (§9 "Observation vs. action separation" —
// the core must not depend on any subscriber, including this one).
// Registered the way the teacher's cmd/automata-api wires its promauto
// counters, generalized to a CounterVec/HistogramVec/GaugeVec surface.
type Metrics struct {
	executionsStarted   *prometheus.CounterVec
	executionsCompleted *prometheus.CounterVec
	executionDuration   *prometheus.HistogramVec
	executionsActive    *prometheus.GaugeVec
	stepOutcomes        *prometheus.CounterVec
	stepRetries         prometheus.Counter

	mu             sync.Mutex
	lastStep       map[string]map[string]domain.StepStatus // execution id -> step id -> last observed status
	lastExecActive map[string]domain.Status                // execution id -> last status while non-terminal
}

// NewMetrics builds and registers the engine's metrics against reg. Pass
// prometheus.DefaultRegisterer to expose them on the process-wide default
// registry; cmd/scenario-server instead passes its own registry and serves
// it on /metrics with promhttp.HandlerFor.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarios_executions_started_total",
			Help: "Total executions started, by scenario_id.",
		}, []string{"scenario_id"}),
		executionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarios_executions_completed_total",
			Help: "Total executions reaching a terminal status, by scenario_id and status.",
		}, []string{"scenario_id", "status"}),
		executionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenarios_execution_duration_seconds",
			Help:    "Execution wall-clock duration from start to terminal status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scenario_id"}),
		executionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenarios_executions_active",
			Help: "Current non-terminal executions, by status (pending, running, paused).",
		}, []string{"status"}),
		stepOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarios_step_outcomes_total",
			Help: "Total steps reaching a terminal outcome, by status.",
		}, []string{"status"}),
		stepRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scenarios_step_retries_total",
			Help: "Total retry attempts across all steps (attempts beyond the first).",
		}),
		lastStep:       make(map[string]map[string]domain.StepStatus),
		lastExecActive: make(map[string]domain.Status),
	}

	reg.MustRegister(
		m.executionsStarted, m.executionsCompleted, m.executionDuration,
		m.executionsActive, m.stepOutcomes, m.stepRetries,
	)
	return m
}

// Subscribe wires m into stream so every lifecycle event updates the
// relevant metric. Safe to call once per Metrics instance.
func (m *Metrics) Subscribe(stream *events.Stream) {
	stream.Subscribe(m.observe)
}

func (m *Metrics) observe(ev events.Event) {
	switch ev.Topic {
	case events.TopicStarted:
		m.executionsStarted.WithLabelValues(ev.Execution.ScenarioID).Inc()
		m.transitionActive(ev.Execution.ID, ev.Execution.Status)
	case events.TopicUpdated, events.TopicPaused, events.TopicResumed:
		m.observeStepOutcomes(ev.Execution)
		m.transitionActive(ev.Execution.ID, ev.Execution.Status)
	case events.TopicCompleted, events.TopicFailed, events.TopicCancelled:
		m.observeStepOutcomes(ev.Execution)
		status := string(ev.Execution.Status)
		m.executionsCompleted.WithLabelValues(ev.Execution.ScenarioID, status).Inc()
		m.executionDuration.WithLabelValues(ev.Execution.ScenarioID).Observe(ev.Execution.Duration.Seconds())
		m.transitionActive(ev.Execution.ID, ev.Execution.Status)

		m.mu.Lock()
		delete(m.lastStep, ev.Execution.ID)
		m.mu.Unlock()
	}
}

// transitionActive moves the executionsActive gauge from whatever status id
// was last observed in to current, decrementing the former and incrementing
// the latter — only for the non-terminal statuses the gauge tracks
// (pending/running/paused). Tracking the prior status explicitly (rather
// than inferring a pending->running move from "did a step just get
// appended," or unconditionally decrementing "running" on every terminal
// event) keeps a deadlocked execution (zero StepResults ever appended) and
// a zero-step scenario from leaking a phantom "pending" count or driving
// "running" negative.
func (m *Metrics) transitionActive(id string, current domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prior, tracked := m.lastExecActive[id]
	if tracked && prior == current {
		return
	}
	if tracked && isActiveStatus(prior) {
		m.executionsActive.WithLabelValues(string(prior)).Dec()
	}
	if isActiveStatus(current) {
		m.executionsActive.WithLabelValues(string(current)).Inc()
		m.lastExecActive[id] = current
	} else {
		delete(m.lastExecActive, id)
	}
}

func isActiveStatus(s domain.Status) bool {
	switch s {
	case domain.StatusPending, domain.StatusRunning, domain.StatusPaused:
		return true
	default:
		return false
	}
}

// observeStepOutcomes increments stepOutcomes/stepRetries for every step
// that newly reached a terminal status since the last observed snapshot,
// so repeated TopicUpdated deliveries for the same execution never double
// count a step's outcome.
func (m *Metrics) observeStepOutcomes(snap domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.lastStep[snap.ID]
	if !ok {
		seen = make(map[string]domain.StepStatus)
		m.lastStep[snap.ID] = seen
	}

	for _, step := range snap.Steps {
		if !step.Status.IsTerminal() {
			continue
		}
		if seen[step.StepID] == step.Status {
			continue
		}
		seen[step.StepID] = step.Status
		m.stepOutcomes.WithLabelValues(string(step.Status)).Inc()
		if step.Attempts > 1 {
			m.stepRetries.Add(float64(step.Attempts - 1))
		}
	}
}
