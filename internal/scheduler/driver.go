// Package scheduler implements the DAG Scheduler (spec §4.7): per-execution
// frontier computation, deadlock detection, and concurrent wave execution,
// plus the Assessment Report (§4.10) computed on terminal completion. The
// wave-barrier driver loop is grounded in
// internal/orchestrator/handlers.go's dispatchReadySteps shape (launch the
// ready set concurrently, await all, recompute) with the crash-recovery
// (restoreRunState) and DB-polling dispatch machinery stripped — those
// served durable, distributed execution, which spec.md's Non-goals exclude
// from the core. Frontier computation itself is grounded in
// internal/engine/dag.go's GetReadyNodes.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/arsava/scenarios/internal/control"
	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/events"
	"github.com/arsava/scenarios/internal/runner"
)

// ErrDeadlock names the condition where the dependency graph cannot
// advance: a non-empty pending set with an empty frontier (self-dependencies
// and cycles surface here). Run returns nothing; on a deadlock it marks the
// execution failed with a failure reason beginning "Deadlock detected".
var ErrDeadlock = errors.New("scheduler: deadlock detected")

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Driver runs exactly one Execution's DAG Scheduler loop to a terminal
// state. One Driver per Execution; no other actor mutates Execution fields
// except the control-plane flags (§4.8's concurrency contract).
type Driver struct {
	Scenario  *domain.Scenario
	Execution *domain.Execution
	Control   *control.Block
	Runner    *runner.Runner
	Events    *events.Stream
	Clock     Clock
}

// New builds a Driver with production defaults (a real clock).
func New(scenario *domain.Scenario, execution *domain.Execution, ctl *control.Block, r *runner.Runner, evs *events.Stream) *Driver {
	return &Driver{
		Scenario:  scenario,
		Execution: execution,
		Control:   ctl,
		Runner:    r,
		Events:    evs,
		Clock:     RealClock{},
	}
}

// Run drives the execution from pending to a terminal state, publishing
// every lifecycle event along the way. It returns only once the execution
// is terminal (completed, failed, or cancelled).
func (d *Driver) Run() {
	now := d.clock().Now()
	d.Execution.MarkRunning(now)
	d.publish(events.TopicStarted)

	pending := make(map[string]bool, len(d.Scenario.Steps))
	for _, s := range d.Scenario.Steps {
		pending[s.ID] = true
	}

	for len(pending) > 0 {
		if d.Control.Cancelled() {
			d.finishCancelled()
			return
		}

		if d.Control.IsPaused() {
			d.Execution.MarkPaused()
			d.publish(events.TopicPaused)

			d.Control.AwaitResumeOrCancel()

			if d.Control.Cancelled() {
				d.finishCancelled()
				return
			}
			d.Execution.MarkResumed()
			d.publish(events.TopicResumed)
		}

		ready := frontier(scenarioGraph{d.Scenario}, pending)
		if len(ready) == 0 {
			d.Execution.SetFailureReason(fmt.Sprintf("Deadlock detected: %d step(s) pending with no executable frontier", len(pending)))
			d.Execution.MarkFailed(d.clock().Now())
			d.publish(events.TopicFailed)
			return
		}

		for _, id := range ready {
			delete(pending, id)
		}
		d.runWave(ready)
	}

	if d.Control.Cancelled() {
		d.finishCancelled()
		return
	}

	d.finishCompleted()
}

// runWave launches every step id in ready concurrently and blocks until
// all have returned a terminal StepResult (§4.7 step 5).
func (d *Driver) runWave(ready []string) {
	var wg sync.WaitGroup
	wg.Add(len(ready))
	for _, id := range ready {
		step := d.Scenario.StepByID(id)
		go func(step *domain.Step) {
			defer wg.Done()
			d.Runner.Run(d.Control.Context(), step, d.stepDeps())
		}(step)
	}
	wg.Wait()
}

func (d *Driver) stepDeps() runner.Deps {
	return runner.Deps{
		Context:    d.Execution.Context,
		StepResult: d.Execution.StepResult,
		SetVar:     d.Execution.SetContextVar,
		Emit:       d.emit,
	}
}

// emit is the Step Runner's append-or-mutate hook (§4.6): the first call
// for a step id appends its StepResult, later calls replace it, and every
// call publishes execution:updated.
func (d *Driver) emit(result domain.StepResult) {
	if _, ok := d.Execution.StepResult(result.StepID); ok {
		d.Execution.MutateStep(result.StepID, func(r *domain.StepResult) { *r = result })
	} else {
		d.Execution.AppendStep(result)
	}
	if result.Status == domain.StepCompleted {
		d.Execution.IncrementPassedSteps()
	}
	d.publish(events.TopicUpdated)
}

func (d *Driver) finishCancelled() {
	d.Execution.MarkCancelled(d.clock().Now())
	d.publish(events.TopicCancelled)
}

// finishCompleted marks the execution completed once pending has drained —
// individual step failures do not fail the execution, only a deadlock does
// (§4.7's closing line). In assessment mode it also computes the report.
func (d *Driver) finishCompleted() {
	d.Execution.MarkCompleted(d.clock().Now())
	if d.Execution.Mode() == domain.ModeAssessment {
		d.Execution.SetReport(d.computeReport())
	}
	d.publish(events.TopicCompleted)
}

// computeReport implements §4.10's scoring formula exactly.
func (d *Driver) computeReport() *domain.Report {
	total := d.Execution.TotalSteps()
	passed := d.Execution.PassedSteps()

	score := 100
	if total > 0 {
		score = int(math.Round(100 * float64(passed) / float64(total)))
	}

	return &domain.Report{
		Score:   score,
		Passed:  score >= 80,
		Summary: fmt.Sprintf("Executed %d steps. %d passed.", total, passed),
	}
}

func (d *Driver) publish(topic events.Topic) {
	d.Events.Publish(events.Event{
		Topic:     topic,
		Execution: d.Execution.ToSnapshot(d.clock().Now()),
	})
}

func (d *Driver) clock() Clock {
	if d.Clock == nil {
		return RealClock{}
	}
	return d.Clock
}

// scenarioGraph adapts a domain.Scenario to the stepGraph interface frontier needs.
type scenarioGraph struct {
	scenario *domain.Scenario
}

func (g scenarioGraph) stepIDs() []string {
	ids := make([]string, len(g.scenario.Steps))
	for i, s := range g.scenario.Steps {
		ids[i] = s.ID
	}
	return ids
}

func (g scenarioGraph) dependsOn(id string) []string {
	step := g.scenario.StepByID(id)
	if step == nil {
		return nil
	}
	return step.DependsOn
}
