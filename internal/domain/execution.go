package domain

import (
	"sync"
	"time"
)

// Execution is a live or historical run of a Scenario: it owns status,
// context, step results, and an optional report. While non-terminal it is
// exclusively owned by its driver; after termination it is owned by the
// Execution Store and is read-only to observers (§3 "Ownership").
type Execution struct {
	mu sync.RWMutex

	id              string
	scenarioID      string
	mode            Mode
	parentExecution string
	triggerData     any

	status Status

	startedAt   *time.Time
	completedAt *time.Time

	steps   []StepResult
	context map[string]any

	pausedState *PausedState
	report      *Report

	passedSteps int
	totalSteps  int

	failureReason string

	createdAt time.Time
}

// PausedState is the snapshot exposed while an Execution is paused (§3).
type PausedState struct {
	PendingStepIDs   []string
	CompletedStepIDs []string
	Context          map[string]any
	PassedSteps      int
	StepsSoFar       []StepResult
}

// Report is the optional assessment-mode scoring summary (§4.10).
type Report struct {
	Score     int
	Passed    bool
	Summary   string
	Artifacts []string
}

// NewExecution creates a fresh pending Execution. totalSteps seeds the
// denominator for assessment scoring (§4.10).
func NewExecution(id, scenarioID string, mode Mode, parentExecution string, triggerData any, totalSteps int, now time.Time) *Execution {
	return &Execution{
		id:              id,
		scenarioID:      scenarioID,
		mode:            mode,
		parentExecution: parentExecution,
		triggerData:     triggerData,
		status:          StatusPending,
		context:         make(map[string]any),
		totalSteps:      totalSteps,
		createdAt:       now,
	}
}

func (e *Execution) ID() string         { return e.id }
func (e *Execution) ScenarioID() string { return e.scenarioID }
func (e *Execution) Mode() Mode         { return e.mode }
func (e *Execution) ParentExecution() string {
	return e.parentExecution
}
func (e *Execution) TriggerData() any { return e.triggerData }

func (e *Execution) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// MarkRunning transitions pending/paused → running. Driver-owned.
func (e *Execution) MarkRunning(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startedAt == nil {
		e.startedAt = &now
	}
	e.status = StatusRunning
}

// MarkPaused snapshots state and transitions running → paused. Driver-owned.
func (e *Execution) MarkPaused() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusPaused
	e.pausedState = e.snapshotLocked()
}

// MarkResumed clears the paused snapshot and transitions paused → running.
// Driver-owned.
func (e *Execution) MarkResumed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusRunning
	e.pausedState = nil
}

// MarkCompleted transitions running → completed. Driver-owned.
func (e *Execution) MarkCompleted(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusCompleted
	e.completedAt = &now
}

// MarkFailed transitions running → failed. It only flips status+timestamp;
// a step-less execution error (deadlock, internal invariant violation) is
// recorded separately through SetFailureReason, not as a synthetic
// StepResult.
func (e *Execution) MarkFailed(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusFailed
	e.completedAt = &now
}

// SetFailureReason records a driver-level failure not attributable to any
// single step (e.g. a deadlocked dependency graph). Driver-owned.
func (e *Execution) SetFailureReason(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failureReason = reason
}

func (e *Execution) FailureReason() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.failureReason
}

// MarkCancelled transitions any active status → cancelled. Driver-owned.
func (e *Execution) MarkCancelled(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusCancelled
	e.completedAt = &now
}

func (e *Execution) StartedAt() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.startedAt
}

func (e *Execution) CompletedAt() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.completedAt
}

// Duration returns the elapsed time between start and completion (or now,
// if still active and started).
func (e *Execution) Duration(now time.Time) time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.startedAt == nil {
		return 0
	}
	end := now
	if e.completedAt != nil {
		end = *e.completedAt
	}
	return end.Sub(*e.startedAt)
}

// AppendStep appends a new StepResult. Driver-owned; called exactly once per
// step id (§3 invariant: "a StepResult appears at most once").
func (e *Execution) AppendStep(r StepResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps = append(e.steps, r)
}

// MutateStep applies fn to the StepResult with the given id, in place.
// Driver-owned (single Step Runner goroutine per step id).
func (e *Execution) MutateStep(id string, fn func(*StepResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.steps {
		if e.steps[i].StepID == id {
			fn(&e.steps[i])
			return
		}
	}
}

// StepResult returns a copy of the current StepResult for id, if present.
func (e *Execution) StepResult(id string) (StepResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.steps {
		if s.StepID == id {
			return s, true
		}
	}
	return StepResult{}, false
}

// Steps returns a snapshot copy of the step results accumulated so far.
func (e *Execution) Steps() []StepResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]StepResult, len(e.steps))
	copy(out, e.steps)
	return out
}

// SetContextVar writes one variable into the execution's context. Driver-owned.
func (e *Execution) SetContextVar(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.context[name] = value
}

// Context returns a snapshot copy of the variable map.
func (e *Execution) Context() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.context))
	for k, v := range e.context {
		out[k] = v
	}
	return out
}

// IncrementPassedSteps increments the assessment-mode passed-step counter.
func (e *Execution) IncrementPassedSteps() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passedSteps++
}

func (e *Execution) PassedSteps() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passedSteps
}

func (e *Execution) TotalSteps() int {
	return e.totalSteps
}

// SetReport attaches the assessment report. Driver-owned, called once on
// terminal completion when Mode == ModeAssessment.
func (e *Execution) SetReport(r *Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.report = r
}

func (e *Execution) ReportSnapshot() *Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.report == nil {
		return nil
	}
	cp := *e.report
	return &cp
}

func (e *Execution) PausedStateSnapshot() *PausedState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pausedState == nil {
		return nil
	}
	cp := *e.pausedState
	return &cp
}

// snapshotLocked builds a PausedState from current fields. Caller must hold e.mu.
func (e *Execution) snapshotLocked() *PausedState {
	ctx := make(map[string]any, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}
	stepsSoFar := make([]StepResult, len(e.steps))
	copy(stepsSoFar, e.steps)

	var completed, pending []string
	for _, s := range e.steps {
		if s.Status.IsTerminal() {
			completed = append(completed, s.StepID)
		} else {
			pending = append(pending, s.StepID)
		}
	}

	return &PausedState{
		PendingStepIDs:   pending,
		CompletedStepIDs: completed,
		Context:          ctx,
		PassedSteps:      e.passedSteps,
		StepsSoFar:       stepsSoFar,
	}
}

// Snapshot is an immutable, externally-safe copy of an Execution's observable
// state, suitable for Event Stream payloads and Façade query responses.
type Snapshot struct {
	ID              string
	ScenarioID      string
	Mode            Mode
	ParentExecution string
	TriggerData     any
	Status          Status
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Duration        time.Duration
	Steps           []StepResult
	Context         map[string]any
	PausedState     *PausedState
	Report          *Report
	PassedSteps     int
	TotalSteps      int
	FailureReason   string
}

// ToSnapshot builds a point-in-time, copy-safe Snapshot.
func (e *Execution) ToSnapshot(now time.Time) Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	steps := make([]StepResult, len(e.steps))
	copy(steps, e.steps)

	ctx := make(map[string]any, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}

	var duration time.Duration
	if e.startedAt != nil {
		end := now
		if e.completedAt != nil {
			end = *e.completedAt
		}
		duration = end.Sub(*e.startedAt)
	}

	var paused *PausedState
	if e.pausedState != nil {
		cp := *e.pausedState
		paused = &cp
	}

	var report *Report
	if e.report != nil {
		cp := *e.report
		report = &cp
	}

	return Snapshot{
		ID:              e.id,
		ScenarioID:      e.scenarioID,
		Mode:            e.mode,
		ParentExecution: e.parentExecution,
		TriggerData:     e.triggerData,
		Status:          e.status,
		StartedAt:       e.startedAt,
		CompletedAt:     e.completedAt,
		Duration:        duration,
		Steps:           steps,
		Context:         ctx,
		PausedState:     paused,
		Report:          report,
		PassedSteps:     e.passedSteps,
		TotalSteps:      e.totalSteps,
		FailureReason:   e.failureReason,
	}
}
