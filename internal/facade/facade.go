// Package facade implements the Engine Façade (spec §6): the single system
// boundary that wires the Admission Controller, DAG Scheduler, Execution
// Store, Control Plane, and Event Stream behind Start/Get/Pause/Resume/
// Cancel/Restart(+All)/Destroy. Lifecycle shape (Config struct, New,
// Start/Stop symmetry) is grounded in internal/orchestrator/orchestrator.go.
package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arsava/scenarios/internal/control"
	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/events"
	"github.com/arsava/scenarios/internal/requester"
	"github.com/arsava/scenarios/internal/runner"
	"github.com/arsava/scenarios/internal/scheduler"
	"github.com/arsava/scenarios/internal/store"

	"github.com/arsava/scenarios/internal/admission"
)

// ErrScenarioNotFound is returned by StartScenario when the Catalog has no
// scenario with the given id.
var ErrScenarioNotFound = errors.New("facade: scenario not found")

// ErrExecutionNotFound is returned by operations addressing an unknown
// execution id.
var ErrExecutionNotFound = errors.New("facade: execution not found")

// Catalog resolves scenario ids to Scenarios. Implementations must be safe
// for concurrent use (§6 "Collaborator contracts").
type Catalog interface {
	GetScenario(ctx context.Context, id string) (*domain.Scenario, bool, error)
}

// Config is the Façade's recognized configuration surface (§6).
type Config struct {
	MaxConcurrency       int
	CleanupIntervalMs    int
	CleanupTTLMs         int
	CleanupMaxExecutions int
	Logger               *slog.Logger
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:       3,
		CleanupIntervalMs:    60_000,
		CleanupTTLMs:         30 * 60_000,
		CleanupMaxExecutions: 50,
	}
}

// Facade is the engine's system boundary. One instance owns one Execution
// Store, one Admission Controller, and one Event Stream shared across every
// execution it starts.
type Facade struct {
	catalog   Catalog
	requester requester.Requester
	logger    *slog.Logger

	store     *store.Store
	admission *admission.Controller
	events    *events.Stream

	controls map[string]*control.Block
	mu       sync.Mutex

	cfg Config
}

// New builds a Facade. The sweeper is started immediately.
func New(catalog Catalog, req requester.Requester, cfg Config) *Facade {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if cfg.CleanupIntervalMs <= 0 {
		cfg.CleanupIntervalMs = DefaultConfig().CleanupIntervalMs
	}
	if cfg.CleanupTTLMs <= 0 {
		cfg.CleanupTTLMs = DefaultConfig().CleanupTTLMs
	}
	if cfg.CleanupMaxExecutions <= 0 {
		cfg.CleanupMaxExecutions = DefaultConfig().CleanupMaxExecutions
	}

	st := store.New(store.Config{
		TTL:           time.Duration(cfg.CleanupTTLMs) * time.Millisecond,
		MaxExecutions: cfg.CleanupMaxExecutions,
		Logger:        logger,
	})
	st.Start(time.Duration(cfg.CleanupIntervalMs) * time.Millisecond)

	return &Facade{
		catalog:   catalog,
		requester: req,
		logger:    logger,
		store:     st,
		admission: admission.New(cfg.MaxConcurrency),
		events:    events.New(logger),
		controls:  make(map[string]*control.Block),
		cfg:       cfg,
	}
}

// Events exposes the shared Event Stream for subscription (Broadcaster,
// metrics, etc).
func (f *Facade) Events() *events.Stream { return f.events }

// StartScenario resolves scenarioId against the Catalog, registers a fresh
// pending Execution, and spawns its driver. Admission is acquired by the
// driver goroutine after registration, so a queued execution is still
// visible as pending via GetExecution (§4.9).
func (f *Facade) StartScenario(ctx context.Context, scenarioID string, mode domain.Mode, triggerData any) (string, error) {
	return f.startScenario(ctx, scenarioID, mode, triggerData, "")
}

func (f *Facade) startScenario(ctx context.Context, scenarioID string, mode domain.Mode, triggerData any, parentExecution string) (string, error) {
	scn, ok, err := f.catalog.GetScenario(ctx, scenarioID)
	if err != nil {
		return "", fmt.Errorf("facade: catalog lookup: %w", err)
	}
	if !ok {
		return "", ErrScenarioNotFound
	}

	id := uuid.New().String()
	exec := domain.NewExecution(id, scenarioID, mode, parentExecution, triggerData, len(scn.Steps), time.Now())
	f.store.Put(exec)

	ctl := control.New(ctx)
	f.mu.Lock()
	f.controls[id] = ctl
	f.mu.Unlock()

	go f.drive(scn, exec, ctl)

	return id, nil
}

// drive acquires an admission slot, runs the DAG Scheduler to completion,
// then releases the slot unconditionally (§4.9: "Release happens in a
// guaranteed-to-run cleanup on driver exit").
func (f *Facade) drive(scn *domain.Scenario, exec *domain.Execution, ctl *control.Block) {
	if !f.admission.Acquire(ctl.Context().Done()) {
		exec.MarkCancelled(time.Now())
		f.events.Publish(events.Event{Topic: events.TopicCancelled, Execution: exec.ToSnapshot(time.Now())})
		return
	}
	defer f.admission.Release()

	run := runner.New(f.requester)
	driver := scheduler.New(scn, exec, ctl, run, f.events)
	driver.Run()
}

// ListExecutions returns a point-in-time Snapshot of every known execution.
func (f *Facade) ListExecutions() []domain.Snapshot {
	now := time.Now()
	execs := f.store.All()
	out := make([]domain.Snapshot, len(execs))
	for i, exec := range execs {
		out[i] = exec.ToSnapshot(now)
	}
	return out
}

// GetExecution returns a point-in-time Snapshot of the execution, if known.
func (f *Facade) GetExecution(id string) (domain.Snapshot, error) {
	exec, ok := f.store.Get(id)
	if !ok {
		return domain.Snapshot{}, ErrExecutionNotFound
	}
	return exec.ToSnapshot(time.Now()), nil
}

// PauseExecution requests a pause. True iff the execution was running.
func (f *Facade) PauseExecution(id string) bool {
	ctl, exec := f.lookup(id)
	if ctl == nil || exec.Status() != domain.StatusRunning {
		return false
	}
	return ctl.Pause()
}

// ResumeExecution requests a resume. True iff the execution was paused.
func (f *Facade) ResumeExecution(id string) bool {
	ctl, exec := f.lookup(id)
	if ctl == nil || exec.Status() != domain.StatusPaused {
		return false
	}
	return ctl.Resume()
}

// CancelExecution requests a cancellation. True iff the execution was
// pending, running, or paused.
func (f *Facade) CancelExecution(id string) bool {
	ctl, exec := f.lookup(id)
	if ctl == nil {
		return false
	}
	switch exec.Status() {
	case domain.StatusPending, domain.StatusRunning, domain.StatusPaused:
		ctl.Cancel()
		return true
	default:
		return false
	}
}

// RestartExecution cancels id (if active) and starts a fresh execution of
// the same scenario, mode, and triggerData, with parentExecutionId=id.
func (f *Facade) RestartExecution(ctx context.Context, id string) (string, error) {
	exec, ok := f.store.Get(id)
	if !ok {
		return "", ErrExecutionNotFound
	}
	f.CancelExecution(id)
	return f.startScenario(ctx, exec.ScenarioID(), exec.Mode(), exec.TriggerData(), id)
}

// PauseAll/ResumeAll/CancelAll iterate over every non-terminal execution
// and invoke the per-execution operation, returning the count of
// successful transitions (§4.8 "Fleet operations").
func (f *Facade) PauseAll() int  { return f.fleet(f.PauseExecution) }
func (f *Facade) ResumeAll() int { return f.fleet(f.ResumeExecution) }
func (f *Facade) CancelAll() int { return f.fleet(f.CancelExecution) }

func (f *Facade) fleet(op func(string) bool) int {
	count := 0
	for _, exec := range f.store.All() {
		if exec.Status().IsTerminal() {
			continue
		}
		if op(exec.ID()) {
			count++
		}
	}
	return count
}

// Destroy stops the sweeper and releases its timer. It does not cancel
// in-flight executions by itself (§6).
func (f *Facade) Destroy() {
	f.store.Stop()
}

func (f *Facade) lookup(id string) (*control.Block, *domain.Execution) {
	exec, ok := f.store.Get(id)
	if !ok {
		return nil, nil
	}
	f.mu.Lock()
	ctl := f.controls[id]
	f.mu.Unlock()
	return ctl, exec
}
