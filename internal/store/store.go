// Package store implements the Execution Store (spec §4.11): an in-memory
// executionId → Execution registry with a TTL+size-bounded sweeper. The
// registry itself generalizes internal/orchestrator/orchestrator.go's
// activeRuns map (a mutex-guarded map[id]*state, indexed the same way);
// unlike activeRuns, terminal executions stay here until the sweeper
// evicts them rather than being dropped on completion, since the Façade
// must still answer GetExecution for a recently-finished run. The sweeper's
// fixed cadence is driven by robfig/cron's ConstantDelaySchedule rather than
// a bare time.Ticker, reusing the same dependency the teacher's
// scheduler.Tick cadence was built on.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arsava/scenarios/internal/domain"
)

const (
	// DefaultSweepInterval is the sweeper's fixed cadence.
	DefaultSweepInterval = 60 * time.Second
	// DefaultTTL is how long a terminal execution survives before eviction.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxExecutions is the size bound enforced by the sweeper's size pass.
	DefaultMaxExecutions = 50
)

// Clock abstracts time.Now for deterministic sweeper tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Store is the executionId → Execution registry.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*domain.Execution

	ttl           time.Duration
	maxExecutions int
	clock         Clock
	logger        *slog.Logger

	cron *cron.Cron
}

// Config configures a Store's sweeper. Zero values fall back to the spec's
// defaults. SweepInterval is not read by New; the sweeper's cadence is the
// interval passed to Start.
type Config struct {
	SweepInterval time.Duration
	TTL           time.Duration
	MaxExecutions int
	Clock         Clock
	Logger        *slog.Logger
}

// New builds a Store. The sweeper is not started; call Start to begin it.
func New(cfg Config) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxExecutions := cfg.MaxExecutions
	if maxExecutions <= 0 {
		maxExecutions = DefaultMaxExecutions
	}
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		executions:    make(map[string]*domain.Execution),
		ttl:           ttl,
		maxExecutions: maxExecutions,
		clock:         clock,
		logger:        logger,
	}
}

// Put registers an execution, keyed by its id.
func (s *Store) Put(exec *domain.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[exec.ID()] = exec
}

// Get returns the execution with the given id, if present.
func (s *Store) Get(id string) (*domain.Execution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executions[id]
	return exec, ok
}

// All returns every registered execution, in no particular order.
func (s *Store) All() []*domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Execution, 0, len(s.executions))
	for _, exec := range s.executions {
		out = append(out, exec)
	}
	return out
}

// Delete removes an execution unconditionally. Exposed for tests and for
// Façade-level explicit cleanup; the sweeper is the normal eviction path.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.executions, id)
}

// Len reports the current registry size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.executions)
}

// Start begins the sweeper at the given interval (DefaultSweepInterval when
// interval <= 0). Start is
// idempotent only in the sense that calling it twice runs two sweepers;
// callers should pair every Start with exactly one Stop, matching the
// Façade's destroy() lifecycle contract (§9 "global process state...
// encapsulated...with explicit destroy() to release timers").
func (s *Store) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s.cron = cron.New()
	s.cron.Schedule(cron.ConstantDelaySchedule{Delay: interval}, cron.FuncJob(s.Sweep))
	s.cron.Start()
}

// Stop halts the sweeper and releases its timer.
func (s *Store) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}

// Sweep runs one TTL pass followed by one size pass (§4.11). Exposed so
// tests can drive it synchronously instead of waiting on the cron cadence.
func (s *Store) Sweep() {
	now := s.clock.Now()
	s.ttlPass(now)
	s.sizePass()
}

// ttlPass removes terminal executions whose completedAt predates now-ttl.
func (s *Store) ttlPass(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.ttl)
	for id, exec := range s.executions {
		if !exec.Status().IsTerminal() {
			continue
		}
		completedAt := exec.CompletedAt()
		if completedAt != nil && completedAt.Before(cutoff) {
			delete(s.executions, id)
			s.logger.Debug("execution store: evicted by TTL", "execution_id", id)
		}
	}
}

// sizePass evicts terminal executions, oldest-completed-first, until the
// registry is at or under maxExecutions. Non-terminal executions are never
// evicted regardless of size pressure.
func (s *Store) sizePass() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.executions) <= s.maxExecutions {
		return
	}

	type candidate struct {
		id          string
		completedAt time.Time
	}
	var candidates []candidate
	for id, exec := range s.executions {
		if !exec.Status().IsTerminal() {
			continue
		}
		completedAt := exec.CompletedAt()
		if completedAt == nil {
			continue
		}
		candidates = append(candidates, candidate{id: id, completedAt: *completedAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].completedAt.Before(candidates[j].completedAt)
	})

	excess := len(s.executions) - s.maxExecutions
	for i := 0; i < excess && i < len(candidates); i++ {
		delete(s.executions, candidates[i].id)
		s.logger.Debug("execution store: evicted by size bound", "execution_id", candidates[i].id)
	}
}
