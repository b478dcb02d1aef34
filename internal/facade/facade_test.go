package facade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/requester"
)

type mapCatalog struct {
	mu        sync.Mutex
	scenarios map[string]*domain.Scenario
}

func newMapCatalog(scenarios ...*domain.Scenario) *mapCatalog {
	c := &mapCatalog{scenarios: make(map[string]*domain.Scenario)}
	for _, s := range scenarios {
		c.scenarios[s.ID] = s
	}
	return c
}

func (c *mapCatalog) GetScenario(_ context.Context, id string) (*domain.Scenario, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scenarios[id]
	return s, ok, nil
}

func awaitTerminal(t *testing.T, f *Facade, id string) domain.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := f.GetExecution(id)
		if err != nil {
			t.Fatalf("get execution: %v", err)
		}
		if snap.Status.IsTerminal() {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for terminal status")
	return domain.Snapshot{}
}

func TestStartScenario_UnknownScenarioReturnsNotFound(t *testing.T) {
	f := New(newMapCatalog(), &requester.Fake{}, DefaultConfig())
	defer f.Destroy()

	_, err := f.StartScenario(context.Background(), "missing", domain.ModeSimulation, nil)
	if err != ErrScenarioNotFound {
		t.Fatalf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestStartScenario_RunsToCompletion(t *testing.T) {
	scn := &domain.Scenario{
		ID: "scn-1",
		Steps: []domain.Step{
			{ID: "only", Method: "GET", URL: "https://api.test/ok"},
		},
	}
	fake := &requester.Fake{Default: []requester.Result{{Response: &requester.Response{Status: 200}}}}
	f := New(newMapCatalog(scn), fake, DefaultConfig())
	defer f.Destroy()

	id, err := f.StartScenario(context.Background(), "scn-1", domain.ModeSimulation, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := awaitTerminal(t, f, id)
	if snap.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", snap.Status)
	}
}

func TestAdmission_ThirdExecutionQueuesUntilSlotFrees(t *testing.T) {
	scn := &domain.Scenario{
		ID: "scn-block",
		Steps: []domain.Step{
			{ID: "only", Method: "GET", URL: "https://api.test/blocking"},
		},
	}

	release := make(chan struct{})
	fake := &blockingRequester{release: release}

	cfg := DefaultConfig()
	cfg.MaxConcurrency = 2
	f := New(newMapCatalog(scn), fake, cfg)
	defer f.Destroy()

	ctx := context.Background()
	id1, _ := f.StartScenario(ctx, "scn-block", domain.ModeSimulation, nil)
	id2, _ := f.StartScenario(ctx, "scn-block", domain.ModeSimulation, nil)
	id3, _ := f.StartScenario(ctx, "scn-block", domain.ModeSimulation, nil)

	time.Sleep(50 * time.Millisecond)

	if fake.callCount() != 2 {
		t.Fatalf("expected exactly 2 in-flight requester calls, got %d", fake.callCount())
	}

	snap3, _ := f.GetExecution(id3)
	if snap3.Status != domain.StatusPending {
		t.Fatalf("expected third execution pending, got %s", snap3.Status)
	}

	close(release)

	awaitTerminal(t, f, id1)
	awaitTerminal(t, f, id2)
	awaitTerminal(t, f, id3)

	if fake.callCount() != 3 {
		t.Fatalf("expected 3 total requester calls, got %d", fake.callCount())
	}
}

type blockingRequester struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (b *blockingRequester) Perform(ctx context.Context, req requester.Request) (*requester.Response, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &requester.Response{Status: 200}, nil
}

func (b *blockingRequester) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestCancelExecution_TransitionsQueuedToCancelled(t *testing.T) {
	scn := &domain.Scenario{
		ID: "scn-cancel",
		Steps: []domain.Step{
			{ID: "only", Method: "GET", URL: "https://api.test/slow"},
		},
	}

	cfg := DefaultConfig()
	cfg.MaxConcurrency = 1
	block := make(chan struct{})
	slow := &blockingRequester{release: block}
	f := New(newMapCatalog(scn), slow, cfg)
	defer f.Destroy()

	ctx := context.Background()
	busyID, _ := f.StartScenario(ctx, "scn-cancel", domain.ModeSimulation, nil)
	queuedID, _ := f.StartScenario(ctx, "scn-cancel", domain.ModeSimulation, nil)
	time.Sleep(20 * time.Millisecond)

	if ok := f.CancelExecution(queuedID); !ok {
		t.Fatal("expected cancel of queued execution to succeed")
	}
	snap := awaitTerminal(t, f, queuedID)
	if snap.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", snap.Status)
	}

	close(block)
	awaitTerminal(t, f, busyID)
}
