package trigger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/arsava/scenarios/internal/domain"
)

type fakeStarter struct {
	mu    sync.Mutex
	calls []string
}

func (s *fakeStarter) StartScenario(ctx context.Context, scenarioID string, mode domain.Mode, triggerData any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scenarioID)
	return "exec-" + scenarioID, nil
}

func (s *fakeStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateCronExpr_RejectsMalformed(t *testing.T) {
	if err := ValidateCronExpr("not a cron expr"); err == nil {
		t.Fatal("expected error for malformed expression")
	}
	if err := ValidateCronExpr("*/5 * * * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCalculateNext_AdvancesPastFrom(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := CalculateNext("0 * * * *", "UTC", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.After(from) {
		t.Fatalf("expected next (%v) after from (%v)", next, from)
	}
	if next.Minute() != 0 {
		t.Fatalf("expected top-of-hour fire, got %v", next)
	}
}

func TestCalculateNext_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := CalculateNext("0 * * * *", "Nowhere/Imaginary", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Location() != time.UTC {
		t.Fatalf("expected UTC result, got %v", next.Location())
	}
}

func TestTick_FiresDueSourceAndAdvancesNextFire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	starter := &fakeStarter{}

	sources := []Source{
		{Name: "hourly", ScenarioID: "scn-1", CronExpr: "0 * * * *", Timezone: "UTC"},
	}
	trig, err := New(starter, discardLogger(), sources, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	trig.Tick(context.Background(), now)
	if starter.count() != 0 {
		t.Fatalf("expected no fire before first due time, got %d calls", starter.count())
	}

	trig.Tick(context.Background(), now.Add(time.Hour))
	if starter.count() != 1 {
		t.Fatalf("expected exactly one fire, got %d calls", starter.count())
	}

	trig.Tick(context.Background(), now.Add(time.Hour))
	if starter.count() != 1 {
		t.Fatalf("expected no re-fire within the same hour, got %d calls", starter.count())
	}
}

func TestTick_DefaultsModeToSimulation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	starter := &fakeStarter{}

	sources := []Source{
		{Name: "unset-mode", ScenarioID: "scn-2", CronExpr: "* * * * *", Timezone: "UTC"},
	}
	trig, err := New(starter, discardLogger(), sources, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	trig.Tick(context.Background(), now.Add(time.Minute))
	if starter.count() != 1 {
		t.Fatalf("expected one fire, got %d", starter.count())
	}
}
