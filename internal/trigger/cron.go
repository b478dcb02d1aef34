// Package trigger implements the supplemental cron-driven scenario trigger
// described in SPEC_FULL.md's SUPPLEMENTAL FEATURES section: a standalone
// collaborator that fires scenario starts on a schedule, entirely outside
// the core engine (the core has no notion of schedules, per the spec's
// Non-goals). Cron parsing and next-fire calculation are grounded on the
// teacher's former internal/scheduler/cron.go, adapted from a
// database-backed Schedule entity to a pure in-memory Source.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arsava/scenarios/internal/domain"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr reports whether expr parses as a 5-field cron expression.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// CalculateNext returns the next fire time strictly after from, in the
// given IANA timezone. An invalid timezone falls back to UTC.
func CalculateNext(expr, timezone string, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	next := schedule.Next(from.In(loc))
	return next.UTC(), nil
}

// Source is one cron-triggered scenario binding.
type Source struct {
	Name        string
	ScenarioID  string
	CronExpr    string
	Timezone    string
	Mode        domain.Mode
	TriggerData any
}

// Starter is the subset of the Engine Façade a Trigger needs: the ability
// to start a scenario by ID.
type Starter interface {
	StartScenario(ctx context.Context, scenarioID string, mode domain.Mode, triggerData any) (string, error)
}

// Trigger polls a fixed set of Sources once per tick and starts a scenario
// for every Source whose next fire time has passed. It owns no goroutine of
// its own — callers drive Tick from a robfig/cron job or a plain ticker.
type Trigger struct {
	starter  Starter
	logger   *slog.Logger
	sources  []Source
	nextFire map[string]time.Time
}

// New builds a Trigger over a fixed list of Sources, computing each one's
// first fire time relative to now.
func New(starter Starter, logger *slog.Logger, sources []Source, now time.Time) (*Trigger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Trigger{
		starter:  starter,
		logger:   logger,
		sources:  sources,
		nextFire: make(map[string]time.Time, len(sources)),
	}
	for _, src := range sources {
		next, err := CalculateNext(src.CronExpr, src.Timezone, now)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		t.nextFire[src.Name] = next
	}
	return t, nil
}

// Tick starts every Source whose next fire time is at or before now, then
// advances that Source's next fire time.
func (t *Trigger) Tick(ctx context.Context, now time.Time) {
	for _, src := range t.sources {
		due, ok := t.nextFire[src.Name]
		if !ok || now.Before(due) {
			continue
		}

		mode := src.Mode
		if mode == "" {
			mode = domain.ModeSimulation
		}
		if _, err := t.starter.StartScenario(ctx, src.ScenarioID, mode, src.TriggerData); err != nil {
			t.logger.Error("cron trigger failed to start scenario", "source", src.Name, "scenario_id", src.ScenarioID, "error", err)
		} else {
			t.logger.Info("cron trigger started scenario", "source", src.Name, "scenario_id", src.ScenarioID)
		}

		next, err := CalculateNext(src.CronExpr, src.Timezone, now)
		if err != nil {
			t.logger.Error("cron trigger failed to compute next fire time", "source", src.Name, "error", err)
			continue
		}
		t.nextFire[src.Name] = next
	}
}
