// Package runner implements the Step Runner (spec §4.6): guard evaluation,
// the attempt/retry loop, the delay+jitter gate, the iteration loop, and
// classification into completed/failed/cancelled/skipped. The attempt-loop
// shape (success check, retry gate, backoff-then-sleep-then-loop) is
// grounded in internal/worker/handlers.go's executeWithRetry; the
// cancellable delay gate is grounded in internal/steps/delay.go's
// time.NewTimer+select pattern. The backoff *formula* is replaced per
// spec §4.6.b (delayMs + uniform([0,jitter)), not exponential).
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/arsava/scenarios/internal/assert"
	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/extract"
	"github.com/arsava/scenarios/internal/requester"
	"github.com/arsava/scenarios/internal/template"
)

// Clock abstracts time.Now/time.Sleep for deterministic tests, mirroring
// the retrieved pack's clock.Clock/FakeClock test-double convention.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock, backed by time.Now and a
// cancellation-aware sleep.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrCancelled is returned by performIteration when ctx is done; Run turns
// it into a StepResult with status=cancelled.
var ErrCancelled = fmt.Errorf("runner: step cancelled")

// Runner drives exactly one step to a terminal StepResult.
type Runner struct {
	Requester requester.Requester
	Clock     Clock
	Builtins  map[string]template.Builtin
}

// New builds a Runner with production defaults.
func New(req requester.Requester) *Runner {
	return &Runner{
		Requester: req,
		Clock:     RealClock{},
		Builtins:  template.Builtins(),
	}
}

// Deps is read/write access to the execution state a step needs: its
// current context, the StepResult of any already-terminal step (for guard
// evaluation), and an Emit hook the driver uses to append/mutate the
// execution's StepResult list and publish execution:updated — called once
// for a skipped step, and otherwise twice per §4.6: once for the initial
// running StepResult, once for the terminal one.
type Deps struct {
	Context    func() map[string]any
	StepResult func(id string) (domain.StepResult, bool)
	SetVar     func(name string, value any)
	Emit       func(domain.StepResult)
}

// Run executes step to completion, returning its final StepResult. ctx is
// the execution's cancellation token; a cancellation at any checkpoint
// yields status=cancelled.
func (r *Runner) Run(ctx context.Context, step *domain.Step, deps Deps) domain.StepResult {
	if skip, _ := r.evaluateGuard(step, deps); skip {
		result := domain.StepResult{
			StepID: step.ID,
			Status: domain.StepSkipped,
		}
		deps.Emit(result)
		return result
	}

	result := domain.StepResult{
		StepID: step.ID,
		Status: domain.StepRunning,
	}
	started := r.Clock.Now()
	result.StartedAt = &started
	deps.Emit(result)

	maxAttempts := step.AttemptCount()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		if ctx.Err() != nil {
			return r.finish(deps, r.cancel(result, started))
		}

		if err := r.delayGate(ctx, step); err != nil {
			return r.finish(deps, r.cancel(result, started))
		}

		resp, err := r.performIteration(ctx, step, deps)
		if err != nil {
			if err == ErrCancelled || ctx.Err() != nil {
				return r.finish(deps, r.cancel(result, started))
			}
			lastErr = err
			if attempt == maxAttempts {
				result.Status = domain.StepFailed
				result.Error = err.Error()
				result.CompletedAt = ptrTime(r.Clock.Now())
				result.Duration = result.CompletedAt.Sub(started)
				return r.finish(deps, result)
			}
			continue
		}
		lastErr = nil

		vars := extract.Apply(step.Extract, resp)
		for name, value := range vars {
			deps.SetVar(name, value)
		}

		assertions := assert.Evaluate(step.Expect, resp)
		result.Assertions = assertions

		if domain.AllPassed(assertions) {
			result.Status = domain.StepCompleted
			result.CompletedAt = ptrTime(r.Clock.Now())
			result.Duration = result.CompletedAt.Sub(started)
			return r.finish(deps, result)
		}

		if attempt < maxAttempts {
			continue
		}

		result.Status = domain.StepFailed
		result.Error = domain.FailureSummary(assertions)
		result.CompletedAt = ptrTime(r.Clock.Now())
		result.Duration = result.CompletedAt.Sub(started)
		return r.finish(deps, result)
	}

	// Unreachable under well-formed AttemptCount()>=1, but keep Run total.
	result.Status = domain.StepFailed
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	result.CompletedAt = ptrTime(r.Clock.Now())
	result.Duration = result.CompletedAt.Sub(started)
	return r.finish(deps, result)
}

func (r *Runner) finish(deps Deps, result domain.StepResult) domain.StepResult {
	deps.Emit(result)
	return result
}

// evaluateGuard implements §4.6 step 1: a when clause references another
// step's StepResult; absence of that result, or a mismatched succeeded/status
// predicate, causes a skip. Per §9's resolved open question, a `when.status`
// check against a step whose expect has no `status` assertion skips too.
func (r *Runner) evaluateGuard(step *domain.Step, deps Deps) (bool, string) {
	if step.When == nil {
		return false, ""
	}

	ref, ok := deps.StepResult(step.When.Step)
	if !ok {
		return true, "referenced step has no result"
	}

	if step.When.Succeeded != nil {
		succeeded := ref.Status == domain.StepCompleted
		if succeeded != *step.When.Succeeded {
			return true, "succeeded predicate mismatch"
		}
	}

	if step.When.Status != nil {
		actual, found := statusAssertionActual(ref.Assertions)
		if !found {
			return true, "referenced step has no status assertion"
		}
		if actual != *step.When.Status {
			return true, "status predicate mismatch"
		}
	}

	return false, ""
}

func statusAssertionActual(assertions []domain.AssertionResult) (int, bool) {
	for _, a := range assertions {
		if a.Field == "status" {
			if v, ok := a.Actual.(int); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// delayGate implements §4.6.b: delay = delayMs + uniform([0, jitter)) when
// jitter>0, else delayMs. Cancellation during the sleep aborts the step.
func (r *Runner) delayGate(ctx context.Context, step *domain.Step) error {
	delay := time.Duration(step.DelayMs) * time.Millisecond
	if step.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(step.Jitter))) * time.Millisecond
	}
	if delay <= 0 {
		return nil
	}
	return r.Clock.Sleep(ctx, delay)
}

// performIteration implements §4.6.d: resolve templates, then run the
// configured number of iterations, keeping the last successful response.
func (r *Runner) performIteration(ctx context.Context, step *domain.Step, deps Deps) (*requester.Response, error) {
	vars := deps.Context()

	url := template.Resolve(step.URL, vars, r.Builtins)
	headers := template.ResolveHeaders(step.Headers, vars, r.Builtins)

	var body []byte
	if step.Body != nil {
		b, _, err := template.ResolveBody(step.Body.Raw, step.Body.Structured, vars, r.Builtins)
		if err != nil {
			return nil, fmt.Errorf("resolve body: %w", err)
		}
		body = b
	}

	req := requester.Request{
		Method:  step.Method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}

	iterations := step.IterationCount()
	var lastResp *requester.Response
	var lastErr error

	for i := 1; i <= iterations; i++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		resp, err := r.Requester.Perform(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			lastErr = err
			if i == iterations && lastResp == nil {
				return nil, lastErr
			}
			continue
		}
		lastResp = resp
		lastErr = nil
	}

	if lastResp == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no response captured")
	}
	return lastResp, nil
}

func (r *Runner) cancel(result domain.StepResult, started time.Time) domain.StepResult {
	result.Status = domain.StepCancelled
	now := r.Clock.Now()
	result.CompletedAt = &now
	result.Duration = now.Sub(started)
	return result
}

func ptrTime(t time.Time) *time.Time { return &t }
