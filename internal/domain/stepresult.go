package domain

import "time"

// StepResult is the record of one step's outcome within an Execution.
// It is appended once, when the step first becomes executable or skipped,
// and mutated only by its owning Step Runner.
type StepResult struct {
	StepID string
	Status StepStatus

	StartedAt   *time.Time
	CompletedAt *time.Time
	Duration    time.Duration

	Attempts   int
	Assertions []AssertionResult
	Error      string
}

// AssertionResult is one evaluated clause from a step's `expect` block.
type AssertionResult struct {
	Field    string
	Expected any
	Actual   any
	Passed   bool
}

// AllPassed reports whether every assertion in the slice passed. An empty
// slice counts as passed (§4.5: "If expect is absent or empty, the step
// passes on any non-error response").
func AllPassed(results []AssertionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// FailureSummary builds the §7 "names each failing field, expected, and
// actual" error message for a step whose assertions did not all pass.
func FailureSummary(results []AssertionResult) string {
	summary := ""
	for _, r := range results {
		if r.Passed {
			continue
		}
		if summary != "" {
			summary += "; "
		}
		summary += r.Field + ": expected " + toDisplay(r.Expected) + ", got " + toDisplay(r.Actual)
	}
	if summary == "" {
		return "assertion failed"
	}
	return summary
}

func toDisplay(v any) string {
	if v == nil {
		return "<absent>"
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return jsonOrFallback(v)
	}
}
