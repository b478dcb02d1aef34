package domain

// Scenario is an immutable, declarative plan: a named collection of HTTP-request
// steps with dependencies, guards, retries, iterations, assertions, and variable
// extraction rules.
type Scenario struct {
	ID    string
	Name  string
	Steps []Step
}

// StepByID returns the step with the given id, or nil if none exists.
func (s *Scenario) StepByID(id string) *Step {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return &s.Steps[i]
		}
	}
	return nil
}

// Step is a single unit of work: one HTTP exchange plus optional iteration/retry.
type Step struct {
	ID    string
	Name  string
	Stage string

	Method  string
	URL     string
	Headers map[string]string
	Body    *Body
	Query   map[string]string

	Retries    int
	DelayMs    int
	Jitter     int
	Iterations int

	Expect  *Expect
	Extract map[string]ExtractRule

	DependsOn []string
	When      *Guard
}

// IterationCount returns Iterations, defaulting to 1 when unset.
func (s *Step) IterationCount() int {
	if s.Iterations <= 0 {
		return 1
	}
	return s.Iterations
}

// AttemptCount returns the number of attempts the step runner should make:
// the first try plus Retries additional ones.
func (s *Step) AttemptCount() int {
	if s.Retries < 0 {
		return 1
	}
	return s.Retries + 1
}

// Body is a sum variant: a request body is either raw text or a structured
// JSON-like value, never both. This captures the "dynamic dispatch on request
// bodies" design note directly as a Go type rather than an interface{} with
// runtime type switches scattered through callers.
type Body struct {
	Raw        *string
	Structured any
}

// IsEmpty reports whether the body carries no content at all.
func (b *Body) IsEmpty() bool {
	return b == nil || (b.Raw == nil && b.Structured == nil)
}

// Expect is the set of assertion clauses a step's response must satisfy.
// Each field is a pointer/nil-map so that "absent" and "present with zero
// value" are distinguishable, matching the evaluator's "present clause" rule.
type Expect struct {
	Status            *int
	Blocked           *bool
	BodyContains      *string
	BodyNotContains   *string
	HeaderPresent     *string
	HeaderEquals      map[string]string // insertion order preserved via HeaderEqualsOrder
	HeaderEqualsOrder []string
}

// IsEmpty reports whether no assertion clause was configured at all, in which
// case the step passes on any non-error response (§4.5).
func (e *Expect) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.Status == nil && e.Blocked == nil && e.BodyContains == nil &&
		e.BodyNotContains == nil && e.HeaderPresent == nil && len(e.HeaderEquals) == 0
}

// ExtractFrom names the response facet an extract rule reads from.
type ExtractFrom string

const (
	ExtractFromBody   ExtractFrom = "body"
	ExtractFromHeader ExtractFrom = "header"
	ExtractFromStatus ExtractFrom = "status"
)

// ExtractRule describes how to compute one context variable from a response.
type ExtractRule struct {
	From ExtractFrom
	Path string // optional; empty means "the whole facet"
}

// Guard is the `when` clause gating whether a step runs or is skipped,
// referencing another step's outcome.
type Guard struct {
	Step      string
	Succeeded *bool
	Status    *int
}
