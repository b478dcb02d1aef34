// Package catalog holds example Catalog implementations (spec §6's
// "Collaborator contracts": getScenario(id) → Scenario | absent, safe for
// concurrent use). The core never imports this package — it depends only
// on the facade.Catalog interface — so swapping catalog backends never
// touches engine code.
package catalog

import "github.com/arsava/scenarios/internal/domain"

// wireScenario is the JSON/YAML wire shape a Catalog backend decodes into
// before converting to domain.Scenario. Kept separate from domain.Scenario
// so storage concerns (string-typed guard/extract fields) never leak into
// the engine's pure types.
type wireScenario struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Steps []wireStep `json:"steps" yaml:"steps"`
}

type wireStep struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	Stage   string            `json:"stage" yaml:"stage"`
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Query   map[string]string `json:"query" yaml:"query"`

	BodyRaw        *string `json:"bodyRaw" yaml:"bodyRaw"`
	BodyStructured any     `json:"bodyStructured" yaml:"bodyStructured"`

	Retries    int `json:"retries" yaml:"retries"`
	DelayMs    int `json:"delayMs" yaml:"delayMs"`
	Jitter     int `json:"jitter" yaml:"jitter"`
	Iterations int `json:"iterations" yaml:"iterations"`

	Expect  *wireExpect            `json:"expect" yaml:"expect"`
	Extract map[string]wireExtract `json:"extract" yaml:"extract"`

	DependsOn []string  `json:"dependsOn" yaml:"dependsOn"`
	When      *wireWhen `json:"when" yaml:"when"`
}

type wireExpect struct {
	Status          *int              `json:"status" yaml:"status"`
	Blocked         *bool             `json:"blocked" yaml:"blocked"`
	BodyContains    *string           `json:"bodyContains" yaml:"bodyContains"`
	BodyNotContains *string           `json:"bodyNotContains" yaml:"bodyNotContains"`
	HeaderPresent   *string           `json:"headerPresent" yaml:"headerPresent"`
	HeaderEquals    map[string]string `json:"headerEquals" yaml:"headerEquals"`
}

type wireExtract struct {
	From string `json:"from" yaml:"from"`
	Path string `json:"path" yaml:"path"`
}

type wireWhen struct {
	Step      string `json:"step" yaml:"step"`
	Succeeded *bool  `json:"succeeded" yaml:"succeeded"`
	Status    *int   `json:"status" yaml:"status"`
}

func (w wireScenario) toDomain() *domain.Scenario {
	steps := make([]domain.Step, len(w.Steps))
	for i, ws := range w.Steps {
		steps[i] = ws.toDomain()
	}
	return &domain.Scenario{ID: w.ID, Name: w.Name, Steps: steps}
}

func (w wireStep) toDomain() domain.Step {
	step := domain.Step{
		ID:         w.ID,
		Name:       w.Name,
		Stage:      w.Stage,
		Method:     w.Method,
		URL:        w.URL,
		Headers:    w.Headers,
		Query:      w.Query,
		Retries:    w.Retries,
		DelayMs:    w.DelayMs,
		Jitter:     w.Jitter,
		Iterations: w.Iterations,
		DependsOn:  w.DependsOn,
	}

	if w.BodyRaw != nil || w.BodyStructured != nil {
		step.Body = &domain.Body{Raw: w.BodyRaw, Structured: w.BodyStructured}
	}

	if w.Expect != nil {
		order := make([]string, 0, len(w.Expect.HeaderEquals))
		for name := range w.Expect.HeaderEquals {
			order = append(order, name)
		}
		step.Expect = &domain.Expect{
			Status:            w.Expect.Status,
			Blocked:           w.Expect.Blocked,
			BodyContains:      w.Expect.BodyContains,
			BodyNotContains:   w.Expect.BodyNotContains,
			HeaderPresent:     w.Expect.HeaderPresent,
			HeaderEquals:      w.Expect.HeaderEquals,
			HeaderEqualsOrder: order,
		}
	}

	if len(w.Extract) > 0 {
		step.Extract = make(map[string]domain.ExtractRule, len(w.Extract))
		for name, rule := range w.Extract {
			step.Extract[name] = domain.ExtractRule{From: domain.ExtractFrom(rule.From), Path: rule.Path}
		}
	}

	if w.When != nil {
		step.When = &domain.Guard{Step: w.When.Step, Succeeded: w.When.Succeeded, Status: w.When.Status}
	}

	return step
}
