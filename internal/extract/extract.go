// Package extract implements the Extractor component (spec §4.4): applying
// a step's extract rules against a response, writing results into the
// execution context. Grounded in internal/template/extract.go's
// rule-dispatch shape (field "from" selects body/header/status), adapted
// to the template.Get path accessor instead of gjson-only extraction.
package extract

import (
	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/requester"
	"github.com/arsava/scenarios/internal/template"
)

// Apply computes the value for every (varName, rule) pair in rules against
// resp, returning the resulting variable map. Absent values are
// represented by template.Absent{} so callers can store them distinctly
// from null/""/0 per §4.4.
func Apply(rules map[string]domain.ExtractRule, resp *requester.Response) map[string]any {
	out := make(map[string]any, len(rules))
	for name, rule := range rules {
		out[name] = extractOne(rule, resp)
	}
	return out
}

func extractOne(rule domain.ExtractRule, resp *requester.Response) any {
	switch rule.From {
	case domain.ExtractFromStatus:
		return resp.Status

	case domain.ExtractFromHeader:
		if rule.Path == "" {
			return resp.Headers.Map()
		}
		if v, ok := resp.Headers.Get(rule.Path); ok {
			return v
		}
		return template.Absent{}

	case domain.ExtractFromBody:
		if rule.Path == "" {
			return resp.Body
		}
		return template.Get(resp.Body, rule.Path)

	default:
		return template.Absent{}
	}
}
