// Package assert implements the Assertion Evaluator (spec §4.5): a
// deterministic, ordered walk over a step's expect clauses, producing one
// AssertionResult per present clause. The clause-ordering discipline is
// grounded in internal/engine/parser.go's deterministic validation walk,
// applied here to response assertions rather than spec validation.
package assert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/requester"
)

// blockedStatuses are the codes §3/§4.5 define "blocked" as.
var blockedStatuses = map[int]bool{403: true, 429: true}

// Evaluate produces the ordered AssertionResult list for resp against
// expect, in the fixed clause order: status, blocked, bodyContains,
// bodyNotContains, headerPresent, then headerEquals.<name> in insertion
// order. An absent/empty expect yields an empty (passing) list.
func Evaluate(expect *domain.Expect, resp *requester.Response) []domain.AssertionResult {
	if expect.IsEmpty() {
		return nil
	}

	var results []domain.AssertionResult

	if expect.Status != nil {
		results = append(results, domain.AssertionResult{
			Field:    "status",
			Expected: *expect.Status,
			Actual:   resp.Status,
			Passed:   resp.Status == *expect.Status,
		})
	}

	if expect.Blocked != nil {
		actual := blockedStatuses[resp.Status]
		results = append(results, domain.AssertionResult{
			Field:    "blocked",
			Expected: *expect.Blocked,
			Actual:   actual,
			Passed:   actual == *expect.Blocked,
		})
	}

	bodyText := stringifyBody(resp.Body)

	if expect.BodyContains != nil {
		passed := strings.Contains(bodyText, *expect.BodyContains)
		results = append(results, domain.AssertionResult{
			Field:    "bodyContains",
			Expected: *expect.BodyContains,
			Actual:   bodyText,
			Passed:   passed,
		})
	}

	if expect.BodyNotContains != nil {
		passed := !strings.Contains(bodyText, *expect.BodyNotContains)
		results = append(results, domain.AssertionResult{
			Field:    "bodyNotContains",
			Expected: *expect.BodyNotContains,
			Actual:   bodyText,
			Passed:   passed,
		})
	}

	if expect.HeaderPresent != nil {
		_, present := resp.Headers.Get(*expect.HeaderPresent)
		results = append(results, domain.AssertionResult{
			Field:    "headerPresent",
			Expected: true,
			Actual:   present,
			Passed:   present,
		})
	}

	for _, name := range expect.HeaderEqualsOrder {
		want := expect.HeaderEquals[name]
		got, present := resp.Headers.Get(name)
		passed := present && got == want
		results = append(results, domain.AssertionResult{
			Field:    "headerEquals." + name,
			Expected: want,
			Actual:   got,
			Passed:   passed,
		})
	}

	return results
}

// stringifyBody renders a decoded response body for substring checks:
// raw text if already a string, else its JSON form (§4.5).
func stringifyBody(body any) string {
	if s, ok := body.(string); ok {
		return s
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("%v", body)
	}
	return string(b)
}
