package scheduler

import "sort"

// stepGraph is the minimal view the frontier computation needs from a
// domain.Scenario: every step id plus its dependsOn ids.
type stepGraph interface {
	stepIDs() []string
	dependsOn(id string) []string
}

// frontier returns, in deterministic (sorted) order, the ids in pending
// whose every dependency is present in completed, i.e. is a step of g that
// is no longer pending. A dependency id naming no step of g never
// completes, so it blocks its dependent. Grounded in
// internal/engine/dag.go's GetReadyNodes Kahn's-algorithm shape, generalized
// from a static build-then-drain DAG to a live pending/completed pair that
// the driver mutates wave by wave.
func frontier(g stepGraph, pending map[string]bool) []string {
	ids := g.stepIDs()
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	var ready []string
	for _, id := range ids {
		if !pending[id] {
			continue
		}
		blocked := false
		for _, dep := range g.dependsOn(id) {
			if pending[dep] || !known[dep] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}
