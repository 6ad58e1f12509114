package slicing

import "sort"

// CallGraph records which definitions call which within a single file.
// Keys are qualified names.
type CallGraph struct {
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddCall records that caller invokes callee.
func (g *CallGraph) AddCall(caller, callee string) {
	if caller == callee {
		return
	}
	if g.forward[caller] == nil {
		g.forward[caller] = make(map[string]struct{})
	}
	g.forward[caller][callee] = struct{}{}

	if g.reverse[callee] == nil {
		g.reverse[callee] = make(map[string]struct{})
	}
	g.reverse[callee][caller] = struct{}{}
}

// Callees returns the names a definition calls, sorted for determinism.
func (g *CallGraph) Callees(name string) []string {
	return sortedKeys(g.forward[name])
}

// Callers returns the names that call a definition, sorted.
func (g *CallGraph) Callers(name string) []string {
	return sortedKeys(g.reverse[name])
}

// Dependencies walks the forward edges breadth-first up to maxDepth levels,
// returning at most maxCount transitive callees.
func (g *CallGraph) Dependencies(name string, maxDepth, maxCount int) []string {
	type item struct {
		name  string
		depth int
	}

	var result []string
	visited := map[string]struct{}{name: {}}
	queue := []item{{name, 0}}

	for len(queue) > 0 && len(result) < maxCount {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}

		for _, callee := range g.Callees(current.name) {
			if _, ok := visited[callee]; ok {
				continue
			}
			visited[callee] = struct{}{}
			result = append(result, callee)
			if len(result) >= maxCount {
				break
			}
			queue = append(queue, item{callee, current.depth + 1})
		}
	}

	return result
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
