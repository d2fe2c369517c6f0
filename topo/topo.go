// Package topo implements Kahn's algorithm over a generic string-keyed
// dependency graph, returning both the ordered prefix and whatever residue is
// left over once no more zero-in-degree nodes remain — the residue is the
// graph's cyclic core, handed to the cycle classifier by callers that expect
// one.
package topo

import "sort"

// Graph is an adjacency list: node -> the nodes it depends on (edges point
// from a dependent to its dependencies, matching BuildDependencyGraph and
// RunTimeDependencyGraph in package graph).
type Graph map[string][]string

// Sort performs a Kahn's-algorithm topological sort of g. If startNode is
// non-empty, the sort is restricted to the transitive closure of startNode
// within g; an empty startNode sorts every node in g.
//
// Zero-in-degree ties are broken lexicographically by node name so that the
// result is fully deterministic across runs, regardless of Go's randomized
// map iteration order — the source this is ported from leaves tie-breaking
// unspecified, which REDESIGN FLAGS calls out as an open question this
// implementation resolves in favor of reproducibility.
//
// The returned residue contains every node that still had a nonzero in-degree
// when the worklist emptied, together with whichever of its edges survived —
// i.e. the subgraph induced by the unresolved strongly-connected region(s).
func Sort(g Graph, startNode string) (ordered []string, residue Graph) {
	scope := g
	if startNode != "" {
		scope = closureFrom(g, startNode)
	}

	inDegree := make(map[string]int, len(scope))
	dependentOf := make(map[string][]string, len(scope))
	for node := range scope {
		if _, ok := inDegree[node]; !ok {
			inDegree[node] = 0
		}
	}
	for node, deps := range scope {
		inDegree[node] += len(deps)
		for _, dep := range deps {
			dependentOf[dep] = append(dependentOf[dep], node)
		}
	}
	for _, deps := range dependentOf {
		sort.Strings(deps)
	}

	var ready []string
	for node, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	ordered = make([]string, 0, len(scope))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		ordered = append(ordered, node)

		var freed []string
		for _, dependent := range dependentOf[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		if len(freed) > 0 {
			sort.Strings(freed)
			ready = mergeSorted(ready, freed)
		}
	}

	residue = make(Graph)
	for node, deg := range inDegree {
		if deg > 0 {
			residue[node] = scope[node]
		}
	}
	if len(residue) == 0 {
		residue = nil
	}

	return ordered, residue
}

// closureFrom returns the subgraph of g reachable from start, inclusive.
func closureFrom(g Graph, start string) Graph {
	out := make(Graph)
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[n]; ok {
			continue
		}
		deps := g[n]
		out[n] = deps
		for _, d := range deps {
			if _, ok := out[d]; !ok {
				stack = append(stack, d)
			}
		}
	}
	return out
}

// mergeSorted merges two already-sorted slices, keeping the result sorted.
// Used to insert newly-freed nodes into the pending worklist in the right
// position instead of appending and re-sorting the whole slice each time.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
