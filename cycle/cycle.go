// Package cycle groups the cyclic residue of a run-time dependency graph into
// named strongly-connected components using a two-pass mutual-reachability
// scan, matching the algorithm the distilled spec documents rather than a
// tight Tarjan/Kosaraju implementation.
package cycle

import (
	"fmt"
	"sort"

	"rpmsynth/topo"
)

// MapCyclesToPackageList maps a cycle id to the ordered list of rpms in it.
type MapCyclesToPackageList map[string][]string

// MapPackageToCycle maps an rpm to the id of the cycle it participates in.
// Rpms outside any cycle are absent from the map.
type MapPackageToCycle map[string]string

// Classifier assigns cycle ids. Its counter is confined to the Classifier
// value itself — a coordinator run constructs exactly one Classifier — rather
// than living as process-wide mutable state the way the source's class-level
// counter does (see REDESIGN FLAGS).
type Classifier struct {
	next int
}

// NewClassifier returns a Classifier whose first assigned id is "cycle0".
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify groups residue (the cyclic leftover from topo.Sort) into named
// SCCs.
//
// Algorithm: for each node n in residue, compute Reach(n), the set of nodes
// transitively reachable from n within residue. Then for each n not yet
// assigned to a cycle, let C = { m in Reach(n) : n in Reach(m) } — the mutual
// reachability filter isolates exactly the strongly-connected component
// containing n, even when residue holds several disjoint SCCs or chains of
// them. If C is nonempty, cycle<k> := C u {n}.
func (c *Classifier) Classify(residue topo.Graph) (MapCyclesToPackageList, MapPackageToCycle) {
	toCycle := make(MapPackageToCycle)
	toPackages := make(MapCyclesToPackageList)

	if len(residue) == 0 {
		return toPackages, toCycle
	}

	nodes := make([]string, 0, len(residue))
	for n := range residue {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	reach := make(map[string]map[string]bool, len(nodes))
	for _, n := range nodes {
		reach[n] = reachableFrom(residue, n)
	}

	for _, n := range nodes {
		if _, assigned := toCycle[n]; assigned {
			continue
		}

		var members []string
		for m := range reach[n] {
			if reach[m][n] {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			continue
		}

		members = append(members, n)
		sort.Strings(members)

		id := fmt.Sprintf("cycle%d", c.next)
		c.next++

		toPackages[id] = members
		for _, m := range members {
			toCycle[m] = id
		}
	}

	return toPackages, toCycle
}

// reachableFrom performs a depth-first walk of g starting at n, returning
// every node reachable from n (excluding n itself) as a set.
func reachableFrom(g topo.Graph, n string) map[string]bool {
	visited := make(map[string]bool)
	stack := append([]string(nil), g[n]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, g[cur]...)
	}
	delete(visited, n)
	return visited
}
