// Package resolve wires the graph builder, topological sorter, and cycle
// classifier together into the single pass the original source performs in
// _readDependencyGraphAndCyclesForGivenPackages: build the graphs, sort each
// base's build-time closure, and classify whatever run-time residue is left
// over once the whole run-time graph is sorted.
package resolve

import (
	"fmt"
	"sort"

	"rpmsynth/cycle"
	"rpmsynth/graph"
	"rpmsynth/specprovider"
	"rpmsynth/topo"
)

// SortedBuildDependencyGraph maps a base to the topological order of its
// transitive build-time closure, terminating with the base itself.
type SortedBuildDependencyGraph map[string][]string

// Result bundles everything downstream consumers (chiefly the linearizer)
// need: the raw graphs, each base's sorted build closure, and the named
// cycles found in the run-time graph.
type Result struct {
	BuildDep   graph.BuildDependencyGraph
	RunDep     graph.RunTimeDependencyGraph
	RpmBase    map[string]string
	SortedDep  SortedBuildDependencyGraph
	CycleList  cycle.MapCyclesToPackageList
	PkgToCycle cycle.MapPackageToCycle
}

// CircularDependencyError reports that the build-time graph is not acyclic —
// a fatal input error per the spec, since build-time dependencies have no
// concept of a co-built cycle the way run-time dependencies do.
type CircularDependencyError struct {
	Base    string
	Residue topo.Graph
}

func (e *CircularDependencyError) Error() string {
	members := make([]string, 0, len(e.Residue))
	for n := range e.Residue {
		members = append(members, n)
	}
	sort.Strings(members)
	return fmt.Sprintf("build-time circular dependency involving %s (residue: %v)", e.Base, members)
}

func (e *CircularDependencyError) Unwrap() error {
	return ErrBuildTimeCircularDependency
}

// ErrBuildTimeCircularDependency is the sentinel CircularDependencyError wraps.
var ErrBuildTimeCircularDependency = fmt.Errorf("build-time circular dependency detected")

// Resolve computes the full dependency picture for roots: the build-time and
// run-time graphs, every base's sorted build closure, and the named cycles in
// the run-time graph.
//
// checkBuildRequires mirrors Config.CheckBuildRequires: when set, every
// base's build-time dependency set is augmented with its check-mode
// build-requires (see graph.BuildGraphs).
//
// It returns *CircularDependencyError if any base's build-time closure fails
// to sort cleanly — this is fatal and must abort before the coordinator binds
// a port (spec §7).
func Resolve(roots []string, provider specprovider.SpecProvider, checkBuildRequires bool) (*Result, error) {
	g, err := graph.BuildGraphs(roots, provider, checkBuildRequires)
	if err != nil {
		return nil, err
	}

	buildAdj := g.BuildDep.ToTopoGraph()

	sortedDep := make(SortedBuildDependencyGraph, len(g.BuildDep))
	for _, base := range g.Bases() {
		ordered, residue := topo.Sort(buildAdj, base)
		if len(residue) > 0 {
			return nil, &CircularDependencyError{Base: base, Residue: residue}
		}
		sortedDep[base] = ordered
	}

	runAdj := g.RunDep.ToTopoGraph()
	_, runResidue := topo.Sort(runAdj, "")

	classifier := cycle.NewClassifier()
	cycleList, pkgToCycle := classifier.Classify(runResidue)

	return &Result{
		BuildDep:   g.BuildDep,
		RunDep:     g.RunDep,
		RpmBase:    g.RpmBase,
		SortedDep:  sortedDep,
		CycleList:  cycleList,
		PkgToCycle: pkgToCycle,
	}, nil
}
