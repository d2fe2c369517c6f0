// Package graph builds the build-time and run-time dependency graphs for a set
// of requested base packages by walking SpecProvider metadata outward from the
// roots.
package graph

import (
	"fmt"
	"sort"

	"rpmsynth/specprovider"
	"rpmsynth/topo"
)

// BuildDependencyGraph maps a base package to the set of bases that must be
// built before it. Acyclic by contract — a cycle here is a fatal input error,
// detected downstream by the topological sorter.
type BuildDependencyGraph map[string]map[string]bool

// RunTimeDependencyGraph maps an rpm package to the set of rpms that must be
// installed alongside it. May contain cycles; these are first-class and are
// handed to the cycle classifier.
type RunTimeDependencyGraph map[string]map[string]bool

// Result is the pair of graphs produced by BuildGraphs, both closed under
// transitive dependency from the requested roots, together with every rpm ->
// base mapping observed along the way.
type Result struct {
	BuildDep BuildDependencyGraph
	RunDep   RunTimeDependencyGraph
	RpmBase  map[string]string
}

// BuildGraphs walks SpecProvider metadata outward from roots and returns the
// transitive build-time and run-time dependency graphs.
//
// The walk is iterative over an explicit worklist rather than recursive: the
// original source recurses one stack frame per newly discovered base, which
// can overflow the stack on a large package set (REDESIGN FLAGS in the spec
// call this out explicitly). A plain slice-as-queue keeps memory use
// proportional to the frontier, not to recursion depth.
//
// When checkBuildRequires is set, each base's build-time dependency set is
// augmented with provider.CheckBuildRequires(base, highestVersion) —
// mirroring rpmbuild's "%check" stage, which needs its own build-requires on
// top of the package's ordinary ones.
func BuildGraphs(roots []string, provider specprovider.SpecProvider, checkBuildRequires bool) (*Result, error) {
	res := &Result{
		BuildDep: make(BuildDependencyGraph),
		RunDep:   make(RunTimeDependencyGraph),
		RpmBase:  make(map[string]string),
	}

	seen := make(map[string]bool)
	worklist := make([]string, 0, len(roots))
	sortedRoots := append([]string(nil), roots...)
	sort.Strings(sortedRoots)
	for _, base := range sortedRoots {
		if !seen[base] {
			seen[base] = true
			worklist = append(worklist, base)
		}
	}

	for len(worklist) > 0 {
		base := worklist[0]
		worklist = worklist[1:]

		next, err := extendGraphs(base, res, provider, checkBuildRequires)
		if err != nil {
			return nil, err
		}

		sort.Strings(next)
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				worklist = append(worklist, n)
			}
		}
	}

	return res, nil
}

// extendGraphs populates res.BuildDep[base] and the run-time edges for every
// rpm base produces, returning the set of bases newly discovered in the
// process (to be added to the caller's worklist).
func extendGraphs(base string, res *Result, provider specprovider.SpecProvider, checkBuildRequires bool) ([]string, error) {
	discovered := make(map[string]bool)

	if _, ok := res.BuildDep[base]; !ok {
		buildRpms, err := provider.BuildRequires(base)
		if err != nil {
			return nil, fmt.Errorf("build requires for %s: %w", base, err)
		}

		if checkBuildRequires {
			version, err := provider.HighestVersion(base)
			if err != nil {
				return nil, fmt.Errorf("highest version of %s (for check build-requires): %w", base, err)
			}
			checkRpms, err := provider.CheckBuildRequires(base, version)
			if err != nil {
				return nil, fmt.Errorf("check build requires for %s: %w", base, err)
			}
			buildRpms = append(buildRpms, checkRpms...)
		}

		deps := make(map[string]bool, len(buildRpms))
		for _, rpm := range buildRpms {
			depBase, err := provider.BasePkg(rpm)
			if err != nil {
				return nil, fmt.Errorf("resolving base of %s (build-required by %s): %w", rpm, base, err)
			}
			deps[depBase] = true
			discovered[depBase] = true
			res.RpmBase[rpm] = depBase
		}
		res.BuildDep[base] = deps
	}

	subPkgs, err := provider.SubPackages(base)
	if err != nil {
		return nil, fmt.Errorf("subpackages of %s: %w", base, err)
	}

	for _, rpm := range subPkgs {
		res.RpmBase[rpm] = base

		if _, ok := res.RunDep[rpm]; ok {
			continue
		}
		runRpms, err := provider.Requires(rpm)
		if err != nil {
			return nil, fmt.Errorf("requires for %s: %w", rpm, err)
		}

		edges := make(map[string]bool, len(runRpms))
		for _, dep := range runRpms {
			edges[dep] = true
		}
		res.RunDep[rpm] = edges

		for _, dep := range runRpms {
			depBase, err := provider.BasePkg(dep)
			if err != nil {
				return nil, fmt.Errorf("resolving base of %s (required by %s): %w", dep, rpm, err)
			}
			discovered[depBase] = true
			res.RpmBase[dep] = depBase
		}
	}

	out := make([]string, 0, len(discovered))
	for b := range discovered {
		out = append(out, b)
	}
	return out, nil
}

// Bases returns every base with an entry in the build-time graph, sorted for
// determinism.
func (r *Result) Bases() []string {
	out := make([]string, 0, len(r.BuildDep))
	for b := range r.BuildDep {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Edges returns the sorted list of dependency bases for a given base, or nil
// if base has no recorded entry.
func (g BuildDependencyGraph) Edges(base string) []string {
	deps, ok := g[base]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Edges returns the sorted list of run-time dependencies for a given rpm, or
// nil if rpm has no recorded entry.
func (g RunTimeDependencyGraph) Edges(rpm string) []string {
	deps, ok := g[rpm]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ToTopoGraph adapts a BuildDependencyGraph into the adjacency-list form
// package topo sorts over.
func (g BuildDependencyGraph) ToTopoGraph() topo.Graph {
	out := make(topo.Graph, len(g))
	for base := range g {
		out[base] = g.Edges(base)
	}
	return out
}

// ToTopoGraph adapts a RunTimeDependencyGraph into the adjacency-list form
// package topo sorts over.
func (g RunTimeDependencyGraph) ToTopoGraph() topo.Graph {
	out := make(topo.Graph, len(g))
	for rpm := range g {
		out[rpm] = g.Edges(rpm)
	}
	return out
}
