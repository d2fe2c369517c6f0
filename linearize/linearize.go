// Package linearize implements the build-order linearizer: the global
// assembly loop that walks every base's sorted build-time closure and
// splices them together into one master build order, respecting the
// co-build cycles the classifier found along the way.
//
// This is the least obvious algorithm in the whole coordinator. The source
// it is grounded on (_getSortedBuildOrderList / _createSortListForPkg in the
// original package-builder) repeatedly inserts each base's own sorted
// dependency list into a running global list at the position of the first
// not-yet-processed entry, rather than doing a single topological sort over
// one merged graph — packages can and do reappear earlier in the list than
// their first insertion point, and a later dedupe pass keeps the first
// (earliest, i.e. most conservative) occurrence.
package linearize

import (
	"sort"

	"rpmsynth/resolve"
)

// dedupeEvery controls how often the assembly loop compacts sortedList back
// down to one entry per base. Doing this on every insertion would be
// quadratic for large closures; doing it only at the end lets the working
// list grow unboundedly large on pathological inputs. The source's constant
// is 100 growth steps; kept as-is here since nothing about the redesign
// changes the tradeoff it strikes.
const dedupeEvery = 100

// Linearize computes one global build order covering every base in
// r.BuildDep, honoring each base's sorted build-time closure (r.SortedDep)
// and the run-time co-build cycles found in r.CycleList/r.PkgToCycle.
//
// The returned order always begins with leaves (bases with no unresolved
// build-time dependency) and ends with roots, matching SortedDep's own
// convention for a single base.
func Linearize(r *resolve.Result) []string {
	remaining := make([]string, 0, len(r.BuildDep))
	for base := range r.BuildDep {
		remaining = append(remaining, base)
	}
	sort.Strings(remaining)

	var sortedList []string
	processed := make(map[string]bool, len(remaining))
	growthSinceDedup := 0

	for len(remaining) > 0 {
		pkg, insertionPoint, found := firstUnprocessed(sortedList, processed)
		if !found {
			pkg = remaining[0]
			remaining = remaining[1:]
			insertionPoint = len(sortedList)
		}

		list := sortListForPkg(pkg, r)
		list = filterCyclePeers(pkg, list, sortedList, r)

		prefix := make(map[string]bool, insertionPoint)
		for _, b := range sortedList[:insertionPoint] {
			prefix[b] = true
		}

		idx := insertionPoint
		for _, b := range list {
			if prefix[b] {
				continue
			}
			sortedList = insertAt(sortedList, idx, b)
			idx++
			growthSinceDedup++
		}

		// Mark pkg itself as processed. The source marks whatever the last
		// loop variable in the insertion loop happened to bind to instead —
		// on any iteration where list is empty (or fully filtered by the
		// cycle-peer check) that leaves pkg permanently unprocessed and the
		// assembly loop spins on it forever. Fixed here per REDESIGN FLAGS;
		// see the boundary-scenario-3 regression test.
		processed[pkg] = true

		if growthSinceDedup > dedupeEvery {
			sortedList = dedupe(sortedList)
			growthSinceDedup = 0
		}
	}

	return dedupe(sortedList)
}

// firstUnprocessed returns the leftmost entry of sortedList not yet marked
// processed, together with its index.
func firstUnprocessed(sortedList []string, processed map[string]bool) (pkg string, index int, found bool) {
	for i, b := range sortedList {
		if !processed[b] {
			return b, i, true
		}
	}
	return "", -1, false
}

// sortListForPkg computes L(pkg): the run-time closure of pkg (including pkg
// itself), with each member mapped through its base's already-sorted
// build-time closure and flattened into one deduplicated list.
//
// pkg is a base identifier, but it is looked up directly as a key into the
// rpm-keyed run-time graph — this mirrors the source's own
// self.__runTimeDependencyGraph[pkg] lookup, which only works because a
// base's main rpm conventionally shares the base's own name. Bases with no
// matching rpm entry simply contribute no run-time neighbors beyond
// themselves.
func sortListForPkg(pkg string, r *resolve.Result) []string {
	runDeps := r.RunDep.Edges(pkg) // already sorted

	rpms := make([]string, 0, len(runDeps)+1)
	rpms = append(rpms, runDeps...)
	rpms = append(rpms, pkg)

	var out []string
	seen := make(map[string]bool)
	for _, p := range rpms {
		base := r.RpmBase[p]
		if base == "" {
			base = p
		}
		for _, b := range r.SortedDep[base] {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// filterCyclePeers strips any member of list that is (a) a peer of pkg in a
// named run-time cycle and (b) already present somewhere in sortedList — it
// has already been scheduled to co-build with its cycle, so re-inserting it
// here would just create a redundant, possibly out-of-order duplicate.
func filterCyclePeers(pkg string, list []string, sortedList []string, r *resolve.Result) []string {
	cycleID, inCycle := r.PkgToCycle[pkg]
	if !inCycle {
		return list
	}
	peers := r.CycleList[cycleID]
	if len(peers) == 0 {
		return list
	}

	placed := make(map[string]bool, len(sortedList))
	for _, b := range sortedList {
		placed[b] = true
	}
	peerSet := make(map[string]bool, len(peers))
	for _, p := range peers {
		if p != pkg {
			peerSet[p] = true
		}
	}
	if len(peerSet) == 0 {
		return list
	}

	out := make([]string, 0, len(list))
	for _, b := range list {
		if peerSet[b] && placed[b] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// insertAt splices v into s at index i.
func insertAt(s []string, i int, v string) []string {
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// dedupe collapses s down to one entry per value, keeping the earliest
// occurrence of each — the whole point of the global assembly loop is that a
// base can be spliced in earlier than a prior, too-late insertion of the
// same base, and the earlier position is always the one that respects every
// dependency edge that put it there.
func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
