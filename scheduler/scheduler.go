// Package scheduler tracks the pending/building/done/failed partition of a
// fixed build order and computes dispatch eligibility, all under one mutex.
// It is deliberately CPU-only: no I/O happens while the lock is held (see
// the concurrency notes in the spec this is built from) so that callers —
// the dispatch server in package dispatch — can append audit records after
// releasing the lock without serializing behind it.
package scheduler

import (
	"sort"
	"sync"

	"rpmsynth/graph"
)

// State is the mutex-guarded scheduler for one coordinator run. Zero value
// is not usable; construct with New.
type State struct {
	mu sync.Mutex

	order    []string            // the immutable global build order
	buildDep graph.BuildDependencyGraph

	pending  map[string]bool
	building map[string]bool
	done     map[string]bool
	failed   map[string]bool
}

// New builds a State from an immutable global build order and its
// corresponding build-time dependency graph. Every base in order starts
// pending.
func New(order []string, buildDep graph.BuildDependencyGraph) *State {
	s := &State{
		order:    append([]string(nil), order...),
		buildDep: buildDep,
		pending:  make(map[string]bool, len(order)),
		building: make(map[string]bool),
		done:     make(map[string]bool),
		failed:   make(map[string]bool),
	}
	for _, base := range order {
		s.pending[base] = true
	}
	return s
}

// NextPackage finds the first base in the linearization that is pending and
// whose build-time dependencies are all done, moves it pending->building,
// and returns it. ok is false if nothing is currently eligible; this does
// not by itself mean the build is complete — callers distinguish via
// IsComplete.
func (s *State) NextPackage() (base string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, base := range s.order {
		if !s.pending[base] {
			continue
		}
		if s.depsSatisfied(base) {
			delete(s.pending, base)
			s.building[base] = true
			return base, true
		}
	}
	return "", false
}

func (s *State) depsSatisfied(base string) bool {
	for dep := range s.buildDep[base] {
		if !s.done[dep] {
			return false
		}
	}
	return true
}

// NotifySuccess moves base from building to done.
func (s *State) NotifySuccess(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.building, base)
	s.done[base] = true
}

// NotifyFailure moves base from building to failed, then sweeps pending for
// any base whose build-time dependency set intersects failed, moving those
// to failed transitively until fixpoint — a failure taints its entire
// reverse-closure so workers never spin waiting on a dependency that can
// never complete.
func (s *State) NotifyFailure(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.building, base)
	s.failed[base] = true
	s.sweepTainted()
}

func (s *State) sweepTainted() {
	for {
		tainted := false
		for _, base := range s.order {
			if !s.pending[base] {
				continue
			}
			for dep := range s.buildDep[base] {
				if s.failed[dep] {
					delete(s.pending, base)
					s.failed[base] = true
					tainted = true
					break
				}
			}
		}
		if !tainted {
			return
		}
	}
}

// IsComplete reports whether there is nothing left pending or building —
// every base has either succeeded or failed.
func (s *State) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0 && len(s.building) == 0
}

// IsDoneAll reports whether nothing is currently pending, building, or
// failed — called before any dispatch, it is the "nothing to build"
// short-circuit for an empty build order.
func (s *State) IsDoneAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0 && len(s.building) == 0 && len(s.failed) == 0
}

// DoneList returns a sorted, linearizable snapshot of done taken under the
// lock.
func (s *State) DoneList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.done))
	for base := range s.done {
		out = append(out, base)
	}
	sort.Strings(out)
	return out
}

// FailedList returns a sorted, linearizable snapshot of failed taken under
// the lock.
func (s *State) FailedList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.failed))
	for base := range s.failed {
		out = append(out, base)
	}
	sort.Strings(out)
	return out
}
