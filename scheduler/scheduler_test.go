package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpmsynth/graph"
)

func TestState_EmptyOrderIsDoneAll(t *testing.T) {
	s := New(nil, graph.BuildDependencyGraph{})
	assert.True(t, s.IsDoneAll())
	assert.True(t, s.IsComplete())

	_, ok := s.NextPackage()
	assert.False(t, ok)
}

func TestState_DispatchRespectsBuildDependencyOrder(t *testing.T) {
	buildDep := graph.BuildDependencyGraph{
		"A": {"B": true},
		"B": {"C": true},
		"C": {},
	}
	s := New([]string{"C", "B", "A"}, buildDep)
	assert.False(t, s.IsDoneAll())

	base, ok := s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "C", base)

	// A and B aren't eligible yet: B depends on C (still building), A depends
	// on B (still pending).
	_, ok = s.NextPackage()
	assert.False(t, ok)

	s.NotifySuccess("C")
	base, ok = s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "B", base)

	s.NotifySuccess("B")
	base, ok = s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "A", base)

	s.NotifySuccess("A")
	assert.True(t, s.IsComplete())
	assert.ElementsMatch(t, []string{"A", "B", "C"}, s.DoneList())
	assert.Empty(t, s.FailedList())
}

// TestState_FailurePropagatesToReverseClosure pins boundary scenario 6: with
// C <- B <- A (A build-requires B, B build-requires C), failing C must taint
// both B and A to failed, and a subsequent NextPackage call must report
// nothing eligible with the run already complete.
func TestState_FailurePropagatesToReverseClosure(t *testing.T) {
	buildDep := graph.BuildDependencyGraph{
		"A": {"B": true},
		"B": {"C": true},
		"C": {},
	}
	s := New([]string{"C", "B", "A"}, buildDep)

	base, ok := s.NextPackage()
	require.True(t, ok)
	require.Equal(t, "C", base)

	s.NotifyFailure("C")

	assert.True(t, s.IsComplete())
	assert.ElementsMatch(t, []string{"A", "B", "C"}, s.FailedList())
	assert.Empty(t, s.DoneList())

	_, ok = s.NextPackage()
	assert.False(t, ok)
}

func TestState_IndependentBranchSurvivesSiblingFailure(t *testing.T) {
	buildDep := graph.BuildDependencyGraph{
		"A": {"B": true},
		"B": {},
		"X": {"Y": true},
		"Y": {},
	}
	s := New([]string{"B", "Y", "A", "X"}, buildDep)

	base, ok := s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "B", base)
	s.NotifyFailure("B")

	base, ok = s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "Y", base)
	s.NotifySuccess("Y")

	base, ok = s.NextPackage()
	require.True(t, ok)
	assert.Equal(t, "X", base)
	s.NotifySuccess("X")

	assert.True(t, s.IsComplete())
	assert.ElementsMatch(t, []string{"X", "Y"}, s.DoneList())
	assert.ElementsMatch(t, []string{"A", "B"}, s.FailedList())
}
