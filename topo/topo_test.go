package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort_LinearChain(t *testing.T) {
	// A -> B -> C (A depends on B, B depends on C)
	g := Graph{
		"A": {"B"},
		"B": {"C"},
		"C": {},
	}

	ordered, residue := Sort(g, "A")
	require.Nil(t, residue)
	assert.Equal(t, []string{"C", "B", "A"}, ordered)
}

func TestSort_Diamond(t *testing.T) {
	// A -> B, A -> C, B -> D, C -> D
	g := Graph{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": {},
	}

	ordered, residue := Sort(g, "A")
	require.Nil(t, residue)
	require.Len(t, ordered, 4)
	assert.Equal(t, "D", ordered[0])
	assert.Equal(t, "A", ordered[3])
	assert.ElementsMatch(t, []string{"B", "C"}, ordered[1:3])
}

func TestSort_DeterministicTieBreak(t *testing.T) {
	g := Graph{
		"z": {},
		"a": {},
		"m": {},
	}
	ordered, residue := Sort(g, "")
	require.Nil(t, residue)
	assert.Equal(t, []string{"a", "m", "z"}, ordered)
}

func TestSort_Cycle(t *testing.T) {
	g := Graph{
		"A": {"B"},
		"B": {"A"},
	}
	ordered, residue := Sort(g, "")
	assert.Empty(t, ordered)
	require.NotNil(t, residue)
	assert.Contains(t, residue, "A")
	assert.Contains(t, residue, "B")
}

func TestSort_PartialCycleWithAcyclicPrefix(t *testing.T) {
	// C is acyclic leaf; A and B cycle between themselves and both depend on C.
	g := Graph{
		"A": {"B", "C"},
		"B": {"A"},
		"C": {},
	}
	ordered, residue := Sort(g, "")
	assert.Equal(t, []string{"C"}, ordered)
	require.NotNil(t, residue)
	assert.Contains(t, residue, "A")
	assert.Contains(t, residue, "B")
}

func TestSort_RestrictsToClosureOfStartNode(t *testing.T) {
	g := Graph{
		"A": {"B"},
		"B": {},
		"Unrelated": {"AlsoUnrelated"},
		"AlsoUnrelated": {},
	}
	ordered, residue := Sort(g, "A")
	require.Nil(t, residue)
	assert.Equal(t, []string{"B", "A"}, ordered)
}

func TestSort_EmptyGraph(t *testing.T) {
	ordered, residue := Sort(Graph{}, "")
	assert.Empty(t, ordered)
	assert.Nil(t, residue)
}
