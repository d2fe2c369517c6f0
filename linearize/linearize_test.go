package linearize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpmsynth/resolve"
	"rpmsynth/specprovider"
)

func TestLinearize_LinearChain(t *testing.T) {
	provider := specprovider.NewFixtureProvider(
		&specprovider.PackageSpec{Base: "A", BuildRequires: []string{"B"}},
		&specprovider.PackageSpec{Base: "B", BuildRequires: []string{"C"}},
		&specprovider.PackageSpec{Base: "C"},
	)
	result, err := resolve.Resolve([]string{"A"}, provider, false)
	require.NoError(t, err)

	order := Linearize(result)
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

// TestLinearize_DiamondPlacesSharedLeafFirst pins boundary scenario 3: a
// diamond A->B, A->C, B->D, C->D must place D at index 0 and A at the last
// index, with B and C somewhere in between. This is the regression test for
// the pkg-marking bug fix: the source marks whatever the insertion loop's
// last variable happened to bind to as processed, which (on an empty or
// fully-filtered insertion) can leave a base permanently unprocessed and spin
// the assembly loop forever. Marking pkg itself fixes this.
func TestLinearize_DiamondPlacesSharedLeafFirst(t *testing.T) {
	provider := specprovider.NewFixtureProvider(
		&specprovider.PackageSpec{Base: "A", BuildRequires: []string{"B", "C"}},
		&specprovider.PackageSpec{Base: "B", BuildRequires: []string{"D"}},
		&specprovider.PackageSpec{Base: "C", BuildRequires: []string{"D"}},
		&specprovider.PackageSpec{Base: "D"},
	)
	result, err := resolve.Resolve([]string{"A"}, provider, false)
	require.NoError(t, err)

	order := Linearize(result)
	require.Len(t, order, 4)
	assert.Equal(t, "D", order[0])
	assert.Equal(t, "A", order[3])
	assert.ElementsMatch(t, []string{"B", "C"}, order[1:3])
}

func TestLinearize_RunTimeCycleKeepsPeersAdjacentOnce(t *testing.T) {
	provider := specprovider.NewFixtureProvider(
		&specprovider.PackageSpec{
			Base:     "libX",
			Requires: map[string][]string{"libX": {"libY"}},
		},
		&specprovider.PackageSpec{
			Base:     "libY",
			Requires: map[string][]string{"libY": {"libX"}},
		},
	)
	result, err := resolve.Resolve([]string{"libX", "libY"}, provider, false)
	require.NoError(t, err)

	order := Linearize(result)
	assert.ElementsMatch(t, []string{"libX", "libY"}, order)

	seen := make(map[string]int)
	for _, b := range order {
		seen[b]++
	}
	assert.Equal(t, 1, seen["libX"])
	assert.Equal(t, 1, seen["libY"])
}

func TestLinearize_EmptyGraph(t *testing.T) {
	provider := specprovider.NewFixtureProvider()
	result, err := resolve.Resolve(nil, provider, false)
	require.NoError(t, err)

	order := Linearize(result)
	assert.Empty(t, order)
}

func TestLinearize_WideForestTerminates(t *testing.T) {
	specs := make([]*specprovider.PackageSpec, 0, 250)
	var roots []string
	for i := 0; i < 250; i++ {
		base := string(rune('a'+(i%26))) + string(rune('A'+(i/26)))
		roots = append(roots, base)
		specs = append(specs, &specprovider.PackageSpec{Base: base})
	}
	provider := specprovider.NewFixtureProvider(specs...)
	result, err := resolve.Resolve(roots, provider, false)
	require.NoError(t, err)

	order := Linearize(result)
	assert.Len(t, order, 250)
}
