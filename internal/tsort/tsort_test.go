package tsort_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/vlock/internal/tsort"
)

func TestSort_NoEdgesPreservesOrder(t *testing.T) {
	nodes := []string{"c", "a", "b"}

	sorted, err := tsort.Sort(nodes, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, sorted)
}

func TestSort_SingleChain(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	edges := []tsort.Edge[string]{
		{Predecessor: "c", Successor: "b"},
		{Predecessor: "b", Successor: "a"},
	}

	sorted, err := tsort.Sort(nodes, edges)

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, sorted)
}

func TestSort_StableOnUnconstrainedPairs(t *testing.T) {
	nodes := []string{"x", "a", "y", "b", "z"}
	edges := []tsort.Edge[string]{
		{Predecessor: "a", Successor: "b"},
	}

	sorted, err := tsort.Sort(nodes, edges)

	require.NoError(t, err)
	// x, y, z, and a have no incoming edges and retain input order; b
	// only becomes free once a has been emitted, so it's appended after.
	assert.Equal(t, []string{"x", "a", "y", "z", "b"}, sorted)
}

func TestSort_CycleReportsRemainingEdges(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	edges := []tsort.Edge[string]{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "b", Successor: "c"},
		{Predecessor: "c", Successor: "a"},
	}

	sorted, err := tsort.Sort(nodes, edges)

	require.Error(t, err)
	assert.Nil(t, sorted)

	var cycleErr *tsort.CycleError[string]
	require.True(t, errors.As(err, &cycleErr))
	assert.Len(t, cycleErr.Edges, 3)
}

func TestSort_EdgeToUnknownNodeIsUnresolvable(t *testing.T) {
	nodes := []string{"a"}
	edges := []tsort.Edge[string]{
		{Predecessor: "a", Successor: "ghost"},
	}

	_, err := tsort.Sort(nodes, edges)

	require.Error(t, err)
}

func TestSort_DiamondDependency(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	edges := []tsort.Edge[string]{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "a", Successor: "c"},
		{Predecessor: "b", Successor: "d"},
		{Predecessor: "c", Successor: "d"},
	}

	sorted, err := tsort.Sort(nodes, edges)

	require.NoError(t, err)
	require.Len(t, sorted, 4)
	assert.Equal(t, "a", sorted[0])
	assert.Equal(t, "d", sorted[3])
}
