package nas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumEdges(t *testing.T) {
	for steps, want := range map[int]int{1: 2, 2: 5, 3: 9, 4: 14, 5: 20} {
		assert.Equal(t, want, NumEdges(steps), "steps %d", steps)
	}
}

func TestTopology_NodeMajorOrder(t *testing.T) {
	topo := NewTopology(4, false)
	require.Equal(t, 14, topo.NumEdges())
	assert.Equal(t, []int{2, 3, 4, 5}, topo.NodeSizes())

	for i, want := range []int{0, 2, 5, 9} {
		assert.Equal(t, want, topo.Offset(i))
	}

	idx := 0
	for node := 0; node < 4; node++ {
		edges := topo.NodeEdges(node)
		require.Len(t, edges, 2+node)
		for j, e := range edges {
			assert.Equal(t, Edge{Index: idx, Source: j, Target: node, Stride: 1}, e)
			idx++
		}
	}
}

func TestTopology_ReductionStrides(t *testing.T) {
	topo := NewTopology(4, true)
	assert.True(t, topo.Reduction())
	for _, e := range topo.Edges() {
		if e.Source < 2 {
			assert.Equal(t, 2, e.Stride, "edge %d", e.Index)
		} else {
			assert.Equal(t, 1, e.Stride, "edge %d", e.Index)
		}
	}
}

func TestReductionLayers(t *testing.T) {
	assert.Equal(t, [2]int{2, 5}, ReductionLayers(8))
	assert.Equal(t, [2]int{6, 13}, ReductionLayers(20))

	var reductions []int
	for p := 0; p < 8; p++ {
		if IsReduction(p, 8) {
			reductions = append(reductions, p)
		}
	}
	assert.Equal(t, []int{2, 5}, reductions)
}
