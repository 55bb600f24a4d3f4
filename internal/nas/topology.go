package nas

// Edge is one directed connection inside a cell.
type Edge struct {
	Index  int // position in the flat, node-major edge order
	Source int // 0 and 1 are the cell inputs, 2+j is intermediate node j
	Target int // intermediate node index in [0, steps)
	Stride int // 2 on edges leaving an input of a reduction cell
}

// Topology is the static edge layout of a cell. Node i receives one edge
// from each of the 2+i states preceding it, so a cell with steps nodes has
// NumEdges(steps) edges.
type Topology struct {
	steps     int
	reduction bool
	edges     []Edge
	offsets   []int
}

// NewTopology precomputes the edge list for a cell.
func NewTopology(steps int, reduction bool) *Topology {
	t := &Topology{
		steps:     steps,
		reduction: reduction,
		edges:     make([]Edge, 0, NumEdges(steps)),
		offsets:   make([]int, steps),
	}
	for i := 0; i < steps; i++ {
		t.offsets[i] = len(t.edges)
		for j := 0; j < 2+i; j++ {
			stride := 1
			if reduction && j < 2 {
				stride = 2
			}
			t.edges = append(t.edges, Edge{
				Index:  len(t.edges),
				Source: j,
				Target: i,
				Stride: stride,
			})
		}
	}
	return t
}

// Steps returns the number of intermediate nodes.
func (t *Topology) Steps() int { return t.steps }

// Reduction reports whether input edges are strided.
func (t *Topology) Reduction() bool { return t.reduction }

// Edges returns all edges in node-major order.
func (t *Topology) Edges() []Edge { return t.edges }

// NumEdges returns the number of edges.
func (t *Topology) NumEdges() int { return len(t.edges) }

// Offset returns the flat index of node i's first incoming edge.
func (t *Topology) Offset(i int) int { return t.offsets[i] }

// NodeEdges returns the incoming edges of node i.
func (t *Topology) NodeEdges(i int) []Edge {
	return t.edges[t.offsets[i] : t.offsets[i]+2+i]
}

// NodeSizes returns the number of incoming edges per node: 2, 3, ..., steps+1.
func (t *Topology) NodeSizes() []int {
	return NodeSizes(t.steps)
}

// NodeSizes returns 2, 3, ..., steps+1.
func NodeSizes(steps int) []int {
	sizes := make([]int, steps)
	for i := range sizes {
		sizes[i] = 2 + i
	}
	return sizes
}

// NumEdges returns the edge count of a cell with the given number of
// intermediate nodes: 2 + 3 + ... + (steps+1).
func NumEdges(steps int) int {
	return steps * (steps + 3) / 2
}

// ReductionLayers returns the positions of the two reduction cells in a
// network of the given depth.
func ReductionLayers(layers int) [2]int {
	return [2]int{layers / 3, 2 * layers / 3}
}

// IsReduction reports whether the cell at position p is a reduction cell.
func IsReduction(p, layers int) bool {
	r := ReductionLayers(layers)
	return p == r[0] || p == r[1]
}
