package nas

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// edgesPerNode is how many incoming edges every node keeps in a discrete cell.
const edgesPerNode = 2

// Gene is one retained edge: an operation applied to an input state.
type Gene struct {
	Op    Primitive `json:"op" yaml:"op"`
	Input int       `json:"input" yaml:"input"`
}

// Genotype is a discrete cell architecture for normal and reduction cells.
// Genes are grouped two per node in node order; the concat lists name the
// states joined into the cell output.
type Genotype struct {
	Normal       []Gene `json:"normal" yaml:"normal"`
	NormalConcat []int  `json:"normal_concat" yaml:"normal_concat"`
	Reduce       []Gene `json:"reduce" yaml:"reduce"`
	ReduceConcat []int  `json:"reduce_concat" yaml:"reduce_concat"`
}

// PCDARTSCifar is the cell published for the CIFAR-10 search.
var PCDARTSCifar = Genotype{
	Normal: []Gene{
		{SepConv3x3, 1}, {SkipConnect, 0},
		{SepConv3x3, 0}, {DilConv3x3, 1},
		{SepConv5x5, 0}, {SepConv3x3, 1},
		{AvgPool3x3, 0}, {DilConv3x3, 1},
	},
	NormalConcat: []int{2, 3, 4, 5},
	Reduce: []Gene{
		{SepConv5x5, 1}, {MaxPool3x3, 0},
		{SepConv5x5, 1}, {SepConv5x5, 2},
		{SepConv3x3, 0}, {SepConv3x3, 3},
		{SepConv3x3, 1}, {SepConv3x3, 2},
	},
	ReduceConcat: []int{2, 3, 4, 5},
}

// ParseGenes discretizes one cell. weights holds the normalized op weights
// per edge and edgeWeights the normalized edge weights, both in node-major
// edge order.
//
// Every row is scaled by its edge weight. For each node the two incoming
// edges with the highest non-none weight are kept, strongest first, and
// each keeps its strongest non-none op. Ties resolve to the lower edge
// index and the lower primitive index.
func ParseGenes(weights [][]float32, edgeWeights []float32, steps int) ([]Gene, error) {
	numEdges := NumEdges(steps)
	if len(weights) != numEdges || len(edgeWeights) != numEdges {
		return nil, errors.Wrapf(ErrShapeMismatch, "genotype: expected %d edges, got %d weights and %d edge weights",
			numEdges, len(weights), len(edgeWeights))
	}

	genes := make([]Gene, 0, edgesPerNode*steps)
	start := 0
	for i := 0; i < steps; i++ {
		n := 2 + i
		fused := make([][]float32, n)
		for j := 0; j < n; j++ {
			row := weights[start+j]
			if len(row) != NumPrimitives {
				return nil, errors.Wrapf(ErrShapeMismatch, "genotype: edge %d has %d weights", start+j, len(row))
			}
			fused[j] = make([]float32, NumPrimitives)
			for k, w := range row {
				fused[j][k] = w * edgeWeights[start+j]
			}
		}

		order := make([]int, n)
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return fused[order[a]][bestOp(fused[order[a]])] > fused[order[b]][bestOp(fused[order[b]])]
		})

		for _, j := range order[:edgesPerNode] {
			genes = append(genes, Gene{Op: bestOp(fused[j]), Input: j})
		}
		start += n
	}
	return genes, nil
}

// bestOp returns the strongest non-none primitive of a fused row.
func bestOp(row []float32) Primitive {
	best := None
	for k := range row {
		p := Primitive(k)
		if p == None {
			continue
		}
		if best == None || row[k] > row[best] {
			best = p
		}
	}
	return best
}

// ConcatRange returns the states joined into a cell output: the last
// multiplier of the steps+2 states.
func ConcatRange(steps, multiplier int) []int {
	concat := make([]int, 0, multiplier)
	for s := 2 + steps - multiplier; s < steps+2; s++ {
		concat = append(concat, s)
	}
	return concat
}

// DeriveGenotype discretizes the current architecture parameters.
func DeriveGenotype[B tensor.Backend](arch *ArchParams[B], multiplier int) (Genotype, error) {
	steps := arch.Steps()

	parse := func(reduction bool) ([]Gene, error) {
		weights, edgeWeights, err := arch.Normalized(reduction)
		if err != nil {
			return nil, err
		}
		return ParseGenes(rows(weights), edgeWeights.Data(), steps)
	}

	normal, err := parse(false)
	if err != nil {
		return Genotype{}, errors.Wrap(err, "normal cell")
	}
	reduce, err := parse(true)
	if err != nil {
		return Genotype{}, errors.Wrap(err, "reduction cell")
	}

	return Genotype{
		Normal:       normal,
		NormalConcat: ConcatRange(steps, multiplier),
		Reduce:       reduce,
		ReduceConcat: ConcatRange(steps, multiplier),
	}, nil
}

// rows splits a 2-D tensor into row slices sharing its storage.
func rows[B tensor.Backend](t *tensor.Tensor[B]) [][]float32 {
	s := t.Shape()
	data := t.Data()
	out := make([][]float32, s[0])
	for i := range out {
		out[i] = data[i*s[1] : (i+1)*s[1]]
	}
	return out
}

// Steps returns the number of nodes the normal cell describes.
func (g Genotype) Steps() int {
	return len(g.Normal) / edgesPerNode
}

// Validate checks that both cells hold two genes per node, none of them
// the none op, each reading a state that precedes its node.
func (g Genotype) Validate(steps int) error {
	for _, cell := range []struct {
		name   string
		genes  []Gene
		concat []int
	}{
		{"normal", g.Normal, g.NormalConcat},
		{"reduce", g.Reduce, g.ReduceConcat},
	} {
		if len(cell.genes) != edgesPerNode*steps {
			return errors.Errorf("genotype %s: expected %d genes, got %d", cell.name, edgesPerNode*steps, len(cell.genes))
		}
		for k, gene := range cell.genes {
			node := k / edgesPerNode
			if !gene.Op.Valid() || gene.Op == None {
				return errors.Errorf("genotype %s: gene %d has invalid op %s", cell.name, k, gene.Op)
			}
			if gene.Input < 0 || gene.Input >= node+2 {
				return errors.Errorf("genotype %s: gene %d reads state %d, node %d has %d inputs",
					cell.name, k, gene.Input, node, node+2)
			}
		}
		if len(cell.concat) == 0 {
			return errors.Errorf("genotype %s: empty concat", cell.name)
		}
		for _, s := range cell.concat {
			if s < 0 || s >= steps+2 {
				return errors.Errorf("genotype %s: concat state %d out of range", cell.name, s)
			}
		}
	}
	return nil
}

// String formats the genotype as
// Genotype(normal=[('sep_conv_3x3', 1), ...], normal_concat=[2, 3, 4, 5], ...).
func (g Genotype) String() string {
	var sb strings.Builder
	sb.WriteString("Genotype(normal=")
	writeGenes(&sb, g.Normal)
	sb.WriteString(", normal_concat=")
	writeInts(&sb, g.NormalConcat)
	sb.WriteString(", reduce=")
	writeGenes(&sb, g.Reduce)
	sb.WriteString(", reduce_concat=")
	writeInts(&sb, g.ReduceConcat)
	sb.WriteString(")")
	return sb.String()
}

func writeGenes(sb *strings.Builder, genes []Gene) {
	sb.WriteByte('[')
	for i, gene := range genes {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "('%s', %d)", gene.Op, gene.Input)
	}
	sb.WriteByte(']')
}

func writeInts(sb *strings.Builder, values []int) {
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%d", v)
	}
	sb.WriteByte(']')
}
