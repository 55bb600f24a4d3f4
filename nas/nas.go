// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nas

import (
	"math/rand"

	"github.com/born-ml/nas/internal/nas"
	"github.com/born-ml/nas/tensor"
)

// Primitive is one candidate operation.
type Primitive = nas.Primitive

// Candidate operations in alpha column order.
const (
	None        = nas.None
	MaxPool3x3  = nas.MaxPool3x3
	AvgPool3x3  = nas.AvgPool3x3
	SkipConnect = nas.SkipConnect
	SepConv3x3  = nas.SepConv3x3
	SepConv5x5  = nas.SepConv5x5
	DilConv3x3  = nas.DilConv3x3
	DilConv5x5  = nas.DilConv5x5
)

// NumPrimitives is the number of candidate operations.
const NumPrimitives = nas.NumPrimitives

// PartialChannels is the channel sampling ratio of a mixed op.
const PartialChannels = nas.PartialChannels

// Errors returned by this package.
var (
	ErrShapeMismatch     = nas.ErrShapeMismatch
	ErrUnknownPrimitive  = nas.ErrUnknownPrimitive
	ErrMissingCheckpoint = nas.ErrMissingCheckpoint
	ErrInvalidConfig     = nas.ErrInvalidConfig
)

// Types re-exported from the implementation.
type (
	NetworkConfig                   = nas.NetworkConfig
	CellConfig                      = nas.CellConfig
	Gene                            = nas.Gene
	Genotype                        = nas.Genotype
	Edge                            = nas.Edge
	Topology                        = nas.Topology
	SearchNetwork[B tensor.Backend] = nas.SearchNetwork[B]
	Cell[B tensor.Backend]          = nas.Cell[B]
	MixedOp[B tensor.Backend]       = nas.MixedOp[B]
	ArchParams[B tensor.Backend]    = nas.ArchParams[B]
)

// PCDARTSCifar is the published CIFAR-10 cell.
var PCDARTSCifar = nas.PCDARTSCifar

// DefaultNetworkConfig returns the CIFAR-10 search configuration.
func DefaultNetworkConfig() NetworkConfig {
	return nas.DefaultNetworkConfig()
}

// NewSearchNetwork builds a search network with weights drawn from rng.
func NewSearchNetwork[B tensor.Backend](cfg NetworkConfig, rng *rand.Rand, backend B) (*SearchNetwork[B], error) {
	return nas.NewSearchNetwork(cfg, rng, backend)
}

// NewCell builds a single search cell.
func NewCell[B tensor.Backend](cfg CellConfig, rng *rand.Rand, backend B) (*Cell[B], error) {
	return nas.NewCell(cfg, rng, backend)
}

// NewMixedOp builds the mixed operation of one edge.
func NewMixedOp[B tensor.Backend](channels, stride int, weightDecay float32, rng *rand.Rand, backend B) (*MixedOp[B], error) {
	return nas.NewMixedOp(channels, stride, weightDecay, rng, backend)
}

// NewArchParams draws architecture parameters for cells with steps nodes.
func NewArchParams[B tensor.Backend](steps int, rng *rand.Rand, backend B) *ArchParams[B] {
	return nas.NewArchParams(steps, rng, backend)
}

// NewTopology builds the edge layout of a cell.
func NewTopology(steps int, reduction bool) *Topology {
	return nas.NewTopology(steps, reduction)
}

// ParsePrimitive resolves an operation name.
func ParsePrimitive(name string) (Primitive, error) {
	return nas.ParsePrimitive(name)
}

// ChannelShuffle interleaves NHWC channels across groups.
func ChannelShuffle[B tensor.Backend](x *tensor.Tensor[B], groups int) (*tensor.Tensor[B], error) {
	return nas.ChannelShuffle(x, groups)
}

// SoftmaxAlphas normalizes each row of an alpha tensor.
func SoftmaxAlphas[B tensor.Backend](alphas *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	return nas.SoftmaxAlphas(alphas)
}

// SplitSoftmax normalizes consecutive slices of a beta tensor.
func SplitSoftmax[B tensor.Backend](betas *tensor.Tensor[B], sizes []int) (*tensor.Tensor[B], error) {
	return nas.SplitSoftmax(betas, sizes)
}

// ParseGenes discretizes one cell from normalized weights.
func ParseGenes(weights [][]float32, edgeWeights []float32, steps int) ([]Gene, error) {
	return nas.ParseGenes(weights, edgeWeights, steps)
}

// NumEdges returns the edge count of a cell with steps nodes.
func NumEdges(steps int) int {
	return nas.NumEdges(steps)
}

// ReductionLayers returns the two reduction cell positions.
func ReductionLayers(layers int) [2]int {
	return nas.ReductionLayers(layers)
}

// CheckpointPath returns <dir>/<run>/best.
func CheckpointPath(dir, run string) string {
	return nas.CheckpointPath(dir, run)
}

// SaveCheckpoint writes the network state under CheckpointPath(dir, run).
func SaveCheckpoint[B tensor.Backend](net *SearchNetwork[B], dir, run string) (string, error) {
	return nas.SaveCheckpoint(net, dir, run)
}

// LoadCheckpoint restores the network from CheckpointPath(dir, run).
func LoadCheckpoint[B tensor.Backend](net *SearchNetwork[B], dir, run string) (map[string]string, error) {
	return nas.LoadCheckpoint(net, dir, run)
}
