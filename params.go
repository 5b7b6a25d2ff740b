package regtree

import (
	"math"
	"runtime"

	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/stats"
	"go.uber.org/zap"
)

const (
	// DefaultMaxDepth leaves the depth of trees effectively unconstrained.
	DefaultMaxDepth = math.MaxInt32
	// DefaultMaxNodes leaves the size of trees effectively unconstrained.
	DefaultMaxNodes = math.MaxInt32
	// DefaultMinLeafSize is the minimum number of rows of a leaf by default.
	DefaultMinLeafSize = 5
)

// Params holds the configuration for growing a tree.
type Params struct {
	// MaxDepth is the maximum depth of a node, the root
	// being at depth 0. Nodes at this depth are not split.
	MaxDepth int
	// MaxNodes is the maximum number of nodes of the tree,
	// counting both internal nodes and leaves.
	MaxNodes int
	// MinLeafSize is the minimum number of rows on each
	// side of a split.
	MinLeafSize int
	// Parallelism is the maximum number of split searches
	// running at the same time.
	Parallelism int
	// Features are the schema columns that can be used to
	// split nodes. All of them when nil.
	Features []int
	// Pruner is applied to the best split found for a node
	// to decide whether it is worth incorporating into the
	// tree. Splits are only considered when they reduce the
	// sum of squared deviations, so nil behaves as NoPruner.
	Pruner Pruner
	// Logger receives debug entries of the splits applied.
	// Nothing is logged when nil.
	Logger *zap.Logger
}

/*
DefaultParams returns the parameters used to grow trees when none are given:
unconstrained depth and size, leaves of at least DefaultMinLeafSize rows and
as many simultaneous split searches as usable CPUs.
*/
func DefaultParams() Params {
	return Params{
		MaxDepth:    DefaultMaxDepth,
		MaxNodes:    DefaultMaxNodes,
		MinLeafSize: DefaultMinLeafSize,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

/*
Validate returns an *InvalidParameterError for the first parameter that is
not positive, or nil if all are valid.
*/
func (p Params) Validate() error {
	for _, param := range []struct {
		name  string
		value int
	}{
		{"MaxDepth", p.MaxDepth},
		{"MaxNodes", p.MaxNodes},
		{"MinLeafSize", p.MinLeafSize},
		{"Parallelism", p.Parallelism},
	} {
		if param.value <= 0 {
			return &InvalidParameterError{param.name, param.value, "must be positive"}
		}
	}
	seen := make(map[int]bool, len(p.Features))
	for _, c := range p.Features {
		if c < 0 || seen[c] {
			return &InvalidParameterError{"Features", c, "must be distinct schema columns"}
		}
		seen[c] = true
	}
	return nil
}

func (p Params) eligibleFeatures(s *feature.Schema) ([]int, error) {
	if p.Features == nil {
		columns := make([]int, s.Len())
		for i := range columns {
			columns[i] = i
		}
		return columns, nil
	}
	for _, c := range p.Features {
		if c >= s.Len() {
			return nil, &InvalidParameterError{"Features", c, "not a column of the schema"}
		}
	}
	columns := make([]int, len(p.Features))
	copy(columns, p.Features)
	return columns, nil
}

/*
Pruner is an interface wrapping the Prune method, that can be used
to decide whether a split is good enough to become part of a tree
or if it must be pruned instead.

The Prune method takes the best split found for a node and returns true
to indicate the split must be pruned, making the node a leaf, and false to
allow its adding to the tree and further development.
*/
type Pruner interface {
	Prune(*Split) bool
}

/*
PrunerFunc wraps a function with the Prune method signature to implement
the Pruner interface
*/
type PrunerFunc func(*Split) bool

/*
Prune invokes the PrunerFunc with the split to return its boolean result.
*/
func (pf PrunerFunc) Prune(s *Split) bool {
	return pf(s)
}

/*
NoPruner returns a Pruner whose Prune method always returns false, that is,
never prunes.
*/
func NoPruner() Pruner {
	return PrunerFunc(func(*Split) bool {
		return false
	})
}

/*
MinReductionPruner takes a fraction and returns a Pruner that prunes splits
whose reduction is not above that fraction of the sum of squared deviations
of the node they split.
*/
func MinReductionPruner(fraction float64) Pruner {
	return PrunerFunc(func(s *Split) bool {
		return s.Reduction <= fraction*s.Total.SS()
	})
}

// Split is the best way found to split the rows of a node in two.
type Split struct {
	// Criterion satisfied by the rows going left
	Criterion feature.Criterion
	// Reduction of the sum of squared deviations
	Reduction float64
	// Statistics of the responses of the node,
	// and of each side of the split.
	Total, Left, Right stats.Accumulator
}
