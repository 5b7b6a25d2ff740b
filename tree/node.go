package tree

import (
	"fmt"
	"strconv"

	"github.com/pbanos/regtree/feature"
)

// NoNode is the ID used for the parent of the
// root and the children of leaves.
const NoNode = -1

/*
Node is a node of the tree
*/
type Node struct {
	// An ID to identify the node, its position
	// in the tree arena. The root has ID 0.
	ID int
	// The ID for the parent of the node in the tree
	ParentID int
	// The IDs of the nodes directly under this node:
	// samples satisfying the criterion go left and
	// the rest go right. Both are NoNode for leaves.
	Left, Right int
	// The criterion splitting the node, nil for leaves.
	Criterion feature.Criterion
	// The decrease of the sum of squared deviations
	// of the responses achieved by the split, 0 for leaves.
	Reduction float64
	// The number of training rows reaching the node
	Count int
	// The mean response of those rows, the
	// prediction of the node.
	Mean float64
	// The sum of squared deviations of those rows
	// responses from their mean.
	SS float64
	// The distance to the root
	Depth int
}

// Leaf returns whether the node is a leaf of the tree.
func (n Node) Leaf() bool {
	return n.Criterion == nil
}

func (n Node) String() string {
	if n.Leaf() {
		return fmt.Sprintf("value = %s, size = %d", strconv.FormatFloat(n.Mean, 'g', -1, 64), n.Count)
	}
	return fmt.Sprintf("%v, reduction = %s, size = %d", n.Criterion, strconv.FormatFloat(n.Reduction, 'g', -1, 64), n.Count)
}
