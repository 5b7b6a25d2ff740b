package queue

import (
	"fmt"

	"github.com/pbanos/regtree/feature"
)

// Task represents a tree node that can be split,
// with the best split found for it.
type Task struct {
	// The ID of the node to be split
	NodeID int
	// The depth of the node, 0 for the root
	Depth int
	// The indices of the training rows that
	// reach the node, in ascending order.
	Rows []int
	// The criterion that routes rows
	// to the left child of the node.
	Criterion feature.Criterion
	// The reduction of the sum of squared
	// deviations achieved by the split.
	Reduction float64
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %d %v %g}", t.NodeID, t.Criterion, t.Reduction)
}

func (t *Task) before(o *Task) bool {
	if t.Reduction != o.Reduction {
		return t.Reduction > o.Reduction
	}
	return t.NodeID < o.NodeID
}
