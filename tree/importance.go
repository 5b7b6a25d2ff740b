package tree

/*
Importance returns a vector aligned with the schema of the tree with, for each
feature, the sum of the reductions of the sum of squared deviations of every
node split on it. Leaves contribute nothing, and features never used in a
split have an importance of 0.

The reduction of a node is not weighted by its row count: being a decrease
of a sum over the rows of the node, it already is proportional to it.
*/
func (t *Tree) Importance() []float64 {
	importance := make([]float64, t.schema.Len())
	for _, n := range t.nodes {
		if n.Leaf() {
			continue
		}
		importance[n.Criterion.Column()] += n.Reduction
	}
	return importance
}
