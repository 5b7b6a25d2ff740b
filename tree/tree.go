package tree

import (
	"fmt"
	"strings"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
)

// Tree represents a regression tree. It is composed of an
// arena where all its nodes are stored by ID, with the root
// at ID 0, the schema of the features of the samples it
// predicts and the name of the response it predicts.
//
// Trees are immutable, so they are safe for concurrent use.
type Tree struct {
	schema   *feature.Schema
	response string
	nodes    []Node
}

/*
Sample is an interface for something that can be predicted
without providing all its values upfront.

Its ValueFor method returns the encoded value of the sample for
the feature in the given schema column.
*/
type Sample interface {
	ValueFor(column int) (float64, error)
}

// New takes a schema, the name of a response and the nodes of a tree and
// returns a tree with them, or an error if the nodes do not make up a
// binary tree rooted at the first node, with every node in the position
// given by its ID and after its parent, or if a criterion does not apply to
// the schema feature in its column.
// The tree retains the given slice of nodes, which must not be modified
// afterwards.
func New(schema *feature.Schema, response string, nodes []Node) (*Tree, error) {
	if schema == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("a tree needs at least a root node")
	}
	if nodes[0].ParentID != NoNode {
		return nil, fmt.Errorf("root node has parent %d", nodes[0].ParentID)
	}
	visited := make([]bool, len(nodes))
	for i, n := range nodes {
		if n.ID != i {
			return nil, fmt.Errorf("node #%d has ID %d", i, n.ID)
		}
		if n.Leaf() {
			if n.Left != NoNode || n.Right != NoNode {
				return nil, fmt.Errorf("leaf node %d has children", i)
			}
			continue
		}
		c := n.Criterion.Column()
		if c < 0 || c >= schema.Len() || schema.Feature(c).Name() != n.Criterion.Feature().Name() {
			return nil, fmt.Errorf("node %d criterion %v does not apply to the schema", i, n.Criterion)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d has invalid child %d", i, child)
			}
			if visited[child] {
				return nil, fmt.Errorf("node %d is the child of more than one node", child)
			}
			if nodes[child].ParentID != i {
				return nil, fmt.Errorf("node %d has parent %d instead of %d", child, nodes[child].ParentID, i)
			}
			visited[child] = true
		}
	}
	for i := 1; i < len(nodes); i++ {
		if !visited[i] {
			return nil, fmt.Errorf("node %d is not connected to the root", i)
		}
	}
	return &Tree{schema, response, nodes}, nil
}

// Schema returns the schema of the samples the tree predicts.
func (t *Tree) Schema() *feature.Schema {
	return t.schema
}

// Response returns the name of the response the tree predicts.
func (t *Tree) Response() string {
	return t.response
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID.
func (t *Tree) Node(id int) Node {
	return t.nodes[id]
}

// Root returns the root node of the tree.
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// Nodes returns a copy of the nodes of the tree, in ID order.
func (t *Tree) Nodes() []Node {
	ns := make([]Node, len(t.nodes))
	copy(ns, t.nodes)
	return ns
}

// Leaves returns the number of leaves in the tree.
func (t *Tree) Leaves() int {
	var leaves int
	for _, n := range t.nodes {
		if n.Leaf() {
			leaves++
		}
	}
	return leaves
}

// Depth returns the depth of the deepest node of the tree.
func (t *Tree) Depth() int {
	var depth int
	for _, n := range t.nodes {
		if n.Depth > depth {
			depth = n.Depth
		}
	}
	return depth
}

// Predict takes an encoded sample and returns the value of the leaf it
// reaches. It returns a *feature.SchemaMismatchError if the sample does
// not conform to the schema of the tree.
// Samples with a missing value or an unknown level for a feature tested
// on a node go to the right child of the node.
func (t *Tree) Predict(sample []float64) (float64, error) {
	n, err := t.Leaf(sample)
	if err != nil {
		return 0, err
	}
	return n.Mean, nil
}

// Leaf takes an encoded sample and returns the leaf it reaches.
func (t *Tree) Leaf(sample []float64) (Node, error) {
	if err := t.schema.Check(sample); err != nil {
		return Node{}, err
	}
	n := t.nodes[0]
	for !n.Leaf() {
		if n.Criterion.SatisfiedBy(sample) {
			n = t.nodes[n.Left]
		} else {
			n = t.nodes[n.Right]
		}
	}
	return n, nil
}

// PredictSample takes a Sample and returns the value of the leaf it
// reaches, requesting only the values of the features tested on the way.
func (t *Tree) PredictSample(s Sample) (float64, error) {
	sample := make([]float64, t.schema.Len())
	n := t.nodes[0]
	for !n.Leaf() {
		c := n.Criterion.Column()
		v, err := s.ValueFor(c)
		if err != nil {
			return 0, fmt.Errorf("obtaining value for feature %s: %v", n.Criterion.Feature().Name(), err)
		}
		sample[c] = v
		if n.Criterion.SatisfiedBy(sample) {
			n = t.nodes[n.Left]
		} else {
			n = t.nodes[n.Right]
		}
	}
	return n.Mean, nil
}

// PredictRecord takes a raw record mapping feature names to textual values,
// encodes it with the tree schema and predicts it.
func (t *Tree) PredictRecord(record map[string]string) (float64, error) {
	sample, err := t.schema.Encode(record)
	if err != nil {
		return 0, err
	}
	return t.Predict(sample)
}

// PredictTable returns the predictions of the tree for every row of a
// table with the same schema.
func (t *Tree) PredictTable(tb dataset.Table) ([]float64, error) {
	predictions := make([]float64, tb.Len())
	for i := range predictions {
		p, err := t.Predict(dataset.Row(tb, i))
		if err != nil {
			return nil, fmt.Errorf("predicting row #%d: %w", i, err)
		}
		predictions[i] = p
	}
	return predictions, nil
}

// Traverse takes a bottomup boolean and an error-returning function
// that takes a node as parameter, and goes through the tree running the
// function with every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true. Left children
// are traversed before right ones.
// If the call to the function returns an error, the traversing is
// aborted and the error is returned. Otherwise, when the
// traversing is over, nil is returned.
func (t *Tree) Traverse(bottomup bool, f func(Node) error) error {
	return t.traverse(t.nodes[0], bottomup, f)
}

func (t *Tree) traverse(n Node, bottomup bool, f func(Node) error) error {
	var err error
	if !bottomup {
		err = f(n)
	}
	if err != nil {
		return err
	}
	if !n.Leaf() {
		for _, id := range []int{n.Left, n.Right} {
			err = t.traverse(t.nodes[id], bottomup, f)
			if err != nil {
				return err
			}
		}
	}
	if bottomup {
		err = f(n)
	}
	return err
}

func (t *Tree) String() string {
	return t.subtreeString(0)
}

func (t *Tree) subtreeString(nodeID int) string {
	n := t.nodes[nodeID]
	result := fmt.Sprintf("[%d]\n{ %v }\n", nodeID, n)
	if n.Leaf() {
		return fmt.Sprintf("%s \n", result)
	}
	result = fmt.Sprintf("%s|\n", result)
	for i, subtreeID := range []int{n.Left, n.Right} {
		for j, line := range strings.Split(t.subtreeString(subtreeID), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if i == 1 {
						result = fmt.Sprintf("%s   %s\n", result, line)
					} else {
						result = fmt.Sprintf("%s|  %s\n", result, line)
					}
				}
			}
		}
	}
	return result
}
