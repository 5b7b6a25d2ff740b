package tree

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

const dotGraphName = "RegressionTree"

/*
Dot returns a description of the tree as a directed graph in the graphviz
dot language. Internal nodes are labelled with their criterion, reduction
and size, leaves are boxes labelled with their value and size. Edges to
left children are labelled "true" and edges to right children "false".
*/
func (t *Tree) Dot() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	err := t.Traverse(false, func(n Node) error {
		attrs := map[string]string{"label": strconv.Quote(n.dotLabel())}
		if n.Leaf() {
			attrs["shape"] = "box"
		} else {
			attrs["shape"] = "ellipse"
		}
		if err := g.AddNode(dotGraphName, dotName(n.ID), attrs); err != nil {
			return fmt.Errorf("adding node %d: %v", n.ID, err)
		}
		if n.ParentID == NoNode {
			return nil
		}
		branch := "false"
		if t.nodes[n.ParentID].Left == n.ID {
			branch = "true"
		}
		err := g.AddEdge(dotName(n.ParentID), dotName(n.ID), true, map[string]string{"label": strconv.Quote(branch)})
		if err != nil {
			return fmt.Errorf("adding edge to node %d: %v", n.ID, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

func (n Node) dotLabel() string {
	if n.Leaf() {
		return fmt.Sprintf("value = %s\nsize = %d", strconv.FormatFloat(n.Mean, 'g', -1, 64), n.Count)
	}
	return fmt.Sprintf("%v\nreduction = %s\nsize = %d", n.Criterion, strconv.FormatFloat(n.Reduction, 'g', 6, 64), n.Count)
}

func dotName(id int) string {
	return fmt.Sprintf("n%d", id)
}
