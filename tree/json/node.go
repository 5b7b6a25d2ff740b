package json

import (
	"encoding/json"
	"fmt"

	fjson "github.com/pbanos/regtree/feature/json"
	"github.com/pbanos/regtree/tree"
)

type node struct {
	ID        int              `json:"id"`
	ParentID  int              `json:"pId"`
	Left      int              `json:"l"`
	Right     int              `json:"r"`
	Criterion *json.RawMessage `json:"c,omitempty"`
	Reduction float64          `json:"red,omitempty"`
	Count     int              `json:"n"`
	Mean      float64          `json:"mean"`
	SS        float64          `json:"ss"`
	Depth     int              `json:"d"`
}

func encodeNode(n tree.Node, ced fjson.CriteriaEncodeDecoder) (*node, error) {
	jn := &node{
		ID:        n.ID,
		ParentID:  n.ParentID,
		Left:      n.Left,
		Right:     n.Right,
		Reduction: n.Reduction,
		Count:     n.Count,
		Mean:      n.Mean,
		SS:        n.SS,
		Depth:     n.Depth,
	}
	if n.Criterion != nil {
		c, err := ced.Encode(n.Criterion)
		if err != nil {
			return nil, fmt.Errorf("encoding criterion of node %d: %v", n.ID, err)
		}
		raw := json.RawMessage(c)
		jn.Criterion = &raw
	}
	return jn, nil
}

func (jn *node) Node(ced fjson.CriteriaEncodeDecoder) (tree.Node, error) {
	n := tree.Node{
		ID:        jn.ID,
		ParentID:  jn.ParentID,
		Left:      jn.Left,
		Right:     jn.Right,
		Reduction: jn.Reduction,
		Count:     jn.Count,
		Mean:      jn.Mean,
		SS:        jn.SS,
		Depth:     jn.Depth,
	}
	if jn.Criterion != nil {
		c, err := ced.Decode(*jn.Criterion)
		if err != nil {
			return tree.Node{}, fmt.Errorf("decoding criterion of node %d: %v", jn.ID, err)
		}
		n.Criterion = c
	}
	return n, nil
}
