/*
Package json serializes trees as JSON documents and reads them back.
*/
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	fjson "github.com/pbanos/regtree/feature/json"
	"github.com/pbanos/regtree/tree"
)

type jsonTree struct {
	Response string          `json:"response"`
	Features []fjson.Feature `json:"features"`
	Nodes    []*node         `json:"nodes"`
}

/*
WriteJSONTree takes a pointer to a tree.Tree and an io.Writer and
serializes the given tree as JSON onto the io.Writer.
A tree is serialized as a JSON object with the following fields:
* "response": a string with the name of the response the tree predicts
* "features": an array with the features of the tree schema, in order
* "nodes": an array containing the nodes of the tree in ID order
An error is returned if the tree cannot be serialized or written
onto the io.Writer.
*/
func WriteJSONTree(t *tree.Tree, w io.Writer) error {
	fs, err := fjson.EncodeSchema(t.Schema())
	if err != nil {
		return err
	}
	ced := fjson.NewCriteriaEncodeDecoder(t.Schema())
	jt := &jsonTree{Response: t.Response(), Features: fs, Nodes: make([]*node, 0, t.Len())}
	for _, n := range t.Nodes() {
		jn, err := encodeNode(n, ced)
		if err != nil {
			return err
		}
		jt.Nodes = append(jt.Nodes, jn)
	}
	return json.NewEncoder(w).Encode(jt)
}

/*
ReadJSONTree takes an io.Reader and unmarshals a tree from its contents,
in the format written by WriteJSONTree.
An error is returned if the JSON cannot be read from the io.Reader or
does not describe a valid tree.
*/
func ReadJSONTree(r io.Reader) (*tree.Tree, error) {
	jt := &jsonTree{}
	err := json.NewDecoder(r).Decode(jt)
	if err != nil {
		return nil, err
	}
	schema, err := fjson.DecodeSchema(jt.Features)
	if err != nil {
		return nil, fmt.Errorf("decoding schema: %v", err)
	}
	ced := fjson.NewCriteriaEncodeDecoder(schema)
	nodes := make([]tree.Node, 0, len(jt.Nodes))
	for _, jn := range jt.Nodes {
		if jn == nil {
			return nil, fmt.Errorf("null node #%d", len(nodes))
		}
		n, err := jn.Node(ced)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return tree.New(schema, jt.Response, nodes)
}

/*
EncodeDecoder encodes trees into slices of bytes with WriteJSONTree
and decodes them back with ReadJSONTree.
*/
type EncodeDecoder struct{}

func (EncodeDecoder) Encode(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSONTree(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (EncodeDecoder) Decode(data []byte) (*tree.Tree, error) {
	return ReadJSONTree(bytes.NewReader(data))
}
