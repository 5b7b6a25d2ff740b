package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pbanos/regtree/feature"
)

/*
Builder accumulates rows given as raw textual records and builds a Frame
with them. It is used by the different dataset sources to share the
encoding and validation of values.
*/
type Builder struct {
	schema   *feature.Schema
	response string
	rows     [][]float64
	targets  []float64
}

/*
NewBuilder takes a schema and the name of the response and returns an
empty Builder for them.
*/
func NewBuilder(schema *feature.Schema, response string) *Builder {
	return &Builder{schema: schema, response: response}
}

/*
Add takes a record mapping feature names and the response name to textual
values and adds it to the builder. It returns an error if the response is
missing or not a number, or if a value cannot be encoded.
*/
func (b *Builder) Add(record map[string]string) error {
	raw, ok := record[b.response]
	if !ok {
		return fmt.Errorf("missing response %s", b.response)
	}
	target, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("parsing response %s value %q: %v", b.response, raw, err)
	}
	row, err := b.schema.Encode(record)
	if err != nil {
		return err
	}
	b.AddEncoded(row, target)
	return nil
}

// AddEncoded adds an already encoded row and its response.
func (b *Builder) AddEncoded(row []float64, target float64) {
	b.rows = append(b.rows, row)
	b.targets = append(b.targets, target)
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int {
	return len(b.rows)
}

/*
Frame validates the rows added so far and returns a Frame with them.
*/
func (b *Builder) Frame() (*Frame, error) {
	return New(b.schema, b.response, b.rows, b.targets)
}
