/*
Package dataset provides the tabular view of the rows trees are grown from:
encoded feature values addressed by row and column plus a numeric response
per row.
*/
package dataset

import (
	"fmt"
	"math"

	"github.com/pbanos/regtree/feature"
)

/*
Table represents an ordered, immutable collection of rows.

Its Schema method returns the schema of the features of every row, and its
Response method the name of the response.

Its Value method returns the encoded value of a row for the feature in the
given column, and its Target method the response of the row.
*/
type Table interface {
	Schema() *feature.Schema
	Response() string
	Len() int
	Value(row, column int) float64
	Target(row int) float64
}

/*
Frame is an in-memory Table.
*/
type Frame struct {
	schema   *feature.Schema
	response string
	rows     [][]float64
	targets  []float64
}

/*
New takes a schema, the name of the response, the encoded rows and their
responses and returns a Frame with them, or an error if they have different
lengths, a row does not conform to the schema, a value is missing or not valid
for its feature or a response is not a finite number.

The Frame keeps the given slices, which must not be modified afterwards.
*/
func New(schema *feature.Schema, response string, rows [][]float64, targets []float64) (*Frame, error) {
	if schema == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("got %d rows but %d responses", len(rows), len(targets))
	}
	for i, row := range rows {
		if err := schema.Check(row); err != nil {
			return nil, fmt.Errorf("row #%d: %w", i, err)
		}
		for j, v := range row {
			if err := schema.Feature(j).Valid(v); err != nil {
				return nil, fmt.Errorf("row #%d: %v", i, err)
			}
		}
		if math.IsNaN(targets[i]) || math.IsInf(targets[i], 0) {
			return nil, fmt.Errorf("row #%d: response %s is not a finite number: %v", i, response, targets[i])
		}
	}
	return &Frame{schema, response, rows, targets}, nil
}

func (f *Frame) Schema() *feature.Schema {
	return f.schema
}

func (f *Frame) Response() string {
	return f.response
}

func (f *Frame) Len() int {
	return len(f.rows)
}

func (f *Frame) Value(row, column int) float64 {
	return f.rows[row][column]
}

func (f *Frame) Target(row int) float64 {
	return f.targets[row]
}

// Row returns the encoded values of a row. It must not be modified.
func (f *Frame) Row(row int) []float64 {
	return f.rows[row]
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{%d rows, %d features, response %s}", len(f.rows), f.schema.Len(), f.response)
}

type subset struct {
	Table
	rows []int
}

/*
Subset takes a table and a slice of row indices and returns a Table with
only those rows, in the given order, without copying them.
The indices must be valid for t.
*/
func Subset(t Table, rows []int) Table {
	if s, ok := t.(*subset); ok {
		mapped := make([]int, len(rows))
		for i, r := range rows {
			mapped[i] = s.rows[r]
		}
		return &subset{s.Table, mapped}
	}
	return &subset{t, rows}
}

func (s *subset) Len() int {
	return len(s.rows)
}

func (s *subset) Value(row, column int) float64 {
	return s.Table.Value(s.rows[row], column)
}

func (s *subset) Target(row int) float64 {
	return s.Table.Target(s.rows[row])
}

/*
Row returns a copy of the encoded values of a row of the table.
*/
func Row(t Table, row int) []float64 {
	if f, ok := t.(*Frame); ok {
		r := make([]float64, len(f.rows[row]))
		copy(r, f.rows[row])
		return r
	}
	n := t.Schema().Len()
	r := make([]float64, n)
	for j := 0; j < n; j++ {
		r[j] = t.Value(row, j)
	}
	return r
}

/*
Targets returns the responses of every row of the table.
*/
func Targets(t Table) []float64 {
	ts := make([]float64, t.Len())
	for i := range ts {
		ts[i] = t.Target(i)
	}
	return ts
}
