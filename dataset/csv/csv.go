/*
Package csv reads datasets and prediction samples from CSV streams and writes
samples along with a value, such as a prediction, to them.
*/
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
)

/*
Writer is an interface for a CSV stream to which encoded samples and a value
for each can be written to.
*/
type Writer interface {
	// Write writes the sample values followed by the given value.
	Write(sample []float64, value float64) error
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count  int
	schema *feature.Schema
	w      *csv.Writer
}

/*
ReadRecords takes an io.Reader for a CSV stream and a lambda function
on an integer and a record. It parses the rows of the stream into records
mapping the header names to the row values, and for each it calls the lambda
function with the record and its index as parameters. If the lambda function
returns true, it will continue processing the next record, otherwise it
will stop. An error is returned if something goes wrong when reading the
stream or if the lambda function returns one.

The header or first row of the CSV content is expected to consist of the names
of the columns.
*/
func ReadRecords(reader io.Reader, lambda func(int, map[string]string) (bool, error)) error {
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return fmt.Errorf("duplicated column %s in header", h)
		}
		seen[h] = true
	}
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		record := make(map[string]string, len(header))
		for i, h := range header {
			record[h] = row[i]
		}
		ok, err := lambda(l-2, record)
		if err != nil {
			return fmt.Errorf("processing line %d: %v", l, err)
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadFrame takes an io.Reader for a CSV stream, a schema and the name of
the response column and returns a dataset.Frame with the rows parsed from
the stream or an error.

The header should name every feature of the schema and the response, in
any order; other columns are ignored. The rows should consist of valid values
for all features and a number for the response.
*/
func ReadFrame(reader io.Reader, schema *feature.Schema, response string) (*dataset.Frame, error) {
	b := dataset.NewBuilder(schema, response)
	checked := false
	err := ReadRecords(reader, func(_ int, record map[string]string) (bool, error) {
		if !checked {
			if err := checkColumns(record, append(schema.Names(), response)); err != nil {
				return false, err
			}
			checked = true
		}
		return true, b.Add(record)
	})
	if err != nil {
		return nil, err
	}
	return b.Frame()
}

/*
ReadFrameFromFilePath takes a filepath string, a schema and the name of the response,
opens the file to which the filepath points to and uses ReadFrame to return a
dataset.Frame or an error read from it. If the filepath is "" os.Stdin is read
instead. It will return an error if the given filepath cannot be opened for reading.
*/
func ReadFrameFromFilePath(filepath string, schema *feature.Schema, response string) (*dataset.Frame, error) {
	f, err := open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frame, err := ReadFrame(f, schema, response)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return frame, err
}

/*
ReadSamples takes an io.Reader for a CSV stream and a schema and returns the
encoded samples parsed from it. Features without a column in the header, or
with an empty or '?' value, are missing on the samples. Unknown levels are
encoded as such.
*/
func ReadSamples(reader io.Reader, schema *feature.Schema) ([][]float64, error) {
	samples := [][]float64{}
	err := ReadRecords(reader, func(_ int, record map[string]string) (bool, error) {
		sample, err := schema.Encode(record)
		if err != nil {
			return false, err
		}
		samples = append(samples, sample)
		return true, nil
	})
	return samples, err
}

/*
ReadSamplesFromFilePath is ReadSamples on the file with the given path, or
os.Stdin when the path is "".
*/
func ReadSamplesFromFilePath(filepath string, schema *feature.Schema) ([][]float64, error) {
	f, err := open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := ReadSamples(f, schema)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return samples, err
}

/*
NewWriter takes an io.Writer, a schema and the name of the value column and
returns a Writer that will write samples on the io.Writer, after a header
with the feature names and the value column.
*/
func NewWriter(writer io.Writer, schema *feature.Schema, column string) (Writer, error) {
	w := csv.NewWriter(writer)
	err := w.Write(append(schema.Names(), column))
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{schema: schema, w: w}, nil
}

func (cw *csvWriter) Write(sample []float64, value float64) error {
	if err := cw.schema.Check(sample); err != nil {
		return err
	}
	record := make([]string, 0, len(sample)+1)
	for i, v := range sample {
		record = append(record, cw.schema.FormatValue(i, v))
	}
	record = append(record, strconv.FormatFloat(value, 'g', -1, 64))
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing sample #%d: %v", cw.count, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func checkColumns(record map[string]string, names []string) error {
	for _, n := range names {
		if _, ok := record[n]; !ok {
			return fmt.Errorf("header has no column for %s", n)
		}
	}
	return nil
}

func open(filepath string) (*os.File, error) {
	if filepath == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", filepath, err)
	}
	return f, nil
}
