/*
Package inputsample provides samples whose values are read from an io.Reader
as they are needed, so only the features tested on the way to a leaf are
requested.
*/
package inputsample

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pbanos/regtree/feature"
)

/*
FeatureValueRequester represents a way to ask
for feature values and reject the given values.
*/
type FeatureValueRequester interface {
	RequestValueFor(feature.Feature) error
	RejectValueFor(feature.Feature, string) error
}

/*
Sample is a sample whose values are read from a reader.
*/
type Sample struct {
	obtained              map[int]float64
	undefinedValue        string
	scanner               *bufio.Scanner
	featureValueRequester FeatureValueRequester
	schema                *feature.Schema
}

/*
New takes an io.Reader, a schema, a FeatureValueRequester and an
undefinedValue coding string and returns a Sample.

The returned Sample ValueFor method reads feature values first
requesting them with the given FeatureValueRequester and
then parsing the values from the reader.

The parsing expects each value to be presented ending with the
'\n' character, that is in new lines. Also, the undefinedValue
string followed by the '\n' character will be interpreted as a
missing value.

For a feature.ContinuousFeature, lines will be read from the
reader until a line containing a valid float64 number is found.

For a feature.DiscreteFeature, lines will be read from the
reader until a line with a level of the feature is found.

For both kind of feature.Feature, non accepted values will be
rejected with the FeatureValueRequester's RejectValueFor method.
*/
func New(r io.Reader, schema *feature.Schema, featureValueRequester FeatureValueRequester, undefinedValue string) *Sample {
	return &Sample{make(map[int]float64), undefinedValue, bufio.NewScanner(r), featureValueRequester, schema}
}

/*
ValueFor returns the encoded value for the feature in the given column of
the schema, reading it if it was not read before.
*/
func (rs *Sample) ValueFor(column int) (float64, error) {
	if value, ok := rs.obtained[column]; ok {
		return value, nil
	}
	if column < 0 || column >= rs.schema.Len() {
		return 0, fmt.Errorf("have no information about feature #%d, do not know how to read its value", column)
	}
	f := rs.schema.Feature(column)
	err := rs.featureValueRequester.RequestValueFor(f)
	if err != nil {
		return 0, err
	}
	for rs.scanner.Scan() {
		line := strings.TrimSpace(rs.scanner.Text())
		value, ok := rs.parse(f, line)
		if ok {
			rs.obtained[column] = value
			return value, nil
		}
		err = rs.featureValueRequester.RejectValueFor(f, line)
		if err != nil {
			return 0, err
		}
	}
	err = rs.scanner.Err()
	if err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("EOF when requesting value")
}

func (rs *Sample) parse(f feature.Feature, line string) (float64, bool) {
	if line == rs.undefinedValue {
		return math.NaN(), true
	}
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		l, ok := f.LevelIndex(line)
		return float64(l), ok
	default:
		v, err := strconv.ParseFloat(line, 64)
		return v, err == nil
	}
}
