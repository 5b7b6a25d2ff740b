package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Missing is the text a raw record uses for a value that was not observed.
const Missing = "?"

/*
Schema is an ordered set of features with unique names.

The position of a feature in the schema is the position of its value in
every encoded sample.
*/
type Schema struct {
	features []Feature
	index    map[string]int
}

/*
SchemaMismatchError is returned when a sample does not conform to the schema
it is evaluated against: it has the wrong number of values or a value
that cannot belong to its feature.
*/
type SchemaMismatchError struct {
	Expected int
	Got      int
	Feature  string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("schema mismatch: expected %d values, got %d", e.Expected, e.Got)
	}
	return fmt.Sprintf("schema mismatch on feature %s: %s", e.Feature, e.Reason)
}

/*
NewSchema takes a list of features and returns a schema with them in the same
order, or an error if a feature is nil, has an empty name, repeats the name of
a previous one or is a discrete feature without valid levels.
*/
func NewSchema(features ...Feature) (*Schema, error) {
	s := &Schema{make([]Feature, 0, len(features)), make(map[string]int, len(features))}
	for i, f := range features {
		if f == nil {
			return nil, fmt.Errorf("feature #%d is nil", i)
		}
		if f.Name() == "" {
			return nil, fmt.Errorf("feature #%d has no name", i)
		}
		if _, ok := s.index[f.Name()]; ok {
			return nil, fmt.Errorf("duplicated feature %s", f.Name())
		}
		if df, ok := f.(*DiscreteFeature); ok {
			if err := validLevels(df); err != nil {
				return nil, err
			}
		}
		s.index[f.Name()] = i
		s.features = append(s.features, f)
	}
	return s, nil
}

func validLevels(df *DiscreteFeature) error {
	if len(df.levels) == 0 {
		return fmt.Errorf("discrete feature %s has no levels", df.name)
	}
	for i, l := range df.levels {
		if l == "" || l == Missing {
			return fmt.Errorf("discrete feature %s has invalid level %q", df.name, l)
		}
		if df.index[l] != i {
			return fmt.Errorf("discrete feature %s has duplicated level %s", df.name, l)
		}
	}
	return nil
}

// Len returns the number of features in the schema.
func (s *Schema) Len() int {
	return len(s.features)
}

// Feature returns the feature in the i-th position.
func (s *Schema) Feature(i int) Feature {
	return s.features[i]
}

/*
Features returns a copy of the features in the schema
*/
func (s *Schema) Features() []Feature {
	fs := make([]Feature, len(s.features))
	copy(fs, s.features)
	return fs
}

/*
Index returns the position of the feature with the given name and true,
or false if no such feature is part of the schema.
*/
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the names of the features in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name()
	}
	return names
}

/*
Check takes an encoded sample and returns a *SchemaMismatchError if it has
a different number of values than the schema has features, or if a value for
a discrete feature is not missing and not a whole number. Unknown levels
are accepted: they only fail every criterion on their feature.
*/
func (s *Schema) Check(sample []float64) error {
	if len(sample) != len(s.features) {
		return &SchemaMismatchError{Expected: len(s.features), Got: len(sample)}
	}
	for i, f := range s.features {
		if _, ok := f.(*DiscreteFeature); !ok {
			continue
		}
		v := sample[i]
		if !math.IsNaN(v) && (math.IsInf(v, 0) || v != math.Trunc(v)) {
			return &SchemaMismatchError{
				Expected: len(s.features),
				Got:      len(sample),
				Feature:  f.Name(),
				Reason:   fmt.Sprintf("%v is not a level index", v),
			}
		}
	}
	return nil
}

/*
Encode takes a raw record mapping feature names to their textual values
and returns the encoded sample. Features absent from the record, or with an
empty or "?" value, are encoded as missing (NaN). Levels unknown to a discrete
feature are encoded as -1. Entries for names outside the schema are ignored.
It returns an error if a continuous value cannot be parsed as a number.
*/
func (s *Schema) Encode(record map[string]string) ([]float64, error) {
	sample := make([]float64, len(s.features))
	for i, f := range s.features {
		v, err := s.EncodeValue(i, record[f.Name()])
		if err != nil {
			return nil, err
		}
		sample[i] = v
	}
	return sample, nil
}

/*
EncodeValue encodes the textual value of the feature in the i-th position.
*/
func (s *Schema) EncodeValue(i int, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Missing {
		return math.NaN(), nil
	}
	switch f := s.features[i].(type) {
	case *DiscreteFeature:
		l, ok := f.LevelIndex(raw)
		if !ok {
			return -1, nil
		}
		return float64(l), nil
	default:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing value %q for feature %s: %v", raw, f.Name(), err)
		}
		return v, nil
	}
}

/*
FormatValue returns the textual representation of an encoded value for the
feature in the i-th position, the inverse of EncodeValue.
*/
func (s *Schema) FormatValue(i int, v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	if df, ok := s.features[i].(*DiscreteFeature); ok {
		return df.Level(int(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
