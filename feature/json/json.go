/*
Package json provides JSON representations for feature schemas and the
criteria built on them.
*/
package json

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbanos/regtree/feature"
)

/*
CriteriaEncodeDecoder is an interface for objects
that allow encoding criteria into slices of
bytes and decoding them back to criteria.
*/
type CriteriaEncodeDecoder interface {

	//Encode receives a feature.Criterion
	// and returns a slice of bytes with the criterion
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Criterion) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Criterion decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Criterion, error)
}

// Feature is the JSON representation of a feature.
type Feature struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Levels []string `json:"levels,omitempty"`
}

type jsonCriteriaEncodeDecoder struct {
	schema *feature.Schema
}

type jsonCriterion struct {
	Type      string `json:"t"`
	Feature   string `json:"f"`
	Threshold string `json:"v,omitempty"`
	Level     string `json:"l,omitempty"`
}

/*
EncodeSchema returns the JSON representation of every feature of the schema,
in schema order.
*/
func EncodeSchema(s *feature.Schema) ([]Feature, error) {
	fs := make([]Feature, 0, s.Len())
	for _, f := range s.Features() {
		switch ft := f.(type) {
		case *feature.ContinuousFeature:
			fs = append(fs, Feature{Name: ft.Name(), Type: "continuous"})
		case *feature.DiscreteFeature:
			fs = append(fs, Feature{Name: ft.Name(), Type: "discrete", Levels: ft.Levels()})
		default:
			return nil, fmt.Errorf("unknown type of feature.Feature %T", f)
		}
	}
	return fs, nil
}

/*
DecodeSchema builds a schema back from the JSON representation of its features.
*/
func DecodeSchema(fs []Feature) (*feature.Schema, error) {
	features := make([]feature.Feature, 0, len(fs))
	for _, f := range fs {
		switch f.Type {
		case "continuous":
			features = append(features, feature.NewContinuousFeature(f.Name))
		case "discrete":
			features = append(features, feature.NewDiscreteFeature(f.Name, f.Levels))
		default:
			return nil, fmt.Errorf("unknown feature type '%s' for feature %s", f.Type, f.Name)
		}
	}
	return feature.NewSchema(features...)
}

// NewCriteriaEncodeDecoder takes a schema and returns a
// CriteriaEncodeDecoder that marshals and unmarshals
// criteria on its features into/from slices of bytes as JSON.
// Specifically, criteria are encoded as a JSON object
// with a "f" property set to the name of the feature
// of the criteria and a "t" property that can be
// "continuous" or "discrete":
//  * If the criteria is continuous it will have a "v"
//  property with the threshold, formatted so that it
//  parses back to the same float64
//  * If the criteria is discrete it will have a "l"
//  property with the name of the level
func NewCriteriaEncodeDecoder(s *feature.Schema) CriteriaEncodeDecoder {
	return &jsonCriteriaEncodeDecoder{s}
}

func (jced *jsonCriteriaEncodeDecoder) Encode(fc feature.Criterion) ([]byte, error) {
	switch c := fc.(type) {
	case feature.ContinuousCriterion:
		return json.Marshal(&jsonCriterion{
			Type:      "continuous",
			Feature:   c.Feature().Name(),
			Threshold: strconv.FormatFloat(c.Threshold(), 'g', -1, 64),
		})
	case feature.DiscreteCriterion:
		df := c.Feature().(*feature.DiscreteFeature)
		return json.Marshal(&jsonCriterion{
			Type:    "discrete",
			Feature: df.Name(),
			Level:   df.Level(c.Level()),
		})
	default:
		return nil, fmt.Errorf("unknown type of feature.Criterion %T", fc)
	}
}

func (jced *jsonCriteriaEncodeDecoder) Decode(data []byte) (feature.Criterion, error) {
	jc := &jsonCriterion{}
	err := json.Unmarshal(data, jc)
	if err != nil {
		return nil, err
	}
	return jc.Criterion(jced.schema)
}

func (jc *jsonCriterion) Criterion(s *feature.Schema) (feature.Criterion, error) {
	column, ok := s.Index(jc.Feature)
	if !ok {
		return nil, fmt.Errorf("unknown feature '%s'", jc.Feature)
	}
	f := s.Feature(column)
	switch jc.Type {
	case "continuous":
		cf, ok := f.(*feature.ContinuousFeature)
		if !ok {
			return nil, fmt.Errorf("expected continuous feature for continuous criterion but found %T feature %v", f, f.Name())
		}
		threshold, err := strconv.ParseFloat(jc.Threshold, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing threshold for feature %s: %v", f.Name(), err)
		}
		return feature.NewContinuousCriterion(cf, column, threshold), nil
	case "discrete":
		df, ok := f.(*feature.DiscreteFeature)
		if !ok {
			return nil, fmt.Errorf("expected discrete feature for discrete criterion but found %T feature %v", f, f.Name())
		}
		level, ok := df.LevelIndex(jc.Level)
		if !ok {
			return nil, fmt.Errorf("unknown level '%s' for feature %s", jc.Level, f.Name())
		}
		return feature.NewDiscreteCriterion(df, column, level), nil
	}
	return nil, fmt.Errorf("unknown feature criterion type '%s'", jc.Type)
}
