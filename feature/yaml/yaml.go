/*
Package yaml provides methods to parse schema definitions, also known
as metadata, from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"

	"github.com/pbanos/regtree/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
Metadata is the parsed content of a schema definition: the ordered schema
of the features and the name of the response the trees are grown to predict,
if the document specifies it.
*/
type Metadata struct {
	Schema   *feature.Schema
	Response string
}

/*
ReadMetadata takes a slice of bytes with a schema definition in YML and
returns the metadata parsed from it or an error.
The YML is expected to be an object containing a features property and
optionally a response property with the name of the response column.
The value for features should be an object with a property for each feature
with its name and either a string value of 'continuous' for continuous
features or a list of levels for discrete features. Features keep the order
in which they are declared.
*/
func ReadMetadata(md []byte) (*Metadata, error) {
	metadata := struct {
		Response string
		Features yaml.MapSlice
	}{}
	err := yaml.Unmarshal(md, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing yml features: %v", err)
	}
	if metadata.Features == nil {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	features := []feature.Feature{}
	for _, item := range metadata.Features {
		fn := fmt.Sprintf("%v", item.Key)
		switch values := item.Value.(type) {
		case string:
			if values != "continuous" {
				return nil, fmt.Errorf("invalid feature declaration %q for %s", values, fn)
			}
			features = append(features, feature.NewContinuousFeature(fn))
		case []interface{}:
			levels := []string{}
			for _, v := range values {
				levels = append(levels, fmt.Sprintf("%v", v))
			}
			features = append(features, feature.NewDiscreteFeature(fn, levels))
		default:
			return nil, fmt.Errorf("invalid feature declaration of type %T for %s", item.Value, fn)
		}
	}
	schema, err := feature.NewSchema(features...)
	if err != nil {
		return nil, err
	}
	if _, ok := schema.Index(metadata.Response); ok {
		return nil, fmt.Errorf("response %s is declared as a feature", metadata.Response)
	}
	return &Metadata{schema, metadata.Response}, nil
}

/*
ReadMetadataFromFile takes a filepath string, reads its contents and uses
ReadMetadata to parse it and return the parsed metadata or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadMetadataFromFile(filepath string) (*Metadata, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading features yml file %s: %v", filepath, err)
	}
	metadata, err := ReadMetadata(md)
	if err != nil {
		err = fmt.Errorf("parsing features yml file %s: %v", filepath, err)
	}
	return metadata, err
}
