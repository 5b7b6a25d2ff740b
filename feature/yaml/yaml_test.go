package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pbanos/regtree/feature"
	"github.com/stretchr/testify/require"
)

const longley = `
response: employed
features:
  deflator: continuous
  gnp: continuous
  unemployed: continuous
  armed_forces: continuous
  population: continuous
  year: continuous
  decade: [forties, fifties, sixties]
`

func TestReadMetadata(t *testing.T) {
	md, err := ReadMetadata([]byte(longley))
	require.NoError(t, err)
	require.Equal(t, "employed", md.Response)
	require.Equal(t, []string{"deflator", "gnp", "unemployed", "armed_forces", "population", "year", "decade"}, md.Schema.Names())

	df, ok := md.Schema.Feature(6).(*feature.DiscreteFeature)
	require.True(t, ok)
	require.Equal(t, []string{"forties", "fifties", "sixties"}, df.Levels())
	_, ok = md.Schema.Feature(0).(*feature.ContinuousFeature)
	require.True(t, ok)
}

func TestReadMetadataErrors(t *testing.T) {
	cases := map[string]string{
		"no features":       "response: y\n",
		"bad kind":          "features:\n  x: discrete\n",
		"response declared": "response: x\nfeatures:\n  x: continuous\n",
		"no levels":         "features:\n  x: []\n",
		"not yaml":          "features: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadMetadata([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestReadMetadataFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "longley.yml")
	require.NoError(t, os.WriteFile(path, []byte(longley), 0o600))
	md, err := ReadMetadataFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 7, md.Schema.Len())

	_, err = ReadMetadataFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
