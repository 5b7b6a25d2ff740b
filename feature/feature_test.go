package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	s, err := NewSchema(NewContinuousFeature("x"), NewDiscreteFeature("c", []string{"a", "b"}))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	i, ok := s.Index("c")
	require.True(t, ok)
	require.Equal(t, 1, i)
	_, ok = s.Index("y")
	require.False(t, ok)

	t.Run("invalid", func(t *testing.T) {
		for name, fs := range map[string][]Feature{
			"duplicated name":  {NewContinuousFeature("x"), NewContinuousFeature("x")},
			"empty name":       {NewContinuousFeature("")},
			"nil":              {nil},
			"no levels":        {NewDiscreteFeature("c", nil)},
			"duplicated level": {NewDiscreteFeature("c", []string{"a", "a"})},
			"missing level":    {NewDiscreteFeature("c", []string{"?"})},
		} {
			_, err := NewSchema(fs...)
			require.Error(t, err, name)
		}
	})
}

func TestEncode(t *testing.T) {
	s, err := NewSchema(NewContinuousFeature("x"), NewDiscreteFeature("c", []string{"a", "b"}))
	require.NoError(t, err)

	v, err := s.Encode(map[string]string{"x": "1.5", "c": "b"})
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 1}, v)

	v, err = s.Encode(map[string]string{"c": "z"})
	require.NoError(t, err)
	require.True(t, math.IsNaN(v[0]))
	require.Equal(t, -1.0, v[1])

	_, err = s.Encode(map[string]string{"x": "one"})
	require.Error(t, err)

	require.Equal(t, "b", s.FormatValue(1, 1))
	require.Equal(t, "1.5", s.FormatValue(0, 1.5))
	require.Equal(t, Missing, s.FormatValue(0, math.NaN()))
}

func TestCheck(t *testing.T) {
	s, err := NewSchema(NewContinuousFeature("x"), NewDiscreteFeature("c", []string{"a", "b"}))
	require.NoError(t, err)

	require.NoError(t, s.Check([]float64{3, 1}))
	require.NoError(t, s.Check([]float64{math.NaN(), 7}))

	var sme *SchemaMismatchError
	err = s.Check([]float64{1})
	require.True(t, errors.As(err, &sme))
	require.Equal(t, 2, sme.Expected)
	require.Equal(t, 1, sme.Got)

	err = s.Check([]float64{1, 0.5})
	require.True(t, errors.As(err, &sme))
	require.Equal(t, "c", sme.Feature)
}

func TestCriteria(t *testing.T) {
	x := NewContinuousFeature("x")
	c := NewDiscreteFeature("c", []string{"a", "b"})

	cc := NewContinuousCriterion(x, 0, 2.5)
	require.True(t, cc.SatisfiedBy([]float64{2.5, 0}))
	require.False(t, cc.SatisfiedBy([]float64{2.6, 0}))
	require.False(t, cc.SatisfiedBy([]float64{math.NaN(), 0}))
	require.Equal(t, "x <= 2.5", cc.String())

	dc := NewDiscreteCriterion(c, 1, 1)
	require.True(t, dc.SatisfiedBy([]float64{0, 1}))
	require.False(t, dc.SatisfiedBy([]float64{0, 0}))
	require.False(t, dc.SatisfiedBy([]float64{0, -1}))
	require.False(t, dc.SatisfiedBy([]float64{0, 9}))
	require.Equal(t, "c = b", dc.String())
}
