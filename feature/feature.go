package feature

import (
	"fmt"
	"math"
)

/*
Feature represents a property that can be observed on every row of a
dataset and used to split it.

Values of every feature are carried as float64: continuous features hold the
observed number, discrete features hold the index of the observed level.
*/
type Feature interface {
	Name() string
	Valid(float64) error
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite, ordered set of levels.
*/
type DiscreteFeature struct {
	name   string
	levels []string
	index  map[string]int
}

/*
ContinuousFeature represents a property that can be observed and that can take
a numeric value
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of level strings
and returns a discrete feature with the given name and levels. Level order is
retained: the encoded value of a level is its position in the slice.
*/
func NewDiscreteFeature(name string, levels []string) *DiscreteFeature {
	ls := make([]string, len(levels))
	copy(ls, levels)
	index := make(map[string]int, len(ls))
	for i, l := range ls {
		if _, ok := index[l]; !ok {
			index[l] = i
		}
	}
	return &DiscreteFeature{name, ls, index}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
Valid receives an encoded value and returns nil if it is the index of one of
the feature levels, or an error describing the reason otherwise.
*/
func (df *DiscreteFeature) Valid(value float64) error {
	if _, ok := df.LevelOf(value); !ok {
		return fmt.Errorf("discrete feature %s got unknown level index %v", df.name, value)
	}
	return nil
}

/*
Levels returns a string slice with the levels available for the feature
*/
func (df *DiscreteFeature) Levels() []string {
	return df.levels
}

/*
Level returns the name of the level with the given index.
*/
func (df *DiscreteFeature) Level(i int) string {
	if i < 0 || i >= len(df.levels) {
		return "?"
	}
	return df.levels[i]
}

/*
LevelIndex returns the index of the given level name and whether the feature
knows about the level at all.
*/
func (df *DiscreteFeature) LevelIndex(level string) (int, bool) {
	i, ok := df.index[level]
	return i, ok
}

/*
LevelOf takes an encoded value and returns the level index it stands for and
true, or false if the value is missing, not integral or out of range.
*/
func (df *DiscreteFeature) LevelOf(value float64) (int, bool) {
	if math.IsNaN(value) || value != math.Trunc(value) || value < 0 || value >= float64(len(df.levels)) {
		return -1, false
	}
	return int(value), true
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Valid receives a value and returns nil when it is a finite number, otherwise
it returns an error describing the reason.
*/
func (cf *ContinuousFeature) Valid(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("continuous feature %s expects a finite value, got %v", cf.name, value)
	}
	return nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}
