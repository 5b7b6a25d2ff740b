package feature

import (
	"fmt"
	"math"
	"strconv"
)

/*
Criterion represents a binary test on one feature of a sample.

Its SatisfiedBy method takes an encoded sample and returns a boolean indicating
if the sample value for the feature satisfies the criterion. Samples satisfying
it go to the left branch of a split, the rest go to the right one, including
samples with a missing value or an unknown level for the feature.

Its Feature method returns the feature on which the criterion is applied, and
its Column method the position of that feature in the schema.
*/
type Criterion interface {
	Feature() Feature
	Column() int
	SatisfiedBy(sample []float64) bool
	String() string
}

/*
ContinuousCriterion represents a constraint on a continuous feature:
values equal or below a threshold.
*/
type ContinuousCriterion interface {
	Criterion
	Threshold() float64
}

/*
DiscreteCriterion represents a constraint on a discrete feature: being one
specific level.

Its Level method returns the index of the level to which the feature is
constrained.
*/
type DiscreteCriterion interface {
	Criterion
	Level() int
}

type continuousCriterion struct {
	feature   *ContinuousFeature
	column    int
	threshold float64
}

type discreteCriterion struct {
	feature *DiscreteFeature
	column  int
	level   int
}

/*
NewContinuousCriterion takes a ContinuousFeature, its column in the schema
and a threshold and returns a ContinuousCriterion satisfied by samples whose
value for the feature is lower than or equal to the threshold.
*/
func NewContinuousCriterion(feature *ContinuousFeature, column int, threshold float64) ContinuousCriterion {
	return &continuousCriterion{feature, column, threshold}
}

/*
NewDiscreteCriterion takes a DiscreteFeature, its column in the schema and a
level index and returns a DiscreteCriterion satisfied by samples whose value
for the feature is that level.
*/
func NewDiscreteCriterion(feature *DiscreteFeature, column int, level int) DiscreteCriterion {
	return &discreteCriterion{feature, column, level}
}

func (cc *continuousCriterion) Feature() Feature {
	return cc.feature
}

func (cc *continuousCriterion) Column() int {
	return cc.column
}

/*
SatisfiedBy returns true if the sample value for the feature is a number
lower than or equal to the threshold. Missing values never satisfy it.
*/
func (cc *continuousCriterion) SatisfiedBy(sample []float64) bool {
	if cc.column >= len(sample) {
		return false
	}
	v := sample[cc.column]
	if math.IsNaN(v) {
		return false
	}
	return v <= cc.threshold
}

func (cc *continuousCriterion) Threshold() float64 {
	return cc.threshold
}

func (cc *continuousCriterion) String() string {
	return fmt.Sprintf("%s <= %s", cc.feature.Name(), strconv.FormatFloat(cc.threshold, 'g', -1, 64))
}

func (dc *discreteCriterion) Feature() Feature {
	return dc.feature
}

func (dc *discreteCriterion) Column() int {
	return dc.column
}

/*
SatisfiedBy returns true if the sample value for the feature is the index of
the criterion level. Missing values and unknown levels never satisfy it.
*/
func (dc *discreteCriterion) SatisfiedBy(sample []float64) bool {
	if dc.column >= len(sample) {
		return false
	}
	l, ok := dc.feature.LevelOf(sample[dc.column])
	return ok && l == dc.level
}

func (dc *discreteCriterion) Level() int {
	return dc.level
}

func (dc *discreteCriterion) String() string {
	return fmt.Sprintf("%s = %s", dc.feature.Name(), dc.feature.Level(dc.level))
}
