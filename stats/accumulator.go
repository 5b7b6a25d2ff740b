/*
Package stats provides the running statistics used to score candidate splits
of a set of responses without scanning the responses again.
*/
package stats

import "math"

/*
Accumulator holds the count, sum and sum of squares of a set of values.

Values are accumulated as their difference with Shift, so that sums stay
small when the values share a large common magnitude. The sum of squared
deviations does not depend on the shift, so accumulators with the same Shift
can be compared and combined freely.
*/
type Accumulator struct {
	Count int
	Sum   float64
	SumSq float64
	Shift float64
	Min   float64
	Max   float64
}

/*
New returns an empty accumulator that will shift values by the given amount.
*/
func New(shift float64) Accumulator {
	return Accumulator{Shift: shift, Min: math.Inf(1), Max: math.Inf(-1)}
}

/*
Of returns an accumulator over the given values, shifted by their mean.
*/
func Of(values []float64) Accumulator {
	shift := 0.0
	if len(values) > 0 {
		for _, v := range values {
			shift += v
		}
		shift /= float64(len(values))
	}
	a := New(shift)
	for _, v := range values {
		a.Add(v)
	}
	return a
}

// Add accumulates v.
func (a *Accumulator) Add(v float64) {
	d := v - a.Shift
	a.Count++
	a.Sum += d
	a.SumSq += d * d
	if v < a.Min {
		a.Min = v
	}
	if v > a.Max {
		a.Max = v
	}
}

/*
Minus returns the statistics of the values accumulated by a and not by o,
when o accumulated a subset of them with the same shift. Min and Max of the
result are not meaningful.
*/
func (a Accumulator) Minus(o Accumulator) Accumulator {
	return Accumulator{
		Count: a.Count - o.Count,
		Sum:   a.Sum - o.Sum,
		SumSq: a.SumSq - o.SumSq,
		Shift: a.Shift,
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
}

// Mean returns the mean of the accumulated values, or NaN if there are none.
func (a Accumulator) Mean() float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	return a.Shift + a.Sum/float64(a.Count)
}

/*
SS returns the sum of squared deviations from the mean of the accumulated
values. It is 0 when there are none.
*/
func (a Accumulator) SS() float64 {
	if a.Count <= 0 {
		return 0
	}
	ss := a.SumSq - a.Sum*a.Sum/float64(a.Count)
	if ss < 0 {
		return 0
	}
	return ss
}

/*
Constant returns whether every accumulated value is the same. It relies on
Min and Max, so it is only meaningful for values accumulated through Add.
*/
func (a Accumulator) Constant() bool {
	return a.Count == 0 || a.Min == a.Max
}

/*
Reduction returns the decrease of the sum of squared deviations obtained by
splitting the values of total into left and right, and false when either
side is empty and the split is not eligible.
*/
func Reduction(total, left, right Accumulator) (float64, bool) {
	if left.Count == 0 || right.Count == 0 {
		return 0, false
	}
	return total.SS() - (left.SS() + right.SS()), true
}
