package regtree

import (
	"cmp"
	"slices"

	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/stats"
	"golang.org/x/sync/errgroup"
)

/*
findSplit takes the rows of a node, in ascending order, and the statistics of
their responses and returns the split with the highest reduction over every
eligible feature, or nil if no split leaves at least MinLeafSize rows on each
side with a positive reduction. Ties are broken by the first feature in
schema order, and within a feature by the first threshold or level.
*/
func (g *growth) findSplit(rows []int, total stats.Accumulator) (*Split, error) {
	candidates := make([]*Split, len(g.features))
	eg := &errgroup.Group{}
	eg.SetLimit(g.params.Parallelism)
	for i, column := range g.features {
		eg.Go(func() error {
			if err := g.ctx.Err(); err != nil {
				return err
			}
			switch f := g.schema.Feature(column).(type) {
			case *feature.ContinuousFeature:
				candidates[i] = g.continuousSplit(f, column, rows, total)
			case *feature.DiscreteFeature:
				candidates[i] = g.discreteSplit(f, column, rows, total)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var best *Split
	for _, c := range candidates {
		if c != nil && (best == nil || c.Reduction > best.Reduction) {
			best = c
		}
	}
	if best == nil || g.pruner.Prune(best) {
		return nil, nil
	}
	return best, nil
}

/*
continuousSplit sweeps the rows sorted by their value for the feature and
evaluates a threshold at every boundary between distinct values. The
threshold is the midpoint of the values on both sides of the boundary.
*/
func (g *growth) continuousSplit(f *feature.ContinuousFeature, column int, rows []int, total stats.Accumulator) *Split {
	values := g.columns[column]
	sorted := make([]int, len(rows))
	copy(sorted, rows)
	slices.SortStableFunc(sorted, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})
	minLeaf := g.params.MinLeafSize
	left := stats.New(total.Shift)
	var best *Split
	for k := 0; k < len(sorted)-1; k++ {
		left.Add(g.targets[sorted[k]])
		leftCount := k + 1
		if leftCount < minLeaf {
			continue
		}
		if len(sorted)-leftCount < minLeaf {
			break
		}
		lower, upper := values[sorted[k]], values[sorted[k+1]]
		if lower == upper {
			continue
		}
		right := total.Minus(left)
		reduction, ok := stats.Reduction(total, left, right)
		if !ok || reduction <= 0 || (best != nil && reduction <= best.Reduction) {
			continue
		}
		threshold := lower + (upper-lower)/2
		if threshold >= upper {
			threshold = lower
		}
		best = &Split{
			Criterion: feature.NewContinuousCriterion(f, column, threshold),
			Reduction: reduction,
			Total:     total,
			Left:      left,
			Right:     right,
		}
	}
	return best
}

/*
discreteSplit evaluates, for every level of the feature, the split of the
rows with that level from the rest.
*/
func (g *growth) discreteSplit(f *feature.DiscreteFeature, column int, rows []int, total stats.Accumulator) *Split {
	values := g.columns[column]
	levels := make([]stats.Accumulator, len(f.Levels()))
	for i := range levels {
		levels[i] = stats.New(total.Shift)
	}
	for _, r := range rows {
		levels[int(values[r])].Add(g.targets[r])
	}
	minLeaf := g.params.MinLeafSize
	var best *Split
	for l, left := range levels {
		if left.Count < minLeaf || total.Count-left.Count < minLeaf {
			continue
		}
		right := total.Minus(left)
		reduction, ok := stats.Reduction(total, left, right)
		if !ok || reduction <= 0 || (best != nil && reduction <= best.Reduction) {
			continue
		}
		best = &Split{
			Criterion: feature.NewDiscreteCriterion(f, column, l),
			Reduction: reduction,
			Total:     total,
			Left:      left,
			Right:     right,
		}
	}
	return best
}
