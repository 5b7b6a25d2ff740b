package regtree

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/tree"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testLevels = []string{"north", "south", "east", "west"}

func randomFrame(t *testing.T, n int, seed int64) *dataset.Frame {
	s, err := feature.NewSchema(
		feature.NewContinuousFeature("x"),
		feature.NewContinuousFeature("rounded"),
		feature.NewDiscreteFeature("region", testLevels),
		feature.NewContinuousFeature("constant"),
	)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	targets := make([]float64, n)
	effects := []float64{0, 4, -2, 1}
	for i := range rows {
		x := rng.Float64() * 10
		rounded := math.Round(rng.Float64()*20) / 2
		region := rng.Intn(len(testLevels))
		rows[i] = []float64{x, rounded, float64(region), 1}
		targets[i] = 3*x + effects[region] + math.Sin(rounded) + rng.NormFloat64()*0.5
	}
	f, err := dataset.New(s, "y", rows, targets)
	require.NoError(t, err)
	return f
}

func lineFrame(t *testing.T, n int) *dataset.Frame {
	s, err := feature.NewSchema(feature.NewContinuousFeature("x"))
	require.NoError(t, err)
	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		targets[i] = float64(i)
	}
	f, err := dataset.New(s, "y", rows, targets)
	require.NoError(t, err)
	return f
}

func trainingMSE(t *testing.T, tr *tree.Tree, tb dataset.Table) float64 {
	predictions, err := tr.PredictTable(tb)
	require.NoError(t, err)
	var sum float64
	for i, p := range predictions {
		d := p - tb.Target(i)
		sum += d * d
	}
	return sum / float64(tb.Len())
}

func requireValidGrowth(t *testing.T, tr *tree.Tree, tb dataset.Table, p Params) {
	require.LessOrEqual(t, tr.Len(), p.MaxNodes)
	require.LessOrEqual(t, tr.Depth(), p.MaxDepth)
	require.Equal(t, tb.Len(), tr.Root().Count)
	reached := make(map[int][]float64)
	for i := 0; i < tb.Len(); i++ {
		leaf, err := tr.Leaf(dataset.Row(tb, i))
		require.NoError(t, err)
		reached[leaf.ID] = append(reached[leaf.ID], tb.Target(i))
	}
	for _, n := range tr.Nodes() {
		if n.Leaf() {
			require.GreaterOrEqual(t, n.Count, p.MinLeafSize, "leaf %d", n.ID)
			require.Len(t, reached[n.ID], n.Count, "leaf %d", n.ID)
			var sum float64
			for _, v := range reached[n.ID] {
				sum += v
			}
			require.InDelta(t, sum/float64(n.Count), n.Mean, 1e-9, "leaf %d", n.ID)
			continue
		}
		left, right := tr.Node(n.Left), tr.Node(n.Right)
		require.Equal(t, n.Count, left.Count+right.Count, "node %d", n.ID)
		require.Greater(t, n.Reduction, 0.0, "node %d", n.ID)
		require.InDelta(t, n.SS-left.SS-right.SS, n.Reduction, 1e-6*(1+n.SS), "node %d", n.ID)
	}
}

func TestFit(t *testing.T) {
	f := randomFrame(t, 300, 1)
	tr, err := Fit(f)
	require.NoError(t, err)
	require.Greater(t, tr.Len(), 1)
	require.Equal(t, "y", tr.Response())
	requireValidGrowth(t, tr, f, DefaultParams())
	require.Less(t, trainingMSE(t, tr, f), tr.Root().SS/float64(f.Len()))
}

func TestFitLimited(t *testing.T) {
	f := randomFrame(t, 300, 2)
	for _, limits := range []struct{ depth, nodes int }{{1, 100}, {2, 5}, {3, 4}, {10, 1}, {4, 15}} {
		tr, err := FitLimited(f, limits.depth, limits.nodes)
		require.NoError(t, err)
		p := DefaultParams()
		p.MaxDepth = limits.depth
		p.MaxNodes = limits.nodes
		requireValidGrowth(t, tr, f, p)
	}
	tr, err := FitLimited(f, 1, DefaultMaxNodes)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
}

func TestFitPerfectFit(t *testing.T) {
	f := lineFrame(t, 16)
	p := DefaultParams()
	p.MinLeafSize = 1
	tr, err := FitWith(context.Background(), f, p)
	require.NoError(t, err)
	require.Equal(t, 16, tr.Leaves())
	require.InDelta(t, 0, trainingMSE(t, tr, f), 1e-9)
	requireValidGrowth(t, tr, f, p)
}

func TestFitMonotonicError(t *testing.T) {
	f := randomFrame(t, 200, 3)
	previous := math.Inf(1)
	var previousLen int
	for maxNodes := 1; maxNodes <= 41; maxNodes += 2 {
		tr, err := FitLimited(f, DefaultMaxDepth, maxNodes)
		require.NoError(t, err)
		require.GreaterOrEqual(t, tr.Len(), previousLen)
		mse := trainingMSE(t, tr, f)
		require.LessOrEqual(t, mse, previous+1e-9, "max nodes %d", maxNodes)
		previous = mse
		previousLen = tr.Len()
	}
}

func TestFitBudgetPrefix(t *testing.T) {
	f := randomFrame(t, 200, 4)
	small, err := FitLimited(f, DefaultMaxDepth, 9)
	require.NoError(t, err)
	large, err := FitLimited(f, DefaultMaxDepth, 21)
	require.NoError(t, err)
	for _, n := range small.Nodes() {
		ln := large.Node(n.ID)
		require.Equal(t, n.Count, ln.Count)
		require.Equal(t, n.Mean, ln.Mean)
		if !n.Leaf() {
			require.Equal(t, n.Criterion.String(), ln.Criterion.String())
			require.Equal(t, n.Left, ln.Left)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	f := randomFrame(t, 250, 5)
	var nodes [][]tree.Node
	for _, parallelism := range []int{1, 2, 8, 1} {
		p := DefaultParams()
		p.Parallelism = parallelism
		p.MaxNodes = 51
		tr, err := FitWith(context.Background(), f, p)
		require.NoError(t, err)
		nodes = append(nodes, tr.Nodes())
	}
	for _, ns := range nodes[1:] {
		require.Equal(t, nodes[0], ns)
	}
}

func TestFitImportance(t *testing.T) {
	f := randomFrame(t, 300, 6)
	tr, err := Fit(f)
	require.NoError(t, err)
	importance := tr.Importance()
	require.Len(t, importance, 4)
	var total float64
	for _, v := range importance {
		require.GreaterOrEqual(t, v, 0.0)
		total += v
	}
	var leafSS float64
	err = tr.Traverse(false, func(n tree.Node) error {
		if n.Leaf() {
			leafSS += n.SS
			return nil
		}
		require.NotEqual(t, 3, n.Criterion.Column())
		return nil
	})
	require.NoError(t, err)
	require.InDelta(t, tr.Root().SS-leafSS, total, 1e-6*tr.Root().SS)
	require.Zero(t, importance[3])
	require.Greater(t, importance[0], importance[1])
}

func TestFitDiscrete(t *testing.T) {
	s, err := feature.NewSchema(feature.NewDiscreteFeature("c", []string{"a", "b", "c"}))
	require.NoError(t, err)
	var rows [][]float64
	var targets []float64
	for i := 0; i < 30; i++ {
		level := i % 3
		rows = append(rows, []float64{float64(level)})
		if level == 1 {
			targets = append(targets, 10)
		} else {
			targets = append(targets, 0)
		}
	}
	f, err := dataset.New(s, "y", rows, targets)
	require.NoError(t, err)
	tr, err := Fit(f)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
	criterion, ok := tr.Root().Criterion.(feature.DiscreteCriterion)
	require.True(t, ok)
	require.Equal(t, 1, criterion.Level())
	require.Equal(t, "c = b", criterion.String())
	require.InDelta(t, 10, tr.Node(tr.Root().Left).Mean, 1e-9)
	require.InDelta(t, 0, tr.Node(tr.Root().Right).Mean, 1e-9)
	prediction, err := tr.PredictRecord(map[string]string{"c": "d"})
	require.NoError(t, err)
	require.InDelta(t, 0, prediction, 1e-9)
}

func TestFitThreshold(t *testing.T) {
	s, err := feature.NewSchema(feature.NewContinuousFeature("first"), feature.NewContinuousFeature("second"))
	require.NoError(t, err)
	var rows [][]float64
	var targets []float64
	for i := 1; i <= 10; i++ {
		rows = append(rows, []float64{float64(i), float64(i)})
		if i <= 5 {
			targets = append(targets, 0)
		} else {
			targets = append(targets, 1)
		}
	}
	f, err := dataset.New(s, "y", rows, targets)
	require.NoError(t, err)
	p := DefaultParams()
	p.MinLeafSize = 1
	tr, err := FitWith(context.Background(), f, p)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
	criterion, ok := tr.Root().Criterion.(feature.ContinuousCriterion)
	require.True(t, ok)
	require.Equal(t, 0, criterion.Column())
	require.Equal(t, 5.5, criterion.Threshold())
	require.Equal(t, 2.5, tr.Root().Reduction)
}

func TestFitFeatures(t *testing.T) {
	f := randomFrame(t, 200, 7)
	p := DefaultParams()
	p.Features = []int{2}
	tr, err := FitWith(context.Background(), f, p)
	require.NoError(t, err)
	require.Greater(t, tr.Len(), 1)
	for _, n := range tr.Nodes() {
		if !n.Leaf() {
			require.Equal(t, 2, n.Criterion.Column())
		}
	}
	p.Features = []int{4}
	_, err = FitWith(context.Background(), f, p)
	var ipe *InvalidParameterError
	require.True(t, errors.As(err, &ipe))
	require.Equal(t, "Features", ipe.Name)
}

func TestFitPruner(t *testing.T) {
	f := randomFrame(t, 200, 8)
	p := DefaultParams()
	p.Pruner = MinReductionPruner(1)
	tr, err := FitWith(context.Background(), f, p)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())

	var seen, inconsistent atomic.Int64
	p.Pruner = PrunerFunc(func(s *Split) bool {
		seen.Add(1)
		if math.Abs(s.Total.SS()-s.Left.SS()-s.Right.SS()-s.Reduction) > 1e-6*(1+s.Total.SS()) {
			inconsistent.Add(1)
		}
		return s.Left.Count < 20 || s.Right.Count < 20
	})
	tr, err = FitWith(context.Background(), f, p)
	require.NoError(t, err)
	require.Greater(t, seen.Load(), int64(0))
	require.Zero(t, inconsistent.Load())
	for _, n := range tr.Nodes() {
		if n.Leaf() && n.ID != 0 {
			require.GreaterOrEqual(t, n.Count, 20)
		}
	}
}

func TestFitErrors(t *testing.T) {
	f := lineFrame(t, 9)
	_, err := Fit(f)
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	require.Equal(t, 9, ide.Rows)
	require.Equal(t, DefaultMinLeafSize, ide.MinLeafSize)

	for name, mutate := range map[string]func(*Params){
		"MaxDepth":    func(p *Params) { p.MaxDepth = 0 },
		"MaxNodes":    func(p *Params) { p.MaxNodes = -1 },
		"MinLeafSize": func(p *Params) { p.MinLeafSize = 0 },
		"Parallelism": func(p *Params) { p.Parallelism = 0 },
		"Features":    func(p *Params) { p.Features = []int{0, 0} },
	} {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			_, err := New(p)
			var ipe *InvalidParameterError
			require.True(t, errors.As(err, &ipe))
			require.Equal(t, name, ipe.Name)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FitWith(ctx, lineFrame(t, 20), DefaultParams())
	require.ErrorIs(t, err, context.Canceled)
}

// rawTable is a Table that does not check its values.
type rawTable struct {
	schema  *feature.Schema
	rows    [][]float64
	targets []float64
}

func (rt *rawTable) Schema() *feature.Schema       { return rt.schema }
func (rt *rawTable) Response() string              { return "y" }
func (rt *rawTable) Len() int                      { return len(rt.rows) }
func (rt *rawTable) Value(row, column int) float64 { return rt.rows[row][column] }
func (rt *rawTable) Target(row int) float64        { return rt.targets[row] }

func TestFitInvalidTable(t *testing.T) {
	s, err := feature.NewSchema(
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("side", []string{"left", "right"}),
	)
	require.NoError(t, err)
	p := DefaultParams()
	p.MinLeafSize = 1
	for name, tc := range map[string]struct {
		x, side, y []float64
		feature    string
	}{
		"unknown level":  {[]float64{0, 1, 2, 3}, []float64{0, 1, -1, 0}, []float64{1, 2, 3, 4}, "side"},
		"missing value":  {[]float64{math.NaN(), 1, 2, 3}, []float64{0, 1, 1, 0}, []float64{1, 2, 3, 4}, "x"},
		"infinite value": {[]float64{0, math.Inf(1), 2, 3}, []float64{0, 1, 1, 0}, []float64{1, 2, 3, 4}, "x"},
		"missing target": {[]float64{0, 1, 2, 3}, []float64{0, 1, 1, 0}, []float64{1, math.NaN(), 3, 4}, "y"},
	} {
		t.Run(name, func(t *testing.T) {
			rt := &rawTable{schema: s, targets: tc.y}
			for i := range tc.x {
				rt.rows = append(rt.rows, []float64{tc.x[i], tc.side[i]})
			}
			tr, err := FitWith(context.Background(), rt, p)
			require.Nil(t, tr)
			var sme *feature.SchemaMismatchError
			require.True(t, errors.As(err, &sme), "got %v", err)
			require.Equal(t, tc.feature, sme.Feature)
		})
	}

	rt := &rawTable{schema: s, targets: []float64{1, 2, 3, 4}}
	for i := 0; i < 4; i++ {
		rt.rows = append(rt.rows, []float64{float64(i), float64(i % 2)})
	}
	tr, err := FitWith(context.Background(), rt, p)
	require.NoError(t, err)
	require.Greater(t, tr.Len(), 1)
}

func TestFitBudgetExhaustedLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := DefaultParams()
	p.MaxNodes = 5
	p.Logger = zap.New(core)
	tr, err := FitWith(context.Background(), lineFrame(t, 40), p)
	require.NoError(t, err)
	require.Equal(t, 5, tr.Len())

	entries := logs.FilterMessage("node budget exhausted").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, int64(5), fields["nodes"])
	require.Equal(t, int64(1), fields["pending"])
	require.Contains(t, []int64{1, 2}, fields["next node"])
	require.Greater(t, fields["next reduction"], 0.0)
	require.Equal(t, 2, logs.FilterMessage("split node").Len())
}

func TestGrowerConcurrentUse(t *testing.T) {
	f := randomFrame(t, 200, 9)
	g, err := New(DefaultParams())
	require.NoError(t, err)
	expected, err := g.Grow(context.Background(), f)
	require.NoError(t, err)
	results := make(chan *tree.Tree, 4)
	for i := 0; i < 4; i++ {
		go func() {
			tr, err := g.Grow(context.Background(), f)
			if err != nil {
				results <- nil
				return
			}
			results <- tr
		}()
	}
	for i := 0; i < 4; i++ {
		tr := <-results
		require.NotNil(t, tr)
		require.Equal(t, expected.Nodes(), tr.Nodes())
	}
}
