package validation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pbanos/regtree"
	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/tree"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T, n int) *dataset.Frame {
	s, err := feature.NewSchema(
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("c", []string{"a", "b"}),
	)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(11))
	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := range rows {
		x := rng.Float64() * 4
		c := rng.Intn(2)
		rows[i] = []float64{x, float64(c)}
		targets[i] = math.Floor(x) + 5*float64(c) + rng.NormFloat64()*0.1
	}
	f, err := dataset.New(s, "y", rows, targets)
	require.NoError(t, err)
	return f
}

func TestKFold(t *testing.T) {
	cases := []struct {
		n, k int
		seed int64
	}{
		{10, 2, 0},
		{10, 3, 0},
		{17, 5, 3},
		{8, 8, 42},
	}
	for _, c := range cases {
		folds, err := KFold(c.n, c.k, c.seed)
		require.NoError(t, err)
		require.Len(t, folds, c.k)
		seen := make([]bool, c.n)
		for _, fold := range folds {
			require.InDelta(t, float64(c.n)/float64(c.k), float64(len(fold)), 1)
			for j, r := range fold {
				require.False(t, seen[r], "row %d in more than one fold", r)
				seen[r] = true
				if j > 0 {
					require.Less(t, fold[j-1], r)
				}
			}
		}
		for r, ok := range seen {
			require.True(t, ok, "row %d in no fold", r)
		}
		again, err := KFold(c.n, c.k, c.seed)
		require.NoError(t, err)
		require.Equal(t, folds, again)
	}
	folds, err := KFold(10, 3, 0)
	require.NoError(t, err)
	require.Equal(t, [][]int{{0, 1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, folds)

	for _, k := range []int{0, 1, 11} {
		_, err = KFold(10, k, 0)
		require.Error(t, err)
	}
}

func TestMetrics(t *testing.T) {
	predictions := []float64{1, 2, 3, 4}
	truth := []float64{1, 4, 2, 4}
	mse, err := MSE(predictions, truth)
	require.NoError(t, err)
	require.InDelta(t, 1.25, mse, 1e-12)
	rmse, err := RMSE(predictions, truth)
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(1.25), rmse, 1e-12)
	mae, err := MAE(predictions, truth)
	require.NoError(t, err)
	require.InDelta(t, 0.75, mae, 1e-12)

	_, err = MSE(predictions, truth[:3])
	require.Error(t, err)
	_, err = MAE(nil, nil)
	require.Error(t, err)
}

func TestComplement(t *testing.T) {
	require.Equal(t, []int{0, 2, 4, 5}, complement([]int{1, 3, 6}, 7))
	require.Equal(t, []int{}, complement([]int{0, 1}, 2))
}

func TestCrossValidate(t *testing.T) {
	f := testFrame(t, 120)
	result, err := CrossValidate(context.Background(), f, 5, regtree.Fit, Options{Seed: 7})
	require.NoError(t, err)
	require.Len(t, result.Folds, 5)
	require.Len(t, result.Predictions, 120)
	require.Len(t, result.FoldRMSE, 5)
	require.InDelta(t, math.Sqrt(result.MSE), result.RMSE, 1e-12)
	require.LessOrEqual(t, result.MAE, result.RMSE)
	require.Less(t, result.RMSE, 1.0)
	require.Greater(t, result.MeanFoldRMSE, 0.0)
	require.Contains(t, result.String(), "5 folds")

	again, err := CrossValidate(context.Background(), f, 5, regtree.Fit, Options{Seed: 7, Parallelism: 1})
	require.NoError(t, err)
	require.Equal(t, result.Predictions, again.Predictions)
	require.Equal(t, result.RMSE, again.RMSE)
}

func TestCrossValidateErrors(t *testing.T) {
	f := testFrame(t, 30)
	failure := errors.New("no tree today")
	_, err := CrossValidate(context.Background(), f, 3, func(dataset.Table) (*tree.Tree, error) {
		return nil, failure
	}, Options{})
	require.ErrorIs(t, err, failure)

	_, err = CrossValidate(context.Background(), f, 31, regtree.Fit, Options{})
	require.Error(t, err)

	_, err = CrossValidate(context.Background(), testFrame(t, 12), 2, regtree.Fit, Options{})
	var ide *regtree.InsufficientDataError
	require.True(t, errors.As(err, &ide))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CrossValidate(ctx, f, 3, regtree.Fit, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLOOCV(t *testing.T) {
	f := testFrame(t, 25)
	trainer := func(tb dataset.Table) (*tree.Tree, error) {
		return regtree.FitLimited(tb, 2, 7)
	}
	result, err := LOOCV(context.Background(), f, trainer, Options{})
	require.NoError(t, err)
	require.Len(t, result.Folds, 25)
	for i, fold := range result.Folds {
		require.Equal(t, []int{i}, fold)
		require.InDelta(t, math.Abs(result.Predictions[i]-f.Target(i)), result.FoldRMSE[i], 1e-12)
	}
	again, err := LOOCV(context.Background(), f, trainer, Options{Parallelism: 3})
	require.NoError(t, err)
	require.Equal(t, result.RMSE, again.RMSE)
}
