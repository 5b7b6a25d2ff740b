/*
Package validation estimates how well regression trees generalize by
growing them on part of a table and predicting the rest.
*/
package validation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"slices"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Trainer grows a tree from a table, like regtree.Fit does.
type Trainer func(dataset.Table) (*tree.Tree, error)

// Options configure a cross validation.
type Options struct {
	// Seed for the permutation of rows into folds.
	// 0 assigns rows to folds in table order.
	Seed int64
	// Parallelism is the maximum number of folds
	// evaluated at the same time. GOMAXPROCS when 0.
	Parallelism int
	// Logger receives a debug entry per evaluated fold.
	Logger *zap.Logger
}

// Result holds the outcome of a cross validation.
type Result struct {
	// Folds are the table rows held out on each fold
	Folds [][]int
	// Predictions for every table row, made by the
	// tree grown without the fold of the row.
	Predictions []float64
	// FoldRMSE is the root mean squared error of each fold
	FoldRMSE []float64
	// Aggregated errors over all the predictions
	RMSE, MSE, MAE float64
	// Mean and standard deviation of FoldRMSE
	MeanFoldRMSE, StdDevFoldRMSE float64
}

func (r *Result) String() string {
	return fmt.Sprintf("%d folds: RMSE = %g, MSE = %g, MAE = %g, fold RMSE = %g ± %g", len(r.Folds), r.RMSE, r.MSE, r.MAE, r.MeanFoldRMSE, r.StdDevFoldRMSE)
}

/*
KFold takes a number of rows n, a number of folds k and a seed and returns
k disjoint folds of rows covering all of them, with sizes that differ by at
most one. Rows are permuted with the seed before being assigned to folds,
except for seed 0, which keeps them in order. Each fold is sorted. The same
arguments always produce the same folds.
*/
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("cannot make %d folds out of %d rows", k, n)
	}
	var order []int
	if seed == 0 {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	} else {
		order = rand.New(rand.NewSource(seed)).Perm(n)
	}
	folds := make([][]int, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		fold := append([]int{}, order[start:start+size]...)
		slices.Sort(fold)
		folds[i] = fold
		start += size
	}
	return folds, nil
}

/*
CrossValidate takes a context, a table, a number of folds, a trainer and
options, and evaluates the trainer by k-fold cross validation: for each fold
it grows a tree with the rest of the rows and predicts the rows of the fold.
Folds are evaluated concurrently. The first trainer or prediction error
aborts the validation and is returned.
*/
func CrossValidate(ctx context.Context, t dataset.Table, k int, trainer Trainer, opts Options) (*Result, error) {
	folds, err := KFold(t.Len(), k, opts.Seed)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	truth := dataset.Targets(t)
	predictions := make([]float64, t.Len())
	foldRMSE := make([]float64, k)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)
	for i, fold := range folds {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := trainer(dataset.Subset(t, complement(fold, t.Len())))
			if err != nil {
				return fmt.Errorf("growing tree for fold %d: %w", i, err)
			}
			fp, err := tr.PredictTable(dataset.Subset(t, fold))
			if err != nil {
				return fmt.Errorf("predicting fold %d: %w", i, err)
			}
			ft := make([]float64, len(fold))
			for j, r := range fold {
				predictions[r] = fp[j]
				ft[j] = truth[r]
			}
			foldRMSE[i], err = RMSE(fp, ft)
			if err != nil {
				return err
			}
			logger.Debug("evaluated fold", zap.Int("fold", i), zap.Int("rows", len(fold)), zap.Int("nodes", tr.Len()), zap.Float64("rmse", foldRMSE[i]))
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	result := &Result{Folds: folds, Predictions: predictions, FoldRMSE: foldRMSE}
	if result.MSE, err = MSE(predictions, truth); err != nil {
		return nil, err
	}
	if result.RMSE, err = RMSE(predictions, truth); err != nil {
		return nil, err
	}
	if result.MAE, err = MAE(predictions, truth); err != nil {
		return nil, err
	}
	result.MeanFoldRMSE, result.StdDevFoldRMSE = stat.MeanStdDev(foldRMSE, nil)
	return result, nil
}

/*
LOOCV evaluates the trainer by leave-one-out cross validation, that is, with
as many folds as rows in the table.
*/
func LOOCV(ctx context.Context, t dataset.Table, trainer Trainer, opts Options) (*Result, error) {
	return CrossValidate(ctx, t, t.Len(), trainer, opts)
}

// complement returns the rows below n not in the sorted fold, in order.
func complement(fold []int, n int) []int {
	rows := make([]int, 0, n-len(fold))
	j := 0
	for r := 0; r < n; r++ {
		if j < len(fold) && fold[j] == r {
			j++
			continue
		}
		rows = append(rows, r)
	}
	return rows
}
