package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

func residuals(predictions, truth []float64) ([]float64, error) {
	if len(predictions) != len(truth) {
		return nil, fmt.Errorf("got %d predictions for %d responses", len(predictions), len(truth))
	}
	if len(truth) == 0 {
		return nil, fmt.Errorf("no predictions to evaluate")
	}
	return floats.SubTo(make([]float64, len(truth)), predictions, truth), nil
}

// MSE returns the mean squared error of the predictions.
func MSE(predictions, truth []float64) (float64, error) {
	r, err := residuals(predictions, truth)
	if err != nil {
		return 0, err
	}
	return floats.Dot(r, r) / float64(len(r)), nil
}

// RMSE returns the root mean squared error of the predictions.
func RMSE(predictions, truth []float64) (float64, error) {
	mse, err := MSE(predictions, truth)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error of the predictions.
func MAE(predictions, truth []float64) (float64, error) {
	r, err := residuals(predictions, truth)
	if err != nil {
		return 0, err
	}
	return floats.Norm(r, 1) / float64(len(r)), nil
}
