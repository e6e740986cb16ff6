package feature

import (
	"fmt"
	"math"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// MinVariance is the variance below which a column is treated as constant.
// Constant columns are centred but not rescaled.
const MinVariance = 1e-12

// StandardScaler standardizes columns to zero mean and unit variance.
// Formula: z = (x - mean) / sqrt(variance), with population variance.
type StandardScaler struct {
	Mean     []float64
	Variance []float64
	scale    []float64
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fitted reports whether statistics have been learned.
func (s *StandardScaler) Fitted() bool {
	return s.scale != nil
}

// FitTransform learns per-column statistics from rows and returns the
// standardized rows. The input is not modified.
func (s *StandardScaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on zero rows")
	}
	width := len(rows[0])
	mean := make([]float64, width)
	variance := make([]float64, width)
	scale := make([]float64, width)

	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
			}
			col[i] = row[j]
		}
		mean[j], variance[j] = stat.PopMeanVariance(col, nil)
		scale[j] = 1
		if variance[j] >= MinVariance {
			scale[j] = math.Sqrt(variance[j])
		}
	}

	s.Mean, s.Variance, s.scale = mean, variance, scale
	return s.apply(rows), nil
}

// Transform standardizes rows with the stored statistics.
func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	if !s.Fitted() {
		return nil, &domain.NotFittedError{Component: "standard scaler"}
	}
	for i, row := range rows {
		if len(row) != len(s.scale) {
			return nil, fmt.Errorf("row %d has %d columns, scaler was fitted on %d", i, len(row), len(s.scale))
		}
	}
	return s.apply(rows), nil
}

func (s *StandardScaler) apply(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.scale[j]
		}
		out[i] = z
	}
	return out
}
