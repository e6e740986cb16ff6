package planner

import (
	"fmt"

	"github.com/foodbank-planner/backend-go/internal/forest"
)

// Output positions in the forest's target vectors.
const (
	outputPriority = 0
	outputQuantity = 1
)

// RegressionEngine jointly approximates the priority and quantity labels with
// a single two-output forest.
type RegressionEngine struct {
	forest *forest.Forest
}

// NewRegressionEngine creates an untrained engine.
func NewRegressionEngine(cfg forest.Config) *RegressionEngine {
	return &RegressionEngine{forest: forest.New(cfg)}
}

// Train fits the engine on encoded feature rows and both label vectors.
func (e *RegressionEngine) Train(x [][]float64, priority, quantity []float64) error {
	if len(priority) != len(x) || len(quantity) != len(x) {
		return fmt.Errorf("label lengths (%d, %d) do not match %d feature rows", len(priority), len(quantity), len(x))
	}
	y := make([][]float64, len(x))
	for i := range y {
		y[i] = []float64{priority[i], quantity[i]}
	}
	return e.forest.Fit(x, y)
}

// Predict returns predicted priority scores and recommended quantities.
func (e *RegressionEngine) Predict(x [][]float64) ([]float64, []float64, error) {
	preds, err := e.forest.Predict(x)
	if err != nil {
		return nil, nil, err
	}
	priority := make([]float64, len(preds))
	quantity := make([]float64, len(preds))
	for i, p := range preds {
		priority[i] = p[outputPriority]
		quantity[i] = p[outputQuantity]
	}
	return priority, quantity, nil
}
