package planner

import (
	"fmt"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/feature"
	"github.com/foodbank-planner/backend-go/internal/forest"
	"github.com/foodbank-planner/backend-go/internal/heuristic"
)

// ModelState is everything learned by one training call: category
// vocabularies, scaling statistics and the regression engine. It is never
// mutated after fit; retraining builds a new state.
type ModelState struct {
	encoder *feature.LabelEncoder
	scaler  *feature.StandardScaler
	engine  *RegressionEngine
	rows    int
}

// fitState trains a fresh state on records.
func fitState(records []domain.InventoryRecord, cfg forest.Config) (*ModelState, error) {
	s := &ModelState{
		encoder: feature.NewLabelEncoder(),
		scaler:  feature.NewStandardScaler(),
		engine:  NewRegressionEngine(cfg),
		rows:    len(records),
	}

	var foodTypeCodes []int
	for _, col := range feature.CategoricalColumns {
		codes := s.encoder.FitTransform(col, feature.Values(records, col))
		if col == domain.ColFoodType {
			foodTypeCodes = codes
		}
	}

	x, err := s.scaler.FitTransform(feature.Matrix(records, foodTypeCodes))
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	// Labels come from the raw records, not from the encoded features.
	priority := heuristic.PriorityScores(records)
	quantity := heuristic.RecommendedQuantities(records)

	if err := s.engine.Train(x, priority, quantity); err != nil {
		return nil, fmt.Errorf("train regression engine: %w", err)
	}
	return s, nil
}

// features encodes and scales records with the learned state.
func (s *ModelState) features(records []domain.InventoryRecord) ([][]float64, error) {
	var foodTypeCodes []int
	for _, col := range feature.CategoricalColumns {
		codes, err := s.encoder.Transform(col, feature.Values(records, col))
		if err != nil {
			return nil, err
		}
		if col == domain.ColFoodType {
			foodTypeCodes = codes
		}
	}
	return s.scaler.Transform(feature.Matrix(records, foodTypeCodes))
}
