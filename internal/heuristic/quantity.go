package heuristic

import (
	"math"

	"github.com/foodbank-planner/backend-go/internal/domain"
)

// MinQuantity is the smallest allocation any item receives.
const MinQuantity = 1.0

// RecommendedQuantities computes the quantity label of every record. The
// nutrition factor is relative to the best nutritional ratio of the batch, so
// the result is only meaningful for the batch it was computed on.
func RecommendedQuantities(records []domain.InventoryRecord) []float64 {
	maxRatio := math.Inf(-1)
	for _, r := range records {
		maxRatio = math.Max(maxRatio, r.NutritionalRatio)
	}

	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = recommendedQuantity(r, maxRatio)
	}
	return out
}

func recommendedQuantity(r domain.InventoryRecord, maxRatio float64) float64 {
	// 1. Base quantity = stock / demand
	base := r.CurrentQuantity / demand(r.WeeklyCustomers)

	// 2. Expiry factor = 1 + 1/(days+1)
	expiryFactor := 1 + 1/expiryDenominator(r.DaysUntilExpiry)

	// 3. Nutrition factor = 1 + ratio / batch max ratio
	nutritionFactor := 1.0
	if maxRatio > 0 {
		nutritionFactor = 1 + r.NutritionalRatio/maxRatio
	}

	// 4. Every item gets at least one unit
	return math.Max(base*expiryFactor*nutritionFactor, MinQuantity)
}
