// Package heuristic computes the deterministic scores used as training labels
// for the distribution model.
package heuristic

import "github.com/foodbank-planner/backend-go/internal/domain"

// Weights of the priority sub-scores. They add up to 100.
const (
	UrgencyWeight   = 40.0
	NutritionWeight = 25.0
	StockWeight     = 35.0
)

// PriorityScore computes the priority label of a single record:
//
//	40/(days_until_expiry+1) + 25*nutritional_ratio + 35*(current_quantity/weekly_customers)
func PriorityScore(r domain.InventoryRecord) float64 {
	// 1. Urgency: items closer to expiration get higher priority
	urgency := UrgencyWeight / expiryDenominator(r.DaysUntilExpiry)

	// 2. Nutrition: better calorie to sugar ratio gets higher priority
	nutrition := NutritionWeight * r.NutritionalRatio

	// 3. Stock pressure relative to demand
	stock := StockWeight * (r.CurrentQuantity / demand(r.WeeklyCustomers))

	return urgency + nutrition + stock
}

// PriorityScores computes PriorityScore for every record.
func PriorityScores(records []domain.InventoryRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = PriorityScore(r)
	}
	return out
}

// demand floors weekly customers at 1 so an item without recorded demand
// cannot divide by zero.
func demand(weeklyCustomers int) float64 {
	if weeklyCustomers < 1 {
		return 1
	}
	return float64(weeklyCustomers)
}

// expiryDenominator returns days_until_expiry+1. Expired items keep their
// negative denominator and fall down the ranking; only an item that expired
// yesterday, whose denominator would be zero, is scored as expiring today.
func expiryDenominator(days int) float64 {
	d := float64(days) + 1
	if d == 0 {
		return 1
	}
	return d
}
