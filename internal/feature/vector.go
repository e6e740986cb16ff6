package feature

import "github.com/foodbank-planner/backend-go/internal/domain"

// Columns is the fixed order of the model's feature vector.
var Columns = []string{
	domain.ColDaysUntilExpiry,
	domain.ColFoodType,
	domain.ColCurrentQuantity,
	domain.ColNutritionalRatio,
	domain.ColWeeklyCustomers,
	domain.ColCalories,
	domain.ColSugars,
}

// CategoricalColumns are label-encoded before training.
var CategoricalColumns = []string{domain.ColFoodType, domain.ColFoodItem}

// Matrix builds the unscaled feature rows from records and the encoded
// food_type codes.
func Matrix(records []domain.InventoryRecord, foodTypeCodes []int) [][]float64 {
	rows := make([][]float64, len(records))
	for i, r := range records {
		rows[i] = []float64{
			float64(r.DaysUntilExpiry),
			float64(foodTypeCodes[i]),
			r.CurrentQuantity,
			r.NutritionalRatio,
			float64(r.WeeklyCustomers),
			r.Calories,
			r.Sugars,
		}
	}
	return rows
}

// Values extracts the category values of a categorical column.
func Values(records []domain.InventoryRecord, column string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		switch column {
		case domain.ColFoodItem:
			out[i] = r.FoodItem
		case domain.ColFoodType:
			out[i] = r.FoodType
		}
	}
	return out
}
