// backend-go/internal/domain/inventory.go
package domain

import "time"

// Canonical column names of an inventory snapshot.
const (
	ColFoodItem         = "food_item"
	ColFoodType         = "food_type"
	ColCurrentQuantity  = "current_quantity"
	ColExpirationDate   = "expiration_date"
	ColDaysUntilExpiry  = "days_until_expiry"
	ColCalories         = "calories"
	ColSugars           = "sugars"
	ColNutritionalRatio = "nutritional_ratio"
	ColWeeklyCustomers  = "weekly_customers"
)

// RequiredColumns lists every column an inventory table must carry, in the
// order the store writes them.
var RequiredColumns = []string{
	ColFoodItem,
	ColFoodType,
	ColCurrentQuantity,
	ColExpirationDate,
	ColDaysUntilExpiry,
	ColCalories,
	ColSugars,
	ColNutritionalRatio,
	ColWeeklyCustomers,
}

// DefaultWeeklyCustomers is used for items added without a demand history.
const DefaultWeeklyCustomers = 100

// InventoryRecord is one row of a user's inventory snapshot.
type InventoryRecord struct {
	FoodItem         string    `json:"food_item"`
	FoodType         string    `json:"food_type"`
	CurrentQuantity  float64   `json:"current_quantity"`
	ExpirationDate   time.Time `json:"expiration_date"`
	DaysUntilExpiry  int       `json:"days_until_expiry"`
	Calories         float64   `json:"calories"`
	Sugars           float64   `json:"sugars"`
	NutritionalRatio float64   `json:"nutritional_ratio"`
	WeeklyCustomers  int       `json:"weekly_customers"`
}

// NutritionalRatio returns calories / (sugars + 1).
func NutritionalRatio(calories, sugars float64) float64 {
	return calories / (sugars + 1)
}

// Derive recomputes the derived fields of the record. The stored
// nutritional_ratio is never trusted.
func (r *InventoryRecord) Derive() {
	r.NutritionalRatio = NutritionalRatio(r.Calories, r.Sugars)
}

// DaysUntil returns whole days between now and the expiration date, truncated
// toward zero.
func DaysUntil(expiration, now time.Time) int {
	return int(expiration.Sub(now) / (24 * time.Hour))
}

// Validate checks the value ranges of a record. row is used for error context.
func (r *InventoryRecord) Validate(row int) error {
	switch {
	case r.FoodItem == "":
		return &FieldError{Row: row, Field: ColFoodItem, Reason: "must not be empty"}
	case r.FoodType == "":
		return &FieldError{Row: row, Field: ColFoodType, Reason: "must not be empty"}
	case r.CurrentQuantity < 0:
		return &FieldError{Row: row, Field: ColCurrentQuantity, Reason: "must not be negative"}
	case r.Calories < 0:
		return &FieldError{Row: row, Field: ColCalories, Reason: "must not be negative"}
	case r.Sugars < 0:
		return &FieldError{Row: row, Field: ColSugars, Reason: "must not be negative"}
	case r.WeeklyCustomers < 0:
		return &FieldError{Row: row, Field: ColWeeklyCustomers, Reason: "must not be negative"}
	}
	return nil
}

// NewItem is the payload used to append an item to a user's inventory.
type NewItem struct {
	Type             string          `json:"type"`
	Category         string          `json:"category"`
	Quantity         float64         `json:"quantity"`
	ExpirationDate   string          `json:"expiration_date"`
	NutritionalValue *NutritionFacts `json:"nutritional_value,omitempty"`
}

// NutritionFacts holds per-serving nutrition values of an item.
type NutritionFacts struct {
	Calories      float64 `json:"calories"`
	TotalFat      float64 `json:"total_fat,omitempty"`
	Protein       float64 `json:"protein,omitempty"`
	Carbohydrates float64 `json:"carbohydrates,omitempty"`
	Sugars        float64 `json:"sugars"`
	Sodium        float64 `json:"sodium,omitempty"`
}
