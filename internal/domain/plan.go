// backend-go/internal/domain/plan.go
package domain

import "time"

// PlanEntry is one ranked row of a distribution plan.
type PlanEntry struct {
	InventoryRecord
	RecommendedQuantity float64 `json:"recommended_quantity"`
	PriorityScore       float64 `json:"priority_score"`
	Rank                int     `json:"rank"`
}

// PlanItem is the trimmed view of a plan entry returned by the API.
type PlanItem struct {
	FoodItem            string  `json:"food_item"`
	FoodType            string  `json:"food_type"`
	DaysUntilExpiry     int     `json:"days_until_expiry"`
	CurrentQuantity     float64 `json:"current_quantity"`
	RecommendedQuantity float64 `json:"recommended_quantity"`
	PriorityScore       float64 `json:"priority_score"`
	Rank                int     `json:"rank"`
}

// Item returns the API view of the entry.
func (e PlanEntry) Item() PlanItem {
	return PlanItem{
		FoodItem:            e.FoodItem,
		FoodType:            e.FoodType,
		DaysUntilExpiry:     e.DaysUntilExpiry,
		CurrentQuantity:     e.CurrentQuantity,
		RecommendedQuantity: e.RecommendedQuantity,
		PriorityScore:       e.PriorityScore,
		Rank:                e.Rank,
	}
}

// PlanItems converts entries to API items, keeping at most topN rows when topN > 0.
func PlanItems(plan []PlanEntry, topN int) []PlanItem {
	n := len(plan)
	if topN > 0 && topN < n {
		n = topN
	}
	items := make([]PlanItem, 0, n)
	for _, e := range plan[:n] {
		items = append(items, e.Item())
	}
	return items
}

// PlanRun records one planning execution for a user.
type PlanRun struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	ItemCount   int       `json:"item_count" db:"item_count"`
	TopItem     string    `json:"top_item" db:"top_item"`
	TopPriority float64   `json:"top_priority" db:"top_priority"`
	DurationMS  int64     `json:"duration_ms" db:"duration_ms"`
	ExportKey   string    `json:"export_key,omitempty" db:"export_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
