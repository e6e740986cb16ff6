// backend-go/internal/domain/table.go
package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnAliases maps human-readable spreadsheet headers to canonical names.
var ColumnAliases = map[string]string{
	"food item":                           ColFoodItem,
	"expiration":                          ColExpirationDate,
	"days until expiration":               ColDaysUntilExpiry,
	"type of food":                        ColFoodType,
	"quantity available":                  ColCurrentQuantity,
	"calories per serving":                ColCalories,
	"sugars per serving":                  ColSugars,
	"customers that week":                 ColWeeklyCustomers,
	"nutritional ratio (calories:sugars)": ColNutritionalRatio,
}

// DateLayouts are the expiration date formats accepted from spreadsheets and
// JSON payloads.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"01-02-06",
}

// NormalizeColumn returns the canonical name for a header, applying the alias
// table. Unknown headers are returned trimmed.
func NormalizeColumn(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := ColumnAliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// InventoryTable is a snapshot handed to the planner. Columns lists the
// canonical column names present in the source.
type InventoryTable struct {
	Columns []string
	Records []InventoryRecord
}

// NewInventoryTable builds a table with every required column present.
func NewInventoryTable(records []InventoryRecord) InventoryTable {
	cols := make([]string, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return InventoryTable{Columns: cols, Records: records}
}

// Len returns the number of rows.
func (t InventoryTable) Len() int {
	return len(t.Records)
}

// MissingColumns returns required columns absent from the table, in canonical order.
func (t InventoryTable) MissingColumns() []string {
	present := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = struct{}{}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// CheckSchema returns a SchemaError when required columns are missing.
func (t InventoryTable) CheckSchema() error {
	if missing := t.MissingColumns(); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// TableFromMaps builds a table from loosely typed rows, e.g. a decoded JSON
// array. A column is present when any row carries it; a row lacking a value
// for a present required column is rejected with a FieldError.
func TableFromMaps(rows []map[string]any) (InventoryTable, error) {
	normalized := make([]map[string]any, len(rows))
	seen := make(map[string]struct{})
	var columns []string
	for i, row := range rows {
		n := make(map[string]any, len(row))
		for k, v := range row {
			col := NormalizeColumn(k)
			n[col] = v
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
		normalized[i] = n
	}

	table := InventoryTable{Columns: columns}
	if err := table.CheckSchema(); err != nil {
		return table, err
	}

	table.Records = make([]InventoryRecord, 0, len(rows))
	for i, row := range normalized {
		rec, err := RecordFromMap(i, row)
		if err != nil {
			return table, err
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// RecordFromMap converts one canonical row into a record, deriving the
// nutritional ratio.
func RecordFromMap(row int, values map[string]any) (InventoryRecord, error) {
	var (
		rec InventoryRecord
		err error
	)
	if rec.FoodItem, err = stringField(row, values, ColFoodItem); err != nil {
		return rec, err
	}
	if rec.FoodType, err = stringField(row, values, ColFoodType); err != nil {
		return rec, err
	}
	if rec.CurrentQuantity, err = floatField(row, values, ColCurrentQuantity); err != nil {
		return rec, err
	}
	if rec.ExpirationDate, err = dateField(row, values, ColExpirationDate); err != nil {
		return rec, err
	}
	if rec.DaysUntilExpiry, err = intField(row, values, ColDaysUntilExpiry); err != nil {
		return rec, err
	}
	if rec.Calories, err = floatField(row, values, ColCalories); err != nil {
		return rec, err
	}
	if rec.Sugars, err = floatField(row, values, ColSugars); err != nil {
		return rec, err
	}
	if rec.WeeklyCustomers, err = intField(row, values, ColWeeklyCustomers); err != nil {
		return rec, err
	}

	rec.Derive()
	if err := rec.Validate(row); err != nil {
		return rec, err
	}
	return rec, nil
}

func stringField(row int, values map[string]any, col string) (string, error) {
	v, ok := values[col]
	if !ok || v == nil {
		return "", &FieldError{Row: row, Field: col, Reason: "is required"}
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "", &FieldError{Row: row, Field: col, Reason: "is required"}
	}
	return s, nil
}

func floatField(row int, values map[string]any, col string) (float64, error) {
	v, ok := values[col]
	if !ok || v == nil {
		return 0, &FieldError{Row: row, Field: col, Reason: "is required"}
	}
	f, err := ParseFloat(v)
	if err != nil {
		return 0, &FieldError{Row: row, Field: col, Reason: err.Error()}
	}
	return f, nil
}

// intField accepts whole numbers only, including float cells such as 5.0.
func intField(row int, values map[string]any, col string) (int, error) {
	f, err := floatField(row, values, col)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &FieldError{Row: row, Field: col, Reason: fmt.Sprintf("must be a whole number, got %v", f)}
	}
	return int(f), nil
}

func dateField(row int, values map[string]any, col string) (time.Time, error) {
	v, ok := values[col]
	if !ok || v == nil {
		return time.Time{}, &FieldError{Row: row, Field: col, Reason: "is required"}
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	t, err := ParseDate(fmt.Sprint(v))
	if err != nil {
		return time.Time{}, &FieldError{Row: row, Field: col, Reason: err.Error()}
	}
	return t, nil
}

// ParseFloat converts JSON numbers, Go numerics and numeric strings to float64.
func ParseFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("is not a number: %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("has unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("is not a finite number")
	}
	return f, nil
}

// ParseDate parses a date using DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("is not a date: %q", s)
}
