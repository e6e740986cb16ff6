package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), 0)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return s
}

func milk() domain.NewItem {
	return domain.NewItem{
		Type:           "milk",
		Category:       "dairy",
		Quantity:       40,
		ExpirationDate: "2026-10-20",
		NutritionalValue: &domain.NutritionFacts{
			Calories: 120,
			Sugars:   11,
		},
	}
}

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestStore_EnsureUserFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	path, err := s.EnsureUserFile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.DataDir(), "inventory_alice.xlsx"), path)
	assert.FileExists(t, path)

	table, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RequiredColumns, table.Columns)
	assert.Zero(t, table.Len())
}

func TestStore_AddItemThenLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddItem(ctx, "alice", milk())
	require.NoError(t, err)
	assert.Equal(t, 4, added.DaysUntilExpiry)
	assert.Equal(t, 10.0, added.NutritionalRatio)
	assert.Equal(t, domain.DefaultWeeklyCustomers, added.WeeklyCustomers)

	second := milk()
	second.Type = "yogurt"
	_, err = s.AddItem(ctx, "alice", second)
	require.NoError(t, err)

	table, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	got := table.Records[0]
	assert.Equal(t, "milk", got.FoodItem)
	assert.Equal(t, "dairy", got.FoodType)
	assert.Equal(t, 40.0, got.CurrentQuantity)
	assert.Equal(t, 4, got.DaysUntilExpiry)
	assert.Equal(t, 120.0, got.Calories)
	assert.Equal(t, 11.0, got.Sugars)
	assert.Equal(t, 10.0, got.NutritionalRatio)
	assert.Equal(t, "yogurt", table.Records[1].FoodItem)
}

func TestStore_AddItemRejectsBadPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	noFacts := milk()
	noFacts.NutritionalValue = nil
	_, err := s.AddItem(ctx, "alice", noFacts)
	assert.True(t, domain.IsUserError(err))

	badDate := milk()
	badDate.ExpirationDate = "soon"
	_, err = s.AddItem(ctx, "alice", badDate)
	var fieldErr *domain.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, domain.ColExpirationDate, fieldErr.Field)

	_, err = s.AddItem(ctx, "../etc", milk())
	var reqErr *domain.RequestError
	assert.True(t, errors.As(err, &reqErr))
}

func TestLoadFile_Aliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory_bob.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{"Food Item", "Expiration", "Days Until Expiration", "Type of Food", "Quantity Available",
			"Calories Per Serving", "Sugars Per Serving", "Customers That Week", "Nutritional Ratio (calories:sugars)"},
		{"rice", "2027-01-01", 80, "grain", 12, 200, 0, 90, 1},
	})

	table, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "grain", table.Records[0].FoodType)
	assert.Equal(t, 90, table.Records[0].WeeklyCustomers)
	assert.Equal(t, 200.0, table.Records[0].NutritionalRatio)
}

func TestLoadFile_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory_bob.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{"food_item", "food_type", "current_quantity", "expiration_date", "days_until_expiry",
			"calories", "nutritional_ratio", "weekly_customers"},
	})

	_, err := LoadFile(path)

	var schemaErr *domain.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{domain.ColSugars}, schemaErr.Missing)
}

func TestLoadFile_BadCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory_bob.xlsx")
	header := make([]interface{}, len(domain.RequiredColumns))
	for i, c := range domain.RequiredColumns {
		header[i] = c
	}
	writeWorkbook(t, path, [][]interface{}{
		header,
		{"rice", "grain", 12, "2027-01-01", 80, 200, 0, 200, 90},
		{"beans", "canned", "many", "2027-01-01", 80, 200, 0, 200, 90},
	})

	_, err := LoadFile(path)

	var fieldErr *domain.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, 1, fieldErr.Row)
	assert.Equal(t, domain.ColCurrentQuantity, fieldErr.Field)
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"zoe", "amy"} {
		_, err := s.EnsureUserFile(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.DataDir(), "notes.txt"), []byte("x"), 0644))

	users, err := s.Users()
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zoe"}, users)
}

func TestStore_ConcurrentAddItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddItem(ctx, "carol", milk())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	table, err := s.Load(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
}

func TestWritePlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "distribution_plan.xlsx")
	plan := []domain.PlanEntry{
		{InventoryRecord: domain.InventoryRecord{FoodItem: "milk", FoodType: "dairy"}, PriorityScore: 9, RecommendedQuantity: 2, Rank: 1},
		{InventoryRecord: domain.InventoryRecord{FoodItem: "rice", FoodType: "grain"}, PriorityScore: 3, RecommendedQuantity: 1, Rank: 2},
	}

	require.NoError(t, WritePlan(path, plan))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(planSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, []string{"1", "milk", "dairy"}, rows[1][:3])
	assert.Equal(t, "rice", rows[2][1])

	data, err := PlanBytes(plan)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
