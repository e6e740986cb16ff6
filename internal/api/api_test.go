package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/forest"
	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Success          bool              `json:"success"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Status           string            `json:"status"`
	DistributionPlan []domain.PlanItem `json:"distribution_plan"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *inventory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := inventory.NewStore(t.TempDir(), 100)
	model := forest.DefaultConfig()
	model.Trees = 20
	svc := service.NewDistributionService(store, model, service.Options{})
	return NewRouter(&Services{DistributionService: svc}, []string{"*"}), store
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func addItem(name, category string, days int, calories, sugars float64) map[string]any {
	return map[string]any{
		"type":            name,
		"category":        category,
		"quantity":        50,
		"expiration_date": time.Now().AddDate(0, 0, days).Format("2006-01-02"),
		"nutritional_value": map[string]any{
			"calories": calories,
			"sugars":   sugars,
		},
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/", "/health"} {
		rec, resp := do(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", resp.Status)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func TestPredict_EmptyInventory(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/predict", map[string]any{"user_id": "newcomer"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.DistributionPlan)
	assert.Equal(t, "No inventory data available", resp.Message)
	assert.Contains(t, rec.Body.String(), `"distribution_plan":[]`)
}

func TestAddItemThenPredict(t *testing.T) {
	router, _ := newTestRouter(t)

	items := []map[string]any{
		addItem("milk", "dairy", 2, 120, 12),
		addItem("rice", "grain", 300, 200, 0),
		addItem("beans", "canned", 120, 110, 1),
	}
	for _, item := range items {
		rec, resp := do(t, router, http.MethodPost, "/inventory/items", map[string]any{"user_id": "alice", "item_data": item})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, resp.Success)
	}

	rec, _ := do(t, router, http.MethodGet, "/inventory/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inv struct {
		Inventory []domain.InventoryRecord `json:"inventory"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Len(t, inv.Inventory, 3)

	rec, resp := do(t, router, http.MethodPost, "/predict", map[string]any{"user_id": "alice", "top_n": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	require.Len(t, resp.DistributionPlan, 2)
	assert.Equal(t, 1, resp.DistributionPlan[0].Rank)
	assert.Equal(t, 2, resp.DistributionPlan[1].Rank)
	assert.GreaterOrEqual(t, resp.DistributionPlan[0].PriorityScore, resp.DistributionPlan[1].PriorityScore)
}

func TestAddItem_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/inventory/items", map[string]any{"user_id": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)

	// no nutrition client configured
	item := addItem("apple", "produce", 5, 0, 0)
	delete(item, "nutritional_value")
	rec, resp = do(t, router, http.MethodPost, "/inventory/items", map[string]any{"user_id": "alice", "item_data": item})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "nutritional_value")

	rec, _ = do(t, router, http.MethodPost, "/inventory/items", map[string]any{"user_id": "../x", "item_data": addItem("a", "b", 1, 1, 1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_MissingUser(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/predict", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "user_id is required", resp.Error)
}

func TestPlan_InlineInventory(t *testing.T) {
	router, _ := newTestRouter(t)
	row := func(name string, days int) map[string]any {
		return map[string]any{
			"food_item": name, "food_type": "dairy", "current_quantity": 50,
			"expiration_date": "2026-12-01", "days_until_expiry": days,
			"calories": 120, "sugars": 10, "nutritional_ratio": 0, "weekly_customers": 100,
		}
	}

	rec, resp := do(t, router, http.MethodPost, "/plan", map[string]any{
		"inventory": []map[string]any{row("milk-a", 100), row("milk-b", 1), row("milk-c", 10)},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, resp.DistributionPlan, 3)
	assert.Equal(t, "milk-b", resp.DistributionPlan[0].FoodItem)
}

func TestPlan_MissingSugars(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/plan", map[string]any{
		"inventory": []map[string]any{{
			"food_item": "milk", "food_type": "dairy", "current_quantity": 5,
			"expiration_date": "2026-12-01", "days_until_expiry": 3,
			"calories": 120, "nutritional_ratio": 0, "weekly_customers": 100,
		}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "sugars")
}

func TestPlan_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/plan", map[string]any{"inventory": []any{}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "No inventory data available", resp.Message)
}

func TestHistoryDisabled(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := do(t, router, http.MethodGet, "/history/alice", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestSearchWithoutClient(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := do(t, router, http.MethodGet, "/search?query=app", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	_, err := store.EnsureUserFile(context.Background(), "alice")
	require.NoError(t, err)
	do(t, router, http.MethodPost, "/predict", map[string]any{"user_id": "alice"})

	rec, _ := do(t, router, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "planner_plans_total")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.org, http://b.org", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.org", "http://b.org"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
