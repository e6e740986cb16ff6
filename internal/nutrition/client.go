// Package nutrition looks up per-serving nutrition facts from the Nutritionix API.
package nutrition

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when the API knows no food matching the query.
var ErrNotFound = errors.New("no nutrition data for query")

const maxSuggestions = 5

// Lookup resolves nutrition facts and search suggestions for a food name.
type Lookup interface {
	Nutrients(ctx context.Context, query string) (*domain.NutritionFacts, error)
	Search(ctx context.Context, query string) ([]string, error)
}

// Client talks to the Nutritionix v2 API.
type Client struct {
	appID  string
	appKey string
	client *resty.Client
}

// NewClient creates a client against baseURL, e.g. https://trackapi.nutritionix.com.
func NewClient(baseURL, appID, appKey string) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(15 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(3 * time.Second)

	return &Client{
		appID:  appID,
		appKey: appKey,
		client: client,
	}
}

type nutrientsResponse struct {
	Foods []struct {
		FoodName     string  `json:"food_name"`
		Calories     float64 `json:"nf_calories"`
		TotalFat     float64 `json:"nf_total_fat"`
		Protein      float64 `json:"nf_protein"`
		Carbohydrate float64 `json:"nf_total_carbohydrate"`
		Sugars       float64 `json:"nf_sugars"`
		Sodium       float64 `json:"nf_sodium"`
	} `json:"foods"`
}

// Nutrients returns the facts of the first food matching query.
func (c *Client) Nutrients(ctx context.Context, query string) (*domain.NutritionFacts, error) {
	var result nutrientsResponse
	resp, err := c.request(ctx).
		SetBody(map[string]string{"query": query}).
		SetResult(&result).
		Post("/v2/natural/nutrients")
	if err != nil {
		return nil, fmt.Errorf("nutritionix request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutritionix returned %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Foods) == 0 {
		return nil, ErrNotFound
	}

	food := result.Foods[0]
	return &domain.NutritionFacts{
		Calories:      food.Calories,
		TotalFat:      food.TotalFat,
		Protein:       food.Protein,
		Carbohydrates: food.Carbohydrate,
		Sugars:        food.Sugars,
		Sodium:        food.Sodium,
	}, nil
}

type instantResponse struct {
	Common []struct {
		FoodName string `json:"food_name"`
	} `json:"common"`
}

// Search returns up to five common food names matching query.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	var result instantResponse
	resp, err := c.request(ctx).
		SetQueryParam("query", query).
		SetResult(&result).
		Get("/v2/search/instant")
	if err != nil {
		return nil, fmt.Errorf("nutritionix request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutritionix returned %d: %s", resp.StatusCode(), resp.String())
	}

	names := make([]string, 0, maxSuggestions)
	for _, food := range result.Common {
		if len(names) == maxSuggestions {
			break
		}
		names = append(names, food.FoodName)
	}
	return names, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-app-id", c.appID).
		SetHeader("x-app-key", c.appKey)
}
