package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Nutrients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/natural/nutrients", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "app", r.Header.Get("x-app-id"))
		assert.Equal(t, "secret", r.Header.Get("x-app-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "apple", body["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foods":[{"food_name":"apple","nf_calories":95,"nf_sugars":19,"nf_protein":0.5}]}`))
	}))
	defer srv.Close()

	facts, err := NewClient(srv.URL, "app", "secret").Nutrients(context.Background(), "apple")

	require.NoError(t, err)
	assert.Equal(t, 95.0, facts.Calories)
	assert.Equal(t, 19.0, facts.Sugars)
	assert.Equal(t, 0.5, facts.Protein)
}

func TestClient_NutrientsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foods":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "app", "secret").Nutrients(context.Background(), "gravel")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_NutrientsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "app", "bad").Nutrients(context.Background(), "apple")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/search/instant", r.URL.Path)
		assert.Equal(t, "ric", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"common":[{"food_name":"rice"},{"food_name":"rice cake"},{"food_name":"brown rice"},
			{"food_name":"rice pudding"},{"food_name":"rice milk"},{"food_name":"rice noodles"}]}`))
	}))
	defer srv.Close()

	names, err := NewClient(srv.URL, "app", "secret").Search(context.Background(), "ric")

	require.NoError(t, err)
	assert.Len(t, names, 5)
	assert.Equal(t, "rice", names[0])
}
