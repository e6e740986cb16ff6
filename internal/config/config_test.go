package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestBuild_Defaults(t *testing.T) {
	cfg := build(viper.New())

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Store.DefaultWeeklyCustomers)
	assert.Equal(t, 100, cfg.Model.Trees)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Nutrition.Configured())
}

func TestBuild_Environment(t *testing.T) {
	t.Setenv("MODEL_TREES", "25")
	t.Setenv("STORE_DATA_DIR", "/srv/inventory")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("NUTRITIONIX_APP_ID", "id")
	t.Setenv("NUTRITIONIX_APP_KEY", "key")

	cfg := build(viper.New())

	assert.Equal(t, 25, cfg.Model.Trees)
	assert.Equal(t, "/srv/inventory", cfg.Store.DataDir)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Nutrition.Configured())
}
