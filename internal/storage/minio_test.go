package storage

import (
	"context"
	"testing"

	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestPlanKey(t *testing.T) {
	assert.Equal(t, "plans/alice/42.xlsx", PlanKey("alice", "42"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, xlsxContentType, contentType("plans/a/b.xlsx"))
	assert.Equal(t, "application/octet-stream", contentType("plans/a/b.bin"))
}

func TestNewMinioClient_RequiresSettings(t *testing.T) {
	ctx := context.Background()

	_, err := NewMinioClient(ctx, config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(ctx, config.StorageConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioClient(ctx, config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}
