package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const planKeyPrefix = "plan"

// PlanCache stores computed plans keyed by user and inventory content.
// fingerprint identifies the model settings the plan was computed with.
type PlanCache interface {
	GetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord) ([]domain.PlanEntry, bool, error)
	SetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord, plan []domain.PlanEntry) error
	InvalidateUser(ctx context.Context, userID string) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := connectPlanStore(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) GetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord) ([]domain.PlanEntry, bool, error) {
	key, err := buildPlanKey(userID, fingerprint, records)
	if err != nil {
		return nil, false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan []domain.PlanEntry
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}

	return plan, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord, plan []domain.PlanEntry) error {
	key, err := buildPlanKey(userID, fingerprint, records)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanCache) InvalidateUser(ctx context.Context, userID string) error {
	removed, err := unlinkPlans(ctx, c.client, userPlanPattern(userID))
	if err != nil {
		return err
	}
	log.Debug().Str("user_id", userID).Int("plans", removed).Msg("plan cache invalidated")
	return nil
}

func (n *noopPlanCache) GetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord) ([]domain.PlanEntry, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetPlan(ctx context.Context, userID, fingerprint string, records []domain.InventoryRecord, plan []domain.PlanEntry) error {
	return nil
}

func (n *noopPlanCache) InvalidateUser(ctx context.Context, userID string) error {
	return nil
}

func userPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:", planKeyPrefix, userID)
}

func buildPlanKey(userID, fingerprint string, records []domain.InventoryRecord) (string, error) {
	hash, err := recordsHash(fingerprint, records)
	if err != nil {
		return "", err
	}
	return userPrefix(userID) + hash, nil
}

func recordsHash(fingerprint string, records []domain.InventoryRecord) (string, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode plan cache key: %w", err)
	}
	h := sha1.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{'|'})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil)), nil
}
