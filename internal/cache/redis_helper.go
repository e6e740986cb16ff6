package cache

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPlanTTL   = 5 * time.Minute
	planDialTimeout  = 5 * time.Second
	planClientName   = "foodbank-planner"
	unlinkBatchLimit = 100
)

// connectPlanStore dials redis and returns the client with the TTL applied to
// cached plans.
func connectPlanStore(cfg config.CacheConfig) (*redis.Client, time.Duration, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, 0, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), planDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, 0, fmt.Errorf("plan cache unreachable at %s: %w", opts.Addr, err)
	}

	return client, planTTL(cfg), nil
}

// planTTL falls back to five minutes: a plan must not outlive the inventory
// edits that happen between requests for long.
func planTTL(cfg config.CacheConfig) time.Duration {
	if cfg.PlanTTLSeconds <= 0 {
		return defaultPlanTTL
	}
	return time.Duration(cfg.PlanTTLSeconds) * time.Second
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host := cfg.RedisHost
		if host == "" {
			host = "127.0.0.1"
		}
		port := cfg.RedisPort
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.ClientName = planClientName
	if opts.DialTimeout == 0 {
		opts.DialTimeout = planDialTimeout
	}
	return opts, nil
}

// userPlanPattern matches every cached plan of one user. Glob metacharacters
// in the id are escaped so one user's invalidation cannot match another's keys.
func userPlanPattern(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s:%s:*", planKeyPrefix, b.String())
}

// unlinkPlans scans for keys matching pattern and unlinks them in batches.
// UNLINK frees the plan payloads in the background.
func unlinkPlans(ctx context.Context, client *redis.Client, pattern string) (int, error) {
	iter := client.Scan(ctx, 0, pattern, unlinkBatchLimit).Iterator()
	batch := make([]string, 0, unlinkBatchLimit)
	removed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("unlink cached plans: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatchLimit {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan cached plans: %w", err)
	}
	return removed, flush()
}
