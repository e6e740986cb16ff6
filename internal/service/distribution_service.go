package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodbank-planner/backend-go/internal/cache"
	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/forest"
	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/metrics"
	"github.com/foodbank-planner/backend-go/internal/nutrition"
	"github.com/foodbank-planner/backend-go/internal/planner"
	"github.com/foodbank-planner/backend-go/internal/repository"
	"github.com/foodbank-planner/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrHistoryDisabled is returned by History when no run repository is configured.
var ErrHistoryDisabled = errors.New("plan history is not enabled")

// InventoryStore is the per-user inventory persistence used by the service.
type InventoryStore interface {
	Load(ctx context.Context, userID string) (domain.InventoryTable, error)
	AddItem(ctx context.Context, userID string, item domain.NewItem) (domain.InventoryRecord, error)
}

// Options wires the optional collaborators. Nil fields disable the feature.
type Options struct {
	Cache     cache.PlanCache
	Runs      repository.PlanRunRepository
	Exporter  storage.ObjectStorage
	Nutrition nutrition.Lookup
}

// PlanResult is a computed plan plus bookkeeping about how it was produced.
type PlanResult struct {
	Plan      []domain.PlanEntry
	RunID     string
	ExportKey string
	Cached    bool
}

type DistributionService struct {
	store     InventoryStore
	model     forest.Config
	cache     cache.PlanCache
	runs      repository.PlanRunRepository
	exporter  storage.ObjectStorage
	nutrition nutrition.Lookup
	now       func() time.Time
}

func NewDistributionService(store InventoryStore, model forest.Config, opts Options) *DistributionService {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopPlanCache()
	}
	return &DistributionService{
		store:     store,
		model:     model,
		cache:     opts.Cache,
		runs:      opts.Runs,
		exporter:  opts.Exporter,
		nutrition: opts.Nutrition,
		now:       time.Now,
	}
}

// ForestConfig maps the model settings onto the regression forest.
func ForestConfig(m config.ModelConfig) forest.Config {
	cfg := forest.DefaultConfig()
	if m.Trees > 0 {
		cfg.Trees = m.Trees
	}
	cfg.Seed = m.Seed
	cfg.MaxDepth = m.MaxDepth
	if m.MinSamplesSplit > 0 {
		cfg.MinSamplesSplit = m.MinSamplesSplit
	}
	if m.MinSamplesLeaf > 0 {
		cfg.MinSamplesLeaf = m.MinSamplesLeaf
	}
	cfg.Workers = m.Workers
	return cfg
}

// PlanForUser loads the user's inventory and plans it.
func (s *DistributionService) PlanForUser(ctx context.Context, userID string) (*PlanResult, error) {
	table, err := s.store.Load(ctx, userID)
	if err != nil {
		s.countPlan(err)
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return s.plan(ctx, userID, table)
}

// PlanTable plans a table supplied by the caller. Nothing is cached or recorded.
func (s *DistributionService) PlanTable(ctx context.Context, table domain.InventoryTable) (*PlanResult, error) {
	return s.plan(ctx, "", table)
}

func (s *DistributionService) plan(ctx context.Context, userID string, table domain.InventoryTable) (*PlanResult, error) {
	if err := table.CheckSchema(); err != nil {
		s.countPlan(err)
		return nil, err
	}
	if table.Len() == 0 {
		metrics.PlansTotal.WithLabelValues("empty").Inc()
		return &PlanResult{Plan: []domain.PlanEntry{}}, nil
	}

	fingerprint := fmt.Sprintf("%+v", s.model)
	if userID != "" {
		if plan, ok, err := s.cache.GetPlan(ctx, userID, fingerprint, table.Records); err == nil && ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			metrics.PlansTotal.WithLabelValues("ok").Inc()
			return &PlanResult{Plan: plan, Cached: true}, nil
		} else if err != nil {
			metrics.CacheLookups.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("user_id", userID).Msg("distribution: cache get plan failed")
		} else {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	start := s.now()
	plan, err := planner.New(s.model).TrainAndPlan(table)
	s.countPlan(err)
	if err != nil {
		return nil, err
	}
	result := &PlanResult{Plan: plan}
	if userID == "" {
		return result, nil
	}

	if err := s.cache.SetPlan(ctx, userID, fingerprint, table.Records, plan); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("distribution: cache set plan failed")
	}
	s.record(ctx, userID, plan, s.now().Sub(start), result)
	return result, nil
}

// record exports and logs the run. Failures are logged, the plan is still returned.
func (s *DistributionService) record(ctx context.Context, userID string, plan []domain.PlanEntry, elapsed time.Duration, result *PlanResult) {
	if s.runs == nil && s.exporter == nil {
		return
	}
	run := &domain.PlanRun{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemCount:  len(plan),
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	}
	if len(plan) > 0 {
		run.TopItem = plan[0].FoodItem
		run.TopPriority = plan[0].PriorityScore
	}
	result.RunID = run.ID

	if s.exporter != nil {
		key := storage.PlanKey(userID, run.ID)
		data, err := inventory.PlanBytes(plan)
		if err == nil {
			err = s.exporter.UploadObject(ctx, key, data)
		}
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("distribution: plan export failed")
		} else {
			run.ExportKey = key
			result.ExportKey = key
		}
	}

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("distribution: record plan run failed")
		}
	}
}

func (s *DistributionService) countPlan(err error) {
	switch {
	case err == nil:
		metrics.PlansTotal.WithLabelValues("ok").Inc()
	case domain.IsUserError(err):
		metrics.PlansTotal.WithLabelValues("user_error").Inc()
	default:
		metrics.PlansTotal.WithLabelValues("error").Inc()
	}
}

// AddItem appends an item to the user's inventory, looking up nutrition facts
// when the payload carries none.
func (s *DistributionService) AddItem(ctx context.Context, userID string, item domain.NewItem) (domain.InventoryRecord, error) {
	if item.NutritionalValue == nil && s.nutrition != nil {
		facts, err := s.nutrition.Nutrients(ctx, item.Type)
		if errors.Is(err, nutrition.ErrNotFound) {
			return domain.InventoryRecord{}, &domain.RequestError{Reason: "could not fetch nutritional information"}
		}
		if err != nil {
			return domain.InventoryRecord{}, fmt.Errorf("nutrition lookup: %w", err)
		}
		item.NutritionalValue = facts
	}

	rec, err := s.store.AddItem(ctx, userID, item)
	if err != nil {
		return rec, err
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("distribution: cache invalidate failed")
	}
	return rec, nil
}

// Inventory returns the user's current inventory.
func (s *DistributionService) Inventory(ctx context.Context, userID string) (domain.InventoryTable, error) {
	return s.store.Load(ctx, userID)
}

// Suggest returns food name suggestions. Without a nutrition client it returns none.
func (s *DistributionService) Suggest(ctx context.Context, query string) ([]string, error) {
	if s.nutrition == nil || query == "" {
		return []string{}, nil
	}
	return s.nutrition.Search(ctx, query)
}

// History lists the user's most recent plan runs.
func (s *DistributionService) History(ctx context.Context, userID string, limit int) ([]domain.PlanRun, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.ListByUser(ctx, userID, limit)
}
