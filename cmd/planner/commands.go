package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/foodbank-planner/backend-go/internal/cache"
	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/nutrition"
	"github.com/foodbank-planner/backend-go/internal/pipeline"
	"github.com/foodbank-planner/backend-go/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type itemPayload struct {
	UserID   string          `json:"user_id"`
	ItemData *domain.NewItem `json:"item_data"`
}

type predictPayload struct {
	UserID string `json:"user_id"`
	TopN   int    `json:"top_n"`
}

func newService(c *cli.Context, cfg *config.Config) *service.DistributionService {
	opts := service.Options{}
	if cfg.Cache.Enabled {
		planCache, err := cache.NewPlanCache(cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("plan cache unavailable, continuing without it")
		} else {
			opts.Cache = planCache
		}
	}
	if cfg.Nutrition.Configured() {
		opts.Nutrition = nutrition.NewClient(cfg.Nutrition.BaseURL, cfg.Nutrition.AppID, cfg.Nutrition.AppKey)
	}
	store := inventory.NewStore(c.String("data-dir"), cfg.Store.DefaultWeeklyCustomers)
	return service.NewDistributionService(store, service.ForestConfig(cfg.Model), opts)
}

func decodeArg(c *cli.Context, v any) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one JSON argument, got %d", c.NArg())
	}
	if err := json.Unmarshal([]byte(c.Args().First()), v); err != nil {
		return fmt.Errorf("invalid JSON argument: %w", err)
	}
	return nil
}

func runAddItem(c *cli.Context, cfg *config.Config) error {
	var payload itemPayload
	if err := decodeArg(c, &payload); err != nil {
		return failJSON(c, err)
	}
	if payload.UserID == "" || payload.ItemData == nil {
		return failJSON(c, fmt.Errorf("user_id and item_data are required"))
	}

	if _, err := newService(c, cfg).AddItem(c.Context, payload.UserID, *payload.ItemData); err != nil {
		return failJSON(c, err)
	}
	return printJSON(c, map[string]any{"success": true})
}

func runPredict(c *cli.Context, cfg *config.Config) error {
	var payload predictPayload
	if err := decodeArg(c, &payload); err != nil {
		return failJSON(c, err)
	}
	if payload.UserID == "" {
		return failJSON(c, fmt.Errorf("user_id is required"))
	}

	result, err := newService(c, cfg).PlanForUser(c.Context, payload.UserID)
	if err != nil {
		return failJSON(c, err)
	}
	if len(result.Plan) == 0 {
		return printJSON(c, map[string]any{
			"success":           true,
			"distribution_plan": []domain.PlanItem{},
			"message":           "No inventory data available",
		})
	}
	return printJSON(c, map[string]any{
		"success":           true,
		"distribution_plan": domain.PlanItems(result.Plan, payload.TopN),
	})
}

func runPlan(c *cli.Context, cfg *config.Config) error {
	result, err := newService(c, cfg).PlanForUser(c.Context, c.String("user"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "There are %d entries in the food inventory.\n\n", len(result.Plan))
	if len(result.Plan) == 0 {
		return nil
	}

	top := c.Int("top")
	fmt.Fprintf(w, "Top %d priority items:\n", min(max(top, 0), len(result.Plan)))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tfood_item\tfood_type\tdays_until_expiry\tcurrent_quantity\trecommended_quantity\tpriority_score")
	for _, item := range domain.PlanItems(result.Plan, top) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%.2f\t%.4f\n",
			item.Rank, item.FoodItem, item.FoodType, item.DaysUntilExpiry,
			item.CurrentQuantity, item.RecommendedQuantity, item.PriorityScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	out := c.String("out")
	if err := inventory.WritePlan(out, result.Plan); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFull distribution plan saved to %s\n", out)
	return nil
}

func runPlanAll(c *cli.Context, cfg *config.Config) error {
	batchCfg := pipeline.DefaultConfig()
	batchCfg.WorkerCount = c.Int("workers")
	batchCfg.OutputDir = c.String("out-dir")
	batchCfg.Model = service.ForestConfig(cfg.Model)

	summary, err := pipeline.NewWorker(batchCfg).ProcessDir(c.Context, c.String("data-dir"))
	if summary != nil {
		for _, job := range summary.Jobs {
			if job.Status == pipeline.FileStatusCompleted {
				fmt.Fprintf(c.App.Writer, "%s\t%d items\t%s\n", job.UserID, job.Items, job.OutputPath)
			} else {
				fmt.Fprintf(c.App.Writer, "%s\tfailed\t%s\n", job.UserID, job.ErrorMessage)
			}
		}
	}
	return err
}
