package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	// stdout carries the JSON results
	logger.SetOutput(os.Stderr)

	cfg := config.Load()
	logger.SetLevel(cfg.Server.LogLevel)

	app := newApp(cfg, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "planner",
		Usage:     "Plan food bank distributions from inventory workbooks",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory holding inventory_<user>.xlsx workbooks",
				Value:   cfg.Store.DataDir,
				EnvVars: []string{"STORE_DATA_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "add-item",
				Aliases:   []string{"add_item"},
				Usage:     "Append an item to a user's inventory",
				ArgsUsage: `'{"user_id": "...", "item_data": {...}}'`,
				Action: func(c *cli.Context) error {
					return runAddItem(c, cfg)
				},
			},
			{
				Name:      "predict",
				Usage:     "Print the distribution plan of a user as JSON",
				ArgsUsage: `'{"user_id": "...", "top_n": 10}'`,
				Action: func(c *cli.Context) error {
					return runPredict(c, cfg)
				},
			},
			{
				Name:  "plan",
				Usage: "Print the top ranked items of a user and write the full plan workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "User id", Required: true},
					&cli.IntFlag{Name: "top", Usage: "Number of ranked items to print", Value: 10},
					&cli.StringFlag{Name: "out", Usage: "Plan workbook path", Value: "distribution_plan.xlsx"},
				},
				Action: func(c *cli.Context) error {
					return runPlan(c, cfg)
				},
			},
			{
				Name:  "plan-all",
				Usage: "Plan every inventory workbook in the data dir concurrently",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Files planned concurrently", Value: cfg.Model.BatchWorkers},
					&cli.StringFlag{Name: "out-dir", Usage: "Directory for plan_<user>.xlsx, defaults to the data dir"},
				},
				Action: func(c *cli.Context) error {
					return runPlanAll(c, cfg)
				},
			},
			{
				Name:  "history",
				Usage: "List recorded plan runs of a user",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "user", Usage: "User id", Required: true},
					&cli.IntFlag{Name: "limit", Usage: "Maximum runs to list", Value: 20},
				},
				Before: initDB,
				After:  closeDB,
				Action: runHistory,
			},
			{
				Name:   "migrate",
				Usage:  "Create the plan history tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "pull",
				Usage: "Download inventory workbooks from object storage into the data dir",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Object key prefix", Value: "inventory/"},
					&cli.StringFlag{Name: "user", Usage: "Only fetch this user's workbook"},
				},
				Action: func(c *cli.Context) error {
					return runPull(c, cfg)
				},
			},
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failJSON prints the failure payload and returns an error so the process
// exits non-zero.
func failJSON(c *cli.Context, err error) error {
	if perr := printJSON(c, map[string]any{"success": false, "error": err.Error()}); perr != nil {
		return perr
	}
	return fmt.Errorf("%s: %w", c.Command.Name, err)
}
