// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodbank-planner/backend-go/internal/api"
	"github.com/foodbank-planner/backend-go/internal/cache"
	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/nutrition"
	"github.com/foodbank-planner/backend-go/internal/repository/postgres"
	"github.com/foodbank-planner/backend-go/internal/service"
	"github.com/foodbank-planner/backend-go/internal/storage"
	"github.com/foodbank-planner/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	opts := service.Options{}

	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without it")
		planCache = cache.NewNoopPlanCache()
	}
	opts.Cache = planCache

	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		opts.Runs = postgres.NewPlanRunRepository(db)
	}

	if cfg.Storage.Enabled {
		exporter, err := storage.NewMinioClient(ctx, cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize plan storage")
		}
		opts.Exporter = exporter
	}

	if cfg.Nutrition.Configured() {
		opts.Nutrition = nutrition.NewClient(cfg.Nutrition.BaseURL, cfg.Nutrition.AppID, cfg.Nutrition.AppKey)
	}

	// Initialize services
	store := inventory.NewStore(cfg.Store.DataDir, cfg.Store.DefaultWeeklyCustomers)
	distributionService := service.NewDistributionService(store, service.ForestConfig(cfg.Model), opts)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{DistributionService: distributionService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("data_dir", cfg.Store.DataDir).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// Give in-flight plans time to finish training
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
