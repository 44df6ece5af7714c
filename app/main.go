package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandpulse/brandpulse/app/api"
	"github.com/brandpulse/brandpulse/app/cfg"
	"github.com/brandpulse/brandpulse/app/config"
	"github.com/brandpulse/brandpulse/app/database"
	"github.com/brandpulse/brandpulse/app/ingest"
	"github.com/brandpulse/brandpulse/app/scheduler"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting BrandPulse server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	brandRepo := database.NewBrandRepository(db)
	updateRepo := database.NewUpdateRepository(db)

	registerBrands(brandRepo, appCfg.BrandsDir)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.FetchTimeout) * time.Second}
	fetcher := ingest.NewFetcher(httpClient, brandRepo, updateRepo,
		appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	orchestrator := ingest.NewOrchestrator(brandRepo, fetcher,
		time.Duration(appCfg.FetchPace)*time.Second)

	// Storage is confirmed ready above; the scheduler may start.
	feedScheduler := scheduler.NewScheduler(orchestrator, appCfg.FetchSchedule)
	if err := feedScheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer feedScheduler.Stop()

	apiHandler := api.NewHandler(brandRepo, updateRepo, feedScheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// registerBrands loads brand definitions from the configured directory
// and upserts them by name, logging feed URL changes. A failure on one
// file's registration does not stop the rest.
func registerBrands(brandRepo database.BrandRepository, brandsDir string) {
	loader := config.NewLoader(brandsDir)
	configs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load brand definitions", "dir", brandsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded brand definitions", "dir", brandsDir, "count", len(configs))

	ctx := context.Background()
	registered := 0
	for file, brandConfig := range configs {
		id, urlChanged, err := brandRepo.UpsertBrand(ctx, brandConfig.Brand())
		if err != nil {
			slog.Warn("Failed to register brand", "file", file, "error", err)
			continue
		}
		if urlChanged {
			slog.Info("Brand feed URL updated", "brand", brandConfig.Name, "id", id, "url", brandConfig.Feed.URL)
		}
		registered++
	}
	slog.Info("Brands registered", "registered", registered, "total", len(configs))
}
