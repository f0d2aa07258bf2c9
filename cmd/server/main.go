package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/drugwatch/approvals-hunter/internal/ai"
	"github.com/drugwatch/approvals-hunter/internal/api"
	"github.com/drugwatch/approvals-hunter/internal/config"
	"github.com/drugwatch/approvals-hunter/internal/core"
	"github.com/drugwatch/approvals-hunter/internal/normalize"
	"github.com/drugwatch/approvals-hunter/internal/scraper"
	"github.com/drugwatch/approvals-hunter/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	rules := normalize.DefaultRules()
	if cfg.RulesPath != "" {
		rules, err = normalize.LoadRules(cfg.RulesPath)
		if err != nil {
			slog.Error("failed to load normalization rules", "path", cfg.RulesPath, "error", err)
			os.Exit(1)
		}
	}

	dbStore, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	if err := dbStore.RunMigrations(cfg.SchemaPath); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// AI client auto-detects provider from OPENAI_API_KEY
	aiClient := ai.NewClient()
	classifier := core.NewClassifierService(aiClient)

	archiveScraper := scraper.NewDrugsComScraper(cfg.ArchiveBase, cfg.UserAgent)
	ingestion := core.NewIngestionService(dbStore, archiveScraper, classifier, rules, cfg.BaseYear, cfg.UserAgent)

	ctx := context.Background()

	scheduler := core.NewSchedulerService(ingestion, cfg.RefreshAt)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	srv := api.NewServer(dbStore, ingestion)

	slog.Info("starting server", "port", cfg.Port, "base_year", cfg.BaseYear)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
