package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"credit_appraisal/pkg/core/config"
	"credit_appraisal/pkg/core/pipeline"
	"credit_appraisal/pkg/core/projection"
	"credit_appraisal/pkg/core/render"
	"credit_appraisal/pkg/core/schema"
	"credit_appraisal/pkg/core/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using process environment and defaults.")
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so that its deferred cleanup always runs.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 1. Alias table
	aliases := schema.Default()
	if cfg.AliasesPath != "" {
		aliases, err = schema.Load(cfg.AliasesPath)
		if err != nil {
			return fmt.Errorf("failed to load aliases: %w", err)
		}
	}

	// 2. Template
	renderer, err := render.New(cfg.TemplatePath, aliases.NotAvailable)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	orchestrator := pipeline.NewReportOrchestrator(pipeline.Options{
		InputPath:   cfg.InputPath,
		OutputPath:  cfg.OutputPath,
		LenientJSON: cfg.LenientJSON,
		ReportID:    cfg.ReportID,
	}, projection.NewProjector(aliases, nil), renderer)

	// 3. Optional archive (DB primary, directory fallback)
	if cfg.ArchiveEnabled() {
		if cfg.DatabaseURL != "" {
			if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer store.Close()
		}
		archive := store.NewReportArchive(store.GetPool(), cfg.ArchiveDir)
		if err := archive.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("archive setup failed: %w", err)
		}
		orchestrator.SetArchive(archive)
	}

	// 4. Run
	result, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	fmt.Printf("Credit appraisal report %s written to %s (%d variables, %s)\n",
		result.ReportID, result.OutputPath, result.Variables, result.Elapsed.Round(time.Millisecond))
	return nil
}
