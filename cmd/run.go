package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-star-growth/internal/config"
	"github.com/naka-gawa/github-star-growth/internal/gateway"
	"github.com/naka-gawa/github-star-growth/internal/logger"
	"github.com/naka-gawa/github-star-growth/internal/retry"
	"github.com/naka-gawa/github-star-growth/internal/store"
	"github.com/naka-gawa/github-star-growth/internal/usecase"
)

func runGrowth(cmd *cobra.Command, _ []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// A missing .env is fine; the environment may already be complete.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.New(os.Stdout, false).Error("failed to read .env", "error", err)
		return err
	}

	cfg, err := config.FromEnvironment()
	log := logger.New(os.Stdout, err == nil && cfg.Debug)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	pipeline, closeFn, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up pipeline", "error", err)
		return err
	}
	defer closeFn()

	start := time.Now()
	log.Info("starting run",
		"categories", len(cfg.Categories),
		"reference_time", cfg.ReferenceTimestamp,
		"search_api", cfg.SearchAPI,
		"star_ceiling", cfg.StarCeiling)
	if _, err := pipeline.Run(ctx, cfg.Categories, cfg.ReferenceTime); err != nil {
		log.Error("run failed", "error", err)
		return err
	}
	log.Info("run finished", "duration", time.Since(start).String())
	return nil
}

// buildPipeline wires the gateway, sinks and use cases described by cfg.
// The returned function releases what the pipeline holds open.
func buildPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*usecase.Pipeline, func(), error) {
	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, gateway.Options{
		UserAgent: cfg.UserAgent,
		PerPage:   cfg.PerPage,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	backend, err := githubGateway.NewSearchBackend(cfg.SearchAPI)
	if err != nil {
		return nil, nil, err
	}

	searchPolicy := retry.Forever(cfg.RetryDelay)
	searchPolicy.MaxAttempts = cfg.SearchAttempts
	searcher := gateway.NewSearchClient(backend, searchPolicy, cfg.StarCeiling, log)
	estimator := gateway.NewRetryingEstimator(githubGateway, retry.Attempts(cfg.EstimateAttempts, cfg.RetryDelay), log)

	sinks := store.MultiSink{store.NewJSONFileSink(cfg.OutputDir, log)}
	closeFn := func() {}
	if cfg.PostgresDSN != "" {
		pg, err := store.OpenPostgresSink(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		closeFn = func() {
			if err := pg.Close(); err != nil {
				log.Warn("failed to close database", "error", err)
			}
		}
	}

	processor := usecase.NewProcessor(searcher, estimator, sinks, log, cfg.Concurrency)
	return usecase.NewPipeline(processor, sinks, log), closeFn, nil
}
