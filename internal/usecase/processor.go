// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-star-growth/internal/domain"
	"github.com/naka-gawa/github-star-growth/internal/gateway"
	"github.com/naka-gawa/github-star-growth/internal/store"
)

// Processor is the use case for a single category.
// It searches the category, enriches every hit with its past star count and ranks the result.
type Processor struct {
	searcher    gateway.Searcher
	estimator   gateway.StarEstimator
	sink        store.Sink
	logger      *slog.Logger
	concurrency int
}

// NewProcessor creates a new Processor instance.
// concurrency bounds the number of star estimations in flight; 1 keeps them sequential.
func NewProcessor(searcher gateway.Searcher, estimator gateway.StarEstimator, sink store.Sink, logger *slog.Logger, concurrency int) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		searcher:    searcher,
		estimator:   estimator,
		sink:        sink,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Process builds and saves the rankings of one category.
// The result is saved before returning so that it survives a later failure.
func (p *Processor) Process(ctx context.Context, category string, reference time.Time) (domain.CategoryResult, error) {
	repos, err := p.searcher.SearchRepositories(ctx, category)
	if err != nil {
		return domain.CategoryResult{}, err
	}

	enriched, err := p.enrich(ctx, category, repos, reference)
	if err != nil {
		return domain.CategoryResult{}, err
	}

	result := domain.CategoryResult{
		Category:                    category,
		ReposSortedByStarDifference: RankByStarDifference(enriched),
		ReposSortedByStarQuotient:   RankByStarQuotient(enriched),
	}
	p.logger.Info("category ranked", "category", category, "result", result)
	p.logSummary(category, enriched)

	if err := p.sink.SaveCategory(ctx, result); err != nil {
		return domain.CategoryResult{}, fmt.Errorf("failed to save category %s: %w", category, err)
	}
	return result, nil
}

func (p *Processor) enrich(ctx context.Context, category string, repos []domain.RepositorySummary, reference time.Time) ([]domain.EnrichedRepository, error) {
	enriched := make([]domain.EnrichedRepository, len(repos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i, repo := range repos {
		eg.Go(func() error {
			// Stop scheduling estimations once one has failed.
			if err := egCtx.Err(); err != nil {
				return err
			}
			p.logger.Info("starting counting past stars for repo",
				"repo", repo.FullName, "index", i, "total", len(repos), "category", category)
			past, err := p.estimator.EstimatePastStars(egCtx, repo.FullName, reference)
			if err != nil {
				return fmt.Errorf("failed to estimate past stars of %s: %w", repo.FullName, err)
			}
			enriched[i] = domain.Enrich(repo, past)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

func (p *Processor) logSummary(category string, repos []domain.EnrichedRepository) {
	if len(repos) == 0 {
		return
	}
	differences := make([]float64, 0, len(repos))
	quotients := make([]float64, 0, len(repos))
	for _, r := range repos {
		differences = append(differences, float64(r.StarDifference))
		if r.StarQuotient.IsFinite() {
			quotients = append(quotients, float64(r.StarQuotient))
		}
	}
	attrs := []any{"category", category, "repos", len(repos)}
	if median, err := stats.Median(differences); err == nil {
		attrs = append(attrs, "median_star_difference", median)
	}
	// Logged as null when every quotient is unbounded.
	var meanQuotient any
	if mean, err := stats.Mean(quotients); err == nil {
		meanQuotient = mean
	} else if !errors.Is(err, stats.EmptyInputErr) {
		p.logger.Warn("failed to compute mean star quotient", "category", category, "error", err)
	}
	attrs = append(attrs, "mean_star_quotient", meanQuotient, "unbounded_quotients", len(repos)-len(quotients))
	p.logger.Info("category growth summary", attrs...)
}
