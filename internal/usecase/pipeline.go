package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/naka-gawa/github-star-growth/internal/domain"
	"github.com/naka-gawa/github-star-growth/internal/store"
)

// CategoryProcessor builds the result of one category.
type CategoryProcessor interface {
	Process(ctx context.Context, category string, reference time.Time) (domain.CategoryResult, error)
}

// Pipeline runs every category, one after another, and saves the aggregate.
type Pipeline struct {
	processor CategoryProcessor
	sink      store.Sink
	logger    *slog.Logger
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(processor CategoryProcessor, sink store.Sink, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		processor: processor,
		sink:      sink,
		logger:    logger,
	}
}

// Run processes categories in order. A category starts only once the previous one is saved.
// The aggregate is saved only when every category succeeded.
func (p *Pipeline) Run(ctx context.Context, categories []string, reference time.Time) (domain.AggregateResult, error) {
	var aggregate domain.AggregateResult
	for i, category := range categories {
		p.logger.Info("starting searching repos in category", "category", category, "index", i, "total", len(categories))
		result, err := p.processor.Process(ctx, category, reference)
		if err != nil {
			return domain.AggregateResult{}, fmt.Errorf("failed to process category %s: %w", category, err)
		}
		aggregate.Add(result)
	}

	if err := p.sink.SaveAll(ctx, aggregate); err != nil {
		return domain.AggregateResult{}, fmt.Errorf("failed to save aggregate result: %w", err)
	}
	p.logger.Info("all categories processed", "categories", aggregate.Categories(), "result", aggregate)
	return aggregate, nil
}
