// Package store persists category and aggregate results.
package store

import (
	"context"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

// Sink receives results as the pipeline produces them.
type Sink interface {
	SaveCategory(ctx context.Context, result domain.CategoryResult) error
	SaveAll(ctx context.Context, aggregate domain.AggregateResult) error
}

// MultiSink writes to each sink in order and stops at the first error.
type MultiSink []Sink

// SaveCategory implements Sink.
func (m MultiSink) SaveCategory(ctx context.Context, result domain.CategoryResult) error {
	for _, s := range m {
		if err := s.SaveCategory(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// SaveAll implements Sink.
func (m MultiSink) SaveAll(ctx context.Context, aggregate domain.AggregateResult) error {
	for _, s := range m {
		if err := s.SaveAll(ctx, aggregate); err != nil {
			return err
		}
	}
	return nil
}
