package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver for database/sql.
	_ "github.com/lib/pq"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

const createGrowthTable = `
CREATE TABLE IF NOT EXISTS repo_star_growth (
	category         TEXT NOT NULL,
	full_name        TEXT NOT NULL,
	description      TEXT,
	language         TEXT NOT NULL,
	current_stars    INTEGER NOT NULL,
	past_stars       INTEGER NOT NULL,
	star_difference  INTEGER NOT NULL,
	star_quotient    DOUBLE PRECISION,
	difference_rank  INTEGER NOT NULL,
	quotient_rank    INTEGER NOT NULL,
	PRIMARY KEY (category, full_name)
)`

const deleteCategoryRows = `DELETE FROM repo_star_growth WHERE category = $1`

const insertGrowthRow = `
INSERT INTO repo_star_growth (
	category, full_name, description, language, current_stars, past_stars,
	star_difference, star_quotient, difference_rank, quotient_rank
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresSink mirrors each category result into the repo_star_growth table.
type PostgresSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenPostgresSink connects to dsn and makes sure the table exists.
func OpenPostgresSink(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	sink, err := NewPostgresSink(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// NewPostgresSink uses an open database and makes sure the table exists.
func NewPostgresSink(ctx context.Context, db *sql.DB, logger *slog.Logger) (*PostgresSink, error) {
	if _, err := db.ExecContext(ctx, createGrowthTable); err != nil {
		return nil, fmt.Errorf("failed to create repo_star_growth table: %w", err)
	}
	return &PostgresSink{db: db, logger: logger}, nil
}

// SaveCategory replaces the rows of result.Category in a single transaction.
func (s *PostgresSink) SaveCategory(ctx context.Context, result domain.CategoryResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("failed to roll back", "category", result.Category, "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteCategoryRows, result.Category); err != nil {
		return fmt.Errorf("failed to clear category %s: %w", result.Category, err)
	}

	quotientRank := make(map[string]int, len(result.ReposSortedByStarQuotient))
	for i, r := range result.ReposSortedByStarQuotient {
		quotientRank[r.FullName] = i + 1
	}
	for i, r := range result.ReposSortedByStarDifference {
		quotient := sql.NullFloat64{Float64: float64(r.StarQuotient), Valid: r.StarQuotient.IsFinite()}
		if _, err = tx.ExecContext(ctx, insertGrowthRow,
			result.Category, r.FullName, r.Description, r.Language, r.CurrentStarCount, r.PastStarCount,
			r.StarDifference, quotient, i+1, quotientRank[r.FullName],
		); err != nil {
			return fmt.Errorf("failed to insert %s into category %s: %w", r.FullName, result.Category, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category %s: %w", result.Category, err)
	}
	s.logger.Info("saved results to database", "category", result.Category, "rows", len(result.ReposSortedByStarDifference))
	return nil
}

// SaveAll implements Sink. Rows are already written per category.
func (s *PostgresSink) SaveAll(_ context.Context, aggregate domain.AggregateResult) error {
	s.logger.Debug("database holds every category", "categories", len(aggregate.Results))
	return nil
}

// Close closes the database.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
