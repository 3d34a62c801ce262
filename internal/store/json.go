package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

// AggregateFileName is the file holding every category.
const AggregateFileName = "all.json"

// CategoryFileName is the file holding one category.
func CategoryFileName(category string) string {
	return fmt.Sprintf("category-%s.json", category)
}

// JSONFileSink writes results as indented JSON files in Dir, replacing earlier runs.
type JSONFileSink struct {
	Dir    string
	logger *slog.Logger
}

// NewJSONFileSink creates a JSONFileSink writing into dir.
func NewJSONFileSink(dir string, logger *slog.Logger) *JSONFileSink {
	return &JSONFileSink{Dir: dir, logger: logger}
}

// SaveCategory implements Sink.
func (s *JSONFileSink) SaveCategory(_ context.Context, result domain.CategoryResult) error {
	return s.write(CategoryFileName(result.Category), result)
}

// SaveAll implements Sink.
func (s *JSONFileSink) SaveAll(_ context.Context, aggregate domain.AggregateResult) error {
	return s.write(AggregateFileName, aggregate)
}

func (s *JSONFileSink) write(name string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.Dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Info("saved results", "file", path)
	return nil
}
