package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

// mockProcessor is a mock implementation of the CategoryProcessor interface.
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, category string, reference time.Time) (domain.CategoryResult, error) {
	args := m.Called(ctx, category, reference)
	return args.Get(0).(domain.CategoryResult), args.Error(1)
}

func emptyResult(category string) domain.CategoryResult {
	return domain.CategoryResult{
		Category:                    category,
		ReposSortedByStarDifference: []domain.EnrichedRepository{},
		ReposSortedByStarQuotient:   []domain.EnrichedRepository{},
	}
}

func TestPipeline_Run(t *testing.T) {
	categories := []string{"orm", "audio", "cache"}
	processor := new(mockProcessor)
	sink := new(mockSink)

	var order []string
	for _, category := range categories {
		processor.On("Process", mock.Anything, category, reference).
			Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
			Return(emptyResult(category), nil).Once()
	}
	sink.On("SaveAll", mock.Anything, mock.Anything).Return(nil).Once()

	aggregate, err := NewPipeline(processor, sink, discardLogger()).Run(context.Background(), categories, reference)

	require.NoError(t, err)
	assert.Equal(t, categories, order)
	assert.Equal(t, categories, aggregate.Categories())
	for i, category := range categories {
		assert.Equal(t, emptyResult(category), aggregate.Results[i])
	}
	sink.AssertCalled(t, "SaveAll", mock.Anything, aggregate)
	processor.AssertExpectations(t)
}

func TestPipeline_RunStopsAtFirstFailure(t *testing.T) {
	processor := new(mockProcessor)
	sink := new(mockSink)
	processor.On("Process", mock.Anything, "orm", reference).Return(emptyResult("orm"), nil)
	processor.On("Process", mock.Anything, "audio", reference).Return(domain.CategoryResult{}, errors.New("estimator down"))

	_, err := NewPipeline(processor, sink, discardLogger()).Run(context.Background(), []string{"orm", "audio", "cache"}, reference)

	assert.ErrorContains(t, err, "failed to process category audio")
	assert.ErrorContains(t, err, "estimator down")
	processor.AssertNotCalled(t, "Process", mock.Anything, "cache", mock.Anything)
	sink.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestPipeline_RunSaveAllFails(t *testing.T) {
	processor := new(mockProcessor)
	sink := new(mockSink)
	processor.On("Process", mock.Anything, "orm", reference).Return(emptyResult("orm"), nil)
	sink.On("SaveAll", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := NewPipeline(processor, sink, discardLogger()).Run(context.Background(), []string{"orm"}, reference)

	assert.ErrorContains(t, err, "failed to save aggregate result")
}

// TestPipeline_EndToEndIsIdempotent wires the real Processor behind the Pipeline.
func TestPipeline_EndToEndIsIdempotent(t *testing.T) {
	run := func() []byte {
		searcher := new(mockSearcher)
		estimator := new(mockEstimator)
		sink := new(mockSink)
		searcher.On("SearchRepositories", mock.Anything, "cache").Return([]domain.RepositorySummary{
			{FullName: "a/x", CurrentStarCount: 1000},
			{FullName: "b/y", CurrentStarCount: 500},
		}, nil)
		searcher.On("SearchRepositories", mock.Anything, "lint").Return([]domain.RepositorySummary{}, nil)
		estimator.On("EstimatePastStars", mock.Anything, "a/x", reference).Return(400, nil)
		estimator.On("EstimatePastStars", mock.Anything, "b/y", reference).Return(500, nil)
		sink.On("SaveCategory", mock.Anything, mock.Anything).Return(nil).Twice()
		sink.On("SaveAll", mock.Anything, mock.Anything).Return(nil).Once()

		processor := NewProcessor(searcher, estimator, sink, discardLogger(), 1)
		aggregate, err := NewPipeline(processor, sink, discardLogger()).Run(context.Background(), []string{"cache", "lint"}, reference)
		require.NoError(t, err)
		sink.AssertExpectations(t)

		data, err := json.Marshal(aggregate)
		require.NoError(t, err)
		return data
	}

	first := run()
	assert.Equal(t, first, run())
	assert.JSONEq(t, `{
		"cache": {
			"category": "cache",
			"repos_sorted_by_star_difference": [
				{"full_name": "a/x", "description": null, "stargazers_count": 1000, "language": "", "past_stars": 400, "star_difference": 600, "star_quotient": 2.5},
				{"full_name": "b/y", "description": null, "stargazers_count": 500, "language": "", "past_stars": 500, "star_difference": 0, "star_quotient": 1}
			],
			"repos_sorted_by_star_quotient": [
				{"full_name": "a/x", "description": null, "stargazers_count": 1000, "language": "", "past_stars": 400, "star_difference": 600, "star_quotient": 2.5},
				{"full_name": "b/y", "description": null, "stargazers_count": 500, "language": "", "past_stars": 500, "star_difference": 0, "star_quotient": 1}
			]
		},
		"lint": {"category": "lint", "repos_sorted_by_star_difference": [], "repos_sorted_by_star_quotient": []}
	}`, string(first))
}
