// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// RepositorySummary is the projection of a search hit that the pipeline keeps.
type RepositorySummary struct {
	FullName         string  `json:"full_name"`
	Description      *string `json:"description"`
	CurrentStarCount int     `json:"stargazers_count"`
	Language         string  `json:"language"`
}

// StarQuotient is current stars divided by past stars.
// Non-finite values are encoded as JSON null.
type StarQuotient float64

// MarshalJSON implements json.Marshaler.
func (q StarQuotient) MarshalJSON() ([]byte, error) {
	f := float64(q)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// IsFinite reports whether the quotient is a real number.
func (q StarQuotient) IsFinite() bool {
	f := float64(q)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// EnrichedRepository is a RepositorySummary annotated with its growth since the reference date.
type EnrichedRepository struct {
	RepositorySummary
	PastStarCount  int          `json:"past_stars"`
	StarDifference int          `json:"star_difference"`
	StarQuotient   StarQuotient `json:"star_quotient"`
}

// Enrich derives the growth metrics of repo from its estimated past star count.
//
// A repository without stars at the reference date has an infinite quotient,
// unless it has no stars now either, in which case the quotient is 1.
func Enrich(repo RepositorySummary, pastStars int) EnrichedRepository {
	var quotient float64
	switch {
	case pastStars != 0:
		quotient = float64(repo.CurrentStarCount) / float64(pastStars)
	case repo.CurrentStarCount == 0:
		quotient = 1
	default:
		quotient = math.Inf(1)
	}
	return EnrichedRepository{
		RepositorySummary: repo,
		PastStarCount:     pastStars,
		StarDifference:    repo.CurrentStarCount - pastStars,
		StarQuotient:      StarQuotient(quotient),
	}
}

// CategoryResult holds the two growth rankings of one category.
type CategoryResult struct {
	Category                    string               `json:"category"`
	ReposSortedByStarDifference []EnrichedRepository `json:"repos_sorted_by_star_difference"`
	ReposSortedByStarQuotient   []EnrichedRepository `json:"repos_sorted_by_star_quotient"`
}

// AggregateResult maps every processed category to its result.
// Entries keep the order in which categories were processed, including in JSON.
type AggregateResult struct {
	Results []CategoryResult
}

// Add appends the result of one category.
func (a *AggregateResult) Add(result CategoryResult) {
	a.Results = append(a.Results, result)
}

// Categories lists the recorded categories in order.
func (a AggregateResult) Categories() []string {
	names := make([]string, 0, len(a.Results))
	for _, r := range a.Results {
		names = append(names, r.Category)
	}
	return names
}

// MarshalJSON encodes the aggregate as a JSON object keyed by category.
func (a AggregateResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range a.Results {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Category)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
