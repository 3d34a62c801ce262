package usecase

import (
	"sort"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

// RankByStarDifference returns a copy of repos sorted by star difference, largest first.
// Ties keep their input order.
func RankByStarDifference(repos []domain.EnrichedRepository) []domain.EnrichedRepository {
	ranked := clone(repos)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].StarDifference > ranked[j].StarDifference
	})
	return ranked
}

// RankByStarQuotient returns a copy of repos sorted by star quotient, largest first.
// Infinite quotients come first; ties keep their input order.
func RankByStarQuotient(repos []domain.EnrichedRepository) []domain.EnrichedRepository {
	ranked := clone(repos)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].StarQuotient > ranked[j].StarQuotient
	})
	return ranked
}

// clone never returns nil so that empty rankings encode as [].
func clone(repos []domain.EnrichedRepository) []domain.EnrichedRepository {
	out := make([]domain.EnrichedRepository, len(repos))
	copy(out, repos)
	return out
}
