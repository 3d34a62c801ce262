package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"

	"github.com/naka-gawa/github-star-growth/internal/retry"
)

const (
	stargazersPerPage = 100
	// GitHub refuses to paginate stargazers past this page.
	maxStargazerPages = 400
)

// EstimatePastStars counts the stargazers who starred fullName at or before at.
//
// Stargazers are listed oldest first, so the page holding the reference date is
// found with a binary search over pages instead of walking the whole list.
// Repositories whose stargazers before at do not fit in the pages GitHub serves
// get the reachable lower bound.
func (g *GitHubGateway) EstimatePastStars(ctx context.Context, fullName string, at time.Time) (int, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return 0, err
	}

	pages := make(map[int][]*github.Stargazer)
	fetch := func(page int) ([]*github.Stargazer, *github.Response, error) {
		if cached, ok := pages[page]; ok {
			return cached, nil, nil
		}
		opts := &github.ListOptions{Page: page, PerPage: stargazersPerPage}
		stargazers, resp, err := g.restClient.Activity.ListStargazers(ctx, owner, name, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list stargazers of %s (page %d): %w", fullName, page, err)
		}
		pages[page] = stargazers
		return stargazers, resp, nil
	}

	first, resp, err := fetch(1)
	if err != nil {
		return 0, err
	}
	if len(first) == 0 || !starredBy(first[0], at) {
		return 0, nil
	}

	lastPage := resp.LastPage
	if lastPage == 0 {
		lastPage = 1
	}
	truncated := false
	if lastPage > g.stargazerPageLimit {
		lastPage = g.stargazerPageLimit
		truncated = true
	}

	// lo always names a page whose first stargazer counts.
	lo, hi := 1, lastPage
	for lo < hi {
		mid := (lo + hi + 1) / 2
		page, _, err := fetch(mid)
		if err != nil {
			return 0, err
		}
		if len(page) > 0 && starredBy(page[0], at) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	page := pages[lo]
	count := 0
	for _, s := range page {
		if starredBy(s, at) {
			count++
		}
	}
	if truncated && lo == lastPage && count == len(page) {
		g.logger.Warn("stargazer history exceeds what GitHub serves, using lower bound",
			"repo", fullName, "pages", lastPage)
	}
	return (lo-1)*stargazersPerPage + count, nil
}

func starredBy(s *github.Stargazer, at time.Time) bool {
	return !s.GetStarredAt().Time.After(at)
}

func splitFullName(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", fullName)
	}
	return owner, name, nil
}

// RetryingEstimator retries another StarEstimator according to a policy.
type RetryingEstimator struct {
	next   StarEstimator
	policy retry.Policy
	logger *slog.Logger
}

// NewRetryingEstimator wraps next with policy.
func NewRetryingEstimator(next StarEstimator, policy retry.Policy, logger *slog.Logger) *RetryingEstimator {
	return &RetryingEstimator{next: next, policy: policy, logger: logger}
}

// EstimatePastStars implements StarEstimator.
func (e *RetryingEstimator) EstimatePastStars(ctx context.Context, fullName string, at time.Time) (int, error) {
	return retry.Do(ctx, e.policy, func() (int, error) {
		return e.next.EstimatePastStars(ctx, fullName, at)
	}, func(err error, wait time.Duration) {
		e.logger.Error("star estimation failed, retrying", "repo", fullName, "error", err, "wait", wait.String())
	})
}
