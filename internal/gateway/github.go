// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-star-growth/internal/domain"
)

// Searcher finds the repositories of one category.
type Searcher interface {
	SearchRepositories(ctx context.Context, category string) ([]domain.RepositorySummary, error)
}

// StarEstimator estimates how many stars a repository had at a given instant.
type StarEstimator interface {
	EstimatePastStars(ctx context.Context, fullName string, at time.Time) (int, error)
}

// Options tunes the GitHub gateway.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string
	// PerPage is the search page size. Zero keeps the API default.
	PerPage int
}

// GitHubGateway talks to GitHub. Each method makes a single attempt; retries live in the callers.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *slog.Logger
	perPage       int
	// stargazerPageLimit is the last stargazer page GitHub will serve.
	stargazerPageLimit int
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, opts Options, logger *slog.Logger) (*GitHubGateway, error) {
	httpClient, err := NewHTTPClient(token, opts.UserAgent)
	if err != nil {
		return nil, err
	}
	return &GitHubGateway{
		restClient:         github.NewClient(httpClient),
		graphqlClient:      githubv4.NewClient(httpClient),
		logger:             logger,
		perPage:            opts.PerPage,
		stargazerPageLimit: maxStargazerPages,
	}, nil
}

// NewHTTPClient builds the authenticated client shared by the REST and GraphQL APIs.
// Requests wait out GitHub's secondary rate limits, sleeping at most an hour at a time.
func NewHTTPClient(token, userAgent string) (*http.Client, error) {
	var base http.RoundTripper = http.DefaultTransport
	if userAgent != "" {
		base = &userAgentTransport{base: base, userAgent: userAgent}
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
