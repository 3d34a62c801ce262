package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/github-star-growth/internal/domain"
	"github.com/naka-gawa/github-star-growth/internal/retry"
)

// Search backends understood by NewSearchBackend.
const (
	SearchAPIREST    = "rest"
	SearchAPIGraphQL = "graphql"
)

// defaultGraphQLPageSize matches the REST API's default page size.
const defaultGraphQLPageSize = 30

// SearchFunc runs one search request for a category.
type SearchFunc func(ctx context.Context, category string) ([]domain.RepositorySummary, error)

// searchRepositoriesQuery fetches the first page of a repository search.
type searchRepositoriesQuery struct {
	Search struct {
		Nodes []struct {
			Repository struct {
				NameWithOwner   string
				Description     *githubv4.String
				StargazerCount  int
				PrimaryLanguage struct {
					Name string
				}
			} `graphql:"... on Repository"`
		}
	} `graphql:"search(query: $query, type: REPOSITORY, first: $first)"`
}

// BuildSearchQuery returns the search query used for a category.
func BuildSearchQuery(category string) string {
	return fmt.Sprintf(`"%s" language:JavaScript language:TypeScript`, category)
}

// NewSearchBackend picks the API used to run searches.
func (g *GitHubGateway) NewSearchBackend(api string) (SearchFunc, error) {
	switch api {
	case "", SearchAPIREST:
		return g.SearchRepositoriesREST, nil
	case SearchAPIGraphQL:
		return g.SearchRepositoriesGraphQL, nil
	default:
		return nil, fmt.Errorf("unknown search API %q", api)
	}
}

// SearchRepositoriesREST returns the first page of repositories for a category, most starred first.
func (g *GitHubGateway) SearchRepositoriesREST(ctx context.Context, category string) ([]domain.RepositorySummary, error) {
	opts := &github.SearchOptions{Sort: "stars", Order: "desc"}
	if g.perPage > 0 {
		opts.ListOptions.PerPage = g.perPage
	}
	result, _, err := g.restClient.Search.Repositories(ctx, BuildSearchQuery(category), opts)
	if err != nil {
		err = fmt.Errorf("failed to search repositories with REST API: %w", err)
		// A rejected query fails the same way every time.
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusUnprocessableEntity {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	repos := make([]domain.RepositorySummary, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, domain.RepositorySummary{
			FullName:         r.GetFullName(),
			Description:      r.Description,
			CurrentStarCount: r.GetStargazersCount(),
			Language:         r.GetLanguage(),
		})
	}
	return repos, nil
}

// SearchRepositoriesGraphQL is SearchRepositoriesREST over the GraphQL API.
func (g *GitHubGateway) SearchRepositoriesGraphQL(ctx context.Context, category string) ([]domain.RepositorySummary, error) {
	first := g.perPage
	if first <= 0 {
		first = defaultGraphQLPageSize
	}
	variables := map[string]interface{}{
		"query": githubv4.String(BuildSearchQuery(category) + " sort:stars-desc"),
		"first": githubv4.Int(first),
	}
	var q searchRepositoriesQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repositories: %w", err)
	}
	repos := make([]domain.RepositorySummary, 0, len(q.Search.Nodes))
	for _, node := range q.Search.Nodes {
		r := node.Repository
		if r.NameWithOwner == "" {
			continue
		}
		var description *string
		if r.Description != nil {
			d := string(*r.Description)
			description = &d
		}
		repos = append(repos, domain.RepositorySummary{
			FullName:         r.NameWithOwner,
			Description:      description,
			CurrentStarCount: r.StargazerCount,
			Language:         r.PrimaryLanguage.Name,
		})
	}
	return repos, nil
}

// SearchClient is the Searcher used by the pipeline. It retries the backend according
// to its policy and drops repositories at or above the star ceiling.
type SearchClient struct {
	search  SearchFunc
	policy  retry.Policy
	ceiling int
	logger  *slog.Logger
}

// NewSearchClient creates a SearchClient. A ceiling of zero disables the filter.
func NewSearchClient(search SearchFunc, policy retry.Policy, ceiling int, logger *slog.Logger) *SearchClient {
	return &SearchClient{
		search:  search,
		policy:  policy,
		ceiling: ceiling,
		logger:  logger,
	}
}

// SearchRepositories implements Searcher.
func (c *SearchClient) SearchRepositories(ctx context.Context, category string) ([]domain.RepositorySummary, error) {
	if category == "" {
		return nil, errors.New("category must not be empty")
	}
	attempt := 0
	repos, err := retry.Do(ctx, c.policy, func() ([]domain.RepositorySummary, error) {
		attempt++
		c.logger.Info("searching repositories", "category", category, "attempt", attempt)
		return c.search(ctx, category)
	}, func(err error, wait time.Duration) {
		c.logger.Error("repository search failed, retrying", "category", category, "error", err, "wait", wait.String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories in category %q: %w", category, err)
	}
	return c.filter(repos), nil
}

func (c *SearchClient) filter(repos []domain.RepositorySummary) []domain.RepositorySummary {
	if c.ceiling <= 0 {
		return repos
	}
	kept := make([]domain.RepositorySummary, 0, len(repos))
	for _, r := range repos {
		if r.CurrentStarCount >= c.ceiling {
			c.logger.Debug("dropping repository above star ceiling", "repo", r.FullName, "stars", r.CurrentStarCount, "ceiling", c.ceiling)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
