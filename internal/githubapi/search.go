package githubapi

import (
	"context"
	"strings"

	"github.com/google/go-github/v72/github"
	"go.opentelemetry.io/otel/attribute"
)

// SearchOptions control repository search ordering
type SearchOptions struct {
	Sort  string // stars, forks, help-wanted-issues, updated; empty means best match
	Order string // asc, desc
	PageRequest
}

// SearchRepositories runs a repository search. query uses GitHub's search syntax, e.g. "cli language:go user:spf13"
func (c *Client) SearchRepositories(ctx context.Context, query string, opts SearchOptions) (result *SearchResult, err error) {
	const op = "search repositories"
	ctx, span := c.startSpan(ctx, "SearchRepositories", attribute.String("github.query", query))
	defer func() { endSpan(span, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidArgument("search query is empty")
	}

	raw, resp, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:        opts.Sort,
		Order:       opts.Order,
		ListOptions: opts.listOptions(),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}
	if raw == nil {
		raw = &github.RepositoriesSearchResult{}
	}

	items, err := convertAll(op, raw.Repositories, newRepository)
	if err != nil {
		return nil, err
	}
	search, err := validated(op, SearchResult{
		TotalCount:        raw.GetTotal(),
		IncompleteResults: raw.GetIncompleteResults(),
		Items:             items,
	})
	if err != nil {
		return nil, err
	}
	return &search, nil
}
