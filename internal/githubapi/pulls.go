package githubapi

import (
	"context"

	"github.com/google/go-github/v72/github"
)

// PullRequestListOptions filter ListPullRequests
type PullRequestListOptions struct {
	State     State  // Defaults to open
	Head      string // user:ref-name
	Base      string
	Sort      string // created, updated, popularity, long-running
	Direction string
	PageRequest
}

// ListPullRequests lists the pull requests of a repository
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, opts PullRequestListOptions) (pulls []PullRequest, err error) {
	const op = "list pull requests"
	ctx, span := c.startSpan(ctx, "ListPullRequests", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	raw, resp, err := c.gh.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State:       opts.State.orDefault(),
		Head:        opts.Head,
		Base:        opts.Base,
		Sort:        opts.Sort,
		Direction:   opts.Direction,
		ListOptions: opts.listOptions(),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newPullRequest)
}
