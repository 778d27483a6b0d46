package githubapi

import (
	"context"
	"time"

	"github.com/google/go-github/v72/github"
)

// CommitListOptions filter ListCommits
type CommitListOptions struct {
	SHA    string // Branch name or commit SHA to start from
	Path   string
	Author string
	Since  time.Time
	Until  time.Time
	PageRequest
}

// ListCommits lists commits of a repository, newest first
func (c *Client) ListCommits(ctx context.Context, owner, repo string, opts CommitListOptions) (commits []Commit, err error) {
	const op = "list commits"
	ctx, span := c.startSpan(ctx, "ListCommits", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	raw, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		SHA:         opts.SHA,
		Path:        opts.Path,
		Author:      opts.Author,
		Since:       opts.Since,
		Until:       opts.Until,
		ListOptions: opts.listOptions(),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newCommit)
}
