package githubapi

import (
	"context"

	"github.com/google/go-github/v72/github"
	"go.opentelemetry.io/otel/attribute"
)

// RepoListOptions filter organization and user repository listings. Empty fields use GitHub's defaults
type RepoListOptions struct {
	Type      string // all, owner, member, public, private, forks, sources
	Sort      string // created, updated, pushed, full_name
	Direction string // asc, desc
	PageRequest
}

// GetRepository fetches a single repository
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (result *Repository, err error) {
	const op = "get repository"
	ctx, span := c.startSpan(ctx, "GetRepository", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	repository, err := validated(op, newRepository(r))
	if err != nil {
		return nil, err
	}
	return &repository, nil
}

// ListOrgRepositories lists the repositories of an organization
func (c *Client) ListOrgRepositories(ctx context.Context, org string, opts RepoListOptions) (repos []Repository, err error) {
	const op = "list organization repositories"
	ctx, span := c.startSpan(ctx, "ListOrgRepositories", attribute.String("github.org", org))
	defer func() { endSpan(span, err) }()

	if org == "" {
		return nil, invalidArgument("organization is required")
	}

	ghOpts := &github.RepositoryListByOrgOptions{
		Type:        opts.Type,
		Sort:        opts.Sort,
		Direction:   opts.Direction,
		ListOptions: opts.listOptions(),
	}
	raw, resp, err := c.gh.Repositories.ListByOrg(ctx, org, ghOpts)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newRepository)
}

// ListUserRepositories lists the public repositories of a user
func (c *Client) ListUserRepositories(ctx context.Context, user string, opts RepoListOptions) (repos []Repository, err error) {
	const op = "list user repositories"
	ctx, span := c.startSpan(ctx, "ListUserRepositories", attribute.String("github.user", user))
	defer func() { endSpan(span, err) }()

	if user == "" {
		return nil, invalidArgument("user is required")
	}

	ghOpts := &github.RepositoryListByUserOptions{
		Type:        opts.Type,
		Sort:        opts.Sort,
		Direction:   opts.Direction,
		ListOptions: opts.listOptions(),
	}
	raw, resp, err := c.gh.Repositories.ListByUser(ctx, user, ghOpts)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newRepository)
}

// ListBranches lists the branches of a repository
func (c *Client) ListBranches(ctx context.Context, owner, repo string, page PageRequest) (branches []Branch, err error) {
	const op = "list branches"
	ctx, span := c.startSpan(ctx, "ListBranches", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	raw, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, &github.BranchListOptions{
		ListOptions: page.listOptions(),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newBranch)
}

// StarRepository stars a repository as the authenticated user
func (c *Client) StarRepository(ctx context.Context, owner, repo string) (result *StarResult, err error) {
	const op = "star repository"
	ctx, span := c.startSpan(ctx, "StarRepository", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	resp, err := c.gh.Activity.Star(ctx, owner, repo)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	c.logger.Info("starred repository", zapRepo(owner, repo)...)
	return &StarResult{FullName: owner + "/" + repo, Starred: true}, nil
}

// UnstarRepository removes the authenticated user's star from a repository
func (c *Client) UnstarRepository(ctx context.Context, owner, repo string) (result *StarResult, err error) {
	const op = "unstar repository"
	ctx, span := c.startSpan(ctx, "UnstarRepository", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	resp, err := c.gh.Activity.Unstar(ctx, owner, repo)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	c.logger.Info("unstarred repository", zapRepo(owner, repo)...)
	return &StarResult{FullName: owner + "/" + repo, Starred: false}, nil
}

func requireRepo(owner, repo string) error {
	if owner == "" || repo == "" {
		return invalidArgument("owner and repo are required")
	}
	return nil
}
