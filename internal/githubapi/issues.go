package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v72/github"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// The issues endpoint returns pull requests interleaved with issues and cannot exclude them server-side, so
// ListIssues asks for issueOverfetchFactor times the requested count and trims after filtering
const issueOverfetchFactor = 3

// IssueListOptions filter ListIssues
type IssueListOptions struct {
	State    State // Defaults to open
	Labels   []string
	Assignee string // A login, "none" or "*"
	PageRequest
}

// ListIssues lists the issues of a repository, never including pull requests. When the page holds nothing but
// pull requests, it retries once with filter=issues before giving up.
//
// This is a heuristic: a repository whose most recent items are all pull requests may still yield fewer issues
// than requested, or none. Pull requests are interleaved unpredictably, so a requested window cannot be mapped to
// a raw offset. Only the first page over-fetches and retries at the largest page size; later pages keep the
// caller's per_page and page for both attempts so they read the window the caller asked for.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts IssueListOptions) (issues []Issue, err error) {
	const op = "list issues"
	ctx, span := c.startSpan(ctx, "ListIssues", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	page := opts.PageRequest.Normalize()
	want := page.PerPage

	fetch, retry := want, want
	if page.Page == 1 {
		fetch, retry = min(want*issueOverfetchFactor, MaxPerPage), MaxPerPage
	}

	ghOpts := &github.IssueListByRepoOptions{
		State:    opts.State.orDefault(),
		Labels:   opts.Labels,
		Assignee: opts.Assignee,
		ListOptions: github.ListOptions{
			PerPage: fetch,
			Page:    page.Page,
		},
	}

	raw, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, ghOpts)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}
	filtered := excludePullRequests(raw)
	c.traceIssueFilter(ctx, owner, repo, 1, ghOpts.ListOptions.PerPage, len(raw), len(filtered))

	if len(filtered) == 0 && len(raw) > 0 {
		// The whole page was pull requests
		ghOpts.ListOptions.PerPage = retry
		raw, resp, err = c.listIssuesOnly(ctx, owner, repo, ghOpts)
		if err != nil {
			return nil, wrapError(op, resp, err)
		}
		filtered = excludePullRequests(raw)
		c.traceIssueFilter(ctx, owner, repo, 2, ghOpts.ListOptions.PerPage, len(raw), len(filtered))
	}

	if len(filtered) > want {
		filtered = filtered[:want]
	}
	return convertAll(op, filtered, newIssue)
}

// listIssuesOnly requests the issues endpoint with filter=issues, which IssueListByRepoOptions cannot express
func (c *Client) listIssuesOnly(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	query := url.Values{}
	query.Set("filter", "issues")
	query.Set("state", opts.State)
	if len(opts.Labels) > 0 {
		query.Set("labels", strings.Join(opts.Labels, ","))
	}
	if opts.Assignee != "" {
		query.Set("assignee", opts.Assignee)
	}
	query.Set("per_page", strconv.Itoa(opts.ListOptions.PerPage))
	query.Set("page", strconv.Itoa(opts.ListOptions.Page))

	u := fmt.Sprintf("repos/%s/%s/issues?%s", url.PathEscape(owner), url.PathEscape(repo), query.Encode())
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	var issues []*github.Issue
	resp, err := c.gh.Do(ctx, req, &issues)
	if err != nil {
		return nil, resp, err
	}
	return issues, resp, nil
}

// excludePullRequests drops every item that carries a pull_request marker
func excludePullRequests(items []*github.Issue) []*github.Issue {
	issues := make([]*github.Issue, 0, len(items))
	for _, item := range items {
		if item == nil || item.IsPullRequest() {
			continue
		}
		issues = append(issues, item)
	}
	return issues
}

func (c *Client) traceIssueFilter(ctx context.Context, owner, repo string, attempt, perPage, raw, issues int) {
	c.logger.Debug("filtered pull requests from issues page",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.Int("attempt", attempt),
		zap.Int("per_page", perPage),
		zap.Int("raw", raw),
		zap.Int("pull_requests", raw-issues),
		zap.Int("issues", issues),
	)
	trace.SpanFromContext(ctx).AddEvent("issues.filter", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.Int("per_page", perPage),
		attribute.Int("raw", raw),
		attribute.Int("issues", issues),
	))
}

// CreateIssueComment posts a comment on an issue or pull request
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (result *Comment, err error) {
	const op = "create issue comment"
	ctx, span := c.startSpan(ctx, "CreateIssueComment", append(repoAttrs(owner, repo), attribute.Int("github.number", number))...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	if number <= 0 {
		return nil, invalidArgument("issue number must be positive, got %d", number)
	}
	if strings.TrimSpace(body) == "" {
		return nil, invalidArgument("comment body is empty")
	}

	raw, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	comment, err := validated(op, newComment(raw))
	if err != nil {
		return nil, err
	}
	c.logger.Info("created issue comment", append(zapRepo(owner, repo), zap.Int("number", number), zap.Int64("comment_id", comment.ID))...)
	return &comment, nil
}

// AddIssueLabels adds labels to an issue or pull request and returns the resulting label set
func (c *Client) AddIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) (result []Label, err error) {
	const op = "add issue labels"
	ctx, span := c.startSpan(ctx, "AddIssueLabels", append(repoAttrs(owner, repo), attribute.Int("github.number", number))...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	if number <= 0 {
		return nil, invalidArgument("issue number must be positive, got %d", number)
	}
	if len(labels) == 0 {
		return nil, invalidArgument("at least one label is required")
	}

	raw, resp, err := c.gh.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	return convertAll(op, raw, newLabel)
}

func zapRepo(owner, repo string) []zap.Field {
	return []zap.Field{zap.String("owner", owner), zap.String("repo", repo)}
}
