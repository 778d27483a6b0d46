package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/cchalm/repo-assistant/internal/githubapi"
)

// GitHub is the set of adapter operations tools call. *githubapi.Client implements it
type GitHub interface {
	GetRepository(ctx context.Context, owner, repo string) (*githubapi.Repository, error)
	ListOrgRepositories(ctx context.Context, org string, opts githubapi.RepoListOptions) ([]githubapi.Repository, error)
	ListUserRepositories(ctx context.Context, user string, opts githubapi.RepoListOptions) ([]githubapi.Repository, error)
	SearchRepositories(ctx context.Context, query string, opts githubapi.SearchOptions) (*githubapi.SearchResult, error)
	ListIssues(ctx context.Context, owner, repo string, opts githubapi.IssueListOptions) ([]githubapi.Issue, error)
	ListPullRequests(ctx context.Context, owner, repo string, opts githubapi.PullRequestListOptions) ([]githubapi.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo string, opts githubapi.CommitListOptions) ([]githubapi.Commit, error)
	ListBranches(ctx context.Context, owner, repo string, page githubapi.PageRequest) ([]githubapi.Branch, error)
	StarRepository(ctx context.Context, owner, repo string) (*githubapi.StarResult, error)
	UnstarRepository(ctx context.Context, owner, repo string) (*githubapi.StarResult, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*githubapi.Comment, error)
	AddIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]githubapi.Label, error)
	AnalyzeRepository(ctx context.Context, owner, repo string) (*githubapi.RepoAnalysis, error)
}

var _ GitHub = (*githubapi.Client)(nil)

// githubTool is a tool whose input decodes into In and whose work is one adapter call
type githubTool[In any] struct {
	param anthropic.ToolParam
	call  func(ctx context.Context, gh GitHub, in In) (any, error)
}

func (t *githubTool[In]) GetToolParam() anthropic.ToolParam {
	return t.param
}

func (t *githubTool[In]) Run(ctx context.Context, input json.RawMessage, toolCtx *ToolContext) (any, error) {
	var in In
	if err := decodeParams(t.param.InputSchema, input, &in); err != nil {
		return nil, err
	}
	return t.call(ctx, toolCtx.GitHub, in)
}

func newGitHubTool[In any](name, description string, schema anthropic.ToolInputSchemaParam, call func(ctx context.Context, gh GitHub, in In) (any, error)) Tool {
	return &githubTool[In]{
		param: anthropic.ToolParam{
			Name:        name,
			Description: anthropic.String(description),
			InputSchema: schema,
		},
		call: call,
	}
}

// result drops typed nil pointers so that a failed call never yields a non-nil any
func result[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

type repoInput struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

type pageInput struct {
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

func (p pageInput) pageRequest() githubapi.PageRequest {
	return githubapi.PageRequest{PerPage: p.PerPage, Page: p.Page}
}

type repoListInput struct {
	Org       string `json:"org"`
	User      string `json:"user"`
	Type      string `json:"type"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
	pageInput
}

func (in repoListInput) options() githubapi.RepoListOptions {
	return githubapi.RepoListOptions{Type: in.Type, Sort: in.Sort, Direction: in.Direction, PageRequest: in.pageRequest()}
}

type searchInput struct {
	Query string `json:"query"`
	Sort  string `json:"sort"`
	Order string `json:"order"`
	pageInput
}

type issuesInput struct {
	repoInput
	State    string   `json:"state"`
	Labels   []string `json:"labels"`
	Assignee string   `json:"assignee"`
	pageInput
}

type pullsInput struct {
	repoInput
	State     string `json:"state"`
	Head      string `json:"head"`
	Base      string `json:"base"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
	pageInput
}

type commitsInput struct {
	repoInput
	SHA    string `json:"sha"`
	Path   string `json:"path"`
	Author string `json:"author"`
	Since  string `json:"since"`
	Until  string `json:"until"`
	pageInput
}

type commentInput struct {
	repoInput
	Number int    `json:"number"`
	Body   string `json:"body"`
}

type labelsInput struct {
	repoInput
	Number int      `json:"number"`
	Labels []string `json:"labels"`
}

var (
	ownerProp   = stringProp("Repository owner: a user or organization login")
	repoProp    = stringProp("Repository name")
	perPageProp = integerProp("Number of results, 1 to 100")
	pageProp    = integerProp("Page number, starting at 1")
	stateProp   = enumProp("Filter by state; defaults to open", "open", "closed", "all")
)

func repoProps(extra map[string]any) map[string]any {
	props := map[string]any{"owner": ownerProp, "repo": repoProp}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func githubTools() []Tool {
	repoRequired := []string{"owner", "repo"}

	return []Tool{
		newGitHubTool("get_repository", "Get details of a GitHub repository",
			objectSchema(repoRequired, repoProps(nil)),
			func(ctx context.Context, gh GitHub, in repoInput) (any, error) {
				return result(gh.GetRepository(ctx, in.Owner, in.Repo))
			}),

		newGitHubTool("list_org_repos", "List the repositories of a GitHub organization",
			objectSchema([]string{"org"}, map[string]any{
				"org":       stringProp("Organization login"),
				"type":      enumProp("Which repositories to list", "all", "public", "private", "forks", "sources", "member"),
				"sort":      enumProp("Sort field", "created", "updated", "pushed", "full_name"),
				"direction": enumProp("Sort direction", "asc", "desc"),
				"per_page":  perPageProp,
				"page":      pageProp,
			}),
			func(ctx context.Context, gh GitHub, in repoListInput) (any, error) {
				return result(gh.ListOrgRepositories(ctx, in.Org, in.options()))
			}),

		newGitHubTool("list_user_repos", "List the public repositories of a GitHub user",
			objectSchema([]string{"user"}, map[string]any{
				"user":      stringProp("User login"),
				"type":      enumProp("Which repositories to list", "all", "owner", "member"),
				"sort":      enumProp("Sort field", "created", "updated", "pushed", "full_name"),
				"direction": enumProp("Sort direction", "asc", "desc"),
				"per_page":  perPageProp,
				"page":      pageProp,
			}),
			func(ctx context.Context, gh GitHub, in repoListInput) (any, error) {
				return result(gh.ListUserRepositories(ctx, in.User, in.options()))
			}),

		newGitHubTool("search_repos", "Search GitHub repositories using GitHub search syntax, e.g. \"cli language:go\"",
			objectSchema([]string{"query"}, map[string]any{
				"query":    stringProp("Search query with optional qualifiers such as user:, org:, language:, topic:"),
				"sort":     enumProp("Sort field; omit for best match", "stars", "forks", "help-wanted-issues", "updated"),
				"order":    enumProp("Sort order", "asc", "desc"),
				"per_page": perPageProp,
				"page":     pageProp,
			}),
			func(ctx context.Context, gh GitHub, in searchInput) (any, error) {
				return result(gh.SearchRepositories(ctx, in.Query, githubapi.SearchOptions{
					Sort:        in.Sort,
					Order:       in.Order,
					PageRequest: in.pageRequest(),
				}))
			}),

		newGitHubTool("list_issues", "List issues of a repository. Pull requests are never included",
			objectSchema(repoRequired, repoProps(map[string]any{
				"state":    stateProp,
				"labels":   stringArrayProp("Only issues that have all of these labels"),
				"assignee": stringProp("A login, \"none\" or \"*\""),
				"per_page": perPageProp,
				"page":     pageProp,
			})),
			func(ctx context.Context, gh GitHub, in issuesInput) (any, error) {
				return result(gh.ListIssues(ctx, in.Owner, in.Repo, githubapi.IssueListOptions{
					State:       githubapi.State(in.State),
					Labels:      in.Labels,
					Assignee:    in.Assignee,
					PageRequest: in.pageRequest(),
				}))
			}),

		newGitHubTool("list_pull_requests", "List pull requests of a repository",
			objectSchema(repoRequired, repoProps(map[string]any{
				"state":     stateProp,
				"head":      stringProp("Filter by head, as user:ref-name"),
				"base":      stringProp("Filter by base branch"),
				"sort":      enumProp("Sort field", "created", "updated", "popularity", "long-running"),
				"direction": enumProp("Sort direction", "asc", "desc"),
				"per_page":  perPageProp,
				"page":      pageProp,
			})),
			func(ctx context.Context, gh GitHub, in pullsInput) (any, error) {
				return result(gh.ListPullRequests(ctx, in.Owner, in.Repo, githubapi.PullRequestListOptions{
					State:       githubapi.State(in.State),
					Head:        in.Head,
					Base:        in.Base,
					Sort:        in.Sort,
					Direction:   in.Direction,
					PageRequest: in.pageRequest(),
				}))
			}),

		newGitHubTool("list_commits", "List commits of a repository, newest first",
			objectSchema(repoRequired, repoProps(map[string]any{
				"sha":      stringProp("Branch name or commit SHA to start from"),
				"path":     stringProp("Only commits touching this path"),
				"author":   stringProp("Only commits by this login or email"),
				"since":    stringProp("RFC 3339 timestamp; only commits after it"),
				"until":    stringProp("RFC 3339 timestamp; only commits before it"),
				"per_page": perPageProp,
				"page":     pageProp,
			})),
			func(ctx context.Context, gh GitHub, in commitsInput) (any, error) {
				since, err := parseTime("since", in.Since)
				if err != nil {
					return nil, err
				}
				until, err := parseTime("until", in.Until)
				if err != nil {
					return nil, err
				}
				return result(gh.ListCommits(ctx, in.Owner, in.Repo, githubapi.CommitListOptions{
					SHA:         in.SHA,
					Path:        in.Path,
					Author:      in.Author,
					Since:       since,
					Until:       until,
					PageRequest: in.pageRequest(),
				}))
			}),

		newGitHubTool("list_branches", "List branches of a repository",
			objectSchema(repoRequired, repoProps(map[string]any{
				"per_page": perPageProp,
				"page":     pageProp,
			})),
			func(ctx context.Context, gh GitHub, in struct {
				repoInput
				pageInput
			}) (any, error) {
				return result(gh.ListBranches(ctx, in.Owner, in.Repo, in.pageRequest()))
			}),

		newGitHubTool("analyze_repository", "Summarize a repository: languages, contributors, recent activity, open issues and pull requests",
			objectSchema(repoRequired, repoProps(nil)),
			func(ctx context.Context, gh GitHub, in repoInput) (any, error) {
				return result(gh.AnalyzeRepository(ctx, in.Owner, in.Repo))
			}),

		newGitHubTool("star_repo", "Star a repository as the authenticated user",
			objectSchema(repoRequired, repoProps(nil)),
			func(ctx context.Context, gh GitHub, in repoInput) (any, error) {
				return result(gh.StarRepository(ctx, in.Owner, in.Repo))
			}),

		newGitHubTool("unstar_repo", "Remove the authenticated user's star from a repository",
			objectSchema(repoRequired, repoProps(nil)),
			func(ctx context.Context, gh GitHub, in repoInput) (any, error) {
				return result(gh.UnstarRepository(ctx, in.Owner, in.Repo))
			}),

		newGitHubTool("create_issue_comment", "Comment on an issue or pull request",
			objectSchema([]string{"owner", "repo", "number", "body"}, repoProps(map[string]any{
				"number": integerProp("Issue or pull request number"),
				"body":   stringProp("Comment text; markdown supported"),
			})),
			func(ctx context.Context, gh GitHub, in commentInput) (any, error) {
				return result(gh.CreateIssueComment(ctx, in.Owner, in.Repo, in.Number, in.Body))
			}),

		newGitHubTool("add_issue_labels", "Add labels to an issue or pull request",
			objectSchema([]string{"owner", "repo", "number", "labels"}, repoProps(map[string]any{
				"number": integerProp("Issue or pull request number"),
				"labels": stringArrayProp("Labels to add"),
			})),
			func(ctx context.Context, gh GitHub, in labelsInput) (any, error) {
				return result(gh.AddIssueLabels(ctx, in.Owner, in.Repo, in.Number, in.Labels))
			}),
	}
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, NewToolInputError(fmt.Errorf("parameter %q: expected an RFC 3339 timestamp: %w", field, err))
	}
	return t, nil
}
