package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cchalm/repo-assistant/internal/githubapi"
)

// fakeGitHub records each call as "Method arg arg ..." and returns canned values
type fakeGitHub struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeGitHub) record(method string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := []string{method}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	f.calls = append(f.calls, strings.Join(parts, " "))
	return f.err
}

func (f *fakeGitHub) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func fakeRepo(owner, name string) githubapi.Repository {
	return githubapi.Repository{ID: 1, Name: name, FullName: owner + "/" + name, Owner: githubapi.Owner{Login: owner}}
}

func (f *fakeGitHub) GetRepository(ctx context.Context, owner, repo string) (*githubapi.Repository, error) {
	if err := f.record("GetRepository", owner, repo); err != nil {
		return nil, err
	}
	r := fakeRepo(owner, repo)
	return &r, nil
}

func (f *fakeGitHub) ListOrgRepositories(ctx context.Context, org string, opts githubapi.RepoListOptions) ([]githubapi.Repository, error) {
	if err := f.record("ListOrgRepositories", org, opts.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.Repository{fakeRepo(org, "one")}, nil
}

func (f *fakeGitHub) ListUserRepositories(ctx context.Context, user string, opts githubapi.RepoListOptions) ([]githubapi.Repository, error) {
	if err := f.record("ListUserRepositories", user, opts.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.Repository{fakeRepo(user, "one")}, nil
}

func (f *fakeGitHub) SearchRepositories(ctx context.Context, query string, opts githubapi.SearchOptions) (*githubapi.SearchResult, error) {
	if err := f.record("SearchRepositories", query, opts.Sort, opts.PerPage); err != nil {
		return nil, err
	}
	return &githubapi.SearchResult{TotalCount: 1, Items: []githubapi.Repository{fakeRepo("o", "r")}}, nil
}

func (f *fakeGitHub) ListIssues(ctx context.Context, owner, repo string, opts githubapi.IssueListOptions) ([]githubapi.Issue, error) {
	if err := f.record("ListIssues", owner, repo, opts.State, opts.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.Issue{{Number: 1, Title: "bug", State: "open"}}, nil
}

func (f *fakeGitHub) ListPullRequests(ctx context.Context, owner, repo string, opts githubapi.PullRequestListOptions) ([]githubapi.PullRequest, error) {
	if err := f.record("ListPullRequests", owner, repo, opts.State, opts.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.PullRequest{{Number: 2, Title: "fix", State: "open"}}, nil
}

func (f *fakeGitHub) ListCommits(ctx context.Context, owner, repo string, opts githubapi.CommitListOptions) ([]githubapi.Commit, error) {
	if err := f.record("ListCommits", owner, repo, opts.SHA, opts.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.Commit{{SHA: "abc123", Message: "init"}}, nil
}

func (f *fakeGitHub) ListBranches(ctx context.Context, owner, repo string, page githubapi.PageRequest) ([]githubapi.Branch, error) {
	if err := f.record("ListBranches", owner, repo, page.PerPage); err != nil {
		return nil, err
	}
	return []githubapi.Branch{{Name: "main"}}, nil
}

func (f *fakeGitHub) StarRepository(ctx context.Context, owner, repo string) (*githubapi.StarResult, error) {
	if err := f.record("StarRepository", owner, repo); err != nil {
		return nil, err
	}
	return &githubapi.StarResult{FullName: owner + "/" + repo, Starred: true}, nil
}

func (f *fakeGitHub) UnstarRepository(ctx context.Context, owner, repo string) (*githubapi.StarResult, error) {
	if err := f.record("UnstarRepository", owner, repo); err != nil {
		return nil, err
	}
	return &githubapi.StarResult{FullName: owner + "/" + repo}, nil
}

func (f *fakeGitHub) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*githubapi.Comment, error) {
	if err := f.record("CreateIssueComment", owner, repo, number, body); err != nil {
		return nil, err
	}
	return &githubapi.Comment{ID: 9, Body: body}, nil
}

func (f *fakeGitHub) AddIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]githubapi.Label, error) {
	if err := f.record("AddIssueLabels", owner, repo, number, strings.Join(labels, ",")); err != nil {
		return nil, err
	}
	out := make([]githubapi.Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, githubapi.Label{Name: l})
	}
	return out, nil
}

func (f *fakeGitHub) AnalyzeRepository(ctx context.Context, owner, repo string) (*githubapi.RepoAnalysis, error) {
	if err := f.record("AnalyzeRepository", owner, repo); err != nil {
		return nil, err
	}
	return &githubapi.RepoAnalysis{Repository: fakeRepo(owner, repo)}, nil
}
