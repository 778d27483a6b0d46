package githubapi

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-github/v72/github"
	"golang.org/x/sync/errgroup"
)

const analysisSampleSize = 10

// LanguageShare is one language's portion of a repository's code
type LanguageShare struct {
	Name    string  `json:"name"`
	Bytes   int     `json:"bytes"`
	Percent float64 `json:"percent"`
}

// RepoAnalysis combines several reads of one repository into an overview
type RepoAnalysis struct {
	Repository       Repository      `json:"repository"`
	Languages        []LanguageShare `json:"languages"`
	TopContributors  []Contributor   `json:"top_contributors"`
	RecentCommits    []Commit        `json:"recent_commits"`
	OpenIssues       []Issue         `json:"open_issues"`
	OpenPullRequests []PullRequest   `json:"open_pull_requests"`
	Highlights       []string        `json:"highlights"`
}

func (a RepoAnalysis) Validate() error {
	if err := a.Repository.Validate(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	var total float64
	for _, l := range a.Languages {
		if l.Name == "" || l.Bytes < 0 {
			return errors.New("malformed language share")
		}
		total += l.Percent
	}
	if len(a.Languages) > 0 && (total < 99.0 || total > 101.0) {
		return fmt.Errorf("language shares sum to %.1f%%", total)
	}
	return nil
}

// AnalyzeRepository reads the repository, its languages, contributors, recent commits, open issues and open pull
// requests in parallel. If any read fails the whole analysis fails
func (c *Client) AnalyzeRepository(ctx context.Context, owner, repo string) (result *RepoAnalysis, err error) {
	const op = "analyze repository"
	ctx, span := c.startSpan(ctx, "AnalyzeRepository", repoAttrs(owner, repo)...)
	defer func() { endSpan(span, err) }()

	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}

	var (
		repository   *Repository
		languages    map[string]int
		contributors []Contributor
		commits      []Commit
		issues       []Issue
		pulls        []PullRequest
	)
	sample := PageRequest{PerPage: analysisSampleSize}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		repository, err = c.GetRepository(gctx, owner, repo)
		return err
	})
	g.Go(func() (err error) {
		languages, err = c.listLanguages(gctx, owner, repo)
		return err
	})
	g.Go(func() (err error) {
		contributors, err = c.listContributors(gctx, owner, repo, sample)
		return err
	})
	g.Go(func() (err error) {
		commits, err = c.ListCommits(gctx, owner, repo, CommitListOptions{PageRequest: sample})
		return err
	})
	g.Go(func() (err error) {
		issues, err = c.ListIssues(gctx, owner, repo, IssueListOptions{State: StateOpen, PageRequest: sample})
		return err
	})
	g.Go(func() (err error) {
		pulls, err = c.ListPullRequests(gctx, owner, repo, PullRequestListOptions{State: StateOpen, PageRequest: sample})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to analyze %s/%s: %w", owner, repo, err)
	}

	analysis := RepoAnalysis{
		Repository:       *repository,
		Languages:        languageShares(languages),
		TopContributors:  contributors,
		RecentCommits:    commits,
		OpenIssues:       issues,
		OpenPullRequests: pulls,
	}
	analysis.Highlights = highlights(analysis)

	analysis, err = validated(op, analysis)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (c *Client) listLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	languages, resp, err := c.gh.Repositories.ListLanguages(ctx, owner, repo)
	if err != nil {
		return nil, wrapError("list languages", resp, err)
	}
	return languages, nil
}

func (c *Client) listContributors(ctx context.Context, owner, repo string, page PageRequest) ([]Contributor, error) {
	const op = "list contributors"
	raw, resp, err := c.gh.Repositories.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{
		ListOptions: page.listOptions(),
	})
	if err != nil {
		return nil, wrapError(op, resp, err)
	}
	return convertAll(op, raw, newContributor)
}

// languageShares orders languages by size, largest first
func languageShares(languages map[string]int) []LanguageShare {
	total := 0
	for _, bytes := range languages {
		total += bytes
	}
	if total == 0 {
		return nil
	}

	shares := make([]LanguageShare, 0, len(languages))
	for name, bytes := range languages {
		shares = append(shares, LanguageShare{
			Name:    name,
			Bytes:   bytes,
			Percent: float64(bytes) * 100 / float64(total),
		})
	}
	slices.SortFunc(shares, func(a, b LanguageShare) int {
		if c := cmp.Compare(b.Bytes, a.Bytes); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return shares
}

func highlights(a RepoAnalysis) []string {
	r := a.Repository
	var out []string

	if r.Description != "" {
		out = append(out, r.Description)
	}
	out = append(out, fmt.Sprintf("%d stars, %d forks, %d open issues and pull requests",
		r.StargazersCount, r.ForksCount, r.OpenIssuesCount))

	if len(a.Languages) > 0 {
		primary := a.Languages[0]
		out = append(out, fmt.Sprintf("Primary language: %s (%.1f%%)", primary.Name, primary.Percent))
	}
	if r.PushedAt != nil {
		out = append(out, "Last push: "+r.PushedAt.Format("2006-01-02"))
	}
	if r.Archived {
		out = append(out, "Archived: no longer maintained")
	}

	if len(a.RecentCommits) > 0 {
		authors := map[string]bool{}
		for _, c := range a.RecentCommits {
			authors[cmp.Or(c.AuthorLogin, c.AuthorName)] = true
		}
		out = append(out, fmt.Sprintf("%d recent commits by %d authors", len(a.RecentCommits), len(authors)))
	}
	if len(a.TopContributors) > 0 {
		top := a.TopContributors[0]
		out = append(out, fmt.Sprintf("Top contributor: %s (%d contributions)", top.Login, top.Contributions))
	}
	return out
}
