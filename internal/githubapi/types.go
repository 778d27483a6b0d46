package githubapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v72/github"
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 100
)

// State filters issues and pull requests
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateAll    State = "all"
)

// ParseState accepts "open", "closed", "all" or the empty string
func ParseState(s string) (State, error) {
	switch State(s) {
	case "", StateOpen, StateClosed, StateAll:
		return State(s), nil
	}
	return "", invalidArgument("state must be one of open, closed, all; got %q", s)
}

func (s State) orDefault() string {
	if s == "" {
		return string(StateOpen)
	}
	return string(s)
}

// PageRequest bounds how many results a single call returns
type PageRequest struct {
	PerPage int `json:"per_page,omitempty"`
	Page    int `json:"page,omitempty"`
}

// ClampPerPage limits n to [1, MaxPerPage]
func ClampPerPage(n int) int {
	return max(1, min(n, MaxPerPage))
}

// Normalize fills in defaults and clamps out-of-range values
func (p PageRequest) Normalize() PageRequest {
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	p.PerPage = ClampPerPage(p.PerPage)
	p.Page = max(p.Page, 1)
	return p
}

func (p PageRequest) listOptions() github.ListOptions {
	p = p.Normalize()
	return github.ListOptions{PerPage: p.PerPage, Page: p.Page}
}

// Owner is the account a repository, issue, or comment belongs to
type Owner struct {
	Login   string `json:"login"`
	Type    string `json:"type,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
}

type Repository struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Owner           Owner      `json:"owner"`
	Description     string     `json:"description,omitempty"`
	HTMLURL         string     `json:"html_url"`
	Homepage        string     `json:"homepage,omitempty"`
	Language        string     `json:"language,omitempty"`
	Topics          []string   `json:"topics,omitempty"`
	License         string     `json:"license,omitempty"`
	DefaultBranch   string     `json:"default_branch,omitempty"`
	Private         bool       `json:"private"`
	Fork            bool       `json:"fork"`
	Archived        bool       `json:"archived"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	WatchersCount   int        `json:"watchers_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	PushedAt        *time.Time `json:"pushed_at,omitempty"`
}

func (r Repository) Validate() error {
	var errs []error
	if r.ID <= 0 {
		errs = append(errs, errors.New("missing id"))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("missing name"))
	}
	if r.FullName == "" {
		errs = append(errs, errors.New("missing full_name"))
	}
	if r.Owner.Login == "" {
		errs = append(errs, errors.New("missing owner.login"))
	}
	if r.StargazersCount < 0 || r.ForksCount < 0 || r.OpenIssuesCount < 0 {
		errs = append(errs, errors.New("negative count"))
	}
	return errors.Join(errs...)
}

type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

func (l Label) Validate() error {
	if l.Name == "" {
		return errors.New("missing name")
	}
	return nil
}

type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url"`
	Body      string     `json:"body,omitempty"`
	User      Owner      `json:"user"`
	Labels    []Label    `json:"labels,omitempty"`
	Assignees []string   `json:"assignees,omitempty"`
	Comments  int        `json:"comments"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func (i Issue) Validate() error {
	return validateNumbered(i.Number, i.Title, i.State, i.Labels)
}

type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Draft     bool       `json:"draft"`
	HTMLURL   string     `json:"html_url"`
	Body      string     `json:"body,omitempty"`
	User      Owner      `json:"user"`
	Head      string     `json:"head,omitempty"`
	Base      string     `json:"base,omitempty"`
	Labels    []Label    `json:"labels,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
}

func (p PullRequest) Validate() error {
	return validateNumbered(p.Number, p.Title, p.State, p.Labels)
}

func validateNumbered(number int, title string, state string, labels []Label) error {
	var errs []error
	if number <= 0 {
		errs = append(errs, errors.New("missing number"))
	}
	if title == "" {
		errs = append(errs, errors.New("missing title"))
	}
	if state != string(StateOpen) && state != string(StateClosed) {
		errs = append(errs, fmt.Errorf("unexpected state %q", state))
	}
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("label: %w", err))
		}
	}
	return errors.Join(errs...)
}

type Commit struct {
	SHA         string     `json:"sha"`
	Message     string     `json:"message"`
	AuthorName  string     `json:"author_name,omitempty"`
	AuthorLogin string     `json:"author_login,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	HTMLURL     string     `json:"html_url,omitempty"`
}

func (c Commit) Validate() error {
	if c.SHA == "" {
		return errors.New("missing sha")
	}
	return nil
}

type Branch struct {
	Name      string `json:"name"`
	SHA       string `json:"sha,omitempty"`
	Protected bool   `json:"protected"`
}

func (b Branch) Validate() error {
	if b.Name == "" {
		return errors.New("missing name")
	}
	return nil
}

type Comment struct {
	ID        int64      `json:"id"`
	Body      string     `json:"body"`
	User      Owner      `json:"user"`
	HTMLURL   string     `json:"html_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (c Comment) Validate() error {
	if c.ID <= 0 {
		return errors.New("missing id")
	}
	return nil
}

type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

func (c Contributor) Validate() error {
	if c.Login == "" {
		return errors.New("missing login")
	}
	return nil
}

type SearchResult struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`
}

func (s SearchResult) Validate() error {
	if s.TotalCount < len(s.Items) && !s.IncompleteResults {
		return fmt.Errorf("total_count %d is less than the %d items returned", s.TotalCount, len(s.Items))
	}
	for i, item := range s.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// StarResult reports the outcome of starring or unstarring
type StarResult struct {
	FullName string `json:"full_name"`
	Starred  bool   `json:"starred"`
}

func (s StarResult) Validate() error {
	if s.FullName == "" {
		return errors.New("missing full_name")
	}
	return nil
}

type validatable interface {
	Validate() error
}

// convertAll converts and validates every item of a go-github list response
func convertAll[S any, D validatable](op string, items []S, fn func(S) D) ([]D, error) {
	out := make([]D, 0, len(items))
	for i, item := range items {
		d := fn(item)
		if err := d.Validate(); err != nil {
			return nil, &ValidationError{Op: op, Field: fmt.Sprintf("item %d", i), Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

// validated returns v if it passes its shape check
func validated[D validatable](op string, v D) (D, error) {
	if err := v.Validate(); err != nil {
		var zero D
		return zero, &ValidationError{Op: op, Err: err}
	}
	return v, nil
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

func newOwner(u *github.User) Owner {
	return Owner{
		Login:   u.GetLogin(),
		Type:    u.GetType(),
		HTMLURL: u.GetHTMLURL(),
	}
}

func newRepository(r *github.Repository) Repository {
	if r == nil {
		return Repository{}
	}
	return Repository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Owner:           newOwner(r.GetOwner()),
		Description:     r.GetDescription(),
		HTMLURL:         r.GetHTMLURL(),
		Homepage:        r.GetHomepage(),
		Language:        r.GetLanguage(),
		Topics:          r.Topics,
		License:         r.GetLicense().GetSPDXID(),
		DefaultBranch:   r.GetDefaultBranch(),
		Private:         r.GetPrivate(),
		Fork:            r.GetFork(),
		Archived:        r.GetArchived(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		WatchersCount:   r.GetWatchersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		CreatedAt:       timePtr(r.CreatedAt),
		UpdatedAt:       timePtr(r.UpdatedAt),
		PushedAt:        timePtr(r.PushedAt),
	}
}

func newLabel(l *github.Label) Label {
	return Label{
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}

func newLabels(labels []*github.Label) []Label {
	if len(labels) == 0 {
		return nil
	}
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, newLabel(l))
	}
	return out
}

func newIssue(i *github.Issue) Issue {
	if i == nil {
		return Issue{}
	}
	var assignees []string
	for _, a := range i.Assignees {
		assignees = append(assignees, a.GetLogin())
	}
	return Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		State:     i.GetState(),
		HTMLURL:   i.GetHTMLURL(),
		Body:      i.GetBody(),
		User:      newOwner(i.GetUser()),
		Labels:    newLabels(i.Labels),
		Assignees: assignees,
		Comments:  i.GetComments(),
		CreatedAt: timePtr(i.CreatedAt),
		UpdatedAt: timePtr(i.UpdatedAt),
		ClosedAt:  timePtr(i.ClosedAt),
	}
}

func newPullRequest(p *github.PullRequest) PullRequest {
	if p == nil {
		return PullRequest{}
	}
	return PullRequest{
		Number:    p.GetNumber(),
		Title:     p.GetTitle(),
		State:     p.GetState(),
		Draft:     p.GetDraft(),
		HTMLURL:   p.GetHTMLURL(),
		Body:      p.GetBody(),
		User:      newOwner(p.GetUser()),
		Head:      p.GetHead().GetRef(),
		Base:      p.GetBase().GetRef(),
		Labels:    newLabels(p.Labels),
		CreatedAt: timePtr(p.CreatedAt),
		UpdatedAt: timePtr(p.UpdatedAt),
		ClosedAt:  timePtr(p.ClosedAt),
		MergedAt:  timePtr(p.MergedAt),
	}
}

func newCommit(c *github.RepositoryCommit) Commit {
	inner := c.GetCommit()
	var date *time.Time
	if author := inner.GetAuthor(); author != nil {
		date = timePtr(author.Date)
	}
	return Commit{
		SHA:         c.GetSHA(),
		Message:     inner.GetMessage(),
		AuthorName:  inner.GetAuthor().GetName(),
		AuthorLogin: c.GetAuthor().GetLogin(),
		Date:        date,
		HTMLURL:     c.GetHTMLURL(),
	}
}

func newBranch(b *github.Branch) Branch {
	return Branch{
		Name:      b.GetName(),
		SHA:       b.GetCommit().GetSHA(),
		Protected: b.GetProtected(),
	}
}

func newComment(c *github.IssueComment) Comment {
	if c == nil {
		return Comment{}
	}
	return Comment{
		ID:        c.GetID(),
		Body:      c.GetBody(),
		User:      newOwner(c.GetUser()),
		HTMLURL:   c.GetHTMLURL(),
		CreatedAt: timePtr(c.CreatedAt),
	}
}

func newContributor(c *github.Contributor) Contributor {
	return Contributor{
		Login:         c.GetLogin(),
		Contributions: c.GetContributions(),
	}
}
