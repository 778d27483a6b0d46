// Package intent turns free-text GitHub requests into structured intents.
package intent

import (
	"fmt"

	"github.com/cchalm/repo-assistant/internal/githubapi"
)

// Kind names the GitHub operation an Intent resolves to
type Kind string

const (
	KindListOrgRepos  Kind = "list_org_repos"
	KindListUserRepos Kind = "list_user_repos"
	KindSearchRepos   Kind = "search_repos"
	KindGetRepo       Kind = "get_repo"
	KindListIssues    Kind = "list_issues"
	KindListPRs       Kind = "list_prs"
	KindListCommits   Kind = "list_commits"
	KindSummarizeRepo Kind = "summarize_repo"
	// KindUnresolved means the text named nothing the resolver could act on
	KindUnresolved Kind = "unresolved"
)

// Intent is one resolved request. Only the fields of its Kind are set; build it with the constructors below
type Intent struct {
	Kind    Kind            `json:"kind"`
	Owner   string          `json:"owner,omitempty"`
	Repo    string          `json:"repo,omitempty"`
	Org     string          `json:"org,omitempty"`
	User    string          `json:"user,omitempty"`
	Query   string          `json:"query,omitempty"`
	Sort    string          `json:"sort,omitempty"`
	State   githubapi.State `json:"state,omitempty"`
	SHA     string          `json:"sha,omitempty"`
	PerPage int             `json:"per_page,omitempty"`
	Text    string          `json:"text,omitempty"` // The original input, for unresolved intents only
}

func ListOrgRepos(org string, perPage int) Intent {
	return Intent{Kind: KindListOrgRepos, Org: org, PerPage: perPage}
}

func ListUserRepos(user string, perPage int) Intent {
	return Intent{Kind: KindListUserRepos, User: user, PerPage: perPage}
}

func SearchRepos(query, sort string, perPage int) Intent {
	return Intent{Kind: KindSearchRepos, Query: query, Sort: sort, PerPage: perPage}
}

func GetRepo(owner, repo string) Intent {
	return Intent{Kind: KindGetRepo, Owner: owner, Repo: repo}
}

func ListIssues(owner, repo string, state githubapi.State, perPage int) Intent {
	return Intent{Kind: KindListIssues, Owner: owner, Repo: repo, State: state, PerPage: perPage}
}

func ListPRs(owner, repo string, state githubapi.State, perPage int) Intent {
	return Intent{Kind: KindListPRs, Owner: owner, Repo: repo, State: state, PerPage: perPage}
}

// ListCommits lists commits reachable from sha, which may be a branch name, or the default branch if empty
func ListCommits(owner, repo, sha string, perPage int) Intent {
	return Intent{Kind: KindListCommits, Owner: owner, Repo: repo, SHA: sha, PerPage: perPage}
}

func SummarizeRepo(owner, repo string) Intent {
	return Intent{Kind: KindSummarizeRepo, Owner: owner, Repo: repo}
}

func Unresolved(text string, perPage int) Intent {
	return Intent{Kind: KindUnresolved, Text: text, PerPage: perPage}
}

// String renders the intent the way a person would phrase it
func (i Intent) String() string {
	switch i.Kind {
	case KindListOrgRepos:
		return fmt.Sprintf("list %d repositories of organization %s", i.PerPage, i.Org)
	case KindListUserRepos:
		return fmt.Sprintf("list %d repositories of user %s", i.PerPage, i.User)
	case KindSearchRepos:
		s := fmt.Sprintf("search repositories for %q", i.Query)
		if i.Sort != "" {
			s += " sorted by " + i.Sort
		}
		return s
	case KindGetRepo:
		return "get repository " + i.Owner + "/" + i.Repo
	case KindListIssues:
		return fmt.Sprintf("list %d %sissues of %s/%s", i.PerPage, statePrefix(i.State), i.Owner, i.Repo)
	case KindListPRs:
		return fmt.Sprintf("list %d %spull requests of %s/%s", i.PerPage, statePrefix(i.State), i.Owner, i.Repo)
	case KindListCommits:
		s := fmt.Sprintf("list %d commits of %s/%s", i.PerPage, i.Owner, i.Repo)
		if i.SHA != "" {
			s += " from " + i.SHA
		}
		return s
	case KindSummarizeRepo:
		return "summarize repository " + i.Owner + "/" + i.Repo
	case KindUnresolved:
		return fmt.Sprintf("unresolved request %q", i.Text)
	}
	return string(i.Kind)
}

func statePrefix(s githubapi.State) string {
	if s == "" {
		return ""
	}
	return string(s) + " "
}
