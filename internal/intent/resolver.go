package intent

import (
	"strings"
)

// rule is one step of resolution. Rules are tried in order and the first whose match returns true builds the intent
type rule struct {
	name  string
	match func(r *request) bool
	build func(r *request) Intent
}

// rules lists resolution steps from most to least specific. Pull requests come before issues so that text naming
// both resolves to pull requests
var rules = []rule{
	{
		name:  "summarize",
		match: func(r *request) bool { return r.hasPair && r.summarize },
		build: func(r *request) Intent { return SummarizeRepo(r.owner, r.repo) },
	},
	{
		name:  "pull_requests",
		match: func(r *request) bool { return r.hasPair && r.prs },
		build: func(r *request) Intent { return ListPRs(r.owner, r.repo, r.state, r.count) },
	},
	{
		name:  "issues",
		match: func(r *request) bool { return r.hasPair && r.issues },
		build: func(r *request) Intent { return ListIssues(r.owner, r.repo, r.state, r.count) },
	},
	{
		name:  "commits",
		match: func(r *request) bool { return r.hasPair && r.commits },
		build: func(r *request) Intent { return ListCommits(r.owner, r.repo, r.ref, r.count) },
	},
	{
		name:  "repository",
		match: func(r *request) bool { return r.hasPair },
		build: func(r *request) Intent { return GetRepo(r.owner, r.repo) },
	},
	{
		name:  "org_repos",
		match: func(r *request) bool { return r.org != "" && !r.qualified() },
		build: func(r *request) Intent { return ListOrgRepos(r.org, r.count) },
	},
	{
		name:  "user_repos",
		match: func(r *request) bool { return r.user != "" && !r.orgWord && !r.qualified() },
		build: func(r *request) Intent { return ListUserRepos(r.user, r.count) },
	},
	{
		name: "search",
		match: func(r *request) bool {
			return r.org != "" || r.user != "" || r.qualified()
		},
		build: func(r *request) Intent { return SearchRepos(r.searchQuery(), r.searchSort(), r.count) },
	},
}

// qualified reports whether the text narrows repositories beyond an owner
func (r *request) qualified() bool {
	return r.language != "" || r.topic != "" || len(r.keywords) > 0
}

func (r *request) searchQuery() string {
	terms := append([]string(nil), r.keywords...)
	if r.user != "" {
		terms = append(terms, "user:"+r.user)
	}
	if r.org != "" {
		terms = append(terms, "org:"+r.org)
	}
	if r.language != "" {
		terms = append(terms, "language:"+r.language)
	}
	if r.topic != "" {
		terms = append(terms, "topic:"+r.topic)
	}
	return strings.Join(terms, " ")
}

func (r *request) searchSort() string {
	if r.popular {
		return "stars"
	}
	return ""
}

// Resolver maps free text onto exactly one Intent. The zero value is ready to use
type Resolver struct {
	// FallbackOrg, if set, is listed when the text names nothing the rules recognize. Otherwise such text resolves to
	// KindUnresolved
	FallbackOrg string
}

// Resolve resolves input. It never fails: text the rules cannot place yields the fallback intent.
//
// fallbackPerPage is the result count used when the text gives none. Values of zero or less mean
// DefaultFallbackPerPage, and every count is clamped to [1, 100]
func (res Resolver) Resolve(input string, fallbackPerPage int) Intent {
	r := parse(strings.TrimSpace(input), fallbackPerPage)
	for _, rule := range rules {
		if rule.match(r) {
			return rule.build(r)
		}
	}

	if res.FallbackOrg != "" {
		return ListOrgRepos(res.FallbackOrg, r.count)
	}
	return Unresolved(r.text, r.count)
}

// Resolve resolves input with a Resolver that has no fallback organization
func Resolve(input string, fallbackPerPage int) Intent {
	return Resolver{}.Resolve(input, fallbackPerPage)
}

// Explain returns the name of the rule that input matches, or "fallback". Useful for debugging precedence
func Explain(input string) string {
	r := parse(strings.TrimSpace(input), DefaultFallbackPerPage)
	for _, rule := range rules {
		if rule.match(r) {
			return rule.name
		}
	}
	return "fallback"
}
