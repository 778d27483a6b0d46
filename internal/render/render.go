// Package render prints adapter results as terminal tables.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/tools"
)

const (
	titleWidth       = 60
	descriptionWidth = 50
	dateLayout       = "2006-01-02"
)

// JSON writes v as indented JSON
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Result writes a table for any value returned by a tool or by dispatch. Unknown types fall back to JSON
func Result(w io.Writer, v any) error {
	switch res := v.(type) {
	case *tools.Resolution:
		if err := Intent(w, res.Intent); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return Result(w, res.Result)
	case *githubapi.Repository:
		return Repository(w, *res)
	case []githubapi.Repository:
		return Repositories(w, res)
	case *githubapi.SearchResult:
		fmt.Fprintf(w, "%d repositories match\n", res.TotalCount)
		return Repositories(w, res.Items)
	case []githubapi.Issue:
		return Issues(w, res)
	case []githubapi.PullRequest:
		return PullRequests(w, res)
	case []githubapi.Commit:
		return Commits(w, res)
	case []githubapi.Branch:
		return Branches(w, res)
	case *githubapi.RepoAnalysis:
		return Analysis(w, *res)
	case *githubapi.StarResult:
		verb := "Unstarred"
		if res.Starred {
			verb = "Starred"
		}
		_, err := fmt.Fprintf(w, "%s %s\n", verb, res.FullName)
		return err
	case *githubapi.Comment:
		_, err := fmt.Fprintf(w, "Posted comment %d %s\n", res.ID, res.HTMLURL)
		return err
	case []githubapi.Label:
		names := make([]string, 0, len(res))
		for _, l := range res {
			names = append(names, l.Name)
		}
		_, err := fmt.Fprintf(w, "Labels: %s\n", strings.Join(names, ", "))
		return err
	}
	return JSON(w, v)
}

// Intent writes the resolved intent as field/value rows, skipping empty fields
func Intent(w io.Writer, in intent.Intent) error {
	table := newTable(w, "field", "value")
	rows := [][2]string{
		{"kind", string(in.Kind)},
		{"owner", in.Owner},
		{"repo", in.Repo},
		{"org", in.Org},
		{"user", in.User},
		{"query", in.Query},
		{"sort", in.Sort},
		{"state", string(in.State)},
		{"sha", in.SHA},
		{"per_page", itoa(in.PerPage)},
		{"text", in.Text},
	}
	for _, row := range rows {
		if row[1] != "" {
			table.Append(row[:])
		}
	}
	table.Render()
	return nil
}

func Repository(w io.Writer, r githubapi.Repository) error {
	table := newTable(w, "field", "value")
	table.AppendBulk([][]string{
		{"name", r.FullName},
		{"description", truncate(r.Description, 80)},
		{"language", r.Language},
		{"stars", strconv.Itoa(r.StargazersCount)},
		{"forks", strconv.Itoa(r.ForksCount)},
		{"open issues", strconv.Itoa(r.OpenIssuesCount)},
		{"default branch", r.DefaultBranch},
		{"license", r.License},
		{"topics", strings.Join(r.Topics, ", ")},
		{"pushed", date(r.PushedAt)},
		{"url", r.HTMLURL},
	})
	table.Render()
	return nil
}

func Repositories(w io.Writer, repos []githubapi.Repository) error {
	if len(repos) == 0 {
		_, err := fmt.Fprintln(w, "No repositories found")
		return err
	}
	table := newTable(w, "repository", "stars", "language", "description")
	for _, r := range repos {
		table.Append([]string{r.FullName, strconv.Itoa(r.StargazersCount), r.Language, truncate(r.Description, descriptionWidth)})
	}
	table.Render()
	return nil
}

func Issues(w io.Writer, issues []githubapi.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues found")
		return err
	}
	table := newTable(w, "#", "state", "title", "author", "comments", "updated")
	for _, i := range issues {
		table.Append([]string{
			"#" + strconv.Itoa(i.Number),
			i.State,
			truncate(i.Title, titleWidth),
			i.User.Login,
			strconv.Itoa(i.Comments),
			date(i.UpdatedAt),
		})
	}
	table.Render()
	return nil
}

func PullRequests(w io.Writer, pulls []githubapi.PullRequest) error {
	if len(pulls) == 0 {
		_, err := fmt.Fprintln(w, "No pull requests found")
		return err
	}
	table := newTable(w, "#", "state", "title", "author", "branch", "updated")
	for _, p := range pulls {
		table.Append([]string{
			"#" + strconv.Itoa(p.Number),
			pullState(p),
			truncate(p.Title, titleWidth),
			p.User.Login,
			p.Head + " → " + p.Base,
			date(p.UpdatedAt),
		})
	}
	table.Render()
	return nil
}

func pullState(p githubapi.PullRequest) string {
	switch {
	case p.MergedAt != nil:
		return "merged"
	case p.Draft && p.State == string(githubapi.StateOpen):
		return "draft"
	}
	return p.State
}

func Commits(w io.Writer, commits []githubapi.Commit) error {
	if len(commits) == 0 {
		_, err := fmt.Fprintln(w, "No commits found")
		return err
	}
	table := newTable(w, "sha", "author", "date", "message")
	for _, c := range commits {
		author := c.AuthorLogin
		if author == "" {
			author = c.AuthorName
		}
		table.Append([]string{shortSHA(c.SHA), author, date(c.Date), truncate(firstLine(c.Message), titleWidth)})
	}
	table.Render()
	return nil
}

func Branches(w io.Writer, branches []githubapi.Branch) error {
	if len(branches) == 0 {
		_, err := fmt.Fprintln(w, "No branches found")
		return err
	}
	table := newTable(w, "branch", "sha", "protected")
	for _, b := range branches {
		table.Append([]string{b.Name, shortSHA(b.SHA), strconv.FormatBool(b.Protected)})
	}
	table.Render()
	return nil
}

func Analysis(w io.Writer, a githubapi.RepoAnalysis) error {
	fmt.Fprintf(w, "%s\n", a.Repository.FullName)
	for _, h := range a.Highlights {
		fmt.Fprintf(w, "  - %s\n", h)
	}

	if len(a.Languages) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, "language", "share")
		for _, l := range a.Languages {
			table.Append([]string{l.Name, strconv.FormatFloat(l.Percent, 'f', 1, 64) + "%"})
		}
		table.Render()
	}

	if len(a.TopContributors) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, "contributor", "contributions")
		for _, c := range a.TopContributors {
			table.Append([]string{c.Login, strconv.Itoa(c.Contributions)})
		}
		table.Render()
	}

	if len(a.OpenIssues) > 0 {
		fmt.Fprintln(w, "\nOpen issues")
		if err := Issues(w, a.OpenIssues); err != nil {
			return err
		}
	}
	if len(a.OpenPullRequests) > 0 {
		fmt.Fprintln(w, "\nOpen pull requests")
		if err := PullRequests(w, a.OpenPullRequests); err != nil {
			return err
		}
	}
	if len(a.RecentCommits) > 0 {
		fmt.Fprintln(w, "\nRecent commits")
		return Commits(w, a.RecentCommits)
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func truncate(s string, width int) string {
	return runewidth.Truncate(strings.TrimSpace(s), width, "…")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
