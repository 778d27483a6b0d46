package githubapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func analysisMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, repoJSON("o", "r"))
	})
	mux.HandleFunc("GET /repos/o/r/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]int{"Go": 750, "Shell": 250})
	})
	mux.HandleFunc("GET /repos/o/r/contributors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"login": "alice", "contributions": 50},
			{"login": "bob", "contributions": 7},
		})
	})
	mux.HandleFunc("GET /repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"sha": "a1", "commit": map[string]any{"message": "fix", "author": map[string]any{"name": "Alice"}}, "author": map[string]any{"login": "alice"}},
			{"sha": "b2", "commit": map[string]any{"message": "feat", "author": map[string]any{"name": "Bob"}}, "author": map[string]any{"login": "bob"}},
		})
	})
	mux.HandleFunc("GET /repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{issueJSON(1), pullJSON(2)})
	})
	mux.HandleFunc("GET /repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{{"number": 2, "title": "PR 2", "state": "open"}})
	})
	return mux
}

func TestAnalyzeRepository(t *testing.T) {
	client := newTestClient(t, analysisMux(t))

	analysis, err := client.AnalyzeRepository(context.Background(), "o", "r")
	require.NoError(t, err)
	require.NoError(t, analysis.Validate())

	require.Equal(t, []LanguageShare{
		{Name: "Go", Bytes: 750, Percent: 75},
		{Name: "Shell", Bytes: 250, Percent: 25},
	}, analysis.Languages)
	require.Len(t, analysis.OpenIssues, 1)
	require.Len(t, analysis.OpenPullRequests, 1)
	require.Len(t, analysis.RecentCommits, 2)
	require.Equal(t, "alice", analysis.TopContributors[0].Login)

	require.Contains(t, analysis.Highlights, "Primary language: Go (75.0%)")
	require.Contains(t, analysis.Highlights, "2 recent commits by 2 authors")
	require.Contains(t, analysis.Highlights, "Top contributor: alice (50 contributions)")
	require.Contains(t, analysis.Highlights, "Last push: 2026-10-01")
}

func TestAnalyzeRepository_OneReadFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/", analysisMux(t))
	mux.HandleFunc("GET /repos/o/r/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	client := newTestClient(t, mux)

	analysis, err := client.AnalyzeRepository(context.Background(), "o", "r")
	require.Nil(t, analysis)
	require.ErrorContains(t, err, "failed to analyze o/r")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestLanguageShares_TieBreaksByName(t *testing.T) {
	shares := languageShares(map[string]int{"Rust": 10, "C": 10, "Go": 20})
	require.Equal(t, []string{"Go", "C", "Rust"}, []string{shares[0].Name, shares[1].Name, shares[2].Name})
}

func TestLanguageShares_Empty(t *testing.T) {
	require.Nil(t, languageShares(map[string]int{}))
}
