package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/tools"
)

// stubGitHub serves a few operations. Calling any other panics through the nil embedded interface
type stubGitHub struct {
	tools.GitHub
	err error

	lastOwner, lastRepo string
	lastPerPage         int
}

func (s *stubGitHub) GetRepository(ctx context.Context, owner, repo string) (*githubapi.Repository, error) {
	s.lastOwner, s.lastRepo = owner, repo
	if s.err != nil {
		return nil, s.err
	}
	return &githubapi.Repository{ID: 1, Name: repo, FullName: owner + "/" + repo, Owner: githubapi.Owner{Login: owner}}, nil
}

func (s *stubGitHub) ListIssues(ctx context.Context, owner, repo string, opts githubapi.IssueListOptions) ([]githubapi.Issue, error) {
	s.lastOwner, s.lastRepo, s.lastPerPage = owner, repo, opts.PerPage
	if s.err != nil {
		return nil, s.err
	}
	return []githubapi.Issue{{Number: 3, Title: "Bug", State: "open"}}, nil
}

func newTestServer(gh tools.GitHub) *echo.Echo {
	return New(Config{}, Deps{GitHub: gh, FallbackPerPage: 10}, zap.NewNop())
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func testErrorResponse(t *testing.T, ghErr error, wantStatus int, wantMessage string) {
	t.Helper()
	e := newTestServer(&stubGitHub{err: ghErr})
	rec, body := do(t, e, http.MethodPost, "/v1/tools/get_repository", `{"owner":"o","repo":"r"}`)
	require.Equal(t, wantStatus, rec.Code)
	require.Contains(t, body["error"], wantMessage)
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestResolve(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/resolve", `{"text":"show 5 issues from vercel/next.js"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, intent.ListIssues("vercel", "next.js", "", 5), resp.Intent)
	require.NotEmpty(t, body["description"])
}

func TestResolve_FallbackOrg(t *testing.T) {
	e := New(Config{}, Deps{GitHub: &stubGitHub{}, Resolver: intent.Resolver{FallbackOrg: "tambo-ai"}, FallbackPerPage: 7}, zap.NewNop())
	rec, _ := do(t, e, http.MethodPost, "/v1/resolve", `{"text":"show repos"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, intent.ListOrgRepos("tambo-ai", 7), resp.Intent)
}

func TestResolve_MissingText(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/resolve", `{"text":"  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "text is required", body["error"])
}

func TestResolve_MalformedBody(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/resolve", `{"text":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid request body", body["error"])
}

func TestAsk(t *testing.T) {
	gh := &stubGitHub{}
	rec, body := do(t, newTestServer(gh), http.MethodPost, "/v1/ask", `{"text":"issues in facebook/react","per_page":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "facebook", gh.lastOwner)
	require.Equal(t, "react", gh.lastRepo)
	require.Equal(t, 4, gh.lastPerPage)
	require.Equal(t, "list_issues", body["intent"].(map[string]any)["kind"])
	require.Len(t, body["result"], 1)
}

func TestAsk_Unresolved(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/ask", `{"text":"please show me"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "could not understand request")
}

func TestListTools(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGitHub{}), http.MethodGet, "/v1/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, len(tools.NewToolRegistry().Names()))
	require.Equal(t, "resolve_request", resp[0]["name"])
	require.NotEmpty(t, resp[0]["description"])
	require.Equal(t, "object", resp[0]["input_schema"].(map[string]any)["type"])
}

func TestRunTool(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/tools/get_repository", `{"full_name":"spf13/cobra"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "spf13/cobra", body["full_name"])
}

func TestRunTool_UnknownTool(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/tools/launch", `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, body["error"], "unknown tool")
}

func TestRunTool_InputError(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/tools/get_repository", ``)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "missing required parameter(s): owner, repo")
}

func TestRunTool_MalformedBody(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGitHub{}), http.MethodPost, "/v1/tools/get_repository", `{"owner":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunTool_Forbidden(t *testing.T) {
	testErrorResponse(t, &githubapi.APIError{Op: "get repository", StatusCode: 403, Hint: "missing 'repo' scope"}, http.StatusForbidden, "scope")
}

func TestRunTool_NotFound(t *testing.T) {
	testErrorResponse(t, &githubapi.APIError{Op: "get repository", StatusCode: 404}, http.StatusNotFound, "404")
}

func TestRunTool_UpstreamFailures(t *testing.T) {
	testErrorResponse(t, &githubapi.APIError{Op: "get repository", StatusCode: 500}, http.StatusBadGateway, "500")
	testErrorResponse(t, &githubapi.NetworkError{Op: "get repository", Err: errors.New("dial")}, http.StatusBadGateway, "could not reach GitHub")
	testErrorResponse(t, &githubapi.ValidationError{Op: "get repository", Err: errors.New("missing id")}, http.StatusBadGateway, "unexpected shape")
}

func TestRunTool_UnexpectedError(t *testing.T) {
	testErrorResponse(t, errors.New("boom"), http.StatusInternalServerError, "boom")
}
