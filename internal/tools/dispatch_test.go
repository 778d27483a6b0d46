package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
)

func testDispatch(t *testing.T, in intent.Intent, wantCall string) {
	t.Helper()
	gh := &fakeGitHub{}
	res, err := Dispatch(context.Background(), gh, in)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, []string{wantCall}, gh.calls)
}

func TestDispatch_EveryKind(t *testing.T) {
	testDispatch(t, intent.ListOrgRepos("vercel", 5), "ListOrgRepositories vercel 5")
	testDispatch(t, intent.ListUserRepos("gaearon", 7), "ListUserRepositories gaearon 7")
	testDispatch(t, intent.SearchRepos("language:go", "stars", 3), "SearchRepositories language:go stars 3")
	testDispatch(t, intent.GetRepo("spf13", "cobra"), "GetRepository spf13 cobra")
	testDispatch(t, intent.ListIssues("o", "r", githubapi.StateClosed, 4), "ListIssues o r closed 4")
	testDispatch(t, intent.ListPRs("o", "r", githubapi.StateAll, 2), "ListPullRequests o r all 2")
	testDispatch(t, intent.ListCommits("o", "r", "canary", 9), "ListCommits o r canary 9")
	testDispatch(t, intent.SummarizeRepo("o", "r"), "AnalyzeRepository o r")
}

func TestDispatch_Unresolved(t *testing.T) {
	gh := &fakeGitHub{}
	_, err := Dispatch(context.Background(), gh, intent.Unresolved("hello", 10))
	require.ErrorIs(t, err, ErrUnresolved)
	var tie ToolInputError
	require.ErrorAs(t, err, &tie)
	require.Empty(t, gh.calls)
}

func TestDispatch_UnknownKind(t *testing.T) {
	_, err := Dispatch(context.Background(), &fakeGitHub{}, intent.Intent{Kind: "launch_rockets"})
	require.ErrorContains(t, err, "unknown intent kind")
}

func TestDispatch_AdapterErrorHasNoResult(t *testing.T) {
	gh := &fakeGitHub{err: &githubapi.APIError{Op: "get repository", StatusCode: 404}}
	res, err := Dispatch(context.Background(), gh, intent.GetRepo("o", "r"))
	require.ErrorIs(t, err, githubapi.ErrNotFound)
	require.Nil(t, res)
}

func TestResolveAndDispatch(t *testing.T) {
	gh := &fakeGitHub{}
	toolCtx := newTestToolContext(gh)
	res, err := ResolveAndDispatch(context.Background(), toolCtx, "show 5 issues from vercel/next.js", 0)
	require.NoError(t, err)
	require.Equal(t, intent.ListIssues("vercel", "next.js", "", 5), res.Intent)
	require.Equal(t, []string{"ListIssues vercel next.js  5"}, gh.calls)
}

func TestResolveAndDispatch_FallbackPerPage(t *testing.T) {
	gh := &fakeGitHub{}
	toolCtx := newTestToolContext(gh)
	toolCtx.FallbackPerPage = 4
	_, err := ResolveAndDispatch(context.Background(), toolCtx, "tambo-ai org repos", 0)
	require.NoError(t, err)
	require.Equal(t, "ListOrgRepositories tambo-ai 4", gh.lastCall())
}

func TestResolveAndDispatch_FallbackOrg(t *testing.T) {
	gh := &fakeGitHub{}
	toolCtx := newTestToolContext(gh)
	toolCtx.Resolver = intent.Resolver{FallbackOrg: "tambo-ai"}
	res, err := ResolveAndDispatch(context.Background(), toolCtx, "show repos", 6)
	require.NoError(t, err)
	require.Equal(t, intent.KindListOrgRepos, res.Intent.Kind)
	require.Equal(t, "ListOrgRepositories tambo-ai 6", gh.lastCall())
}

func TestResolveRequestTool(t *testing.T) {
	res := testExecute(t, "resolve_request", `{"text":"recent commits vercel/next.js","per_page":3}`, "ListCommits vercel next.js  3")

	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded struct {
		Intent intent.Intent     `json:"intent"`
		Result []json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, intent.KindListCommits, decoded.Intent.Kind)
	require.Len(t, decoded.Result, 1)
}

func TestResolveRequestTool_RequiresText(t *testing.T) {
	_, text := testProcessToolUse(t, &fakeGitHub{}, "resolve_request", `{"text":"   "}`)
	require.Equal(t, "missing required parameter(s): text", text)
}

func TestResolveRequestTool_Unresolved(t *testing.T) {
	res, text := testProcessToolUse(t, &fakeGitHub{}, "resolve_request", `{"text":"please show me"}`)
	require.True(t, res.IsError.Value)
	require.Contains(t, text, "could not understand request")
}

func testUserMessage(t *testing.T, err error, want string) {
	t.Helper()
	require.Equal(t, want, UserMessage(err))
}

func TestUserMessage_APIError(t *testing.T) {
	testUserMessage(t, &githubapi.APIError{Op: "op", StatusCode: 502}, "GitHub rejected the request with status 502")
	testUserMessage(t, &githubapi.APIError{Op: "op", StatusCode: 404, Message: "Not Found", Hint: "check the names"},
		"GitHub rejected the request with status 404: Not Found. Likely cause: check the names")
}

func TestUserMessage_WrappedAPIError(t *testing.T) {
	err := fmt.Errorf("failed to analyze o/r: %w", &githubapi.APIError{Op: "op", StatusCode: 403, Hint: "missing scope"})
	testUserMessage(t, err, "GitHub rejected the request with status 403. Likely cause: missing scope")
}

func TestUserMessage_NetworkError(t *testing.T) {
	testUserMessage(t, &githubapi.NetworkError{Op: "op", Err: errors.New("dial tcp: no such host")},
		"Network error: could not reach GitHub. Check your connection and try again")
}

func TestUserMessage_ValidationError(t *testing.T) {
	testUserMessage(t, &githubapi.ValidationError{Op: "op", Err: errors.New("missing full_name")},
		"GitHub returned a response in an unexpected shape: missing full_name")
}

func TestUserMessage_InputError(t *testing.T) {
	testUserMessage(t, NewToolInputError(errors.New("bad owner")), "bad owner")
}

func TestUserMessage_Other(t *testing.T) {
	testUserMessage(t, nil, "")
	testUserMessage(t, fmt.Errorf("%w: owner is required", githubapi.ErrInvalidArgument), "invalid argument: owner is required")
	testUserMessage(t, errors.New("boom"), "Unexpected error: boom")
}
