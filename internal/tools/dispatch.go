package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/telemetry"
)

// ErrUnresolved is wrapped by the error Dispatch returns for unresolved intents
var ErrUnresolved = errors.New("could not understand request")

// Dispatch runs the adapter operation for in and returns its validated result
func Dispatch(ctx context.Context, gh GitHub, in intent.Intent) (res any, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "tools.Dispatch", trace.WithAttributes(
		attribute.String("intent.kind", string(in.Kind)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	page := githubapi.PageRequest{PerPage: in.PerPage}

	switch in.Kind {
	case intent.KindListOrgRepos:
		return result(gh.ListOrgRepositories(ctx, in.Org, githubapi.RepoListOptions{PageRequest: page}))
	case intent.KindListUserRepos:
		return result(gh.ListUserRepositories(ctx, in.User, githubapi.RepoListOptions{PageRequest: page}))
	case intent.KindSearchRepos:
		return result(gh.SearchRepositories(ctx, in.Query, githubapi.SearchOptions{Sort: in.Sort, PageRequest: page}))
	case intent.KindGetRepo:
		return result(gh.GetRepository(ctx, in.Owner, in.Repo))
	case intent.KindListIssues:
		return result(gh.ListIssues(ctx, in.Owner, in.Repo, githubapi.IssueListOptions{State: in.State, PageRequest: page}))
	case intent.KindListPRs:
		return result(gh.ListPullRequests(ctx, in.Owner, in.Repo, githubapi.PullRequestListOptions{State: in.State, PageRequest: page}))
	case intent.KindListCommits:
		return result(gh.ListCommits(ctx, in.Owner, in.Repo, githubapi.CommitListOptions{SHA: in.SHA, PageRequest: page}))
	case intent.KindSummarizeRepo:
		return result(gh.AnalyzeRepository(ctx, in.Owner, in.Repo))
	case intent.KindUnresolved:
		return nil, NewToolInputError(fmt.Errorf("%w %q: name a repository as owner/repo, or an organization or user", ErrUnresolved, in.Text))
	}
	return nil, fmt.Errorf("unknown intent kind %q", in.Kind)
}

// Resolution pairs a resolved intent with the result of dispatching it
type Resolution struct {
	Intent intent.Intent `json:"intent"`
	Result any           `json:"result"`
}

type resolveRequestInput struct {
	Text    string `json:"text"`
	PerPage int    `json:"per_page"`
}

// resolveRequestTool resolves free text into an intent and dispatches it
type resolveRequestTool struct{}

func newResolveRequestTool() *resolveRequestTool {
	return &resolveRequestTool{}
}

func (t *resolveRequestTool) GetToolParam() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name: "resolve_request",
		Description: anthropic.String("Answer a plain-language GitHub request such as \"show 5 issues from vercel/next.js\" " +
			"or \"tambo-ai org repos\". Use the specific tools instead when you already know the operation"),
		InputSchema: objectSchema([]string{"text"}, map[string]any{
			"text":     stringProp("The request, as the user phrased it"),
			"per_page": integerProp("Result count to use when the request does not give one"),
		}),
	}
}

func (t *resolveRequestTool) Run(ctx context.Context, input json.RawMessage, toolCtx *ToolContext) (any, error) {
	var in resolveRequestInput
	if err := decodeParams(t.GetToolParam().InputSchema, input, &in); err != nil {
		return nil, err
	}
	return ResolveAndDispatch(ctx, toolCtx, in.Text, in.PerPage)
}

// ResolveAndDispatch resolves text with the context's resolver and dispatches the intent. perPage of zero or less
// means the context's fallback page size
func ResolveAndDispatch(ctx context.Context, toolCtx *ToolContext, text string, perPage int) (*Resolution, error) {
	if perPage <= 0 {
		perPage = toolCtx.FallbackPerPage
	}
	in := toolCtx.Resolver.Resolve(text, perPage)
	toolCtx.logger().Debug("resolved request", zap.String("text", text), zap.String("kind", string(in.Kind)), zap.Stringer("intent", in))

	res, err := Dispatch(ctx, toolCtx.GitHub, in)
	if err != nil {
		return nil, err
	}
	return &Resolution{Intent: in, Result: res}, nil
}

// UserMessage turns an error from a tool or dispatch into text fit to show a person
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		tie        ToolInputError
		apiErr     *githubapi.APIError
		networkErr *githubapi.NetworkError
		validErr   *githubapi.ValidationError
	)
	switch {
	case errors.As(err, &apiErr):
		msg := fmt.Sprintf("GitHub rejected the request with status %d", apiErr.StatusCode)
		if apiErr.Message != "" {
			msg += ": " + apiErr.Message
		}
		if apiErr.Hint != "" {
			msg += ". Likely cause: " + apiErr.Hint
		}
		return msg
	case errors.As(err, &networkErr):
		return "Network error: could not reach GitHub. Check your connection and try again"
	case errors.As(err, &validErr):
		return "GitHub returned a response in an unexpected shape: " + validErr.Err.Error()
	case errors.As(err, &tie):
		return strings.TrimPrefix(tie.Error(), "tool input error: ")
	case errors.Is(err, githubapi.ErrInvalidArgument):
		return err.Error()
	}
	return "Unexpected error: " + err.Error()
}
