package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/tools"
)

// scriptedSender replays canned responses and records every request
type scriptedSender struct {
	responses []string
	err       error
	requests  []anthropic.MessageNewParams
}

func (s *scriptedSender) SendMessage(ctx context.Context, params anthropic.MessageNewParams, opts ...anthropt.RequestOption) (anthropic.Message, error) {
	s.requests = append(s.requests, params)
	if s.err != nil {
		return anthropic.Message{}, s.err
	}
	if len(s.responses) == 0 {
		return anthropic.Message{}, errors.New("no scripted responses left")
	}
	raw := s.responses[0]
	s.responses = s.responses[1:]

	var msg anthropic.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return anthropic.Message{}, err
	}
	return msg, nil
}

func textMessage(text string) string {
	return fmt.Sprintf(`{"id":"msg_t","type":"message","role":"assistant","model":"claude-sonnet-4-5",`+
		`"content":[{"type":"text","text":%q}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`, text)
}

func toolUseMessage(id, name, input string) string {
	return fmt.Sprintf(`{"id":"msg_u","type":"message","role":"assistant","model":"claude-sonnet-4-5",`+
		`"content":[{"type":"text","text":"Looking that up."},{"type":"tool_use","id":%q,"name":%q,"input":%s}],`+
		`"stop_reason":"tool_use","usage":{"input_tokens":20,"output_tokens":5}}`, id, name, input)
}

// stubGitHub answers GetRepository and fails everything else through the embedded nil interface
type stubGitHub struct {
	tools.GitHub
	err error
}

func (s stubGitHub) GetRepository(ctx context.Context, owner, repo string) (*githubapi.Repository, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &githubapi.Repository{ID: 1, Name: repo, FullName: owner + "/" + repo, Owner: githubapi.Owner{Login: owner}, StargazersCount: 42}, nil
}

func newTestSession(sender MessageSender, gh tools.GitHub) *Session {
	return NewSession(sender, tools.NewToolRegistry(), tools.ToolContext{GitHub: gh, FallbackPerPage: 10}, Options{
		Model:        "claude-sonnet-4-5",
		SystemPrompt: "be helpful",
	})
}

func toolResult(t *testing.T, msg anthropic.MessageParam) *anthropic.ToolResultBlockParam {
	t.Helper()
	require.Equal(t, anthropic.MessageParamRoleUser, msg.Role)
	require.Len(t, msg.Content, 1)
	require.NotNil(t, msg.Content[0].OfToolResult)
	return msg.Content[0].OfToolResult
}

func TestAsk_NoTools(t *testing.T) {
	sender := &scriptedSender{responses: []string{textMessage("Hello!")}}
	session := newTestSession(sender, stubGitHub{})

	reply, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "Hello!", reply.Text)
	require.Empty(t, reply.ToolCalls)
	require.Len(t, session.History(), 2)

	require.Len(t, sender.requests, 1)
	require.Equal(t, "be helpful", sender.requests[0].System[0].Text)
	require.NotEmpty(t, sender.requests[0].Tools)
	require.EqualValues(t, DefaultMaxOutputTokens, sender.requests[0].MaxTokens)
}

func TestAsk_ToolRoundTrip(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		toolUseMessage("toolu_1", "get_repository", `{"owner":"spf13","repo":"cobra"}`),
		textMessage("spf13/cobra has 42 stars."),
	}}
	session := newTestSession(sender, stubGitHub{})

	reply, err := session.Ask(context.Background(), "how many stars does spf13/cobra have?")
	require.NoError(t, err)
	require.Equal(t, "spf13/cobra has 42 stars.", reply.Text)
	require.Equal(t, []string{"get_repository"}, reply.ToolCalls)
	require.EqualValues(t, 30, reply.InputTokens)

	// user, assistant tool use, user tool result
	second := sender.requests[1].Messages
	require.Len(t, second, 3)
	result := toolResult(t, second[2])
	require.Equal(t, "toolu_1", result.ToolUseID)
	require.False(t, result.IsError.Value)
	require.Contains(t, result.Content[0].OfText.Text, `"stargazers_count":42`)
}

func TestAsk_ToolErrorIsReported(t *testing.T) {
	forbidden := &githubapi.APIError{Op: "get repository", StatusCode: 403, Hint: "missing 'repo' scope"}
	sender := &scriptedSender{responses: []string{
		toolUseMessage("toolu_1", "get_repository", `{"owner":"o","repo":"private"}`),
		textMessage("Your token lacks the repo scope."),
	}}
	session := newTestSession(sender, stubGitHub{err: forbidden})

	reply, err := session.Ask(context.Background(), "show o/private")
	require.NoError(t, err)
	require.Equal(t, "Your token lacks the repo scope.", reply.Text)

	result := toolResult(t, sender.requests[1].Messages[2])
	require.True(t, result.IsError.Value)
	require.Contains(t, result.Content[0].OfText.Text, "scope")
}

func TestAsk_IterationLimit(t *testing.T) {
	var responses []string
	for i := range 3 {
		responses = append(responses, toolUseMessage(fmt.Sprintf("toolu_%d", i), "get_repository", `{"owner":"o","repo":"r"}`))
	}
	sender := &scriptedSender{responses: responses}
	session := NewSession(sender, tools.NewToolRegistry(), tools.ToolContext{GitHub: stubGitHub{}}, Options{MaxIterations: 2})

	_, err := session.Ask(context.Background(), "loop forever")
	require.ErrorIs(t, err, ErrTooManyIterations)
	require.Len(t, sender.requests, 2)
	require.Empty(t, session.History())
}

func TestAsk_SenderErrorRollsBack(t *testing.T) {
	sender := &scriptedSender{responses: []string{textMessage("first")}}
	session := newTestSession(sender, stubGitHub{})
	_, err := session.Ask(context.Background(), "one")
	require.NoError(t, err)

	sender.err = errors.New("overloaded")
	_, err = session.Ask(context.Background(), "two")
	require.ErrorContains(t, err, "overloaded")
	require.Len(t, session.History(), 2)
}

func TestNewSession_IDs(t *testing.T) {
	a := newTestSession(&scriptedSender{}, stubGitHub{})
	b := newTestSession(&scriptedSender{}, stubGitHub{})
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, a.ID, a.toolCtx.SessionID)
}

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	prompt, err := SystemPrompt(now, 10, "")
	require.NoError(t, err)
	require.Contains(t, prompt, "Today is 2026-10-14.")
	require.Contains(t, prompt, "use 10.")
	require.NotContains(t, prompt, "assume they mean")

	prompt, err = SystemPrompt(now, 5, "tambo-ai")
	require.NoError(t, err)
	require.Contains(t, prompt, "assume they mean the `tambo-ai` organization")
}

func TestTranscript(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		toolUseMessage("toolu_1", "get_repository", `{"owner":"spf13","repo":"cobra"}`),
		textMessage("It has 42 stars."),
	}}
	session := newTestSession(sender, stubGitHub{})
	_, err := session.Ask(context.Background(), "stars of spf13/cobra?")
	require.NoError(t, err)

	entries := session.Transcript()
	require.Len(t, entries, 4)
	require.Equal(t, TranscriptEntry{Kind: "user", Text: "stars of spf13/cobra?"}, entries[0])
	require.Equal(t, "Looking that up.", entries[1].Text)
	require.Equal(t, "get_repository", entries[2].ToolName)
	require.JSONEq(t, `{"owner":"spf13","repo":"cobra"}`, entries[2].ToolInput)
	require.False(t, entries[2].IsError)
	require.Equal(t, "It has 42 stars.", entries[3].Text)

	var buf bytes.Buffer
	require.NoError(t, session.WriteTranscript(&buf, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)))
	md := buf.String()
	require.Contains(t, md, "# Conversation "+session.ID)
	require.Contains(t, md, "30 input tokens, 10 output tokens")
	require.Contains(t, md, "## 🧑 User\n\nstars of spf13/cobra?")
	require.Contains(t, md, "🔧 get_repository</summary>")
	require.Contains(t, md, "  \"owner\": \"spf13\"")
	require.Contains(t, md, "It has 42 stars.")
}

func TestTranscript_FailedExchangeIsDropped(t *testing.T) {
	sender := &scriptedSender{err: errors.New("overloaded")}
	session := newTestSession(sender, stubGitHub{})
	_, err := session.Ask(context.Background(), "hi")
	require.Error(t, err)
	require.Empty(t, session.Transcript())
}

func TestTranscript_FailedExchangeTokensAreDropped(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		textMessage("first"),
		toolUseMessage("toolu_1", "get_repository", `{"owner":"o","repo":"r"}`),
	}}
	session := newTestSession(sender, stubGitHub{})
	_, err := session.Ask(context.Background(), "one")
	require.NoError(t, err)

	// The tool round trip succeeds, then the follow-up request fails
	_, err = session.Ask(context.Background(), "two")
	require.Error(t, err)
	require.Len(t, session.Transcript(), 2)

	var buf bytes.Buffer
	require.NoError(t, session.WriteTranscript(&buf, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)))
	require.Contains(t, buf.String(), "10 input tokens, 5 output tokens")
	require.NotContains(t, buf.String(), "two")
}
