// Package chat runs a tool-using conversation with Claude over the repo-assistant tools.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/telemetry"
	"github.com/cchalm/repo-assistant/internal/tools"
)

const (
	DefaultMaxOutputTokens = 4096
	DefaultMaxIterations   = 8
)

// ErrTooManyIterations is returned when the model keeps calling tools past the iteration limit
var ErrTooManyIterations = errors.New("conversation exceeded the tool use iteration limit")

type Options struct {
	Model           anthropic.Model
	MaxOutputTokens int64
	MaxIterations   int
	SystemPrompt    string
	Logger          *zap.Logger
}

// Session is one conversation. History is kept in memory only. A Session is not safe for concurrent use
type Session struct {
	ID string

	sender   MessageSender
	registry *tools.ToolRegistry
	toolCtx  tools.ToolContext

	model           anthropic.Model
	maxOutputTokens int64
	maxIterations   int
	systemPrompt    string

	messages   []anthropic.MessageParam
	transcript []TranscriptEntry

	inputTokens, outputTokens int64

	logger *zap.Logger
}

// Reply is the outcome of one Ask
type Reply struct {
	Text        string
	ToolCalls   []string // Names of the tools called, in order
	InputTokens int64
}

func NewSession(sender MessageSender, registry *tools.ToolRegistry, toolCtx tools.ToolContext, opts Options) *Session {
	id := uuid.NewString()

	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", id))

	toolCtx.SessionID = id
	toolCtx.Logger = logger

	return &Session{
		ID:              id,
		sender:          sender,
		registry:        registry,
		toolCtx:         toolCtx,
		model:           opts.Model,
		maxOutputTokens: opts.MaxOutputTokens,
		maxIterations:   opts.MaxIterations,
		systemPrompt:    opts.SystemPrompt,
		logger:          logger,
	}
}

// Ask sends text as the next user message and runs tool calls until the model answers
func (s *Session) Ask(ctx context.Context, text string) (reply *Reply, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "chat.Ask", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// Roll back this exchange on failure so the history always ends with an assistant turn
	checkpoint, transcriptCheckpoint := len(s.messages), len(s.transcript)
	inputTokens, outputTokens := s.inputTokens, s.outputTokens
	defer func() {
		if err != nil {
			s.messages = s.messages[:checkpoint]
			s.transcript = s.transcript[:transcriptCheckpoint]
			s.inputTokens, s.outputTokens = inputTokens, outputTokens
		}
	}()

	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
	s.transcript = append(s.transcript, TranscriptEntry{Kind: "user", Text: text})
	reply = &Reply{}

	for i := 0; i < s.maxIterations; i++ {
		response, err := s.sender.SendMessage(ctx, s.params())
		if err != nil {
			return nil, fmt.Errorf("failed to get response from model: %w", err)
		}
		s.logger.Debug("received response",
			zap.Int("iteration", i),
			zap.String("stop_reason", string(response.StopReason)),
			zap.Int64("input_tokens", response.Usage.InputTokens),
			zap.Int64("output_tokens", response.Usage.OutputTokens),
		)
		reply.InputTokens += response.Usage.InputTokens
		s.inputTokens += response.Usage.InputTokens
		s.outputTokens += response.Usage.OutputTokens
		s.messages = append(s.messages, response.ToParam())

		answer := responseText(response)
		if answer != "" {
			s.transcript = append(s.transcript, TranscriptEntry{Kind: "assistant", Text: answer})
		}

		if response.StopReason != anthropic.StopReasonToolUse {
			reply.Text = answer
			span.SetAttributes(attribute.Int("chat.iterations", i+1), attribute.Int("chat.tool_calls", len(reply.ToolCalls)))
			return reply, nil
		}

		results, names, err := s.runTools(ctx, response)
		if err != nil {
			return nil, err
		}
		reply.ToolCalls = append(reply.ToolCalls, names...)
		s.messages = append(s.messages, anthropic.NewUserMessage(results...))
	}

	return nil, fmt.Errorf("%w (%d)", ErrTooManyIterations, s.maxIterations)
}

// runTools runs every tool use in response, producing one result block for each
func (s *Session) runTools(ctx context.Context, response anthropic.Message) ([]anthropic.ContentBlockParamUnion, []string, error) {
	var (
		results []anthropic.ContentBlockParamUnion
		names   []string
	)
	for _, block := range response.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		names = append(names, toolUse.Name)

		result, err := s.registry.ProcessToolUse(ctx, toolUse, &s.toolCtx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to process tool use %s: %w", toolUse.Name, err)
		}
		results = append(results, anthropic.ContentBlockParamUnion{OfToolResult: result})
		s.transcript = append(s.transcript, TranscriptEntry{
			Kind:       "tool",
			ToolName:   toolUse.Name,
			ToolInput:  string(toolUse.Input),
			ToolResult: resultText(result),
			IsError:    result.IsError.Value,
		})
	}
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("model stopped for tool use without requesting a tool")
	}
	return results, names, nil
}

func (s *Session) params() anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxOutputTokens,
		Messages:  s.messages,
		Tools:     s.registry.GetToolUnionParams(),
	}
	if s.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.systemPrompt}}
	}
	return params
}

// History returns the messages exchanged so far
func (s *Session) History() []anthropic.MessageParam {
	return append([]anthropic.MessageParam(nil), s.messages...)
}

func responseText(response anthropic.Message) string {
	var parts []string
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok && strings.TrimSpace(text.Text) != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func resultText(result *anthropic.ToolResultBlockParam) string {
	var parts []string
	for _, c := range result.Content {
		if c.OfText != nil {
			parts = append(parts, c.OfText.Text)
		}
	}
	return strings.Join(parts, "\n")
}
