// Package tools exposes GitHub operations as named tools with JSON parameters, for the chat loop and the HTTP API.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/telemetry"
)

// ErrUnknownTool is returned, wrapped, by Execute for names no tool is registered under
var ErrUnknownTool = errors.New("unknown tool")

// Tool defines the interface for all tools
type Tool interface {
	// GetToolParam creates and returns an anthropic.ToolParam defining the tool
	GetToolParam() anthropic.ToolParam

	// Run validates input against the tool's schema and performs the call. The error will be a ToolInputError if it is
	// recoverable by fixing inputs. A call to Run has no side effects if it returns ToolInputError
	Run(ctx context.Context, input json.RawMessage, toolCtx *ToolContext) (any, error)
}

// ToolContext provides context needed by tools during execution
type ToolContext struct {
	GitHub          GitHub
	Resolver        intent.Resolver
	FallbackPerPage int
	Logger          *zap.Logger
	SessionID       string
}

func (tc *ToolContext) logger() *zap.Logger {
	if tc.Logger == nil {
		return zap.NewNop()
	}
	return tc.Logger
}

// ToolInputError represents an error that could be recovered by correcting inputs to the tool. This error will be
// shown to the AI and the user, so it must not contain any sensitive information
type ToolInputError struct {
	cause error
}

func (tie ToolInputError) Error() string {
	return fmt.Sprintf("tool input error: %s", tie.cause)
}

func (tie ToolInputError) Unwrap() error {
	return tie.cause
}

func NewToolInputError(cause error) ToolInputError {
	return ToolInputError{cause: cause}
}

// ToolRegistry manages all available tools
type ToolRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates a new tool registry with all available tools
func NewToolRegistry() *ToolRegistry {
	registry := &ToolRegistry{
		tools: make(map[string]Tool),
	}

	registry.registerTool(newResolveRequestTool())
	for _, tool := range githubTools() {
		registry.registerTool(tool)
	}

	return registry
}

func (tr *ToolRegistry) registerTool(tool Tool) {
	name := tool.GetToolParam().Name
	if _, ok := tr.tools[name]; !ok {
		tr.order = append(tr.order, name)
	}
	tr.tools[name] = tool
}

// GetTool returns a tool by name, or nil
func (tr *ToolRegistry) GetTool(name string) Tool {
	return tr.tools[name]
}

// Names returns the names of all tools in registration order
func (tr *ToolRegistry) Names() []string {
	return append([]string(nil), tr.order...)
}

// GetToolParams returns all tool parameters for API calls, in registration order
func (tr *ToolRegistry) GetToolParams() []anthropic.ToolParam {
	params := make([]anthropic.ToolParam, 0, len(tr.order))
	for _, name := range tr.order {
		params = append(params, tr.tools[name].GetToolParam())
	}
	return params
}

// GetToolUnionParams wraps GetToolParams for the Messages API
func (tr *ToolRegistry) GetToolUnionParams() []anthropic.ToolUnionParam {
	params := tr.GetToolParams()
	unions := make([]anthropic.ToolUnionParam, 0, len(params))
	for i := range params {
		unions = append(unions, anthropic.ToolUnionParam{OfTool: &params[i]})
	}
	return unions
}

// Execute runs the named tool with JSON input
func (tr *ToolRegistry) Execute(ctx context.Context, name string, input json.RawMessage, toolCtx *ToolContext) (result any, err error) {
	tool := tr.tools[name]
	if tool == nil {
		return nil, NewToolInputError(fmt.Errorf("%w: %s", ErrUnknownTool, name))
	}

	ctx, span := telemetry.Tracer().Start(ctx, "tool."+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("session.id", toolCtx.SessionID),
	))
	defer span.End()

	logger := toolCtx.logger().With(zap.String("tool", name))
	start := time.Now()

	result, err = tool.Run(ctx, input, toolCtx)

	telemetry.RecordToolUse(ctx, telemetry.ToolUse{
		ToolName:   name,
		ResultSize: encodedSize(result),
		HasError:   err != nil,
		SessionID:  toolCtx.SessionID,
	})
	if err != nil {
		span.RecordError(err)
		logger.Warn("tool failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, err
	}
	logger.Info("tool succeeded", zap.Duration("duration", time.Since(start)))
	return result, nil
}

// ProcessToolUse processes a tool use block with the appropriate tool. Failures the AI can do something about, such
// as bad inputs or a GitHub refusal, become error result blocks; only unexpected failures are returned as errors
func (tr *ToolRegistry) ProcessToolUse(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*anthropic.ToolResultBlockParam, error) {
	response, err := tr.Execute(ctx, block.Name, block.Input, toolCtx)

	var resultBlock anthropic.ToolResultBlockParam
	if err != nil {
		if !Recoverable(err) {
			return nil, fmt.Errorf("error while running tool: %w", err)
		}
		// Respond with an error result block to give the AI the opportunity to correct the inputs or explain
		resultBlock = newToolResultBlockParam(block.ID, UserMessage(err), true)
		toolCtx.logger().Warn("recoverable tool error, reporting to the AI", zap.String("tool", block.Name))
		return &resultBlock, nil
	}

	content, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", block.Name, err)
	}
	resultBlock = newToolResultBlockParam(block.ID, string(content), false)
	return &resultBlock, nil
}

// Recoverable reports whether err is one a caller should report rather than abort on: bad input, or any failure
// classified by the GitHub adapter
func Recoverable(err error) bool {
	var (
		tie        ToolInputError
		apiErr     *githubapi.APIError
		networkErr *githubapi.NetworkError
		validErr   *githubapi.ValidationError
	)
	return errors.As(err, &tie) ||
		errors.As(err, &apiErr) ||
		errors.As(err, &networkErr) ||
		errors.As(err, &validErr) ||
		errors.Is(err, githubapi.ErrInvalidArgument)
}

func encodedSize(v any) int {
	if v == nil {
		return 0
	}
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}

// Helper function to create a ToolResultBlockParam
func newToolResultBlockParam(toolID string, result string, isError bool) anthropic.ToolResultBlockParam {
	return anthropic.ToolResultBlockParam{
		ToolUseID: toolID,
		Content: []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: result}},
		},
		IsError: anthropic.Bool(isError),
	}
}
