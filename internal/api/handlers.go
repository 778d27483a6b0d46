package api

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/api/web"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/telemetry"
	"github.com/cchalm/repo-assistant/internal/tools"
)

type handlers struct {
	deps Deps
}

func configureRoutes(e *echo.Echo, h *handlers, l *zap.Logger) {
	e.GET("/v1/health", web.Wrap(h.health, l))
	e.POST("/v1/resolve", web.Wrap(h.resolve, l))
	e.POST("/v1/ask", web.Wrap(h.ask, l))
	e.GET("/v1/tools", web.Wrap(h.listTools, l))
	e.POST("/v1/tools/:name", web.Wrap(h.runTool, l))
}

// toolContext builds the per-request tool context
func (h *handlers) toolContext(c web.Context) *tools.ToolContext {
	return &tools.ToolContext{
		GitHub:          h.deps.GitHub,
		Resolver:        h.deps.Resolver,
		FallbackPerPage: h.deps.FallbackPerPage,
		Logger:          c.L,
		SessionID:       c.RequestID(),
	}
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// health handles GET /v1/health
func (h *handlers) health(c web.Context) error {
	return c.OK(HealthResponse{
		Status:  "ok",
		Version: telemetry.ServiceVersion,
	})
}

// TextRequest is the body of /v1/resolve and /v1/ask
type TextRequest struct {
	Text    string `json:"text"`
	PerPage int    `json:"per_page"`
}

// bindText decodes the body, returning a message for the caller if it is unusable
func bindText(c web.Context) (TextRequest, string) {
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		return req, "invalid request body"
	}
	if strings.TrimSpace(req.Text) == "" {
		return req, "text is required"
	}
	return req, ""
}

// ResolveResponse describes how a request was understood, without running it
type ResolveResponse struct {
	Intent      intent.Intent `json:"intent"`
	Description string        `json:"description"`
}

// resolve handles POST /v1/resolve
func (h *handlers) resolve(c web.Context) error {
	req, problem := bindText(c)
	if problem != "" {
		return c.BadRequest(problem)
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = h.deps.FallbackPerPage
	}
	in := h.deps.Resolver.Resolve(req.Text, perPage)

	return c.OK(ResolveResponse{
		Intent:      in,
		Description: in.String(),
	})
}

// ask handles POST /v1/ask
func (h *handlers) ask(c web.Context) error {
	req, problem := bindText(c)
	if problem != "" {
		return c.BadRequest(problem)
	}

	res, err := tools.ResolveAndDispatch(c.Request().Context(), h.toolContext(c), req.Text, req.PerPage)
	if err != nil {
		return c.Fail(err)
	}
	return c.OK(res)
}

// ToolResponse describes one tool
type ToolResponse struct {
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	InputSchema anthropic.ToolInputSchemaParam `json:"input_schema"`
}

// listTools handles GET /v1/tools
func (h *handlers) listTools(c web.Context) error {
	params := h.deps.Registry.GetToolParams()
	out := make([]ToolResponse, 0, len(params))
	for _, p := range params {
		out = append(out, ToolResponse{
			Name:        p.Name,
			Description: p.Description.Value,
			InputSchema: p.InputSchema,
		})
	}
	return c.OK(out)
}

// runTool handles POST /v1/tools/:name. The body is the tool's JSON parameters
func (h *handlers) runTool(c web.Context) error {
	var params json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		return c.BadRequest("request body must be a JSON object of tool parameters")
	}

	res, err := h.deps.Registry.Execute(c.Request().Context(), c.Param("name"), params, h.toolContext(c))
	if err != nil {
		return c.Fail(err)
	}
	return c.OK(res)
}
