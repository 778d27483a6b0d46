// Package githubapi is a typed adapter over the GitHub REST API. Every operation maps failures onto APIError,
// NetworkError or ValidationError and validates the response shape before returning it.
package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v72/github"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/cchalm/repo-assistant/internal/telemetry"
)

const (
	DefaultBaseURL   = "https://api.github.com/"
	DefaultUserAgent = "repo-assistant/" + telemetry.ServiceVersion
)

// Options configure a Client. The zero value talks to api.github.com without authentication
type Options struct {
	Token      string
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client // Base client; wrapped with bearer auth when Token is set
	Logger     *zap.Logger
}

// Client performs GitHub operations. It holds no mutable state and is safe for concurrent use
type Client struct {
	gh     *github.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// NewClient creates a new Client from opts
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		tokenSource := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(ctx, tokenSource)
	}

	gh := github.NewClient(httpClient)

	if opts.BaseURL != "" {
		baseURL, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL '%s': %w", opts.BaseURL, err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		gh.BaseURL = baseURL
	}

	gh.UserAgent = DefaultUserAgent
	if opts.UserAgent != "" {
		gh.UserAgent = opts.UserAgent
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		gh:     gh,
		logger: logger.Named("github"),
		tracer: telemetry.Tracer(),
	}, nil
}

// startSpan starts a span for a repository-scoped operation
func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "github."+name, trace.WithAttributes(attrs...))
}

func repoAttrs(owner, repo string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("github.owner", owner),
		attribute.String("github.repo", repo),
	}
}

// endSpan records err, if any, and ends the span. Use it deferred with a named error result
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
