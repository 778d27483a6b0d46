// Package telemetry wires OpenTelemetry tracing for repo-assistant.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	ServiceName    = "repo-assistant"
	ServiceVersion = "1.0.0"

	instrumentationName = "github.com/cchalm/repo-assistant"
)

// Config holds the configuration for telemetry
type Config struct {
	Enabled      bool
	OTLPEndpoint string // host:port of an OTLP/HTTP collector
	Insecure     bool
}

// Provider owns the process-wide tracer provider
type Provider struct {
	tp     trace.TracerProvider
	sdk    *sdktrace.TracerProvider // nil when disabled
	logger *zap.Logger
}

// NewProvider creates a tracer provider and installs it globally. When telemetry is disabled, a noop provider is
// installed so that instrumented code does not need to care
func NewProvider(ctx context.Context, config Config, logger *zap.Logger) (*Provider, error) {
	if !config.Enabled {
		logger.Debug("telemetry disabled")
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return &Provider{tp: tp, logger: logger}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.OTLPEndpoint)}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.Info("telemetry enabled", zap.String("endpoint", config.OTLPEndpoint))

	return &Provider{tp: tp, sdk: tp, logger: logger}, nil
}

// Shutdown flushes and shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	p.logger.Debug("shutting down telemetry provider")
	return p.sdk.Shutdown(ctx)
}

// Tracer returns the tracer used by repo-assistant packages
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// ToolUse holds the attributes recorded for a single tool invocation
type ToolUse struct {
	ToolName   string
	ResultSize int
	HasError   bool
	SessionID  string
}

// RecordToolUse attaches tool use attributes to the span in ctx
func RecordToolUse(ctx context.Context, toolUse ToolUse) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("tool_use", trace.WithAttributes(
		attribute.String("tool.name", toolUse.ToolName),
		attribute.Int("tool.result_size", toolUse.ResultSize),
		attribute.Bool("tool.has_error", toolUse.HasError),
		attribute.String("session.id", toolUse.SessionID),
	))
}
