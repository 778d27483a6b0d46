package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	anthropt "github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/transport"
)

// MessageSender sends one request to the Messages API and returns the complete response
type MessageSender interface {
	SendMessage(ctx context.Context, params anthropic.MessageNewParams, opts ...anthropt.RequestOption) (anthropic.Message, error)
}

// NewAnthropicClient creates a client whose requests wait out rate limits instead of failing
func NewAnthropicClient(apiKey string, logger *zap.Logger) anthropic.Client {
	httpClient := &http.Client{
		Transport: transport.WithRateLimiting(http.DefaultTransport, logger),
	}
	return anthropic.NewClient(
		anthropt.WithAPIKey(apiKey),
		anthropt.WithHTTPClient(httpClient),
		anthropt.WithMaxRetries(3),
	)
}

type StreamingMessageSender struct {
	client anthropic.Client
	logger *zap.Logger
}

func NewStreamingMessageSender(client anthropic.Client, logger *zap.Logger) StreamingMessageSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return StreamingMessageSender{
		client: client,
		logger: logger,
	}
}

func (sms StreamingMessageSender) SendMessage(
	ctx context.Context,
	params anthropic.MessageNewParams,
	opts ...anthropt.RequestOption,
) (anthropic.Message, error) {
	stream := sms.client.Messages.NewStreaming(ctx, params, opts...)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		err := response.Accumulate(event)
		if err != nil {
			return anthropic.Message{}, fmt.Errorf("failed to accumulate response content stream: %w", err)
		}
	}
	if stream.Err() != nil {
		return anthropic.Message{}, fmt.Errorf("failed to stream response: %w", stream.Err())
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			sms.logger.Warn("failed to marshal corrupt message for inspection", zap.Error(err))
		}
		return anthropic.Message{}, fmt.Errorf("malformed message: %v", string(b))
	}

	return response, nil
}
