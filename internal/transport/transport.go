// Package transport provides http.RoundTripper decorators shared by the outbound clients.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxWait bounds how long a single rate-limit wait may last
const DefaultMaxWait = 2 * time.Minute

// RateLimitedTransport waits out 429 responses that carry a retry-after header. It is used for the AI client only;
// GitHub requests are never retried by the transport
type RateLimitedTransport struct {
	base    http.RoundTripper
	logger  *zap.Logger
	maxWait time.Duration
	now     func() time.Time
}

func WithRateLimiting(base http.RoundTripper, logger *zap.Logger) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedTransport{base: base, logger: logger, maxWait: DefaultMaxWait, now: time.Now}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil || resp.StatusCode != http.StatusTooManyRequests {
			return resp, err
		}

		wait := t.retryAfter(resp.Header.Get("retry-after"))
		if wait <= 0 || wait > t.maxWait {
			return resp, nil
		}

		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		t.logger.Warn("rate limited, waiting", zap.String("host", req.URL.Host), zap.Duration("wait", wait))
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a retry-after header given either in seconds or as an HTTP date
func (t *RateLimitedTransport) retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := http.ParseTime(value); err == nil {
		return retryTime.Sub(t.now())
	}
	return 0
}
