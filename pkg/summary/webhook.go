package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/pkg/domain"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookSink POSTs the report as JSON to a configured analytics endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// WebhookOption configures the WebhookSink.
type WebhookOption func(*WebhookSink)

// WithHTTPClient overrides the HTTP client, for custom transports or tests.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(s *WebhookSink) {
		if client != nil {
			s.client = client
		}
	}
}

// WithWebhookLogger sets a structured logger.
func WithWebhookLogger(logger *slog.Logger) WebhookOption {
	return func(s *WebhookSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewWebhookSink creates a sink delivering to the given URL.
func NewWebhookSink(url string, opts ...WebhookOption) *WebhookSink {
	s := &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver sends the report. A non-2xx status is an error; the dispatcher decides
// what to do with it (log and drop).
func (s *WebhookSink) Deliver(ctx context.Context, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode summary report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver summary: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("summary endpoint returned %s", resp.Status)
	}

	s.logger.Debug("summary posted",
		"session_id", report.SessionID,
		"status", resp.StatusCode,
	)
	return nil
}
