// Package summary routes the end-of-session report to exactly one destination.
//
// The destination is resolved once, at startup: a remote webhook when a URL is
// configured, a local in-process handler otherwise. Per-session logic never
// chooses; it hands the report to the dispatcher and moves on. Delivery failures
// are logged and swallowed, session teardown must not depend on an analytics
// endpoint being up.
package summary

import (
	"context"
	"log/slog"

	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/ports"
)

// Dispatcher owns the single resolved sink for the process lifetime.
type Dispatcher struct {
	sink   ports.SummarySink
	logger *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSink overrides the resolved sink. Used when the host application supplies
// its own local handler instead of the logging default.
func WithSink(sink ports.SummarySink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.sink = sink
		}
	}
}

// NewDispatcher resolves the sink from configuration: webhookURL non-empty means
// remote delivery, empty means the local logging handler. WithSink replaces the
// resolved sink either way.
func NewDispatcher(webhookURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	if d.sink == nil {
		if webhookURL != "" {
			d.sink = NewWebhookSink(webhookURL, WithWebhookLogger(d.logger))
		} else {
			d.sink = NewLocalSink(d.logger)
		}
	}
	return d
}

// Dispatch delivers the report to the resolved sink. Errors are logged, never
// returned: by the time a summary is dispatched the session is already over and
// there is nobody left to retry.
func (d *Dispatcher) Dispatch(ctx context.Context, report *domain.Report) {
	if err := d.sink.Deliver(ctx, report); err != nil {
		d.logger.Error("summary delivery failed",
			"session_id", report.SessionID,
			"err", err,
		)
		return
	}
	d.logger.Debug("summary delivered", "session_id", report.SessionID)
}
