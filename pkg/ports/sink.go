package ports

import (
	"context"

	"github.com/parleylabs/parley/pkg/domain"
)

// SummarySink receives the structured end-of-session report. Exactly one sink is
// resolved at startup (remote webhook or local handler) and each session's
// report is delivered to it exactly once.
//
// Delivery failures are the dispatcher's problem to log; they must never reach
// the caller tearing the session down.
type SummarySink interface {
	Deliver(ctx context.Context, report *domain.Report) error
}

// SummaryFunc adapts a function to the SummarySink interface, for in-process
// local handlers.
type SummaryFunc func(ctx context.Context, report *domain.Report) error

func (f SummaryFunc) Deliver(ctx context.Context, report *domain.Report) error {
	return f(ctx, report)
}
