package ports

import (
	"context"

	"github.com/parleylabs/parley/pkg/domain"
)

// Summarizer fills in the judgment fields of the end-of-session report
// (engagement, objectives met, difficulty) from the session's trajectory,
// typically by prompting a model with the configured summary instruction. The
// engine falls back to the bare metadata report when no summarizer is wired or
// when summarization fails.
type Summarizer interface {
	Summarize(ctx context.Context, state *domain.State, prompt string) (*domain.Report, error)
}
