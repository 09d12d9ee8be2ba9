package ports

import (
	"context"

	"github.com/parleylabs/parley/pkg/domain"
)

// Oracle is the abstract boundary to the external judgment mechanism that
// decides whether the current step's completion criterion has been met, given
// the conversation so far. Supplied by an LLM or other classifier; the core
// treats it as an opaque capability and never inspects conversation text itself.
//
// The call may block (network call to a judgment service); Advance treats it as
// the sole suspension point per turn. A caller-imposed timeout should resolve as
// a negative verdict ("stay"), which is itself the retry.
type Oracle interface {
	// Evaluate returns the verdict for one conversational turn. The window holds
	// the recent conversation turns, most recent last; its framing is owned by
	// the transport layer.
	Evaluate(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error)

func (f OracleFunc) Evaluate(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error) {
	return f(ctx, step, window)
}
