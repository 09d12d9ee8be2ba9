package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionEnded is returned when a turn arrives for a session that has already
// been torn down.
var ErrSessionEnded = errors.New("session already ended")

// ErrContextNotFound is returned when a context name is absent from the graph.
// After a successful Build this is a programmer-error class: callers should log
// it and keep their prior state rather than crash the session.
var ErrContextNotFound = errors.New("context not found")

// ErrStepNotFound is returned when a step name is absent from its context.
var ErrStepNotFound = errors.New("step not found")

// ValidationError aggregates every structural problem found while building a
// graph. It is fatal: a service must not start serving with an invalid graph.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid context graph: %d issue(s):\n- %s",
		len(e.Issues), strings.Join(e.Issues, "\n- "))
}

// IllegalTransitionError reports a requested target that is not in the current
// step's whitelist. It is a pure query failure: the session state is unchanged
// and the caller should re-prompt rather than crash.
type IllegalTransitionError struct {
	FromContext string
	FromStep    string
	Requested   Target
}

func (e *IllegalTransitionError) Error() string {
	if e.Requested.Context != "" {
		return fmt.Sprintf("illegal transition from %s/%s: context %q not in whitelist",
			e.FromContext, e.FromStep, e.Requested.Context)
	}
	return fmt.Sprintf("illegal transition from %s/%s: step %q not in whitelist",
		e.FromContext, e.FromStep, e.Requested.Step)
}

// AmbiguousTransitionError reports that the step completed but more than one
// legal default target exists and the oracle supplied none. The machine never
// guesses among legal options; the prompt layer must ask for clarification.
type AmbiguousTransitionError struct {
	FromContext string
	FromStep    string
	Candidates  []Target
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("ambiguous transition from %s/%s: %d legal targets, none specified",
		e.FromContext, e.FromStep, len(e.Candidates))
}
