// Package runtime implements the per-session transition protocol over a
// validated context graph. It is wrapped by the root parley package.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
)

// Machine executes the transition protocol for session states. It holds no
// per-session state itself: states go in, new states come out. The graph is
// immutable, so one Machine serves any number of concurrent sessions as long as
// each session's turns are serialized by the caller (see session.Manager).
type Machine struct {
	graph  *graph.Graph
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	pick   func(n int) int
	now    func() time.Time
}

// Option configures the Machine.
type Option func(*Machine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFillerPicker overrides the filler selection policy (default: uniform
// random). Used by tests for determinism.
func WithFillerPicker(pick func(n int) int) Option {
	return func(m *Machine) {
		m.pick = pick
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine creates a Machine over a built graph.
func NewMachine(g *graph.Graph, opts ...Option) *Machine {
	m := &Machine{
		graph:  g,
		logger: logging.NewNop(),
		pick:   rand.Intn,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Graph returns the machine's immutable graph.
func (m *Machine) Graph() *graph.Graph {
	return m.graph
}

// Start creates the initial state for a session at the graph's entry point and
// composes the initial prompt scope.
func (m *Machine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	entryContext, entryStep := m.graph.EntryPoint()
	c, err := m.graph.Resolve(entryContext)
	if err != nil {
		return nil, err
	}

	state := domain.NewState(sessionID, entryContext, entryStep, m.now().UTC())
	state.Scope = composeScope(m.graph.Base(), domain.Scope{Sections: m.graph.Base()}, c)
	state.ActiveLanguage = m.initialLanguage(c)

	m.logger.Debug("session started",
		"session_id", sessionID,
		"context", entryContext,
		"step", entryStep,
	)
	m.emitStepEnter(ctx, state)
	return state, nil
}

// Advance evaluates one conversational turn against the transition protocol.
//
// The returned state is a new value when a transition happened, and the input
// state (unchanged) otherwise. IllegalTransition and AmbiguousTransition come
// back as typed errors with the input state: both are recoverable and the
// caller is expected to re-prompt, not crash.
func (m *Machine) Advance(ctx context.Context, state *domain.State, verdict domain.Verdict) (*domain.State, *domain.TransitionResult, error) {
	if state.Status == domain.StatusEnded {
		return state, nil, domain.ErrSessionEnded
	}

	if !verdict.Complete {
		return state, &domain.TransitionResult{Outcome: domain.OutcomeStay}, nil
	}

	cur, err := m.graph.ResolveStep(state.CurrentContext, state.CurrentStep)
	if err != nil {
		// Should not occur after a successful Build: treat as an assertion
		// failure, keep prior state.
		m.logger.Error("session state points outside the graph",
			"session_id", state.SessionID,
			"context", state.CurrentContext,
			"step", state.CurrentStep,
			"err", err,
		)
		return state, nil, err
	}

	if target := verdict.Target; target != nil {
		if target.Context != "" {
			if !cur.AllowsContext(target.Context) {
				return state, nil, &domain.IllegalTransitionError{
					FromContext: state.CurrentContext,
					FromStep:    state.CurrentStep,
					Requested:   domain.Target{Context: target.Context},
				}
			}
			return m.switchContext(ctx, state, target.Context)
		}
		if target.Step != "" {
			if !cur.AllowsStep(target.Step) {
				return state, nil, &domain.IllegalTransitionError{
					FromContext: state.CurrentContext,
					FromStep:    state.CurrentStep,
					Requested:   domain.Target{Step: target.Step},
				}
			}
			return m.advanceStep(ctx, state, target.Step)
		}
	}

	// No explicit target: default progression.
	candidates := make([]domain.Target, 0, len(cur.ValidSteps)+len(cur.ValidContexts))
	for _, s := range cur.ValidSteps {
		candidates = append(candidates, domain.Target{Step: s})
	}
	for _, c := range cur.ValidContexts {
		candidates = append(candidates, domain.Target{Context: c})
	}

	switch len(candidates) {
	case 0:
		// Natural session-ending leaf: only an exogenous hangup ends the session.
		next := state.Clone()
		next.Status = domain.StatusAwaitingEnd
		return next, &domain.TransitionResult{Outcome: domain.OutcomeAwaitingEnd}, nil
	case 1:
		if candidates[0].Step != "" {
			return m.advanceStep(ctx, state, candidates[0].Step)
		}
		return m.switchContext(ctx, state, candidates[0].Context)
	default:
		// The machine never guesses among multiple legal options.
		return state, nil, &domain.AmbiguousTransitionError{
			FromContext: state.CurrentContext,
			FromStep:    state.CurrentStep,
			Candidates:  candidates,
		}
	}
}

// End marks the session ended and fires the session-end hook. The caller owns
// summary dispatch; teardown must run even if the turn in flight was cancelled,
// so End takes its own context.
func (m *Machine) End(ctx context.Context, state *domain.State) *domain.State {
	next := state.Clone()
	next.Status = domain.StatusEnded

	if m.hooks.OnSessionEnd != nil {
		m.hooks.OnSessionEnd(ctx, &domain.EndEvent{
			EventBase: m.eventBase(domain.EventSessionEnd, state.SessionID),
			Visits:    len(next.History),
			Length:    m.now().UTC().Sub(next.StartedAt),
		})
	}
	return next
}

// advanceStep moves to another step within the current context.
func (m *Machine) advanceStep(ctx context.Context, state *domain.State, stepName string) (*domain.State, *domain.TransitionResult, error) {
	step, err := m.graph.ResolveStep(state.CurrentContext, stepName)
	if err != nil {
		return state, nil, err
	}

	next := state.Clone()
	next.CurrentStep = stepName
	next.Status = domain.StatusActive
	next.History = append(next.History, domain.Visit{
		Context:   next.CurrentContext,
		Step:      stepName,
		EnteredAt: m.now().UTC(),
	})

	result := &domain.TransitionResult{Outcome: domain.OutcomeStepAdvanced}
	if step.Scripted() {
		result.ScriptedText = step.Text
	}

	m.logger.Debug("step advanced",
		"session_id", next.SessionID,
		"context", next.CurrentContext,
		"step", stepName,
	)
	m.emitStepEnter(ctx, next)
	return next, result, nil
}

// switchContext performs a context switch with all its entry side effects:
// history append, prompt scope recomposition, filler selection and voice change.
func (m *Machine) switchContext(ctx context.Context, state *domain.State, targetName string) (*domain.State, *domain.TransitionResult, error) {
	target, err := m.graph.Resolve(targetName)
	if err != nil {
		return state, nil, err
	}
	entry := target.EntryStep()
	if entry == nil {
		// Unreachable after validation; keep prior state.
		return state, nil, fmt.Errorf("context %q has no entry step: %w", targetName, domain.ErrStepNotFound)
	}

	next := state.Clone()
	next.CurrentContext = target.Name
	next.CurrentStep = entry.Name
	next.Status = domain.StatusActive
	next.History = append(next.History, domain.Visit{
		Context:   target.Name,
		Step:      entry.Name,
		EnteredAt: m.now().UTC(),
	})
	next.Scope = composeScope(m.graph.Base(), state.Scope, target)

	result := &domain.TransitionResult{Outcome: domain.OutcomeContextSwitched}

	// Filler is chosen against the language active while the switch is in
	// progress, before any voice change takes effect.
	if fillers := target.Fillers(m.activeCode(state)); len(fillers) > 0 {
		result.Filler = fillers[m.pick(len(fillers))]
	}

	if target.Language != "" && target.Language != state.ActiveLanguage {
		if lang, ok := m.graph.Language(target.Language); ok {
			next.ActiveLanguage = target.Language
			result.VoiceChange = &lang
		}
	}

	if entry.Scripted() {
		result.ScriptedText = entry.Text
	}

	m.logger.Info("context switched",
		"session_id", next.SessionID,
		"from", state.CurrentContext,
		"to", target.Name,
		"voice_change", result.VoiceChange != nil,
	)
	if m.hooks.OnContextSwitch != nil {
		m.hooks.OnContextSwitch(ctx, &domain.SwitchEvent{
			EventBase:   m.eventBase(domain.EventContextSwitch, next.SessionID),
			From:        state.CurrentContext,
			To:          target.Name,
			VoiceChange: result.VoiceChange != nil,
		})
	}
	m.emitStepEnter(ctx, next)
	return next, result, nil
}

// InternalFiller picks a bridging utterance from the named filler group in the
// session's active language. Returns "" when the group has no candidates.
func (m *Machine) InternalFiller(state *domain.State, group string) string {
	fillers := m.graph.InternalFillers(group, m.activeCode(state))
	if len(fillers) == 0 {
		return ""
	}
	return fillers[m.pick(len(fillers))]
}

// activeCode returns the locale code of the session's active voice binding.
func (m *Machine) activeCode(state *domain.State) string {
	if state.ActiveLanguage == "" {
		return ""
	}
	if lang, ok := m.graph.Language(state.ActiveLanguage); ok {
		return lang.Code
	}
	return ""
}

// initialLanguage picks the session's starting voice binding: the entry
// context's own binding if declared, else the first-declared binding.
func (m *Machine) initialLanguage(entry *domain.Context) string {
	if entry.Language != "" {
		return entry.Language
	}
	if langs := m.graph.Languages(); len(langs) > 0 {
		return langs[0].Name
	}
	return ""
}

func (m *Machine) emitStepEnter(ctx context.Context, state *domain.State) {
	if m.hooks.OnStepEnter == nil {
		return
	}
	m.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase: m.eventBase(domain.EventStepEnter, state.SessionID),
		Context:   state.CurrentContext,
		Step:      state.CurrentStep,
	})
}

func (m *Machine) eventBase(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: m.now().UTC(),
		Type:      t,
		SessionID: sessionID,
	}
}
