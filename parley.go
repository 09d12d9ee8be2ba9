package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/internal/runtime"
	loamAdapter "github.com/parleylabs/parley/pkg/adapters/loam"
	"github.com/parleylabs/parley/pkg/adapters/memory"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
	"github.com/parleylabs/parley/pkg/ports"
	"github.com/parleylabs/parley/pkg/session"
	"github.com/parleylabs/parley/pkg/summary"
)

// Engine is the high-level entry point for the Parley library. It wires the
// context graph, the per-session state machine, session persistence and the
// summary dispatcher behind a transport-agnostic API.
type Engine struct {
	mu      sync.RWMutex
	graph   *graph.Graph
	machine *runtime.Machine

	manager    *session.Manager
	source     ports.GraphSource
	store      ports.StateStore
	locker     ports.DistributedLocker
	oracle     ports.Oracle
	summarizer ports.Summarizer
	dispatcher *summary.Dispatcher

	definition  *graph.Definition
	webhookURL  string
	sink        ports.SummarySink
	hooks       domain.LifecycleHooks
	machineOpts []runtime.Option
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithDefinition builds the graph from an in-memory definition, bypassing the
// default Loam initialization. Useful for the DSL builder and tests.
func WithDefinition(def graph.Definition) Option {
	return func(e *Engine) {
		e.definition = &def
	}
}

// WithSource injects a custom graph source.
func WithSource(source ports.GraphSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithStore injects a custom state store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithOracle wires the completion oracle used by AdvanceText.
func WithOracle(oracle ports.Oracle) Option {
	return func(e *Engine) {
		e.oracle = oracle
	}
}

// WithSummarizer wires a report summarizer; without one, reports carry only
// session metadata.
func WithSummarizer(s ports.Summarizer) Option {
	return func(e *Engine) {
		e.summarizer = s
	}
}

// WithSummaryWebhook routes end-of-session reports to a remote endpoint. An
// empty URL keeps the local logging sink.
func WithSummaryWebhook(url string) Option {
	return func(e *Engine) {
		e.webhookURL = url
	}
}

// WithSummarySink overrides the summary destination entirely.
func WithSummarySink(sink ports.SummarySink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMachineOptions forwards options to the underlying state machine (clock,
// filler picker). Mostly for tests.
func WithMachineOptions(opts ...runtime.Option) Option {
	return func(e *Engine) {
		e.machineOpts = append(e.machineOpts, opts...)
	}
}

// New initializes a Parley Engine. By default the agent definition is loaded
// from a Loam markdown repository at agentPath; WithDefinition or WithSource
// bypass that, in which case agentPath may be empty.
func New(agentPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.definition == nil && eng.source == nil {
		if agentPath == "" {
			return nil, fmt.Errorf("agentPath is required when no definition or source is provided")
		}
		source, err := loamAdapter.Open(agentPath)
		if err != nil {
			return nil, err
		}
		eng.source = source
	}
	if agentPath != "" {
		eng.Name = filepath.Base(agentPath)
		eng.logger = eng.logger.With("agent", eng.Name)
	}

	var def graph.Definition
	if eng.definition != nil {
		def = *eng.definition
	} else {
		loaded, err := eng.source.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load agent definition: %w", err)
		}
		def = loaded
	}

	g, err := graph.Build(def)
	if err != nil {
		return nil, err
	}
	eng.graph = g
	eng.machine = eng.newMachine(g)

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(eng.store, managerOpts...)

	dispatcherOpts := []summary.Option{summary.WithLogger(eng.logger)}
	if eng.sink != nil {
		dispatcherOpts = append(dispatcherOpts, summary.WithSink(eng.sink))
	}
	eng.dispatcher = summary.NewDispatcher(eng.webhookURL, dispatcherOpts...)

	return eng, nil
}

func (e *Engine) newMachine(g *graph.Graph) *runtime.Machine {
	opts := []runtime.Option{
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	}
	opts = append(opts, e.machineOpts...)
	return runtime.NewMachine(g, opts...)
}

func (e *Engine) current() (*graph.Graph, *runtime.Machine) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph, e.machine
}

// Graph returns the active context graph.
func (e *Engine) Graph() *graph.Graph {
	g, _ := e.current()
	return g
}

// Sessions returns the IDs of every live session.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// Start creates (or resumes) a session. An empty sessionID generates one.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	_, machine := e.current()
	return e.manager.LoadOrStart(ctx, sessionID, func(ctx context.Context, id string) (*domain.State, error) {
		return machine.Start(ctx, id)
	})
}

// Get returns the current state of a session.
func (e *Engine) Get(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.manager.Load(ctx, sessionID)
}

// Delete removes a session from the store.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.manager.Delete(ctx, sessionID)
}

// Advance runs one turn of the transition protocol under the session's lock.
// On recoverable transition errors (illegal target, ambiguity) the stored state
// is untouched and returned alongside the typed error.
func (e *Engine) Advance(ctx context.Context, sessionID string, verdict domain.Verdict) (*domain.State, *domain.TransitionResult, error) {
	_, machine := e.current()

	var next *domain.State
	var result *domain.TransitionResult
	err := e.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := e.manager.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}

		next, result, err = machine.Advance(ctx, state, verdict)
		if err != nil {
			next = state
			return err
		}
		return e.manager.Store().Save(ctx, sessionID, next)
	})
	return next, result, err
}

// AdvanceText evaluates the conversation window against the current step's
// completion criterion via the configured oracle, then advances on the verdict.
func (e *Engine) AdvanceText(ctx context.Context, sessionID string, window []string) (*domain.State, *domain.TransitionResult, error) {
	if e.oracle == nil {
		return nil, nil, fmt.Errorf("no completion oracle configured")
	}

	g, _ := e.current()
	state, err := e.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	step, err := g.ResolveStep(state.CurrentContext, state.CurrentStep)
	if err != nil {
		return state, nil, err
	}

	verdict, err := e.oracle.Evaluate(ctx, step, window)
	if err != nil {
		// A timed-out or cancelled oracle call resolves as a negative verdict
		// so the session stays put instead of stalling.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			e.logger.Warn("oracle call timed out, staying on current step",
				"session_id", sessionID,
				"err", err,
			)
			verdict = domain.Verdict{}
			ctx = context.WithoutCancel(ctx)
		} else {
			return state, nil, fmt.Errorf("oracle evaluation failed: %w", err)
		}
	}

	return e.Advance(ctx, sessionID, verdict)
}

// Filler returns a bridging utterance from the named internal filler group in
// the session's active language, or "" when the group has no candidates.
func (e *Engine) Filler(ctx context.Context, sessionID, group string) (string, error) {
	_, machine := e.current()
	state, err := e.manager.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return machine.InternalFiller(state, group), nil
}

// End terminates the session, persists the final state and dispatches the
// summary report. Summary delivery failures never surface here.
func (e *Engine) End(ctx context.Context, sessionID string) (*domain.State, *domain.Report, error) {
	g, machine := e.current()

	var ended *domain.State
	err := e.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := e.manager.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		ended = machine.End(ctx, state)
		return e.manager.Store().Save(ctx, sessionID, ended)
	})
	if err != nil {
		return nil, nil, err
	}

	report := e.buildReport(ctx, g, ended)
	e.dispatcher.Dispatch(ctx, report)
	return ended, report, nil
}

// buildReport assembles the metadata report and lets the summarizer (if any)
// fill in the judgment fields.
func (e *Engine) buildReport(ctx context.Context, g *graph.Graph, state *domain.State) *domain.Report {
	duration := time.Since(state.StartedAt)

	var topics []string
	seen := make(map[string]bool)
	for _, visit := range state.History {
		if !seen[visit.Context] {
			seen[visit.Context] = true
			topics = append(topics, visit.Context)
		}
	}

	report := &domain.Report{
		Subject:       state.CurrentContext,
		TutorPersona:  state.ActiveLanguage,
		SessionLength: duration.Round(time.Second).String(),
		TopicsCovered: topics,
		SessionID:     state.SessionID,
		Visits:        state.History,
		Duration:      duration,
	}

	if e.summarizer != nil {
		enriched, err := e.summarizer.Summarize(ctx, state, g.SummaryPrompt())
		if err != nil {
			e.logger.Warn("summarizer failed, falling back to metadata report",
				"session_id", state.SessionID,
				"err", err,
			)
			return report
		}
		enriched.SessionID = state.SessionID
		enriched.Visits = state.History
		enriched.Duration = duration
		if enriched.SessionLength == "" {
			enriched.SessionLength = report.SessionLength
		}
		if len(enriched.TopicsCovered) == 0 {
			enriched.TopicsCovered = topics
		}
		return enriched
	}
	return report
}

// Reload rebuilds the graph from the source and swaps it in for new turns.
// Sessions keep their state; a session whose position no longer exists in the
// new graph surfaces ErrStepNotFound on its next turn.
func (e *Engine) Reload(ctx context.Context) error {
	if e.source == nil {
		return fmt.Errorf("engine has no reloadable source")
	}

	def, err := e.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload agent definition: %w", err)
	}
	g, err := graph.Build(def)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.graph = g
	e.machine = e.newMachine(g)
	e.mu.Unlock()

	e.logger.Info("agent definition reloaded", "contexts", len(g.Contexts()))
	return nil
}

// Watch returns a channel that signals when the underlying agent definition
// changes. Returns an error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current source does not support watching")
}
