package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parleylabs/parley/internal/runtime"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()

	def := graph.Definition{
		Entry: "triage",
		Base: []domain.Section{
			{Title: "Role", Body: "You are David, a versatile tutor."},
			{Title: "Core Identity", Body: "Warm and encouraging."},
		},
		Languages: []domain.Language{
			{Name: "David-English", Code: "en-US", Voice: "elevenlabs.multilingual"},
			{Name: "Sensei", Code: "ja-JP", Voice: "elevenlabs.japanese"},
		},
		Contexts: []domain.Context{
			{
				Name:     "triage",
				Isolated: true,
				Sections: []domain.Section{{Title: "Current Task", Body: "Determine the subject."}},
				Steps: []domain.Step{
					{
						Name:          "greeting",
						Criteria:      "Student has clearly indicated a subject",
						ValidContexts: []string{"math", "japanese", "triage"},
					},
				},
			},
			{
				Name:     "math",
				Isolated: true,
				Language: "David-English",
				Sections: []domain.Section{{Title: "Teaching Philosophy", Body: "Systematic problem-solving."}},
				Steps: []domain.Step{
					{
						Name:       "assessment",
						Criteria:   "Topic and level identified",
						ValidSteps: []string{"guided_solution"},
					},
					{
						Name:          "guided_solution",
						Criteria:      "One problem worked through",
						ValidSteps:    []string{"practice", "assessment"},
						ValidContexts: []string{"japanese"},
					},
					{
						Name:     "practice",
						Criteria: "Practice complete",
					},
				},
			},
			{
				Name:      "japanese",
				Isolated:  true,
				FullReset: true,
				Language:  "Sensei",
				Sections:  []domain.Section{{Title: "Role", Body: "You are Tanaka-sensei."}},
				EnterFillers: map[string][]string{
					"en-US":  {"Connecting you with Tanaka-sensei...", "One moment..."},
					"default": {"Transferring..."},
				},
				Steps: []domain.Step{
					{
						Name:          "aisatsu",
						Text:          "Konnichiwa! I'm Tanaka-sensei.",
						Criteria:      "Focus chosen",
						ValidSteps:    []string{"japanese_practice"},
						ValidContexts: []string{"math"},
					},
					{
						Name:     "japanese_practice",
						Criteria: "Practice complete",
					},
				},
			},
		},
	}

	g, err := graph.Build(def)
	require.NoError(t, err)
	return g
}

func newTestMachine(t *testing.T) *runtime.Machine {
	t.Helper()
	return runtime.NewMachine(buildTestGraph(t),
		runtime.WithFillerPicker(func(n int) int { return 0 }),
		runtime.WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func TestMachine_Start(t *testing.T) {
	m := newTestMachine(t)

	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	assert.Equal(t, "triage", state.CurrentContext)
	assert.Equal(t, "greeting", state.CurrentStep)
	assert.Equal(t, domain.StatusActive, state.Status)
	assert.Len(t, state.History, 1)
	assert.Equal(t, "David-English", state.ActiveLanguage)

	// Isolated entry context: global base plus triage's own sections.
	require.Len(t, state.Scope.Sections, 3)
	assert.Equal(t, "Role", state.Scope.Sections[0].Title)
	assert.Equal(t, "Current Task", state.Scope.Sections[2].Title)
	assert.False(t, state.Scope.BaseDropped)
}

func TestMachine_NegativeVerdictNeverMoves(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: false,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStay, result.Outcome)
	assert.Equal(t, state.CurrentContext, next.CurrentContext)
	assert.Equal(t, state.CurrentStep, next.CurrentStep)
	assert.Len(t, next.History, 1)
}

func TestMachine_ContextSwitch(t *testing.T) {
	// Scenario: triage/greeting -> math on a positive verdict with a context target.
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeContextSwitched, result.Outcome)
	assert.Equal(t, "math", next.CurrentContext)
	assert.Equal(t, "assessment", next.CurrentStep, "context entry lands on the first declared step")
	assert.Len(t, next.History, 2)
	assert.Nil(t, result.VoiceChange, "math shares the session's current binding")

	// Isolation: triage's sections are gone, the global base persists.
	require.Len(t, next.Scope.Sections, 3)
	assert.Equal(t, "Core Identity", next.Scope.Sections[1].Title)
	assert.Equal(t, "Teaching Philosophy", next.Scope.Sections[2].Title)

	// The input state was not mutated.
	assert.Equal(t, "triage", state.CurrentContext)
	assert.Len(t, state.History, 1)
}

func TestMachine_IllegalTransition(t *testing.T) {
	// Scenario: math/assessment does not whitelist japanese.
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "japanese"},
	})

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "math", illegal.FromContext)
	assert.Equal(t, "japanese", illegal.Requested.Context)
	assert.Nil(t, result)
	assert.Equal(t, "math", next.CurrentContext)
	assert.Equal(t, "assessment", next.CurrentStep)
	assert.Len(t, next.History, 2, "failed legality check must not touch history")
}

func TestMachine_IllegalStepTarget(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	_, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Step: "guided_solution"},
	})
	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "guided_solution", illegal.Requested.Step)
}

func TestMachine_AutoAdvanceSingleCandidate(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)

	// assessment has exactly one legal successor and no context targets.
	next, result, err := m.Advance(context.Background(), state, domain.Verdict{Complete: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepAdvanced, result.Outcome)
	assert.Equal(t, "guided_solution", next.CurrentStep)
	assert.Len(t, next.History, 3)
}

func TestMachine_AmbiguousTransition(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	// greeting whitelists three contexts; with no explicit target the machine
	// must ask for clarification, never guess.
	next, result, err := m.Advance(context.Background(), state, domain.Verdict{Complete: true})

	var ambiguous *domain.AmbiguousTransitionError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 3)
	assert.Nil(t, result)
	assert.Equal(t, "greeting", next.CurrentStep)
	assert.Len(t, next.History, 1)
}

func TestMachine_LeafAwaitsExogenousEnd(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{Complete: true})
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Step: "practice"},
	})
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{Complete: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAwaitingEnd, result.Outcome)
	assert.Equal(t, domain.StatusAwaitingEnd, next.Status)
	assert.Equal(t, "practice", next.CurrentStep)
}

func TestMachine_FullResetContext(t *testing.T) {
	// Scenario: entering japanese replaces the whole persona with Tanaka-sensei's.
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "japanese"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeContextSwitched, result.Outcome)
	assert.Equal(t, "aisatsu", next.CurrentStep)

	// Full reset: even the global base is gone.
	require.Len(t, next.Scope.Sections, 1)
	assert.Equal(t, "You are Tanaka-sensei.", next.Scope.Sections[0].Body)
	assert.True(t, next.Scope.BaseDropped)

	// Side effects: filler in the pre-switch language, voice change, scripted entry.
	assert.Equal(t, "Connecting you with Tanaka-sensei...", result.Filler)
	require.NotNil(t, result.VoiceChange)
	assert.Equal(t, "ja-JP", result.VoiceChange.Code)
	assert.Equal(t, "Sensei", next.ActiveLanguage)
	assert.Equal(t, "Konnichiwa! I'm Tanaka-sensei.", result.ScriptedText)
}

func TestMachine_FullResetRecovery(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	state, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "japanese"},
	})
	require.NoError(t, err)

	// Leaving the full-reset context for an isolated one restores the base.
	next, _, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)
	require.Len(t, next.Scope.Sections, 3)
	assert.Equal(t, "You are David, a versatile tutor.", next.Scope.Sections[0].Body)
	assert.False(t, next.Scope.BaseDropped)
}

func TestMachine_SelfLoopReentry(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	next, result, err := m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "triage"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeContextSwitched, result.Outcome)
	assert.Equal(t, "greeting", next.CurrentStep)
	assert.Len(t, next.History, 2, "self-loop appends exactly one visit")
}

func TestMachine_EndedSessionRejectsTurns(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)

	ended := m.End(context.Background(), state)
	assert.Equal(t, domain.StatusEnded, ended.Status)

	_, _, err = m.Advance(context.Background(), ended, domain.Verdict{Complete: true})
	assert.ErrorIs(t, err, domain.ErrSessionEnded)
}

func TestMachine_CorruptStateKeepsPriorState(t *testing.T) {
	m := newTestMachine(t)
	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	state.CurrentStep = "no-such-step"

	next, _, err := m.Advance(context.Background(), state, domain.Verdict{Complete: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStepNotFound))
	assert.Equal(t, "no-such-step", next.CurrentStep, "state is left as-is for the caller")
}

func TestMachine_Hooks(t *testing.T) {
	var switches []string
	var steps []string
	hooks := domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			steps = append(steps, e.Context+"/"+e.Step)
		},
		OnContextSwitch: func(_ context.Context, e *domain.SwitchEvent) {
			switches = append(switches, e.From+"->"+e.To)
		},
	}
	m := runtime.NewMachine(buildTestGraph(t), runtime.WithLifecycleHooks(hooks))

	state, err := m.Start(context.Background(), "call-1")
	require.NoError(t, err)
	_, _, err = m.Advance(context.Background(), state, domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"triage/greeting", "math/assessment"}, steps)
	assert.Equal(t, []string{"triage->math"}, switches)
}
