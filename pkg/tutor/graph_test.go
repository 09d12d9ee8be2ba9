package tutor_test

import (
	"context"
	"testing"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/tutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Compiles(t *testing.T) {
	g, err := tutor.Graph()
	require.NoError(t, err)

	ctxName, stepName := g.EntryPoint()
	assert.Equal(t, "triage", ctxName)
	assert.Equal(t, "greeting", stepName)

	assert.Len(t, g.Contexts(), 8)
	assert.Len(t, g.Languages(), 4)
	assert.NotEmpty(t, g.SummaryPrompt())
}

func TestGraph_EverySubjectReachableFromTriage(t *testing.T) {
	g, err := tutor.Graph()
	require.NoError(t, err)

	greeting, err := g.ResolveStep("triage", "greeting")
	require.NoError(t, err)

	for _, c := range g.Contexts() {
		assert.True(t, greeting.AllowsContext(c.Name), "triage cannot reach %s", c.Name)
	}
}

func newEngine(t *testing.T) *parley.Engine {
	t.Helper()
	engine, err := parley.New("", parley.WithDefinition(tutor.Definition()))
	require.NoError(t, err)
	return engine
}

func TestSession_MathLesson(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	state, err := engine.Start(ctx, "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "triage", state.CurrentContext)
	assert.Equal(t, "David-English", state.ActiveLanguage)

	// Student picks math; David keeps his base identity and his voice.
	state, result, err := engine.Advance(ctx, "lesson-1", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "math"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeContextSwitched, result.Outcome)
	assert.Equal(t, "assessment", state.CurrentStep)
	assert.Nil(t, result.VoiceChange)
	require.NotEmpty(t, state.Scope.Sections)
	assert.Equal(t, "Role", state.Scope.Sections[0].Title)
	assert.Contains(t, state.Scope.Sections[0].Body, "David")

	state, result, err = engine.Advance(ctx, "lesson-1", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Step: "guided_solution"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepAdvanced, result.Outcome)
	assert.Equal(t, "guided_solution", state.CurrentStep)
}

func TestSession_SpanishVoiceSwitch(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	_, err := engine.Start(ctx, "lesson-es")
	require.NoError(t, err)

	_, result, err := engine.Advance(ctx, "lesson-es", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "spanish"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.VoiceChange)
	assert.Equal(t, "es-MX", result.VoiceChange.Code)
}

func TestSession_JapaneseFullReset(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	_, err := engine.Start(ctx, "lesson-2")
	require.NoError(t, err)

	state, result, err := engine.Advance(ctx, "lesson-2", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "japanese"},
	})
	require.NoError(t, err)

	// Tanaka-sensei replaces David entirely.
	assert.True(t, state.Scope.BaseDropped)
	require.NotEmpty(t, state.Scope.Sections)
	assert.Contains(t, state.Scope.Sections[0].Body, "Tanaka-sensei")
	require.NotNil(t, result.VoiceChange)
	assert.Equal(t, "ja-JP", result.VoiceChange.Code)
	assert.Contains(t, result.ScriptedText, "Konnichiwa!")

	// The filler is picked against the pre-switch language (English).
	assert.Contains(t, result.Filler, "Tanaka-sensei")

	// Leaving Japanese restores David's base persona.
	state, _, err = engine.Advance(ctx, "lesson-2", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "science"},
	})
	require.NoError(t, err)
	assert.False(t, state.Scope.BaseDropped)
	assert.Equal(t, "Role", state.Scope.Sections[0].Title)
	assert.Contains(t, state.Scope.Sections[0].Body, "David")
}

func TestSession_ThinkingFiller(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	_, err := engine.Start(ctx, "lesson-filler")
	require.NoError(t, err)

	filler, err := engine.Filler(ctx, "lesson-filler", "thinking")
	require.NoError(t, err)
	assert.NotEmpty(t, filler)
}

func TestSession_EndProducesReport(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	_, err := engine.Start(ctx, "lesson-3")
	require.NoError(t, err)
	_, _, err = engine.Advance(ctx, "lesson-3", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "history"},
	})
	require.NoError(t, err)

	state, report, err := engine.End(ctx, "lesson-3")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, state.Status)
	require.NotNil(t, report)
	assert.Equal(t, "history", report.Subject)
	assert.Equal(t, []string{"triage", "history"}, report.TopicsCovered)
}
