package graph_test

import (
	"testing"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDefinition() graph.Definition {
	return graph.Definition{
		Entry: "triage",
		Base:  []domain.Section{{Title: "Role", Body: "tutor"}},
		Languages: []domain.Language{
			{Name: "David-English", Code: "en-US", Voice: "v1"},
		},
		Contexts: []domain.Context{
			{
				Name:     "triage",
				Isolated: true,
				Steps: []domain.Step{
					{Name: "greeting", ValidContexts: []string{"math"}},
				},
			},
			{
				Name:     "math",
				Isolated: true,
				Language: "David-English",
				Steps: []domain.Step{
					{Name: "assessment", ValidSteps: []string{"practice"}},
					{Name: "practice"},
				},
			},
		},
	}
}

func TestBuild_Valid(t *testing.T) {
	g, err := graph.Build(validDefinition())
	require.NoError(t, err)

	ctxName, stepName := g.EntryPoint()
	assert.Equal(t, "triage", ctxName)
	assert.Equal(t, "greeting", stepName)

	c, err := g.Resolve("math")
	require.NoError(t, err)
	assert.Equal(t, "David-English", c.Language)

	s, err := g.ResolveStep("math", "practice")
	require.NoError(t, err)
	assert.True(t, s.Leaf())

	lang, ok := g.Language("David-English")
	require.True(t, ok)
	assert.Equal(t, "en-US", lang.Code)
}

func TestBuild_DefaultsToFirstContext(t *testing.T) {
	def := validDefinition()
	def.Entry = ""

	g, err := graph.Build(def)
	require.NoError(t, err)
	ctxName, _ := g.EntryPoint()
	assert.Equal(t, "triage", ctxName)
}

func TestBuild_CollectsAllIssues(t *testing.T) {
	def := graph.Definition{
		Entry: "missing",
		Languages: []domain.Language{
			{Name: "dup"},
			{Name: "dup"},
		},
		Contexts: []domain.Context{
			{
				Name:     "a",
				Language: "nope",
				Steps: []domain.Step{
					{Name: "s1", ValidSteps: []string{"ghost"}, ValidContexts: []string{"phantom"}},
					{Name: "s1"},
				},
			},
			{Name: "a"},
		},
	}

	_, err := graph.Build(def)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	joined := verr.Error()
	assert.Contains(t, joined, `entry context "missing" is not declared`)
	assert.Contains(t, joined, `duplicate language binding "dup"`)
	assert.Contains(t, joined, `unknown language binding "nope"`)
	assert.Contains(t, joined, `valid_steps references unknown step "ghost"`)
	assert.Contains(t, joined, `valid_contexts references unknown context "phantom"`)
	assert.Contains(t, joined, `duplicate step name "s1"`)
	assert.Contains(t, joined, `duplicate context name "a"`)
}

func TestBuild_NoContexts(t *testing.T) {
	_, err := graph.Build(graph.Definition{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "no contexts")
}

func TestBuild_EntryContextWithoutSteps(t *testing.T) {
	def := graph.Definition{
		Contexts: []domain.Context{{Name: "empty"}},
	}
	_, err := graph.Build(def)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), `entry context "empty" has no steps`)
}

func TestBuild_WhitelistedContextNeedsEntryStep(t *testing.T) {
	def := validDefinition()
	def.Contexts = append(def.Contexts, domain.Context{Name: "stub"})
	def.Contexts[0].Steps[0].ValidContexts = append(def.Contexts[0].Steps[0].ValidContexts, "stub")

	_, err := graph.Build(def)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), `references context "stub" which has no entry step`)
}

func TestGraph_ResolveUnknown(t *testing.T) {
	g, err := graph.Build(validDefinition())
	require.NoError(t, err)

	_, err = g.Resolve("chemistry")
	assert.ErrorIs(t, err, domain.ErrContextNotFound)

	_, err = g.ResolveStep("math", "lecture")
	assert.ErrorIs(t, err, domain.ErrStepNotFound)

	_, err = g.ResolveStep("chemistry", "anything")
	assert.ErrorIs(t, err, domain.ErrContextNotFound)
}

func TestGraph_InternalFillers(t *testing.T) {
	def := validDefinition()
	def.InternalFillers = map[string]map[string][]string{
		"thinking": {
			"es-MX":                 {"Déjame pensar..."},
			domain.FillerDefaultKey: {"Let me think..."},
		},
	}

	g, err := graph.Build(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"Déjame pensar..."}, g.InternalFillers("thinking", "es-MX"))
	assert.Equal(t, []string{"Let me think..."}, g.InternalFillers("thinking", "ja-JP"), "unknown language falls back to default")
	assert.Nil(t, g.InternalFillers("celebration", "es-MX"))
}
