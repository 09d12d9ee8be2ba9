package dsl

import (
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
)

// Builder accumulates an agent definition. Contexts keep declaration order;
// the first Entry call (or the first-declared context) names the entry point.
type Builder struct {
	def      graph.Definition
	contexts map[string]*ContextBuilder
	order    []string
}

// New creates an empty definition builder.
func New() *Builder {
	return &Builder{
		contexts: make(map[string]*ContextBuilder),
	}
}

// Entry names the context sessions start in.
func (b *Builder) Entry(name string) *Builder {
	b.def.Entry = name
	return b
}

// Section appends a globally-scoped prompt section (the agent's base persona).
func (b *Builder) Section(title, body string, bullets ...string) *Builder {
	b.def.Base = append(b.def.Base, domain.Section{
		Title:   title,
		Body:    body,
		Bullets: bullets,
	})
	return b
}

// Language declares a voice binding.
func (b *Builder) Language(name, code, voice string) *Builder {
	b.def.Languages = append(b.def.Languages, domain.Language{
		Name:  name,
		Code:  code,
		Voice: voice,
	})
	return b
}

// InternalFillers declares in-context filler candidates for a group and
// language code. Use domain.FillerDefaultKey for the fallback set.
func (b *Builder) InternalFillers(group, langCode string, fillers ...string) *Builder {
	if b.def.InternalFillers == nil {
		b.def.InternalFillers = make(map[string]map[string][]string)
	}
	if b.def.InternalFillers[group] == nil {
		b.def.InternalFillers[group] = make(map[string][]string)
	}
	b.def.InternalFillers[group][langCode] = append(b.def.InternalFillers[group][langCode], fillers...)
	return b
}

// SummaryPrompt sets the instruction handed to the summarizer at session end.
func (b *Builder) SummaryPrompt(prompt string) *Builder {
	b.def.SummaryPrompt = prompt
	return b
}

// Context creates a new context in the definition. If the context already
// exists, it returns the existing builder.
func (b *Builder) Context(name string) *ContextBuilder {
	if cb, ok := b.contexts[name]; ok {
		return cb
	}
	cb := &ContextBuilder{
		context: domain.Context{Name: name},
		builder: b,
	}
	b.contexts[name] = cb
	b.order = append(b.order, name)
	return cb
}

// Definition assembles the accumulated graph.Definition without validating it.
func (b *Builder) Definition() graph.Definition {
	def := b.def
	def.Contexts = make([]domain.Context, 0, len(b.order))
	for _, name := range b.order {
		def.Contexts = append(def.Contexts, b.contexts[name].context)
	}
	return def
}

// Build compiles and validates the definition into a graph.
func (b *Builder) Build() (*graph.Graph, error) {
	return graph.Build(b.Definition())
}
