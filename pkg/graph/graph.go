// Package graph holds the validated, immutable definition of every context and
// step, and answers connectivity queries for the runtime.
//
// A Graph is built once from a Definition via Build, which fails with a
// *domain.ValidationError if the definition is structurally broken (duplicate
// names, dangling transition targets, missing entry point). After a successful
// Build the graph is read-only and safe for concurrent access without locking;
// changing it means building a new graph and atomically swapping the reference
// for new sessions.
package graph

import (
	"fmt"

	"github.com/parleylabs/parley/pkg/domain"
)

// Definition is the declarative input to Build: the full agent configuration as
// produced by the DSL builder, the YAML config loader or the loam source.
type Definition struct {
	// Entry names the designated entry context. Empty means the first-declared
	// context.
	Entry string `json:"entry,omitempty" yaml:"entry,omitempty"`

	// Base holds the globally-scoped prompt sections (the agent's base persona).
	Base []domain.Section `json:"base,omitempty" yaml:"base,omitempty"`

	Contexts  []domain.Context  `json:"contexts" yaml:"contexts"`
	Languages []domain.Language `json:"languages,omitempty" yaml:"languages,omitempty"`

	// InternalFillers maps a filler group name (e.g. "thinking") to per-language
	// candidate utterances, spoken to bridge in-context latency. Opaque to the
	// state machine; surfaced to the transport.
	InternalFillers map[string]map[string][]string `json:"internal_fillers,omitempty" yaml:"internal_fillers,omitempty"`

	// SummaryPrompt is the instruction handed to whatever generates the end-of-
	// session summary report. Opaque here; delivered alongside the session.
	SummaryPrompt string `json:"summary_prompt,omitempty" yaml:"summary_prompt,omitempty"`
}

// Graph is the validated, immutable context graph.
type Graph struct {
	def       Definition
	contexts  map[string]*domain.Context
	languages map[string]domain.Language
	entry     string
}

// Build validates the definition and returns the immutable graph. All structural
// problems are collected into a single *domain.ValidationError so a broken
// configuration is reported in one pass.
func Build(def Definition) (*Graph, error) {
	var issues []string

	if len(def.Contexts) == 0 {
		issues = append(issues, "definition declares no contexts")
		return nil, &domain.ValidationError{Issues: issues}
	}

	contexts := make(map[string]*domain.Context, len(def.Contexts))
	for i := range def.Contexts {
		c := &def.Contexts[i]
		if c.Name == "" {
			issues = append(issues, fmt.Sprintf("context #%d has no name", i))
			continue
		}
		if _, dup := contexts[c.Name]; dup {
			issues = append(issues, fmt.Sprintf("duplicate context name %q", c.Name))
			continue
		}
		contexts[c.Name] = c

		seen := make(map[string]bool, len(c.Steps))
		for j := range c.Steps {
			s := &c.Steps[j]
			if s.Name == "" {
				issues = append(issues, fmt.Sprintf("context %q: step #%d has no name", c.Name, j))
				continue
			}
			if seen[s.Name] {
				issues = append(issues, fmt.Sprintf("context %q: duplicate step name %q", c.Name, s.Name))
			}
			seen[s.Name] = true
		}
	}

	entry := def.Entry
	if entry == "" {
		entry = def.Contexts[0].Name
	}
	if ec, ok := contexts[entry]; !ok {
		issues = append(issues, fmt.Sprintf("entry context %q is not declared", entry))
	} else if len(ec.Steps) == 0 {
		issues = append(issues, fmt.Sprintf("entry context %q has no steps", entry))
	}

	languages := make(map[string]domain.Language, len(def.Languages))
	for _, l := range def.Languages {
		if l.Name == "" {
			issues = append(issues, "language binding with no name")
			continue
		}
		if _, dup := languages[l.Name]; dup {
			issues = append(issues, fmt.Sprintf("duplicate language binding %q", l.Name))
			continue
		}
		languages[l.Name] = l
	}

	// Cross-reference pass: every transition target and language binding must
	// resolve. Done after the indexing pass so forward references are fine.
	for _, c := range def.Contexts {
		if c.Language != "" {
			if _, ok := languages[c.Language]; !ok {
				issues = append(issues, fmt.Sprintf("context %q: unknown language binding %q", c.Name, c.Language))
			}
		}
		for _, s := range c.Steps {
			for _, target := range s.ValidSteps {
				if c.Step(target) == nil {
					issues = append(issues, fmt.Sprintf("context %q, step %q: valid_steps references unknown step %q", c.Name, s.Name, target))
				}
			}
			for _, target := range s.ValidContexts {
				tc, ok := contexts[target]
				if !ok {
					issues = append(issues, fmt.Sprintf("context %q, step %q: valid_contexts references unknown context %q", c.Name, s.Name, target))
					continue
				}
				if len(tc.Steps) == 0 {
					issues = append(issues, fmt.Sprintf("context %q, step %q: valid_contexts references context %q which has no entry step", c.Name, s.Name, target))
				}
			}
		}
	}

	if len(issues) > 0 {
		return nil, &domain.ValidationError{Issues: issues}
	}

	return &Graph{
		def:       def,
		contexts:  contexts,
		languages: languages,
		entry:     entry,
	}, nil
}

// EntryPoint returns the entry context and its first-declared step.
func (g *Graph) EntryPoint() (contextName, stepName string) {
	c := g.contexts[g.entry]
	return c.Name, c.Steps[0].Name
}

// Resolve returns the named context, or domain.ErrContextNotFound.
func (g *Graph) Resolve(name string) (*domain.Context, error) {
	c, ok := g.contexts[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrContextNotFound)
	}
	return c, nil
}

// ResolveStep returns the named step within the named context.
func (g *Graph) ResolveStep(contextName, stepName string) (*domain.Step, error) {
	c, err := g.Resolve(contextName)
	if err != nil {
		return nil, err
	}
	s := c.Step(stepName)
	if s == nil {
		return nil, fmt.Errorf("%s/%q: %w", contextName, stepName, domain.ErrStepNotFound)
	}
	return s, nil
}

// Language returns the named voice binding.
func (g *Graph) Language(name string) (domain.Language, bool) {
	l, ok := g.languages[name]
	return l, ok
}

// Base returns the globally-scoped prompt sections.
func (g *Graph) Base() []domain.Section {
	return g.def.Base
}

// Contexts returns every context in declaration order, for introspection and
// visualization tools.
func (g *Graph) Contexts() []domain.Context {
	return g.def.Contexts
}

// Languages returns every declared voice binding in declaration order.
func (g *Graph) Languages() []domain.Language {
	return g.def.Languages
}

// SummaryPrompt returns the configured end-of-session summary instruction.
func (g *Graph) SummaryPrompt() string {
	return g.def.SummaryPrompt
}

// InternalFillers returns the candidate utterances for the named filler group in
// the given language, with default-key fallback.
func (g *Graph) InternalFillers(group, langCode string) []string {
	byLang, ok := g.def.InternalFillers[group]
	if !ok {
		return nil
	}
	if fillers, ok := byLang[langCode]; ok && len(fillers) > 0 {
		return fillers
	}
	return byLang[domain.FillerDefaultKey]
}
