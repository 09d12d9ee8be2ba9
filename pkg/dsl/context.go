package dsl

import "github.com/parleylabs/parley/pkg/domain"

// ContextBuilder provides a fluent API for configuring a context.
type ContextBuilder struct {
	context domain.Context
	builder *Builder
}

// Isolated drops sibling contexts' sections from the prompt scope on entry.
func (c *ContextBuilder) Isolated() *ContextBuilder {
	c.context.Isolated = true
	return c
}

// FullReset discards even the base persona on entry; the context's own
// sections become the entire active persona.
func (c *ContextBuilder) FullReset() *ContextBuilder {
	c.context.FullReset = true
	c.context.Isolated = true
	return c
}

// Speaks binds the context to a declared voice binding by name.
func (c *ContextBuilder) Speaks(language string) *ContextBuilder {
	c.context.Language = language
	return c
}

// Section appends a prompt section to the context.
func (c *ContextBuilder) Section(title, body string, bullets ...string) *ContextBuilder {
	c.context.Sections = append(c.context.Sections, domain.Section{
		Title:   title,
		Body:    body,
		Bullets: bullets,
	})
	return c
}

// EnterFillers declares filler candidates spoken while a switch into this
// context is in progress. Use domain.FillerDefaultKey for the fallback set.
func (c *ContextBuilder) EnterFillers(langCode string, fillers ...string) *ContextBuilder {
	if c.context.EnterFillers == nil {
		c.context.EnterFillers = make(map[string][]string)
	}
	c.context.EnterFillers[langCode] = append(c.context.EnterFillers[langCode], fillers...)
	return c
}

// Step appends a step to the context. The first-declared step is the
// context's entry step.
func (c *ContextBuilder) Step(name string) *StepBuilder {
	c.context.Steps = append(c.context.Steps, domain.Step{Name: name})
	return &StepBuilder{
		step:    &c.context.Steps[len(c.context.Steps)-1],
		context: c,
	}
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    *domain.Step
	context *ContextBuilder
}

// Section appends a prompt section to the step.
func (s *StepBuilder) Section(title, body string, bullets ...string) *StepBuilder {
	s.step.Sections = append(s.step.Sections, domain.Section{
		Title:   title,
		Body:    body,
		Bullets: bullets,
	})
	return s
}

// Scripted marks the step as scripted: text is spoken verbatim when the step
// becomes active, with no generation.
func (s *StepBuilder) Scripted(text string) *StepBuilder {
	s.step.Text = text
	return s
}

// Criteria sets the completion criterion handed to the oracle.
func (s *StepBuilder) Criteria(criteria string) *StepBuilder {
	s.step.Criteria = criteria
	return s
}

// Then whitelists step targets within the same context.
func (s *StepBuilder) Then(steps ...string) *StepBuilder {
	s.step.ValidSteps = append(s.step.ValidSteps, steps...)
	return s
}

// To whitelists context switch targets.
func (s *StepBuilder) To(contexts ...string) *StepBuilder {
	s.step.ValidContexts = append(s.step.ValidContexts, contexts...)
	return s
}

// Step starts the next step in the same context.
func (s *StepBuilder) Step(name string) *StepBuilder {
	return s.context.Step(name)
}
