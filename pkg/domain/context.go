package domain

// FillerDefaultKey is the EnterFillers key used when no filler set exists for the
// session's active language code.
const FillerDefaultKey = "default"

// Section is a named prompt fragment: a title plus free text and/or a bulleted list.
// Sections are opaque to the state machine; they are composed into the active prompt
// scope and passed through to prompt assembly.
type Section struct {
	Title   string   `json:"title" yaml:"title"`
	Body    string   `json:"body,omitempty" yaml:"body,omitempty"`
	Bullets []string `json:"bullets,omitempty" yaml:"bullets,omitempty"`
}

// Context represents a subject/persona scope of the conversation.
type Context struct {
	Name string `json:"name" yaml:"name"`

	// Isolated restricts the prompt scope to the global base sections plus this
	// context's own sections; sibling contexts' sections are dropped on entry.
	Isolated bool `json:"isolated,omitempty" yaml:"isolated,omitempty"`

	// FullReset discards even the global base persona on entry. The context's own
	// sections become the entire active persona (a fully distinct persona, e.g.
	// Tanaka-sensei).
	FullReset bool `json:"full_reset,omitempty" yaml:"full_reset,omitempty"`

	// Language names the voice binding this context speaks with. Empty keeps the
	// session's current binding.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Sections are this context's own prompt fragments.
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Steps in declaration order. Steps[0] is the context's entry step.
	Steps []Step `json:"steps" yaml:"steps"`

	// EnterFillers maps a language code (or FillerDefaultKey) to candidate short
	// utterances spoken while a switch into this context is in progress.
	EnterFillers map[string][]string `json:"enter_fillers,omitempty" yaml:"enter_fillers,omitempty"`
}

// EntryStep returns the first-declared step, or nil if the context has none.
func (c *Context) EntryStep() *Step {
	if len(c.Steps) == 0 {
		return nil
	}
	return &c.Steps[0]
}

// Step returns the named step, or nil if it is not declared in this context.
func (c *Context) Step(name string) *Step {
	for i := range c.Steps {
		if c.Steps[i].Name == name {
			return &c.Steps[i]
		}
	}
	return nil
}

// Fillers returns the filler candidates for the given language code, falling back
// to the default set. Returns nil if the context declares no applicable fillers.
func (c *Context) Fillers(langCode string) []string {
	if fillers, ok := c.EnterFillers[langCode]; ok && len(fillers) > 0 {
		return fillers
	}
	if fillers, ok := c.EnterFillers[FillerDefaultKey]; ok && len(fillers) > 0 {
		return fillers
	}
	return nil
}

// Language binds a display name to a locale code and a synthesis voice identifier.
// A session has at most one active binding at a time.
type Language struct {
	Name  string `json:"name" yaml:"name"`
	Code  string `json:"code" yaml:"code"`
	Voice string `json:"voice" yaml:"voice"`
}
