package domain

import "slices"

// Step represents a phase within a context. It is either directive (model-driven,
// built from Sections) or scripted (Text spoken verbatim, no generation).
type Step struct {
	Name string `json:"name" yaml:"name"`

	// Sections are the prompt fragments for a directive step.
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Text, when set, marks the step as scripted: the literal utterance spoken when
	// the step becomes active, instead of a generated response.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Criteria is the human-readable completion criterion handed to the oracle.
	// The state machine never interprets its semantics.
	Criteria string `json:"criteria,omitempty" yaml:"criteria,omitempty"`

	// ValidSteps lists step names reachable from here within the same context.
	ValidSteps []string `json:"valid_steps,omitempty" yaml:"valid_steps,omitempty"`

	// ValidContexts lists context names reachable from here. Empty means no context
	// change is permitted from this step.
	ValidContexts []string `json:"valid_contexts,omitempty" yaml:"valid_contexts,omitempty"`
}

// Scripted reports whether the step speaks a fixed utterance instead of
// generating a response.
func (s *Step) Scripted() bool {
	return s.Text != ""
}

// AllowsStep reports whether name is in the step's intra-context whitelist.
func (s *Step) AllowsStep(name string) bool {
	return slices.Contains(s.ValidSteps, name)
}

// AllowsContext reports whether name is in the step's context whitelist.
func (s *Step) AllowsContext(name string) bool {
	return slices.Contains(s.ValidContexts, name)
}

// Leaf reports whether both whitelists are empty: the conversation can only end
// here through an exogenous event (hangup).
func (s *Step) Leaf() bool {
	return len(s.ValidSteps) == 0 && len(s.ValidContexts) == 0
}
