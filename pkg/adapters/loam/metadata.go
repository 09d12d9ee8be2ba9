package loam

// ContextMetadata is the frontmatter of a context document. Field names use
// "mapstructure" tags to match the YAML frontmatter keys.
//
// The repository's manifest document (agent.md) shares this type; only the
// manifest fields are read from it, and only the context fields from the rest.
type ContextMetadata struct {
	ID        string `json:"id" mapstructure:"id"`
	Isolated  bool   `json:"isolated" mapstructure:"isolated"`
	FullReset bool   `json:"full_reset" mapstructure:"full_reset"`
	Language  string `json:"language" mapstructure:"language"`

	// EnterFillers maps a language code (or "default") to candidate utterances
	// spoken while a switch into this context is in progress.
	EnterFillers map[string][]string `json:"enter_fillers" mapstructure:"enter_fillers"`

	Steps []StepMetadata `json:"steps" mapstructure:"steps"`

	// Manifest fields (agent.md only).
	Entry           string                         `json:"entry" mapstructure:"entry"`
	Languages       []LanguageMetadata             `json:"languages" mapstructure:"languages"`
	InternalFillers map[string]map[string][]string `json:"internal_fillers" mapstructure:"internal_fillers"`
	SummaryPrompt   string                         `json:"summary_prompt" mapstructure:"summary_prompt"`
}

// StepMetadata is one step declaration in a context's frontmatter.
type StepMetadata struct {
	Name          string            `json:"name" mapstructure:"name"`
	Text          string            `json:"text" mapstructure:"text"`
	Criteria      string            `json:"criteria" mapstructure:"criteria"`
	ValidSteps    []string          `json:"valid_steps" mapstructure:"valid_steps"`
	ValidContexts []string          `json:"valid_contexts" mapstructure:"valid_contexts"`
	Sections      []SectionMetadata `json:"sections" mapstructure:"sections"`
}

// SectionMetadata is a prompt section declared inline in frontmatter (step-level
// sections; context-level sections come from the markdown body).
type SectionMetadata struct {
	Title   string   `json:"title" mapstructure:"title"`
	Body    string   `json:"body" mapstructure:"body"`
	Bullets []string `json:"bullets" mapstructure:"bullets"`
}

// LanguageMetadata is one voice binding in the manifest.
type LanguageMetadata struct {
	Name  string `json:"name" mapstructure:"name"`
	Code  string `json:"code" mapstructure:"code"`
	Voice string `json:"voice" mapstructure:"voice"`
}
