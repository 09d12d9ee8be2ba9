package domain

import "time"

// SessionStatus defines the lifecycle phase of a session.
type SessionStatus string

const (
	// StatusActive means the session is live and accepting turns.
	StatusActive SessionStatus = "active"
	// StatusAwaitingEnd means the current step is a natural leaf: no further
	// transitions are declared and only an exogenous hangup can end the session.
	StatusAwaitingEnd SessionStatus = "awaiting_end"
	// StatusEnded means the session has been torn down and the summary dispatched.
	StatusEnded SessionStatus = "ended"
)

// Visit records one entry into a (context, step) pair. The history is append-only
// and used for analytics and debugging, never for transition legality.
type Visit struct {
	Context   string    `json:"context"`
	Step      string    `json:"step"`
	EnteredAt time.Time `json:"entered_at"`
}

// Scope is the active prompt scope: the composed persona visible to the model for
// the current context occupancy. Composition is a pure function of the global base
// sections, the entered context's flags and the previous scope (see runtime).
type Scope struct {
	// Sections is the composed, ordered persona.
	Sections []Section `json:"sections"`

	// BaseDropped is true while a full-reset context's persona replaces the global
	// base. It is cleared when a non-full-reset context is subsequently entered.
	BaseDropped bool `json:"base_dropped,omitempty"`
}

// State represents the current snapshot of one conversation session.
type State struct {
	SessionID string `json:"session_id"`

	// CurrentContext and CurrentStep together are the machine state.
	CurrentContext string `json:"current_context"`
	CurrentStep    string `json:"current_step"`

	// History is the append-only sequence of visits.
	History []Visit `json:"history"`

	// ActiveLanguage is the name of the current language/voice binding.
	ActiveLanguage string `json:"active_language,omitempty"`

	// Scope is the active prompt scope for the current context occupancy.
	Scope Scope `json:"scope"`

	Status SessionStatus `json:"status"`

	StartedAt time.Time `json:"started_at"`
}

// NewState creates a clean state positioned at the given entry pair.
func NewState(sessionID, contextName, stepName string, now time.Time) *State {
	return &State{
		SessionID:      sessionID,
		CurrentContext: contextName,
		CurrentStep:    stepName,
		History:        []Visit{{Context: contextName, Step: stepName, EnteredAt: now}},
		Status:         StatusActive,
		StartedAt:      now,
	}
}

// Clone returns a deep copy. Transition logic mutates clones only, so a failed
// legality check can never desynchronize the caller's state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.History = make([]Visit, len(s.History))
	copy(next.History, s.History)
	next.Scope.Sections = make([]Section, len(s.Scope.Sections))
	copy(next.Scope.Sections, s.Scope.Sections)
	return &next
}
