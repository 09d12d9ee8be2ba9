package domain

// StateDiff represents the changes between two session states. It is designed to
// be serialized to JSON for partial updates pushed to transport clients (SSE).
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentContext *string        `json:"current_context,omitempty"`
	CurrentStep    *string        `json:"current_step,omitempty"`
	Status         *SessionStatus `json:"status,omitempty"`
	ActiveLanguage *string        `json:"active_language,omitempty"`

	// History contains visits appended since the old state. The history is
	// append-only, so a delta is always a suffix.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents appended visit entries.
type HistoryDelta struct {
	Appended []Visit `json:"appended"`
}

// Diff calculates the difference between oldState and newState. If oldState is
// nil, the diff represents the entire newState (initial load). Returns nil when
// nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.CurrentContext != newState.CurrentContext {
		diff.CurrentContext = &newState.CurrentContext
	}
	if oldState == nil || oldState.CurrentStep != newState.CurrentStep {
		diff.CurrentStep = &newState.CurrentStep
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if oldState == nil || oldState.ActiveLanguage != newState.ActiveLanguage {
		diff.ActiveLanguage = &newState.ActiveLanguage
	}

	oldLen := 0
	if oldState != nil {
		oldLen = len(oldState.History)
	}
	if len(newState.History) > oldLen {
		diff.History = &HistoryDelta{Appended: newState.History[oldLen:]}
	}

	if diff.CurrentContext == nil &&
		diff.CurrentStep == nil &&
		diff.Status == nil &&
		diff.ActiveLanguage == nil &&
		diff.History == nil {
		return nil
	}

	return diff
}
