package domain

// Target names a requested transition destination. A context target switches
// contexts (entering the target's entry step); a step target moves within the
// current context. At most one of the two is set.
type Target struct {
	Context string `json:"context,omitempty"`
	Step    string `json:"step,omitempty"`
}

// Verdict is the oracle's judgment for one conversational turn: whether the
// current step's criterion is met, plus an optional explicit destination the
// judgment layer extracted from the utterance.
type Verdict struct {
	Complete bool    `json:"complete"`
	Target   *Target `json:"target,omitempty"`
}

// Outcome classifies the effect of an Advance call.
type Outcome string

const (
	// OutcomeStay means the verdict was negative: no state change.
	OutcomeStay Outcome = "stay"
	// OutcomeStepAdvanced means the session moved to another step in the same context.
	OutcomeStepAdvanced Outcome = "step_advanced"
	// OutcomeContextSwitched means the session entered a different context.
	OutcomeContextSwitched Outcome = "context_switched"
	// OutcomeAwaitingEnd means the completed step is a leaf; the session can only
	// end through an exogenous event.
	OutcomeAwaitingEnd Outcome = "awaiting_end"
)

// TransitionResult reports what an Advance call did, together with the side
// effects the transport layer must perform before the next utterance.
type TransitionResult struct {
	Outcome Outcome `json:"outcome"`

	// Filler is a short utterance to speak while a context switch is in progress.
	Filler string `json:"filler,omitempty"`

	// ScriptedText is the fixed utterance of the newly active step, when that step
	// is scripted rather than directive.
	ScriptedText string `json:"scripted_text,omitempty"`

	// VoiceChange is set when the entered context binds a different language/voice;
	// the transport must switch synthesis voice before the context's first utterance.
	VoiceChange *Language `json:"voice_change,omitempty"`
}
