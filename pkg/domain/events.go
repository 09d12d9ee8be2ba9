package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStepEnter     EventType = "step_enter"
	EventContextSwitch EventType = "context_switch"
	EventSessionEnd    EventType = "session_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry into a step.
type StepEvent struct {
	EventBase
	Context string `json:"context"`
	Step    string `json:"step"`
}

// SwitchEvent represents a context switch.
type SwitchEvent struct {
	EventBase
	From        string `json:"from"`
	To          string `json:"to"`
	VoiceChange bool   `json:"voice_change,omitempty"`
}

// EndEvent represents session teardown.
type EndEvent struct {
	EventBase
	Visits int           `json:"visits"`
	Length time.Duration `json:"length"`
}

// LifecycleHooks defines callbacks for engine observability. Nil members are
// simply skipped.
type LifecycleHooks struct {
	OnStepEnter     func(context.Context, *StepEvent)
	OnContextSwitch func(context.Context, *SwitchEvent)
	OnSessionEnd    func(context.Context, *EndEvent)
}
