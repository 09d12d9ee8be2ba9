package domain

import "time"

// Report is the structured end-of-session analytics record. Its fields are fixed
// by the summary sink contract; it is delivered exactly once per session, to
// exactly one configured sink.
type Report struct {
	Subject               string   `json:"subject"`
	TutorPersona          string   `json:"tutor_persona"`
	SessionLength         string   `json:"session_length"`
	TopicsCovered         []string `json:"topics_covered"`
	StudentEngagement     string   `json:"student_engagement"`
	LearningObjectivesMet bool     `json:"learning_objectives_met"`
	FollowUpNeeded        bool     `json:"follow_up_needed"`
	DifficultyLevel       string   `json:"difficulty_level"`

	// Raw session metadata, attached for the local handler and for debugging.
	SessionID string        `json:"session_id,omitempty"`
	Visits    []Visit       `json:"visits,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}
