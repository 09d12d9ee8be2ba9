package summary

import (
	"context"
	"log/slog"

	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/pkg/domain"
)

// LocalSink is the in-process fallback when no webhook is configured: it writes
// the report to the structured log and succeeds.
type LocalSink struct {
	logger *slog.Logger
}

// NewLocalSink creates the logging sink.
func NewLocalSink(logger *slog.Logger) *LocalSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LocalSink{logger: logger}
}

// Deliver logs the report.
func (s *LocalSink) Deliver(_ context.Context, report *domain.Report) error {
	s.logger.Info("session summary",
		"session_id", report.SessionID,
		"subject", report.Subject,
		"tutor_persona", report.TutorPersona,
		"session_length", report.SessionLength,
		"topics_covered", report.TopicsCovered,
		"student_engagement", report.StudentEngagement,
		"learning_objectives_met", report.LearningObjectivesMet,
		"follow_up_needed", report.FollowUpNeeded,
		"difficulty_level", report.DifficultyLevel,
	)
	return nil
}
