package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/parleylabs/parley/pkg/domain"
)

// Summarizer produces the end-of-session report via the model, guided by the
// agent's configured summary instruction.
type Summarizer struct {
	client *genai.Client
	model  string
}

// NewSummarizer creates a Summarizer using the given API key.
func NewSummarizer(ctx context.Context, apiKey string, opts ...OracleOption) (*Summarizer, error) {
	o, err := NewOracle(ctx, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &Summarizer{client: o.client, model: o.model}, nil
}

// Summarize implements ports.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, state *domain.State, prompt string) (*domain.Report, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(summaryPrompt(state, prompt), genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	return parseReport(resp.Text())
}

func summaryPrompt(state *domain.State, instruction string) string {
	var b strings.Builder
	if instruction != "" {
		b.WriteString(instruction)
	} else {
		b.WriteString("Summarize this tutoring session for the records system.")
	}
	b.WriteString("\n\nSession trajectory:\n")
	for _, visit := range state.History {
		fmt.Fprintf(&b, "- %s / %s at %s\n", visit.Context, visit.Step, visit.EnteredAt.Format("15:04:05"))
	}
	b.WriteString(`
Respond with JSON only, using exactly these fields:
{"subject": "", "tutor_persona": "", "session_length": "", "topics_covered": [],
"student_engagement": "", "learning_objectives_met": false,
"follow_up_needed": false, "difficulty_level": ""}`)
	return b.String()
}

func parseReport(text string) (*domain.Report, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var report domain.Report
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &report); err != nil {
		return nil, fmt.Errorf("summarizer returned malformed report: %w", err)
	}
	return &report, nil
}
