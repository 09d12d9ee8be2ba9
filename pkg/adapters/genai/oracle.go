// Package genai implements the completion oracle and the report summarizer on
// Google's Gemini API.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/parleylabs/parley/pkg/domain"
)

const defaultModel = "gemini-2.0-flash"

// Oracle asks the model whether the current step's completion criterion is
// satisfied by the recent conversation window, and which declared target (if
// any) the conversation is heading to.
type Oracle struct {
	client *genai.Client
	model  string
}

// OracleOption configures the Oracle.
type OracleOption func(*Oracle)

// WithModel overrides the generation model.
func WithModel(model string) OracleOption {
	return func(o *Oracle) {
		o.model = model
	}
}

// NewOracle creates an Oracle using the given API key.
func NewOracle(ctx context.Context, apiKey string, opts ...OracleOption) (*Oracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	o := &Oracle{client: client, model: defaultModel}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Evaluate implements ports.Oracle.
func (o *Oracle) Evaluate(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(oraclePrompt(step, window), genai.RoleUser),
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	return parseVerdict(resp.Text())
}

// oraclePrompt renders the judgment request: the criterion, the step's declared
// targets and the transcript window.
func oraclePrompt(step *domain.Step, window []string) string {
	var b strings.Builder
	b.WriteString("You judge whether a tutoring conversation phase is complete.\n\n")
	fmt.Fprintf(&b, "Completion criterion: %s\n", step.Criteria)
	if len(step.ValidSteps) > 0 {
		fmt.Fprintf(&b, "Possible next steps: %s\n", strings.Join(step.ValidSteps, ", "))
	}
	if len(step.ValidContexts) > 0 {
		fmt.Fprintf(&b, "Possible next subjects: %s\n", strings.Join(step.ValidContexts, ", "))
	}
	b.WriteString("\nRecent conversation:\n")
	for _, line := range window {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(`
Respond with JSON only:
{"complete": true|false, "target": {"context": "<subject or empty>", "step": "<step or empty>"}}
Set "complete" to true only when the criterion is clearly satisfied. Name a
target only when the conversation explicitly asks for it.`)
	return b.String()
}

// parseVerdict decodes the model's JSON reply, tolerating markdown fences.
func parseVerdict(text string) (domain.Verdict, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var raw struct {
		Complete bool `json:"complete"`
		Target   *struct {
			Context string `json:"context"`
			Step    string `json:"step"`
		} `json:"target"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &raw); err != nil {
		return domain.Verdict{}, fmt.Errorf("oracle returned malformed verdict: %w", err)
	}

	verdict := domain.Verdict{Complete: raw.Complete}
	if raw.Target != nil && (raw.Target.Context != "" || raw.Target.Step != "") {
		verdict.Target = &domain.Target{
			Context: raw.Target.Context,
			Step:    raw.Target.Step,
		}
	}
	return verdict, nil
}
