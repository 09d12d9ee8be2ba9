// Package process implements the completion oracle on a local external
// command, for deployments that run their own judgment model or NLU binary
// instead of a hosted API.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/parleylabs/parley/pkg/domain"
)

// DefaultTimeout bounds a single evaluation; a voice turn cannot wait longer.
const DefaultTimeout = 10 * time.Second

// Oracle runs a judge command per evaluation. The request is written to the
// command's stdin as JSON; the command prints a JSON verdict on stdout:
//
//	{"complete": true|false, "target": {"context": "...", "step": "..."}}
type Oracle struct {
	command string
	args    []string
	dir     string
	timeout time.Duration
}

// OracleOption configures the Oracle.
type OracleOption func(*Oracle)

// WithBaseDir sets the working directory for the judge command.
func WithBaseDir(dir string) OracleOption {
	return func(o *Oracle) {
		o.dir = dir
	}
}

// WithTimeout overrides the per-evaluation deadline.
func WithTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) {
		o.timeout = d
	}
}

// NewOracle creates an Oracle for the given judge command.
func NewOracle(command string, args []string, opts ...OracleOption) *Oracle {
	o := &Oracle{
		command: command,
		args:    args,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewOracleFromJudge creates an Oracle from a loaded judge config.
func NewOracleFromJudge(judge JudgeConfig, opts ...OracleOption) *Oracle {
	return NewOracle(judge.Command, judge.Args, opts...)
}

// evaluationRequest is the JSON document handed to the judge command.
type evaluationRequest struct {
	Criteria      string   `json:"criteria"`
	ValidSteps    []string `json:"valid_steps,omitempty"`
	ValidContexts []string `json:"valid_contexts,omitempty"`
	Window        []string `json:"window"`
}

// Evaluate implements ports.Oracle.
func (o *Oracle) Evaluate(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(evaluationRequest{
		Criteria:      step.Criteria,
		ValidSteps:    step.ValidSteps,
		ValidContexts: step.ValidContexts,
		Window:        window,
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	// The request travels on stdin; judge arguments are fixed at registration,
	// never assembled from conversation content.
	cmd := exec.CommandContext(ctx, o.command, o.args...)
	cmd.Dir = o.dir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.Verdict{}, fmt.Errorf("judge execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	var raw struct {
		Complete bool `json:"complete"`
		Target   *struct {
			Context string `json:"context"`
			Step    string `json:"step"`
		} `json:"target"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &raw); err != nil {
		return domain.Verdict{}, fmt.Errorf("judge returned malformed verdict: %w", err)
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
