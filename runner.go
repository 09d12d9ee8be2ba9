package parley

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/parleylabs/parley/pkg/domain"
)

// ContentRenderer transforms prompt markdown before it is written, so a TUI
// can colorize without coupling the core package to a renderer.
type ContentRenderer func(string) (string, error)

// Runner drives an interactive console session against an Engine. Plain lines
// are treated as student utterances and judged by the engine's oracle; slash
// commands steer the session directly:
//
//	/done [context] [step]   mark the step complete, optionally with a target
//	/filler [group]          speak an internal filler (default group "thinking")
//	/state                   show the current position
//	/scope                   reprint the active prompt scope
//	exit | quit              end the session and print the report
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	Renderer  ContentRenderer
	SessionID string

	// WindowSize caps how many utterances are replayed to the oracle per turn.
	WindowSize int
}

// NewRunner creates a Runner; the caller sets Input and Output (os.Stdin and
// os.Stdout for a terminal).
func NewRunner() *Runner {
	return &Runner{WindowSize: 6}
}

// Run executes the session loop until the student exits or input ends.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}

	sessionID := r.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := engine.Start(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	w := r.Output
	fmt.Fprintf(w, "Session %s\n", sessionID)
	r.printPosition(state)
	r.printScope(state)

	var window []string
	lines := bufio.NewReader(r.Input)
	for {
		fmt.Fprint(w, "> ")
		text, err := lines.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if strings.HasPrefix(input, "/") {
			state = r.command(ctx, engine, sessionID, state, input)
			continue
		}

		window = append(window, "user: "+input)
		if r.WindowSize > 0 && len(window) > r.WindowSize {
			window = window[len(window)-r.WindowSize:]
		}

		next, result, err := engine.AdvanceText(ctx, sessionID, window)
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			continue
		}
		state = next
		if result.Outcome != domain.OutcomeStay {
			window = window[:0]
		}
		r.printResult(state, result)
	}

	_, report, err := engine.End(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	r.printReport(report)
	return nil
}

func (r *Runner) command(ctx context.Context, engine *Engine, sessionID string, state *domain.State, input string) *domain.State {
	w := r.Output
	fields := strings.Fields(input)
	switch fields[0] {
	case "/done":
		verdict := domain.Verdict{Complete: true}
		if len(fields) > 1 {
			verdict.Target = &domain.Target{Context: fields[1]}
			if len(fields) > 2 {
				verdict.Target.Step = fields[2]
			}
		}
		next, result, err := engine.Advance(ctx, sessionID, verdict)
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			return state
		}
		r.printResult(next, result)
		return next

	case "/filler":
		group := "thinking"
		if len(fields) > 1 {
			group = fields[1]
		}
		filler, err := engine.Filler(ctx, sessionID, group)
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			return state
		}
		fmt.Fprintf(w, "(agent) %s\n", filler)
		return state

	case "/state":
		r.printPosition(state)
		return state

	case "/scope":
		r.printScope(state)
		return state

	default:
		fmt.Fprintf(w, "unknown command %q\n", fields[0])
		return state
	}
}

func (r *Runner) printResult(state *domain.State, result *domain.TransitionResult) {
	w := r.Output
	switch result.Outcome {
	case domain.OutcomeStay:
		fmt.Fprintln(w, "(staying on current step)")
		return
	case domain.OutcomeAwaitingEnd:
		fmt.Fprintln(w, "(lesson complete, type exit to finish)")
	}
	if result.Filler != "" {
		fmt.Fprintf(w, "(agent) %s\n", result.Filler)
	}
	if result.VoiceChange != nil {
		fmt.Fprintf(w, "(voice -> %s %s)\n", result.VoiceChange.Code, result.VoiceChange.Voice)
	}
	if result.ScriptedText != "" {
		fmt.Fprintf(w, "(agent) %s\n", result.ScriptedText)
	}
	r.printPosition(state)
	if result.Outcome == domain.OutcomeContextSwitched {
		r.printScope(state)
	}
}

func (r *Runner) printPosition(state *domain.State) {
	fmt.Fprintf(r.Output, "@ %s / %s\n", state.CurrentContext, state.CurrentStep)
}

func (r *Runner) printScope(state *domain.State) {
	var sb strings.Builder
	for _, section := range state.Scope.Sections {
		sb.WriteString("## " + section.Title + "\n\n")
		if section.Body != "" {
			sb.WriteString(section.Body + "\n\n")
		}
		for _, bullet := range section.Bullets {
			sb.WriteString("- " + bullet + "\n")
		}
		sb.WriteString("\n")
	}
	output := strings.TrimSpace(sb.String())
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, output)
}

func (r *Runner) printReport(report *domain.Report) {
	if report == nil {
		return
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(r.Output, "--- session report ---\n%s\n", raw)
}
