/*
Package parley is a conversation state machine for voice-driven agents. It
models a session as a graph of contexts (subject scopes with their own persona,
language and prompt sections) and steps (stages of a lesson with a completion
criterion), and tracks where each session stands while the surrounding stack
handles speech and language-model calls.

The engine owns the transition protocol: a turn either stays on the current
step, advances to another step, switches context (recomposing the prompt scope
and possibly the voice), or arrives at a leaf waiting for the session to end.
Illegal and ambiguous moves are rejected with typed errors and the session
state is left untouched.

# Usage

Initialize the engine from an agent definition. The definition can be loaded
from a directory of markdown files, built in Go with the dsl package, or taken
from the built-in tutor demo.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/parleylabs/parley"
		"github.com/parleylabs/parley/pkg/domain"
		"github.com/parleylabs/parley/pkg/tutor"
	)

	func main() {
		eng, err := parley.New("", parley.WithDefinition(tutor.Definition()))
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		state, err := eng.Start(ctx, "session-123")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("starting at", state.CurrentContext, state.CurrentStep)

		// The caller decides when a step is complete, either directly or via
		// an oracle (see AdvanceText).
		state, result, err := eng.Advance(ctx, "session-123", domain.Verdict{
			Complete: true,
			Target:   &domain.Target{Context: "math"},
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(result.Outcome, "->", state.CurrentContext)

		if _, report, err := eng.End(ctx, "session-123"); err == nil {
			fmt.Println("covered:", report.TopicsCovered)
		}
	}

Persistence, locking, completion judgment and summary delivery are ports;
adapters for Redis, the local filesystem, Gemini and HTTP webhooks live under
pkg/adapters.
*/
package parley
