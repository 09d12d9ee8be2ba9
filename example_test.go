package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/dsl"
)

// Example builds a minimal agent in Go and walks one session through a
// context switch and teardown.
func Example() {
	b := dsl.New()
	b.Entry("triage")
	b.Section("Role", "You are a friendly tutor.")
	b.Language("English", "en-US", "voice-en")
	b.Language("Spanish", "es-MX", "voice-es")

	b.Context("triage").
		Step("greeting").Criteria("The student picked a subject.").
		To("spanish")

	b.Context("spanish").Speaks("Spanish").
		Step("hola").Scripted("¡Hola!").Criteria("The greeting was answered.")

	engine, err := parley.New("", parley.WithDefinition(b.Definition()))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := engine.Start(ctx, "demo")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("at:", state.CurrentContext, "/", state.CurrentStep)

	state, result, err := engine.Advance(ctx, "demo", domain.Verdict{
		Complete: true,
		Target:   &domain.Target{Context: "spanish"},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("outcome:", result.Outcome)
	fmt.Println("voice:", result.VoiceChange.Code)
	fmt.Println("agent says:", result.ScriptedText)
	fmt.Println("at:", state.CurrentContext, "/", state.CurrentStep)

	_, report, err := engine.End(ctx, "demo")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("covered:", report.TopicsCovered)

	// Output:
	// at: triage / greeting
	// outcome: context_switched
	// voice: es-MX
	// agent says: ¡Hola!
	// at: spanish / hola
	// covered: [triage spanish]
}
