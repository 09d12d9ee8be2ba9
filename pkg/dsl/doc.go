/*
Package dsl provides a fluent Go builder for programmatically constructing
agent definitions.

It lets developers define the context graph in type-safe Go instead of
markdown or YAML files. This is particularly useful for dynamic agent
generation, unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/parleylabs/parley/pkg/dsl"
	)

	func main() {
		b := dsl.New().
			Section("Role", "You are David, a friendly tutoring agent.").
			Language("David-English", "en-US", "voice-david-en")

		triage := b.Context("triage").Isolated()
		triage.Step("greeting").
			Criteria("The student has named a subject.").
			To("math")

		math := b.Context("math").Isolated().Speaks("David-English")
		math.Step("assessment").
			Criteria("The student's level is clear.").
			Then("practice")
		math.Step("practice")

		// The resulting graph can be handed to parley.WithDefinition(...)
		g, err := b.Build()
		// ...
	}
*/
package dsl
