package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleylabs/parley/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the agent definition for consistency",
	Long:  `Builds the context graph and reports every structural problem at once: unknown transition targets, contexts without steps, undeclared languages.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				fmt.Println("Definition is invalid:")
				for _, issue := range verr.Issues {
					fmt.Println("  - " + issue)
				}
			} else {
				fmt.Printf("Validation failed: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("Agent definition is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	// Engine construction runs the full graph build, which is the validation.
	engine, _, err := newEngine(cmd)
	if err != nil {
		return err
	}

	g := engine.Graph()
	ctxName, stepName := g.EntryPoint()
	fmt.Printf("Entry point: %s/%s\n", ctxName, stepName)
	fmt.Printf("Contexts: %d, Languages: %d\n", len(g.Contexts()), len(g.Languages()))
	return nil
}
