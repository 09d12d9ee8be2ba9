package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/internal/presentation/tui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive tutoring session in the terminal",
	Long: `Starts a console session against the configured agent.

Plain lines are judged by the completion oracle when one is configured;
slash commands steer the session directly (/done, /filler, /state, /scope).`,
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")
		plain, _ := cmd.Flags().GetBool("plain")

		engine, _, err := newEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		runner := parley.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.SessionID = sessionID
		if !plain {
			tui.PrintBanner()
			runner.Renderer = tui.NewRenderer()
		}

		if err := runner.Run(cmd.Context(), engine); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "", "Resume or name the session (default: generated)")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
