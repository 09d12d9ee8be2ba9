package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a context/step state machine for voice tutoring agents",
	Long: `Parley drives structured voice conversations: contexts scope the agent's
persona per subject, steps phase each lesson, and a transition protocol keeps
the session on the declared rails. Without --agent or --config it serves the
built-in David demo tutor.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("agent", "", "Directory containing the agent's markdown definition")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML/JSON configuration file")
}
