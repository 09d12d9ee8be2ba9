package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	graphviz "github.com/parleylabs/parley/internal/presentation/graph"
	"github.com/parleylabs/parley/internal/presentation/tui"
	"github.com/parleylabs/parley/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the context graph visualization",
	Long:  `Inspects the agent definition and outputs a Mermaid diagram (graph TD) of contexts, steps and the declared transitions. With --session, the session's trajectory is overlaid.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := newEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing parley: %v\n", err)
			os.Exit(1)
		}
		g := engine.Graph()

		if describe, _ := cmd.Flags().GetString("describe"); describe != "" {
			c, err := g.Resolve(describe)
			if err != nil {
				fmt.Printf("Unknown context %q\n", describe)
				os.Exit(1)
			}
			render := tui.NewRenderer()
			out, err := render(tui.SectionsMarkdown(c.Sections))
			if err != nil {
				fmt.Printf("Render failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(out)
			return
		}

		var overlay *graphviz.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			state, err := engine.Get(cmd.Context(), sessionID)
			if err != nil {
				fmt.Printf("Error loading session '%s': %v\n", sessionID, err)
				os.Exit(1)
			}
			overlay = &graphviz.Overlay{
				Visited: state.History,
				Current: domain.Visit{Context: state.CurrentContext, Step: state.CurrentStep},
			}
		}

		entry, _ := g.EntryPoint()
		fmt.Print(graphviz.GenerateMermaid(g.Contexts(), entry, overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Overlay a session's trajectory on the diagram")
	graphCmd.Flags().String("describe", "", "Render the named context's prompt sections instead of the diagram")
}
