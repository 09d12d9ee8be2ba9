package graph

import (
	"fmt"
	"strings"

	"github.com/parleylabs/parley/pkg/domain"
)

// Overlay contains dynamic session data to visualize on the graph.
type Overlay struct {
	Visited []domain.Visit
	Current domain.Visit
}

// GenerateMermaid produces a Mermaid flowchart from the context graph.
// Each context becomes a subgraph holding its steps; intra-context step edges
// are solid, cross-context switches are dotted. Styling:
// - Entry step of the entry context: ((Circle))
// - Scripted step: [/Parallelogram/]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(contexts []domain.Context, entry string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, c := range contexts {
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", sanitizeMermaidID(c.Name), subgraphLabel(&c)))
		for _, s := range c.Steps {
			safeID := stepID(c.Name, s.Name)

			opener, closer := "[", "]"
			switch {
			case c.Name == entry && s.Name == c.Steps[0].Name:
				opener, closer = "((", "))"
			case s.Scripted():
				opener, closer = "[/", "/]"
			}

			sb.WriteString(fmt.Sprintf("        %s%s\"%s\"%s\n", safeID, opener, s.Name, closer))
		}
		sb.WriteString("    end\n")
	}

	// Edges after all subgraphs so Mermaid doesn't invent implicit nodes.
	byName := make(map[string]*domain.Context, len(contexts))
	for i := range contexts {
		byName[contexts[i].Name] = &contexts[i]
	}

	for _, c := range contexts {
		for _, s := range c.Steps {
			from := stepID(c.Name, s.Name)
			for _, next := range s.ValidSteps {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, stepID(c.Name, next)))
			}
			for _, targetName := range s.ValidContexts {
				if targetName == c.Name {
					// Self-loop re-entry: point at the context's own entry step.
					sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, stepID(c.Name, c.Steps[0].Name)))
					continue
				}
				target, ok := byName[targetName]
				if !ok || len(target.Steps) == 0 {
					continue
				}
				sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, stepID(targetName, target.Steps[0].Name)))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, v := range overlay.Visited {
			safeID := stepID(v.Context, v.Step)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current.Context != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", stepID(overlay.Current.Context, overlay.Current.Step)))
		}
	}

	return sb.String()
}

// subgraphLabel annotates the context name with its scope flags.
func subgraphLabel(c *domain.Context) string {
	switch {
	case c.FullReset:
		return c.Name + " ⟲ full reset"
	case c.Isolated:
		return c.Name + " (isolated)"
	default:
		return c.Name
	}
}

func stepID(contextName, stepName string) string {
	return sanitizeMermaidID(contextName) + "__" + sanitizeMermaidID(stepName)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
