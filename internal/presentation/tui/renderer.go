package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/parleylabs/parley/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour,
// auto-detecting light/dark terminal backgrounds.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		// Degrade to passthrough when the terminal can't be probed.
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SectionsMarkdown flattens prompt sections into a markdown document for the
// describe views.
func SectionsMarkdown(sections []domain.Section) string {
	var b strings.Builder
	for _, s := range sections {
		if s.Title != "" {
			b.WriteString("## ")
			b.WriteString(s.Title)
			b.WriteString("\n\n")
		}
		if s.Body != "" {
			b.WriteString(s.Body)
			b.WriteString("\n\n")
		}
		for _, bullet := range s.Bullets {
			b.WriteString("- ")
			b.WriteString(bullet)
			b.WriteString("\n")
		}
		if len(s.Bullets) > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
