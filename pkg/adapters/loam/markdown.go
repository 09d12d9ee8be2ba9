package loam

import (
	"strings"

	"github.com/parleylabs/parley/pkg/domain"
)

// parseSections splits a markdown body into prompt sections. Every "## Title"
// heading opens a section; plain lines accumulate into its Body and "- " lines
// into its Bullets. Text before the first heading becomes an untitled section.
func parseSections(content string) []domain.Section {
	var sections []domain.Section
	var cur *domain.Section
	var body []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if cur.Title != "" || cur.Body != "" || len(cur.Bullets) > 0 {
			sections = append(sections, *cur)
		}
		cur = nil
		body = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if title, ok := strings.CutPrefix(trimmed, "## "); ok {
			flush()
			cur = &domain.Section{Title: strings.TrimSpace(title)}
			continue
		}

		if cur == nil {
			if trimmed == "" {
				continue
			}
			cur = &domain.Section{}
		}

		if bullet, ok := strings.CutPrefix(trimmed, "- "); ok {
			cur.Bullets = append(cur.Bullets, strings.TrimSpace(bullet))
			continue
		}
		body = append(body, trimmed)
	}
	flush()

	return sections
}

func convertSections(metas []SectionMetadata) []domain.Section {
	if len(metas) == 0 {
		return nil
	}
	out := make([]domain.Section, len(metas))
	for i, m := range metas {
		out[i] = domain.Section{
			Title:   m.Title,
			Body:    m.Body,
			Bullets: m.Bullets,
		}
	}
	return out
}

func convertSteps(metas []StepMetadata) []domain.Step {
	if len(metas) == 0 {
		return nil
	}
	out := make([]domain.Step, len(metas))
	for i, m := range metas {
		out[i] = domain.Step{
			Name:          m.Name,
			Text:          m.Text,
			Criteria:      m.Criteria,
			ValidSteps:    m.ValidSteps,
			ValidContexts: m.ValidContexts,
			Sections:      convertSections(m.Sections),
		}
	}
	return out
}
