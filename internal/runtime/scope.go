package runtime

import "github.com/parleylabs/parley/pkg/domain"

// composeScope computes the active prompt scope on entering a context. It is a
// pure function of the global base sections, the previous scope and the entered
// context's flags:
//
//   - full reset: the context's own sections become the entire persona; the
//     global base stays dropped until a non-full-reset context is entered.
//   - isolated: global base plus the context's own sections; the previous
//     context's sections are dropped but the global identity persists.
//   - neither: the context's sections are appended to the current scope.
func composeScope(base []domain.Section, prev domain.Scope, c *domain.Context) domain.Scope {
	switch {
	case c.FullReset:
		return domain.Scope{
			Sections:    cloneSections(c.Sections),
			BaseDropped: true,
		}
	case c.Isolated:
		return domain.Scope{
			Sections: append(cloneSections(base), c.Sections...),
		}
	default:
		return domain.Scope{
			Sections:    append(cloneSections(prev.Sections), c.Sections...),
			BaseDropped: prev.BaseDropped,
		}
	}
}

func cloneSections(sections []domain.Section) []domain.Section {
	out := make([]domain.Section, len(sections))
	copy(out, sections)
	return out
}
