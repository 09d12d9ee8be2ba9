package middleware

import (
	"context"
	"regexp"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/ports"
)

const maskReplacement = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks pattern matches (emails,
// phone numbers, names) inside the persisted prompt scope. The in-memory
// state the engine works with is untouched; only what hits the store is
// scrubbed.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// Clone first so masking never leaks into the engine's working state.
	cloned := state.Clone()
	for i := range cloned.Scope.Sections {
		m.maskSection(&cloned.Scope.Sections[i])
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskSection(s *domain.Section) {
	s.Body = m.mask(s.Body)
	if len(s.Bullets) == 0 {
		return
	}
	bullets := make([]string, len(s.Bullets))
	for i, b := range s.Bullets {
		bullets[i] = m.mask(b)
	}
	s.Bullets = bullets
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, maskReplacement)
	}
	return text
}
