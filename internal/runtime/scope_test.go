package runtime

import (
	"testing"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeScope(t *testing.T) {
	base := []domain.Section{
		{Title: "Role", Body: "tutor"},
		{Title: "Core Identity", Body: "warm"},
	}

	t.Run("isolated drops previous context, keeps base", func(t *testing.T) {
		prev := domain.Scope{Sections: append(cloneSections(base), domain.Section{Title: "Old Task"})}
		c := &domain.Context{
			Name:     "math",
			Isolated: true,
			Sections: []domain.Section{{Title: "Teaching Philosophy"}},
		}

		scope := composeScope(base, prev, c)
		require.Len(t, scope.Sections, 3)
		assert.Equal(t, "Role", scope.Sections[0].Title)
		assert.Equal(t, "Teaching Philosophy", scope.Sections[2].Title)
		assert.False(t, scope.BaseDropped)
	})

	t.Run("full reset drops everything including base", func(t *testing.T) {
		prev := domain.Scope{Sections: cloneSections(base)}
		c := &domain.Context{
			Name:      "japanese",
			FullReset: true,
			Isolated:  true,
			Sections:  []domain.Section{{Title: "Role", Body: "Tanaka-sensei"}},
		}

		scope := composeScope(base, prev, c)
		require.Len(t, scope.Sections, 1)
		assert.Equal(t, "Tanaka-sensei", scope.Sections[0].Body)
		assert.True(t, scope.BaseDropped)
	})

	t.Run("non-isolated appends to current scope", func(t *testing.T) {
		prev := domain.Scope{Sections: append(cloneSections(base), domain.Section{Title: "Spanish Persona"})}
		c := &domain.Context{
			Name:     "cultural_notes",
			Sections: []domain.Section{{Title: "Culture"}},
		}

		scope := composeScope(base, prev, c)
		require.Len(t, scope.Sections, 4)
		assert.Equal(t, "Spanish Persona", scope.Sections[2].Title)
		assert.Equal(t, "Culture", scope.Sections[3].Title)
	})

	t.Run("append after full reset stays base-dropped", func(t *testing.T) {
		prev := domain.Scope{
			Sections:    []domain.Section{{Title: "Role", Body: "Tanaka-sensei"}},
			BaseDropped: true,
		}
		c := &domain.Context{
			Name:     "aside",
			Sections: []domain.Section{{Title: "Aside"}},
		}

		scope := composeScope(base, prev, c)
		require.Len(t, scope.Sections, 2)
		assert.True(t, scope.BaseDropped)
	})

	t.Run("isolated after full reset restores base", func(t *testing.T) {
		prev := domain.Scope{
			Sections:    []domain.Section{{Title: "Role", Body: "Tanaka-sensei"}},
			BaseDropped: true,
		}
		c := &domain.Context{
			Name:     "math",
			Isolated: true,
			Sections: []domain.Section{{Title: "Teaching Philosophy"}},
		}

		scope := composeScope(base, prev, c)
		require.Len(t, scope.Sections, 3)
		assert.Equal(t, "Role", scope.Sections[0].Title)
		assert.False(t, scope.BaseDropped)
	})

	t.Run("does not alias the base slice", func(t *testing.T) {
		prev := domain.Scope{Sections: cloneSections(base)}
		c := &domain.Context{
			Name:     "math",
			Isolated: true,
			Sections: []domain.Section{{Title: "Teaching Philosophy"}},
		}

		scope := composeScope(base, prev, c)
		scope.Sections[0].Title = "mutated"
		assert.Equal(t, "Role", base[0].Title)
	})
}
