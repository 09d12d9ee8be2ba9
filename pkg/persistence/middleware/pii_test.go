package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *domain.State {
	state := domain.NewState("s1", "triage", "greeting", time.Now().UTC())
	state.Scope.Sections = []domain.Section{
		{
			Title: "Student",
			Body:  "Reach the student at jane@example.com for follow-ups.",
			Bullets: []string{
				"Phone: 555-867-5309",
				"Prefers evening sessions",
			},
		},
	}
	return state
}

func TestPIIMiddleware_MasksPersistedScope(t *testing.T) {
	store := NewMockStore()
	wrapped := middleware.NewPIIMiddleware([]string{
		`[\w.+-]+@[\w-]+\.[\w.]+`,
		`\d{3}-\d{3}-\d{4}`,
	})(store)

	state := sampleState()
	require.NoError(t, wrapped.Save(context.Background(), "s1", state))

	persisted, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)

	section := persisted.Scope.Sections[0]
	assert.Equal(t, "Reach the student at *** for follow-ups.", section.Body)
	assert.Equal(t, "Phone: ***", section.Bullets[0])
	assert.Equal(t, "Prefers evening sessions", section.Bullets[1])
}

func TestPIIMiddleware_WorkingStateUntouched(t *testing.T) {
	store := NewMockStore()
	wrapped := middleware.NewPIIMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`})(store)

	state := sampleState()
	require.NoError(t, wrapped.Save(context.Background(), "s1", state))

	// The engine's in-memory copy keeps the original content.
	assert.Contains(t, state.Scope.Sections[0].Body, "jane@example.com")
}

func TestPIIMiddleware_LoadPassesThrough(t *testing.T) {
	store := NewMockStore()
	wrapped := middleware.NewPIIMiddleware(nil)(store)

	state := sampleState()
	require.NoError(t, store.Save(context.Background(), "s1", state))

	loaded, err := wrapped.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "triage", loaded.CurrentContext)
}
