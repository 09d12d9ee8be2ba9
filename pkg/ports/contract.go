package ports

import (
	"context"
	"testing"
	"time"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, "triage", "greeting", time.Now().UTC())
		state.ActiveLanguage = "David-English"
		state.Scope.Sections = []domain.Section{{Title: "Role", Body: "tutor"}}

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentContext, loaded.CurrentContext)
		assert.Equal(t, state.CurrentStep, loaded.CurrentStep)
		assert.Equal(t, state.ActiveLanguage, loaded.ActiveLanguage)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, "triage", loaded.History[0].Context)
		require.Len(t, loaded.Scope.Sections, 1)
		assert.Equal(t, "Role", loaded.Scope.Sections[0].Title)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		state := domain.NewState(sessionID, "triage", "greeting", time.Now().UTC())
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)

		// Mutating the loaded copy must not leak back into the store.
		loaded.CurrentContext = "math"
		loaded.History = append(loaded.History, domain.Visit{Context: "math", Step: "assessment"})

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "triage", again.CurrentContext)
		assert.Len(t, again.History, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID, "triage", "greeting", time.Now().UTC()))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, "triage", "greeting", time.Now().UTC()))
		_ = store.Save(ctx, id2, domain.NewState(id2, "triage", "greeting", time.Now().UTC()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
