package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "Root")
		s.BuildingID = "VN"
		s.Accumulator = domain.AccumulatorAvg
		s.Generation = 3
		s.Messages = append(s.Messages,
			domain.Message{Text: "hello", Sender: domain.SenderBot},
			domain.Message{Text: "1", Sender: domain.SenderUser, Checkpoint: &domain.Checkpoint{Node: "Root", Mode: domain.ModeSelecting}},
		)

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Root", loaded.CurrentNode)
		assert.Equal(t, "VN", loaded.BuildingID)
		assert.Equal(t, domain.AccumulatorAvg, loaded.Accumulator)
		assert.Equal(t, uint64(3), loaded.Generation)
		require.Len(t, loaded.Messages, 2)
		require.NotNil(t, loaded.Messages[1].Checkpoint)
		assert.Equal(t, "Root", loaded.Messages[1].Checkpoint.Node)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.CurrentNode = "Mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Root", again.CurrentNode)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, "Root")))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, "Root"))
		_ = store.Save(ctx, domain.NewSession(id2, "Root"))
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
