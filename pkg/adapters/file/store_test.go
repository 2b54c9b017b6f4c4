package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/adapters/file"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "sessions")
	store := file.New(dir)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "a missing directory lists nothing")

	require.NoError(t, store.Save(ctx, domain.NewSession("kiosk-1", "Root")))
	require.NoError(t, store.Save(ctx, domain.NewSession("kiosk-1", "MainMenu")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, "kiosk-1.json", entries[0].Name())

	loaded, err := store.Load(ctx, "kiosk-1")
	require.NoError(t, err)
	assert.Equal(t, "MainMenu", loaded.CurrentNode)

	require.NoError(t, store.Delete(ctx, "kiosk-1"))
	require.NoError(t, store.Delete(ctx, "kiosk-1"))
	_, err = store.Load(ctx, "kiosk-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", `a\b`, ".hidden"} {
		assert.Error(t, store.Save(ctx, domain.NewSession(id, "Root")), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.NotErrorIs(t, err, domain.ErrSessionNotFound, id)
	}
}

func TestFileStore_Default(t *testing.T) {
	assert.Equal(t, file.DefaultDir, file.New("").BasePath)
}
