package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/adapters/memory"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/persistence/middleware"
	"github.com/aretw0/citychat/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, config middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	require.NoError(t, err)
	return mw
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id, "AskQuestionNode")
	s.Generation = 4
	s.LastQuestion = "How warm is Vindhya?"
	s.Messages = append(s.Messages, domain.Message{Text: "How warm is Vindhya?", Sender: domain.SenderUser})
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, sampleSession("s1")))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Messages)
	assert.Empty(t, stored.LastQuestion)
	assert.NotContains(t, stored.Sealed, "Vindhya")
	assert.Equal(t, uint64(4), stored.Generation, "generation stays visible")

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "How warm is Vindhya?", loaded.LastQuestion)
	assert.Equal(t, "AskQuestionNode", loaded.CurrentNode)
	assert.Empty(t, loaded.Sealed)
	require.Len(t, loaded.Messages, 1)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, sampleSession("rot")))

	newStore := encrypted(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := newStore.Load(ctx, "rot")
	require.NoError(t, err, "fallback key opens old envelopes")

	loaded.LastQuestion = "sealed with the new key"
	require.NoError(t, newStore.Save(ctx, loaded))

	_, err = oldStore.Load(ctx, "rot")
	assert.Error(t, err, "the old key alone cannot open new envelopes")
}

func TestEncryptionMiddleware_RefusesPlainSessions(t *testing.T) {
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(context.Background(), sampleSession("plain")))

	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(context.Background(), "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore()))
}
