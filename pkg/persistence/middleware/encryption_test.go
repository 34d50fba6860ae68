package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/persistence/middleware"
	"github.com/aretw0/ultracard/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretCard(text string) domain.CardConfig {
	card := domain.NewCard()
	card.Layout.Rows = []domain.Row{{
		ID: "r1",
		Columns: []domain.Column{{
			ID:      "c1",
			Modules: []domain.Module{{ID: "t1", Type: "text", Fields: map[string]any{"text": text}}},
		}},
	}}
	return card
}

func encrypted(t *testing.T, next ports.ConfigStore, cfg middleware.EncryptionConfig) ports.ConfigStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunConfigStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "kitchen", secretCard("my-secret-sauce")))

	stored, err := underlying.Load(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, domain.CardType, stored.Type)
	assert.Empty(t, stored.Layout.Rows, "the envelope hides the layout")
	assert.Contains(t, stored.Extra, middleware.EnvelopeKey)

	loaded, err := secure.Load(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Layout.Rows[0].Columns[0].Modules[0].Fields["text"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, secureOld.Save(ctx, "card", secretCard("encrypted-with-old-key")))

	secureNew := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := secureNew.Load(ctx, "card")
	require.NoError(t, err, "fallback key decrypts")
	assert.Equal(t, "encrypted-with-old-key", loaded.Layout.Rows[0].Columns[0].Modules[0].Fields["text"])

	require.NoError(t, secureNew.Save(ctx, "card", secretCard("encrypted-with-new-key")))
	_, err = secureOld.Load(ctx, "card")
	assert.ErrorContains(t, err, "failed to decrypt card")
}

func TestEncryptionMiddleware_FailSecure(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, underlying.Save(ctx, "plain", secretCard("visible")))
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")

	_, err = secure.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("old")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
