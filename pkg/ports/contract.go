package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConfigStoreContract runs a suite of tests to verify that a ConfigStore
// implementation adheres to the defined interface contract.
func RunConfigStoreContract(t *testing.T, store ConfigStore) {
	ctx := context.Background()
	cardID := "contract-test-card-" + time.Now().Format("20060102150405")

	newCard := func(moduleText string) domain.CardConfig {
		card := domain.NewCard()
		card.Layout.Rows = []domain.Row{{
			ID:           "row-1",
			ColumnLayout: domain.SingleColumn,
			Columns: []domain.Column{{
				ID: "col-1",
				Modules: []domain.Module{
					{ID: "text-1", Type: "text", Fields: map[string]any{"text": moduleText}},
				},
			}},
		}}
		return card
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, cardID, newCard("hello"))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, cardID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.CardType, loaded.Type)
		require.Len(t, loaded.Layout.Rows, 1)
		mod := loaded.Layout.Rows[0].Columns[0].Modules[0]
		assert.Equal(t, "text-1", mod.ID)
		assert.Equal(t, "hello", mod.Fields["text"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, cardID, newCard("second")))

		loaded, err := store.Load(ctx, cardID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Layout.Rows[0].Columns[0].Modules[0].Fields["text"])
	})

	t.Run("Load Isolated From Caller", func(t *testing.T) {
		card := newCard("original")
		require.NoError(t, store.Save(ctx, cardID, card))
		card.Layout.Rows[0].Columns[0].Modules[0].Fields["text"] = "mutated"

		loaded, err := store.Load(ctx, cardID)
		require.NoError(t, err)
		assert.Equal(t, "original", loaded.Layout.Rows[0].Columns[0].Modules[0].Fields["text"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+cardID)
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, cardID, newCard("x")))

		err := store.Delete(ctx, cardID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, cardID)
		assert.ErrorIs(t, err, domain.ErrCardNotFound, "Load after Delete should return ErrCardNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := cardID + "-1"
		id2 := cardID + "-2"
		require.NoError(t, store.Save(ctx, id1, newCard("a")))
		require.NoError(t, store.Save(ctx, id2, newCard("b")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		cards, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, cards, id1)
		assert.Contains(t, cards, id2)
	})
}
