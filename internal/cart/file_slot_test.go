package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	slot := NewFileSlot(filepath.Join(dir, "nested"), DefaultSlotName)

	t.Run("EmptyWhenMissing", func(t *testing.T) {
		_, err := slot.Load(ctx)
		assert.ErrorIs(t, err, ErrSlotEmpty)
	})

	t.Run("SaveThenLoad", func(t *testing.T) {
		require.NoError(t, slot.Save(ctx, []byte(`[]`)))

		raw, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(raw))
		assert.Equal(t, filepath.Join(dir, "nested", "cartItems.json"), slot.Path())
	})

	t.Run("DiscardIsIdempotent", func(t *testing.T) {
		require.NoError(t, slot.Discard(ctx))
		require.NoError(t, slot.Discard(ctx))

		_, err := os.Stat(slot.Path())
		assert.True(t, os.IsNotExist(err))
	})
}

func TestFileSlot_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewFileSlot(t.TempDir(), DefaultSlotName)

	s := Open(ctx, slot)
	s.Add(ctx, jersey(2))
	s.Add(ctx, Item{ProductID: "p-2", Name: "Away Kit", Price: 85, Size: "M", Color: "Orange", Quantity: 1})

	reopened := Open(ctx, slot)
	assert.Equal(t, s.Items(), reopened.Items())
}

func TestFileSlot_CorruptFileIsRemoved(t *testing.T) {
	ctx := context.Background()
	slot := NewFileSlot(t.TempDir(), DefaultSlotName)
	require.NoError(t, os.WriteFile(slot.Path(), []byte("{not json"), 0o644))

	s := Open(ctx, slot)

	assert.Equal(t, 0, s.Len())
	_, err := os.Stat(slot.Path())
	assert.True(t, os.IsNotExist(err))
}
