package grocery

import (
	"context"
	"testing"

	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/core/normalizer"
	"auto-cart/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	engine := ingredient.NewEngine(normalizer.NewRule(), 0)
	return NewService(NewMemoryListStore(), engine)
}

func TestCreateAndGetList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	list, err := svc.CreateList(ctx, "Weekly Groceries")
	require.NoError(t, err)
	assert.NotEmpty(t, list.ID)
	assert.Equal(t, "Weekly Groceries", list.Name)
	assert.Empty(t, list.Items)

	fetched, err := svc.GetList(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, list.ID, fetched.ID)

	_, err = svc.GetList(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrListNotFound)
}

func TestAddText(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a recipe block into items", func(t *testing.T) {
		svc := newTestService()
		list, err := svc.CreateList(ctx, "test")
		require.NoError(t, err)

		updated, err := svc.AddText(ctx, list.ID, "2 cups flour\n1/2 tsp salt\n▢ 1 lb chicken")
		require.NoError(t, err)

		require.Len(t, updated.Items, 3)
		assert.Equal(t, "flour", updated.Items[0].Name)
		assert.Equal(t, "cup", updated.Items[0].Measurement)
		assert.Equal(t, "salt", updated.Items[1].Name)
		assert.Equal(t, "chicken", updated.Items[2].Name)
	})

	t.Run("duplicate ingredients merge on every write", func(t *testing.T) {
		svc := newTestService()
		list, err := svc.CreateList(ctx, "test")
		require.NoError(t, err)

		_, err = svc.AddText(ctx, list.ID, "2 cup onions")
		require.NoError(t, err)
		updated, err := svc.AddText(ctx, list.ID, "1 cup onions")
		require.NoError(t, err)

		require.Len(t, updated.Items, 1)
		assert.InDelta(t, 3, updated.Items[0].Quantity, 1e-6)
		assert.Equal(t, "cup", updated.Items[0].Measurement)
	})

	t.Run("checked state survives a merge rebuild", func(t *testing.T) {
		svc := newTestService()
		list, err := svc.CreateList(ctx, "test")
		require.NoError(t, err)

		_, err = svc.AddText(ctx, list.ID, "2 cup onions\n1 tsp salt")
		require.NoError(t, err)
		_, err = svc.Toggle(ctx, list.ID, "onions")
		require.NoError(t, err)

		updated, err := svc.AddText(ctx, list.ID, "1 cup onions")
		require.NoError(t, err)

		require.Len(t, updated.Items, 2)
		assert.InDelta(t, 3, updated.Items[0].Quantity, 1e-6)
		assert.True(t, updated.Items[0].Checked)
		assert.False(t, updated.Items[1].Checked)
	})

	t.Run("bare item names fall back to unmeasured", func(t *testing.T) {
		svc := newTestService()
		list, err := svc.CreateList(ctx, "test")
		require.NoError(t, err)

		updated, err := svc.AddText(ctx, list.ID, "milk")
		require.NoError(t, err)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, ingredient.Line{Quantity: 1, Measurement: ingredient.UnitlessMeasurement, Name: "milk"}, updated.Items[0].Line)
	})

	t.Run("nothing parsable leaves the list untouched", func(t *testing.T) {
		svc := newTestService()
		list, err := svc.CreateList(ctx, "test")
		require.NoError(t, err)

		_, err = svc.AddText(ctx, list.ID, "   \n\n  ")
		assert.ErrorIs(t, err, common.ErrNothingParsed)

		fetched, err := svc.GetList(ctx, list.ID)
		require.NoError(t, err)
		assert.Empty(t, fetched.Items)
	})

	t.Run("unknown list", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.AddText(ctx, "missing", "1 cup flour")
		assert.ErrorIs(t, err, common.ErrListNotFound)
	})
}

func TestToggleAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	list, err := svc.CreateList(ctx, "test")
	require.NoError(t, err)
	_, err = svc.AddText(ctx, list.ID, "2 cup onions\n1 tsp salt")
	require.NoError(t, err)

	t.Run("toggle flips checked", func(t *testing.T) {
		updated, err := svc.Toggle(ctx, list.ID, "Onions")
		require.NoError(t, err)
		assert.True(t, updated.Items[0].Checked)

		updated, err = svc.Toggle(ctx, list.ID, "onions")
		require.NoError(t, err)
		assert.False(t, updated.Items[0].Checked)
	})

	t.Run("toggle unknown item", func(t *testing.T) {
		_, err := svc.Toggle(ctx, list.ID, "caviar")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("remove deletes by name", func(t *testing.T) {
		updated, err := svc.RemoveItem(ctx, list.ID, "salt")
		require.NoError(t, err)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, "onions", updated.Items[0].Name)
	})
}

func TestClearCheckedAndItems(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	list, err := svc.CreateList(ctx, "test")
	require.NoError(t, err)
	_, err = svc.AddText(ctx, list.ID, "2 cup onions\n1 tsp salt\n1 lb chicken")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, list.ID, "salt")
	require.NoError(t, err)

	t.Run("items skips checked entries", func(t *testing.T) {
		lines, err := svc.Items(ctx, list.ID)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "onions", lines[0].Name)
		assert.Equal(t, "chicken", lines[1].Name)
	})

	t.Run("clear-checked drops them for good", func(t *testing.T) {
		updated, err := svc.ClearChecked(ctx, list.ID)
		require.NoError(t, err)
		assert.Len(t, updated.Items, 2)
	})
}

func TestEnsureList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.EnsureList(ctx, "Shopping List")
	require.NoError(t, err)

	second, err := svc.EnsureList(ctx, "shopping list")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestParseAndMerge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	t.Run("merges without touching stored lists", func(t *testing.T) {
		merged, err := svc.ParseAndMerge(ctx, "2 cup onions\n1 tsp salt", "1 cup onions")
		require.NoError(t, err)

		require.Len(t, merged, 2)
		assert.InDelta(t, 3, merged[0].Quantity, 1e-6)
		assert.Equal(t, "onions", merged[0].Name)
		assert.Equal(t, "salt", merged[1].Name)
	})

	t.Run("empty addition is rejected", func(t *testing.T) {
		_, err := svc.ParseAndMerge(ctx, "1 cup flour", "  ")
		assert.ErrorIs(t, err, common.ErrNothingParsed)
	})
}
