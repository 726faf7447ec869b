package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleNormalize(t *testing.T) {
	ctx := context.Background()
	rule := NewRule()

	t.Run("sums same ingredient and unit", func(t *testing.T) {
		out, err := rule.Normalize(ctx, "2 cup onions\n1 cup onions")
		require.NoError(t, err)
		assert.Equal(t, "3 cup onions", out)
	})

	t.Run("unit spellings collapse before matching", func(t *testing.T) {
		out, err := rule.Normalize(ctx, "2 cups onions\n1 cup onions")
		require.NoError(t, err)
		assert.Equal(t, "3 cup onions", out)
	})

	t.Run("name matching is case-insensitive", func(t *testing.T) {
		out, err := rule.Normalize(ctx, "1 cup Flour\n1 cup flour")
		require.NoError(t, err)
		assert.Equal(t, "2 cup Flour", out)
	})

	t.Run("different units stay separate", func(t *testing.T) {
		out, err := rule.Normalize(ctx, "1 cup milk\n1 lb milk")
		require.NoError(t, err)
		assert.Equal(t, "1 cup milk\n1 lb milk", out)
	})

	t.Run("first-seen order is kept", func(t *testing.T) {
		out, err := rule.Normalize(ctx, "1 tsp salt\n2 cup flour\n1 tsp salt")
		require.NoError(t, err)
		assert.Equal(t, "2 tsp salt\n2 cup flour", out)
	})
}
