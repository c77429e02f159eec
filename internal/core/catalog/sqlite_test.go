package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-matcher/internal/pkg/common"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSeedAndList(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	empty, err := r.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := r.Seed(ctx, []common.Recipe{
		{ID: 5, Title: "Later", Ingredients: "milk"},
		{ID: 2, Title: "Earlier", Ingredients: "eggs, flour", Instructions: "Mix."},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.Seed(ctx, []common.Recipe{{Title: "Auto", Ingredients: "rice"}})
	require.NoError(t, err)

	got, err := r.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Earlier", got[0].Title)
	assert.Equal(t, "Mix.", got[0].Instructions)
	assert.Equal(t, "Later", got[1].Title)
	assert.Equal(t, "Auto", got[2].Title)
	assert.Greater(t, got[2].ID, int64(5))
}

func TestListRecipesUnavailable(t *testing.T) {
	r := openTestRepo(t)
	require.NoError(t, r.Close())

	_, err := r.ListRecipes(context.Background())

	assert.ErrorIs(t, err, common.ErrCatalogUnavailable)
}
