package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-matcher/internal/pkg/common"
)

type fakePantry struct {
	products []common.ProductRecord
	err      error
}

func (f *fakePantry) Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error) {
	return f.products, f.err
}

type fakeCatalog struct {
	recipes []common.Recipe
	err     error
}

func (f *fakeCatalog) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	return f.recipes, f.err
}

type fakeAudit struct {
	calls   int
	session string
	matches []common.MatchResult
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error) {
	f.calls++
	f.session = sessionID
	f.matches = matches
	if f.err != nil {
		return "", f.err
	}
	return sessionID + "_log", nil
}

func TestServiceGenerate(t *testing.T) {
	pantry := &fakePantry{products: []common.ProductRecord{{Name: "Eggs", Category: "Dairy"}}}
	catalog := &fakeCatalog{recipes: []common.Recipe{
		{ID: 1, Title: "Pasta Dough", Ingredients: "fresh eggs, flour"},
		{ID: 2, Title: "Toast", Ingredients: "bread"},
	}}
	audit := &fakeAudit{}

	svc := NewService(pantry, catalog, audit, nil, 2)
	res, err := svc.Generate(context.Background(), "s1", 0)

	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "Pasta Dough", res.Matches[0].Title)
	assert.Equal(t, "s1_log", res.LogFile)
	assert.Equal(t, 1, audit.calls)
	assert.Equal(t, "s1", audit.session)
	assert.Equal(t, res.Matches, audit.matches)
}

func TestServiceGenerateNoCandidatesStillAudited(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewService(&fakePantry{}, &fakeCatalog{recipes: []common.Recipe{{ID: 1, Ingredients: "eggs"}}}, audit, nil, 2)

	res, err := svc.Generate(context.Background(), "s1", 2)

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, audit.calls)
}

func TestServiceGenerateErrors(t *testing.T) {
	t.Run("missing session", func(t *testing.T) {
		svc := NewService(&fakePantry{}, &fakeCatalog{}, &fakeAudit{}, nil, 2)
		_, err := svc.Generate(context.Background(), "  ", 2)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		audit := &fakeAudit{}
		svc := NewService(&fakePantry{}, &fakeCatalog{err: errors.New("connection refused")}, audit, nil, 2)

		_, err := svc.Generate(context.Background(), "s1", 2)

		assert.ErrorIs(t, err, common.ErrCatalogUnavailable)
		assert.Equal(t, 0, audit.calls)
	})

	t.Run("cancelled call does not write audit log", func(t *testing.T) {
		audit := &fakeAudit{}
		svc := NewService(
			&fakePantry{products: []common.ProductRecord{{Name: "Eggs"}}},
			&fakeCatalog{recipes: []common.Recipe{{ID: 1, Ingredients: "eggs"}}},
			audit, nil, 2,
		)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Generate(ctx, "s1", 2)

		assert.ErrorIs(t, err, common.ErrRequestCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, audit.calls)
	})

	t.Run("audit failure is not fatal", func(t *testing.T) {
		audit := &fakeAudit{err: errors.New("disk full")}
		svc := NewService(
			&fakePantry{products: []common.ProductRecord{{Name: "Eggs"}}},
			&fakeCatalog{recipes: []common.Recipe{{ID: 1, Ingredients: "eggs"}}},
			audit, nil, 2,
		)

		res, err := svc.Generate(context.Background(), "s1", 2)

		require.NoError(t, err)
		assert.Len(t, res.Matches, 1)
		assert.Empty(t, res.LogFile)
	})
}
