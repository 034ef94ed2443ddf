package coffees

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeomhps/coffee-api/internal/db"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	log := quietLogger()
	d, err := db.Open("sqlite3", ":memory:", 1, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Migrate(log))
	return NewSQLRepository(d, log)
}

func newBadgerRepository(t *testing.T) Repository {
	t.Helper()
	repo, err := NewBadgerRepository(t.TempDir(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositories(t *testing.T) {
	impls := map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryRepository(quietLogger()) },
		"sqlite": newSQLiteRepository,
		"badger": newBadgerRepository,
	}
	for name, factory := range impls {
		t.Run(name, func(t *testing.T) { runRepositorySuite(t, factory) })
	}
}

// runRepositorySuite exercises behaviour every Repository must share.
func runRepositorySuite(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, Fields{
			Name:     strPtr("Espresso"),
			Brand:    strPtr("Lavazza"),
			Price:    floatPtr(2.5),
			Flavours: &[]string{"chocolate", "caramel"},
			Extra:    map[string]any{"roast": "dark"},
		})
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Espresso", got.Name)
		assert.Equal(t, "Lavazza", got.Brand)
		assert.Equal(t, "", got.Origin)
		assert.Equal(t, 2.5, got.Price)
		assert.Equal(t, StringList{"chocolate", "caramel"}, got.Flavours)
		assert.Equal(t, "dark", got.Attributes["roast"])
		assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("large integers keep precision", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, Fields{
			Name:  strPtr("Batch"),
			Extra: map[string]any{"sku": json.Number("9007199254740993")},
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, json.Number("9007199254740993"), got.Attributes["sku"])
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, 123)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ids are unique and increasing", func(t *testing.T) {
		repo := newRepo(t)

		a, err := repo.Create(ctx, Fields{Name: strPtr("a")})
		require.NoError(t, err)
		b, err := repo.Create(ctx, Fields{Name: strPtr("b")})
		require.NoError(t, err)
		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("list pages in id order", func(t *testing.T) {
		repo := newRepo(t)

		var ids []int64
		for _, n := range []string{"a", "b", "c", "d", "e"} {
			c, err := repo.Create(ctx, Fields{Name: strPtr(n)})
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}

		all, err := repo.List(ctx, Page{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, c := range all {
			assert.Equal(t, ids[i], c.ID)
		}

		page, err := repo.List(ctx, Page{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "b", page[0].Name)
		assert.Equal(t, "c", page[1].Name)

		tail, err := repo.List(ctx, Page{Offset: 3})
		require.NoError(t, err)
		require.Len(t, tail, 2)
		assert.Equal(t, "d", tail[0].Name)

		past, err := repo.List(ctx, Page{Limit: 10, Offset: 50})
		require.NoError(t, err)
		assert.NotNil(t, past)
		assert.Empty(t, past)
	})

	t.Run("update merges fields", func(t *testing.T) {
		repo := newRepo(t)

		c, err := repo.Create(ctx, Fields{
			Name:   strPtr("Latte"),
			Origin: strPtr("Brazil"),
			Extra:  map[string]any{"roast": "medium", "size": "large"},
		})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, c.ID, Fields{
			Name:  strPtr("Flat White"),
			Extra: map[string]any{"roast": "light", "size": nil, "milk": "oat"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Flat White", updated.Name)
		assert.Equal(t, "Brazil", updated.Origin)
		assert.Equal(t, Attributes{"roast": "light", "milk": "oat"}, updated.Attributes)
		assert.False(t, updated.UpdatedAt.Before(c.UpdatedAt))

		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flat White", got.Name)
		assert.Equal(t, Attributes{"roast": "light", "milk": "oat"}, got.Attributes)
	})

	t.Run("update unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(ctx, 42, Fields{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete hides the coffee", func(t *testing.T) {
		repo := newRepo(t)

		keep, err := repo.Create(ctx, Fields{Name: strPtr("keep")})
		require.NoError(t, err)
		gone, err := repo.Create(ctx, Fields{Name: strPtr("gone")})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, gone.ID))

		_, err = repo.Get(ctx, gone.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, gone.ID), ErrNotFound)
		_, err = repo.Update(ctx, gone.ID, Fields{Name: strPtr("back")})
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := repo.List(ctx, Page{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, keep.ID, all[0].ID)
	})

	t.Run("purge removes old tombstones only", func(t *testing.T) {
		repo := newRepo(t)

		live, err := repo.Create(ctx, Fields{Name: strPtr("live")})
		require.NoError(t, err)
		dead, err := repo.Create(ctx, Fields{Name: strPtr("dead")})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, dead.ID))

		n, err := repo.PurgeDeleted(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = repo.PurgeDeleted(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.Get(ctx, live.ID)
		require.NoError(t, err)

		next, err := repo.Create(ctx, Fields{Name: strPtr("next")})
		require.NoError(t, err)
		assert.Greater(t, next.ID, dead.ID)
	})
}
