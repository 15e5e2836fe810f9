package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"field-survey-router/internal/database"
	"field-survey-router/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.db")
	store, err := New(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestStore_SetGetOverwrite(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "route:t1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "route:t1", "v1"))
	require.NoError(t, store.Set(ctx, "route:t1", "v2"))

	value, ok, err := store.Get(ctx, "route:t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_DeleteAndClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, store.Set(ctx, "c", "3"))

	require.NoError(t, store.Delete(ctx, "a", "b"))
	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx))

	require.NoError(t, store.Clear(ctx))
	n, _ = store.Count(ctx)
	assert.Equal(t, 0, n)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.db")
	ctx := context.Background()

	store1, err := New(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store1.Set(ctx, "k", "persisted"))
	require.NoError(t, store1.Close())

	store2, err := New(path, zap.NewNop())
	require.NoError(t, err)
	defer store2.Close()

	value, ok, err := store2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
	assert.Equal(t, path, store2.GetDBPath())
	assert.NoError(t, store2.HealthCheck(ctx))
}

func TestStore_BacksRouteCache(t *testing.T) {
	store, _ := newTestStore(t)
	cache := database.NewRouteCache(store, zap.NewNop())
	ctx := context.Background()

	waypoints := []models.Waypoint{
		{ID: "1", Latitude: 21.25, Longitude: 81.63},
		{ID: "2", Latitude: 21.30, Longitude: 81.70},
	}
	route := &models.RouteResult{
		Path:      [][2]float64{{21.25, 81.63}, {21.30, 81.70}},
		Legs:      []models.Leg{{DistanceMeters: 9140}},
		Source:    models.RouteSourceFallback,
		Signature: models.Signature(waypoints),
	}

	require.NoError(t, cache.Put(ctx, "t1", &models.CacheEntry{Waypoints: waypoints, Route: route}))
	assert.True(t, cache.HasCompleteRoute(ctx, "t1"))

	require.NoError(t, store.Set(ctx, database.RouteKey("t1"), "garbage"))
	entry, err := cache.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Nil(t, entry.Route)
	assert.False(t, cache.HasCompleteRoute(ctx, "t1"))
}
