// internal/stores/affinity_test.go
package stores

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAffinityStore(t *testing.T) (*AffinityStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewAffinityStore(client, 30*24*time.Hour), mr
}

func TestAffinityStore_IncrementAccumulates(t *testing.T) {
	store, _ := setupAffinityStore(t)
	ctx := context.Background()

	// checkin (3) + tap (1) + impression (0.2)
	require.NoError(t, store.Increment(ctx, "user-1", "cafe", 3))
	require.NoError(t, store.Increment(ctx, "user-1", "cafe", 1))
	require.NoError(t, store.Increment(ctx, "user-1", "cafe", 0.2))
	require.NoError(t, store.Increment(ctx, "user-1", "library", 2))

	affinities, err := store.All(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.2, affinities["cafe"], 0.001)
	assert.InDelta(t, 2.0, affinities["library"], 0.001)
}

func TestAffinityStore_AllMissingUserIsEmpty(t *testing.T) {
	store, _ := setupAffinityStore(t)

	affinities, err := store.All(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, affinities)
}

func TestAffinityStore_TTLSet(t *testing.T) {
	store, mr := setupAffinityStore(t)

	require.NoError(t, store.Increment(context.Background(), "user-1", "cafe", 1))
	assert.Greater(t, mr.TTL("affinity:user-1"), time.Duration(0))
}
