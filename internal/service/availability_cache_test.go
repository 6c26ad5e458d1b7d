package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAvailabilityCache(client, silentLogger(), time.Minute), mr
}

func TestAvailabilityCache_StoreThenLoad(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	provider := uuid.New()
	date := time.Now().AddDate(0, 0, 2)

	miss, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)
	assert.False(t, miss.Hit)
	assert.Equal(t, "0", miss.Version)

	stored, err := cache.Store(ctx, provider, date, miss.Version, []string{"09:00", "10:15"})
	require.NoError(t, err)
	assert.True(t, stored)

	hit, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)
	assert.True(t, hit.Hit)
	assert.Equal(t, []string{"09:00", "10:15"}, hit.Keys)
}

func TestAvailabilityCache_EmptySnapshotIsAHit(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	provider := uuid.New()
	date := time.Now().AddDate(0, 0, 1)

	_, err := cache.Store(ctx, provider, date, "0", nil)
	require.NoError(t, err)

	got, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)
	assert.True(t, got.Hit)
	assert.Empty(t, got.Keys)
}

func TestAvailabilityCache_InvalidateRejectsStaleStore(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	provider := uuid.New()
	date := time.Now().AddDate(0, 0, 3)

	before, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)

	// A booking lands between the reader's Load and Store.
	require.NoError(t, cache.Invalidate(ctx, provider, date))

	stored, err := cache.Store(ctx, provider, date, before.Version, []string{})
	require.NoError(t, err)
	assert.False(t, stored)

	after, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)
	assert.False(t, after.Hit)
	assert.Equal(t, "1", after.Version)
}

func TestAvailabilityCache_SnapshotExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	provider := uuid.New()
	date := time.Now().AddDate(0, 0, 1)

	_, err := cache.Store(ctx, provider, date, "0", []string{"09:00"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := cache.Load(ctx, provider, date)
	require.NoError(t, err)
	assert.False(t, got.Hit)
}

func TestAvailabilityCache_NilIsNoop(t *testing.T) {
	var cache *AvailabilityCache
	ctx := context.Background()

	got, err := cache.Load(ctx, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.False(t, got.Hit)

	stored, err := cache.Store(ctx, uuid.New(), time.Now(), "0", []string{"09:00"})
	require.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, cache.Invalidate(ctx, uuid.New(), time.Now()))
	assert.Nil(t, NewAvailabilityCache(nil, silentLogger(), time.Minute))
}

func TestAvailabilityCache_LoadFailsWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.Load(context.Background(), uuid.New(), time.Now())
	assert.Error(t, err)
}
