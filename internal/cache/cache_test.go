package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/placement-engine/internal/types"
)

func sample() *types.Assessment {
	return &types.Assessment{MatchScore: 81, MatchedSkills: []string{"go"}, MissingSkills: []string{"k8s"}}
}

func TestMemoryExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	m.Set(ctx, "k", sample())

	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 81, got.MatchScore)

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemorySweepsExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		m.Set(ctx, fmt.Sprintf("k%d", i), sample())
	}
	require.Equal(t, 1000, m.Len())

	now = now.Add(time.Hour)
	m.Set(ctx, "fresh", sample())

	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestMemoryEnforcesEntryLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryWithLimit(time.Hour, 3)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.Set(ctx, fmt.Sprintf("k%d", i), sample())
		now = now.Add(time.Second)
	}

	assert.Equal(t, 3, m.Len())
	_, ok := m.Get(ctx, "k0")
	assert.False(t, ok, "the entry closest to expiry is evicted first")
	_, ok = m.Get(ctx, "k4")
	assert.True(t, ok)

	m.Set(ctx, "k4", sample())
	assert.Equal(t, 3, m.Len(), "overwriting a key does not evict")
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	m.Set(ctx, "k", sample())

	got, _ := m.Get(ctx, "k")
	got.MatchedSkills[0] = "mutated"

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "go", again.MatchedSkills[0])
}

func TestRedisRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	c := NewRedis(client, time.Minute, nil)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", sample())
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample(), got)
	assert.True(t, mr.Exists(keyPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "not json"))

	client, err := NewRedisClient(context.Background(), RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, ok := NewRedis(client, 0, nil).Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisUnavailableIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	c := NewRedis(client, 0, nil)
	mr.Close()

	c.Set(context.Background(), "k", sample())
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
