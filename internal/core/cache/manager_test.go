package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetSet(t *testing.T) {
	m := NewManager[string]("test", Options{MaxSize: 10, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager[int]("test", Options{MaxSize: 10, TTL: 10 * time.Millisecond})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", 1))
	time.Sleep(30 * time.Millisecond)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.GetStats().Size)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m := NewManager[int]("test", Options{MaxSize: 3, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("k%d", i), i))
	}
	// k0、k2 被讀取過，k1 最少使用
	m.Get(ctx, "k0")
	m.Get(ctx, "k2")

	require.NoError(t, m.Set(ctx, "k3", 3))

	_, ok := m.Get(ctx, "k1")
	assert.False(t, ok)
	for _, k := range []string{"k0", "k2", "k3"} {
		_, ok := m.Get(ctx, k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, 3, m.GetStats().Size)
}

func TestManagerCloseIdempotent(t *testing.T) {
	m := NewManager[string]("test", Options{CleanupInterval: time.Millisecond})
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
