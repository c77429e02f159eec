package pantry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-matcher/internal/infrastructure/storage"
	"pantry-matcher/internal/pkg/common"
)

func product(name, barcode string) common.ProductRecord {
	return common.ProductRecord{
		Name:       name,
		Barcode:    barcode,
		CapturedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// storeFactories 每種實作各建立一個全新的 Store
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	factories := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"badger": func(t *testing.T) Store {
			db, err := storage.OpenBadger(t.TempDir())
			require.NoError(t, err)
			return NewOwnedBadgerStore(db)
		},
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		factories["redis"] = func(t *testing.T) Store {
			s, err := NewRedisStore(context.Background(), RedisOptions{
				Addr:      addr,
				KeyPrefix: fmt.Sprintf("pantry_test_%d", time.Now().UnixNano()),
			})
			require.NoError(t, err)
			return s
		}
	}
	return factories
}

func TestStoreAppendSnapshot(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			empty, err := s.Snapshot(ctx, "fresh-session")
			require.NoError(t, err)
			assert.Empty(t, empty)

			require.NoError(t, s.Append(ctx, "s1", product("Eggs", "111")))
			require.NoError(t, s.Append(ctx, "s1", product("Flour", "222")))
			require.NoError(t, s.Append(ctx, "s1", product("Eggs", "111")))
			require.NoError(t, s.Append(ctx, "s2", product("Milk", "333")))

			got, err := s.Snapshot(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []string{"Eggs", "Flour", "Eggs"}, names(got))
			assert.True(t, got[0].CapturedAt.Equal(product("", "").CapturedAt))

			other, err := s.Snapshot(ctx, "s2")
			require.NoError(t, err)
			assert.Equal(t, []string{"Milk"}, names(other))
		})
	}
}

func TestStoreRejectsEmptySession(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			err := s.Append(context.Background(), " ", product("Eggs", "1"))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			_, err = s.Snapshot(context.Background(), "")
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestStoreConcurrentAppends(t *testing.T) {
	const writers, perWriter = 8, 25

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			var wg sync.WaitGroup
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWriter; i++ {
						assert.NoError(t, s.Append(ctx, "shared", product(fmt.Sprintf("w%d", w), fmt.Sprintf("%03d", i))))
					}
				}(w)
			}
			wg.Wait()

			got, err := s.Snapshot(ctx, "shared")
			require.NoError(t, err)
			require.Len(t, got, writers*perWriter)

			// 每個 writer 自己的追加順序不變
			last := make(map[string]string)
			for _, p := range got {
				if prev, ok := last[p.Name]; ok {
					assert.Less(t, prev, p.Barcode)
				}
				last[p.Name] = p.Barcode
			}
		})
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := storage.OpenBadger(dir)
	require.NoError(t, err)
	s := NewOwnedBadgerStore(db)
	require.NoError(t, s.Append(ctx, "s1", product("Eggs", "1")))
	require.NoError(t, s.Close())

	db, err = storage.OpenBadger(dir)
	require.NoError(t, err)
	s = NewOwnedBadgerStore(db)
	defer s.Close()
	require.NoError(t, s.Append(ctx, "s1", product("Flour", "2")))

	got, err := s.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs", "Flour"}, names(got))
}

func names(products []common.ProductRecord) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}
