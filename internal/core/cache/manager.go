package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

// Cache 快取介面
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V) error
}

// Options 記憶體快取設定
type Options struct {
	MaxSize         int
	TTL             time.Duration
	CleanupInterval time.Duration
}

// Manager 記憶體快取，過期清理加上最少使用淘汰
type Manager[V any] struct {
	name  string
	opts  Options
	mu    sync.Mutex
	store map[string]cacheEntry[V]
	stats cacheStats
	done  chan struct{}
	once  sync.Once
}

// cacheEntry 緩存條目
type cacheEntry[V any] struct {
	value       V
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// Stats 快取統計快照
type Stats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewManager 創建新的緩存管理器，CleanupInterval > 0 時啟動背景清理
func NewManager[V any](name string, opts Options) *Manager[V] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}

	m := &Manager[V]{
		name:  name,
		opts:  opts,
		store: make(map[string]cacheEntry[V]),
		done:  make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("名稱", name),
		zap.Int("最大容量", opts.MaxSize),
		zap.Duration("存活時間", opts.TTL),
	)
	return m
}

// Get 獲取緩存值
func (m *Manager[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.store[key]
	if !ok {
		m.stats.misses++
		common.LogCacheMiss(m.name, key)
		return zero, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		common.LogCacheMiss(m.name, key)
		return zero, false
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++
	common.LogCacheHit(m.name, key)
	return entry.value, true
}

// Set 設置緩存值，容量已滿時先清過期再淘汰最少使用的項目
func (m *Manager[V]) Set(ctx context.Context, key string, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.opts.MaxSize {
		if m.cleanup() == 0 {
			m.evictLRU()
		}
	}

	now := time.Now()
	m.store[key] = cacheEntry[V]{
		value:      value,
		expiresAt:  now.Add(m.opts.TTL),
		lastAccess: now,
	}
	return nil
}

// startCleanup 啟動清理過期緩存的協程
func (m *Manager[V]) startCleanup() {
	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫前需持有鎖
func (m *Manager[V]) cleanup() int {
	now := time.Now()
	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	if count > 0 {
		common.LogDebug("Cleaned up expired cache entries",
			zap.String("cache", m.name),
			zap.Int("count", count),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰最少使用的項目，呼叫前需持有鎖
func (m *Manager[V]) evictLRU() {
	var (
		oldestKey         string
		oldestAccess      time.Time
		lowestAccessCount int
	)
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}
	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("cache", m.name), zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取緩存統計信息
func (m *Manager[V]) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Size:      len(m.store),
		MaxSize:   m.opts.MaxSize,
		Hits:      m.stats.hits,
		Misses:    m.stats.misses,
		Evictions: m.stats.evictions,
	}
}

// Close 停止背景清理並清空快取
func (m *Manager[V]) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]cacheEntry[V])
	common.LogInfo("快取管理員已關閉",
		zap.String("名稱", m.name),
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
