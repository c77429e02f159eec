package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Status 隊列狀態
type Status struct {
	InFlight       int   `json:"in_flight"`
	Waiting        int64 `json:"waiting"`
	ProcessedCount int64 `json:"processed_count"`
	Workers        int   `json:"workers"`
}

// Manager 限制同時進行的 AI 呼叫數量
type Manager struct {
	slots     chan struct{}
	done      chan struct{}
	waiting   atomic.Int64
	processed atomic.Int64
	once      sync.Once
}

// NewManager 創建新的隊列管理器
func NewManager(workers int) *Manager {
	if workers <= 0 {
		workers = 4
	}
	return &Manager{
		slots: make(chan struct{}, workers),
		done:  make(chan struct{}),
	}
}

// Do 取得空位後執行 fn，等待期間 ctx 取消則直接返回
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.waiting.Add(1)
	select {
	case m.slots <- struct{}{}:
		m.waiting.Add(-1)
	case <-ctx.Done():
		m.waiting.Add(-1)
		return ctx.Err()
	case <-m.done:
		m.waiting.Add(-1)
		return fmt.Errorf("queue manager is closed")
	}
	defer func() {
		<-m.slots
		m.processed.Add(1)
	}()
	return fn(ctx)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() Status {
	return Status{
		InFlight:       len(m.slots),
		Waiting:        m.waiting.Load(),
		ProcessedCount: m.processed.Load(),
		Workers:        cap(m.slots),
	}
}

// Close 關閉隊列管理器，之後的呼叫都會失敗
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })
}
