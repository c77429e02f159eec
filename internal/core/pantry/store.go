// Package pantry 保存每個 session 掃描到的商品，只允許追加
package pantry

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"pantry-matcher/internal/pkg/common"
)

// Store session 商品儲存介面
type Store interface {
	// Append 追加一筆商品，同一 session 的追加依序完成
	Append(ctx context.Context, sessionID string, product common.ProductRecord) error
	// Snapshot 回傳目前為止所有已完成追加的商品（依追加順序）
	Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error)
	Close() error
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return common.ErrMissingSession
	}
	return nil
}

// encodeSession 讓任意 session id 可安全放入 key
func encodeSession(sessionID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sessionID))
}

// sessionLocks 以 session 為單位的追加鎖
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MemoryStore 記憶體實作，重啟後資料消失
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	mu      sync.Mutex
	records []common.ProductRecord
}

// NewMemoryStore 創建記憶體商品儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionLog)}
}

func (s *MemoryStore) session(sessionID string, create bool) *sessionLog {
	s.mu.RLock()
	log, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok || !create {
		return log
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if log, ok = s.sessions[sessionID]; !ok {
		log = &sessionLog{}
		s.sessions[sessionID] = log
	}
	return log
}

// Append 實作 Store
func (s *MemoryStore) Append(ctx context.Context, sessionID string, product common.ProductRecord) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	log := s.session(sessionID, true)
	log.mu.Lock()
	log.records = append(log.records, product)
	log.mu.Unlock()
	return nil
}

// Snapshot 實作 Store
func (s *MemoryStore) Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	log := s.session(sessionID, false)
	if log == nil {
		return []common.ProductRecord{}, nil
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	out := make([]common.ProductRecord, len(log.records))
	copy(out, log.records)
	return out, nil
}

// Close 實作 Store
func (s *MemoryStore) Close() error {
	return nil
}
