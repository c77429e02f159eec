// Package audit 保存每次食譜推薦的結果，每筆只寫入一次
package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pantry-matcher/internal/pkg/common"
)

// Log 比對紀錄介面
type Log interface {
	Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error)
	Read(id string) (*Entry, error)
	Close() error
}

// Entry 一筆比對紀錄
type Entry struct {
	ID         string               `json:"id"`
	SessionID  string               `json:"session_id"`
	RecordedAt time.Time            `json:"recorded_at"`
	Matches    []common.MatchResult `json:"matches"`
}

// idGenerator 產生 session + 時間 + 序號的識別碼
type idGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

func newIDGenerator() *idGenerator {
	return &idGenerator{now: time.Now}
}

func (g *idGenerator) next(sessionID string) (string, time.Time) {
	ts := g.now().UTC()
	n := g.seq.Add(1)
	return fmt.Sprintf("%s_%s_%06d", common.SanitizeSessionID(sessionID), ts.Format("20060102T150405.000000000Z"), n), ts
}

func newEntry(g *idGenerator, sessionID string, matches []common.MatchResult) Entry {
	if matches == nil {
		matches = []common.MatchResult{}
	}
	id, ts := g.next(sessionID)
	return Entry{
		ID:         id,
		SessionID:  sessionID,
		RecordedAt: ts,
		Matches:    matches,
	}
}
