package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"pantry-matcher/internal/pkg/common"
)

const auditKeyPrefix = "audit:"

// BadgerLog 以 BadgerDB 保存比對紀錄
type BadgerLog struct {
	db    *badger.DB
	ids   *idGenerator
	owned bool
}

// NewBadgerLog 使用既有的 BadgerDB，owned 為 true 時 Close 會關閉 db
func NewBadgerLog(db *badger.DB, owned bool) *BadgerLog {
	return &BadgerLog{db: db, ids: newIDGenerator(), owned: owned}
}

// Record 實作 Log，回傳紀錄 ID
func (l *BadgerLog) Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entry := newEntry(l.ids, sessionID, matches)
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal audit entry: %w", err)
	}

	key := []byte(auditKeyPrefix + entry.ID)
	err = l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("audit entry %s already exists", entry.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("write audit entry: %w", err)
	}
	return entry.ID, nil
}

// Read 讀取一筆紀錄
func (l *BadgerLog) Read(id string) (*Entry, error) {
	var e Entry
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(auditKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Close 實作 Log
func (l *BadgerLog) Close() error {
	if l.owned {
		return l.db.Close()
	}
	return nil
}
