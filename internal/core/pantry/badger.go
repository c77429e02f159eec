package pantry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"pantry-matcher/internal/pkg/common"
)

// Key prefixes
const (
	recordKeyPrefix = "pantry:"
	seqKeyPrefix    = "pantry_seq:"
)

// BadgerStore 以 BadgerDB 持久化的商品儲存
type BadgerStore struct {
	db    *badger.DB
	locks *sessionLocks
	owned bool
}

// NewBadgerStore 使用既有的 BadgerDB，Close 不會關閉 db
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, locks: newSessionLocks()}
}

// NewOwnedBadgerStore 與 NewBadgerStore 相同，但 Close 會一併關閉 db
func NewOwnedBadgerStore(db *badger.DB) *BadgerStore {
	s := NewBadgerStore(db)
	s.owned = true
	return s
}

func recordPrefix(sessionID string) []byte {
	return []byte(recordKeyPrefix + encodeSession(sessionID) + ":")
}

func seqKey(sessionID string) []byte {
	return []byte(seqKeyPrefix + encodeSession(sessionID))
}

// Append 實作 Store，序號與紀錄在同一個交易內寫入
func (s *BadgerStore) Append(ctx context.Context, sessionID string, product common.ProductRecord) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(seqKey(sessionID))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get seq: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				seq = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		}
		seq++

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, seq)
		if err := txn.Set(seqKey(sessionID), buf); err != nil {
			return fmt.Errorf("set seq: %w", err)
		}

		key := append(recordPrefix(sessionID), []byte(fmt.Sprintf("%020d", seq))...)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set product: %w", err)
		}
		return nil
	})
	if err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// Snapshot 實作 Store，key 依序號排序即為追加順序
func (s *BadgerStore) Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}

	products := []common.ProductRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := recordPrefix(sessionID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p common.ProductRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode product: %w", err)
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}
	return products, nil
}

// Close 實作 Store
func (s *BadgerStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
