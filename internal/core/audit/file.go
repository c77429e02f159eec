package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

// FileLog 每筆紀錄寫成一個 JSON 檔
type FileLog struct {
	dir string
	ids *idGenerator
}

// NewFileLog 創建檔案紀錄，目錄不存在時自動建立
func NewFileLog(dir string) (*FileLog, error) {
	if dir == "" {
		dir = "match_logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &FileLog{dir: dir, ids: newIDGenerator()}, nil
}

// Record 實作 Log，回傳檔名
func (l *FileLog) Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entry := newEntry(l.ids, sessionID, matches)
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit entry: %w", err)
	}

	name := entry.ID + ".json"
	path := filepath.Join(l.dir, name)
	// O_EXCL 確保不覆寫既有紀錄
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create audit file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write audit file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close audit file: %w", err)
	}

	common.LogDebug("比對紀錄已寫入", zap.String("file", name), zap.Int("matches", len(entry.Matches)))
	return name, nil
}

// Read 讀取一筆紀錄
func (l *FileLog) Read(name string) (*Entry, error) {
	if !validLogName(name) {
		return nil, common.ErrInvalidInput.WithMessage("invalid log name")
	}
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if os.IsNotExist(err) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode audit file: %w", err)
	}
	return &e, nil
}

// validLogName 只接受目錄下的 .json 檔名
func validLogName(name string) bool {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return false
	}
	return strings.HasSuffix(name, ".json") && len(name) > len(".json")
}

// Close 實作 Log
func (l *FileLog) Close() error {
	return nil
}
