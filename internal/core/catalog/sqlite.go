// Package catalog 食譜目錄的讀取與匯入
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"pantry-matcher/internal/pkg/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	ingredients  TEXT NOT NULL DEFAULT '',
	instructions TEXT NOT NULL DEFAULT ''
)`

// Repository 以 SQLite 保存的食譜目錄
type Repository struct {
	db *sql.DB
}

// Open 開啟 SQLite 目錄並建立資料表
func Open(ctx context.Context, path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite 單一寫入者
	db.SetMaxOpenConns(1)

	r := &Repository{db: db}
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewRepository 使用既有連線
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema 建立資料表
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create recipes table: %w", err)
	}
	return nil
}

// ListRecipes 依 id 順序回傳全部食譜，失敗時回傳 CatalogUnavailable
func (r *Repository) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, ingredients, instructions FROM recipes ORDER BY id`)
	if err != nil {
		return nil, common.ErrCatalogUnavailable.Wrap(err)
	}
	defer rows.Close()

	recipes := []common.Recipe{}
	for rows.Next() {
		var rec common.Recipe
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Ingredients, &rec.Instructions); err != nil {
			return nil, common.ErrCatalogUnavailable.Wrap(err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.ErrCatalogUnavailable.Wrap(err)
	}
	return recipes, nil
}

// Seed 在同一交易內匯入食譜，回傳新增筆數；ID 為 0 時自動編號
func (r *Repository) Seed(ctx context.Context, recipes []common.Recipe) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, rec := range recipes {
		var execErr error
		if rec.ID > 0 {
			_, execErr = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO recipes (id, title, ingredients, instructions) VALUES (?, ?, ?, ?)`,
				rec.ID, rec.Title, rec.Ingredients, rec.Instructions)
		} else {
			_, execErr = tx.ExecContext(ctx,
				`INSERT INTO recipes (title, ingredients, instructions) VALUES (?, ?, ?)`,
				rec.Title, rec.Ingredients, rec.Instructions)
		}
		if execErr != nil {
			return 0, fmt.Errorf("insert recipe %q: %w", rec.Title, execErr)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	common.LogInfo("食譜目錄已匯入", zap.Int("count", count))
	return count, nil
}

// Ping 檢查連線
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close 關閉連線
func (r *Repository) Close() error {
	return r.db.Close()
}
