package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pantry-matcher/internal/pkg/common"
)

// LoadFile 讀取 JSON 食譜陣列
func LoadFile(path string) ([]common.Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var recipes []common.Recipe
	if err := common.DecodeJSONStrict(f, &recipes); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, rec := range recipes {
		if strings.TrimSpace(rec.Title) == "" {
			return nil, fmt.Errorf("recipe #%d has no title", i)
		}
	}
	return recipes, nil
}

// SeedFile 讀取 JSON 檔並匯入目錄
func (r *Repository) SeedFile(ctx context.Context, path string) (int, error) {
	recipes, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	return r.Seed(ctx, recipes)
}
