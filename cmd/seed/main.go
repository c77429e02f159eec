package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"pantry-matcher/internal/core/catalog"
	"pantry-matcher/internal/infrastructure/config"
	"pantry-matcher/internal/pkg/common"
)

func main() {
	file := flag.String("file", "data/recipes.sample.json", "JSON 食譜檔")
	dbPath := flag.String("db", "", "SQLite 路徑，預設使用設定中的 catalog.sqlite_path")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := common.InitLogger(cfg.LogLevel, ""); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	path := cfg.Catalog.SQLitePath
	if *dbPath != "" {
		path = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := catalog.Open(ctx, path)
	if err != nil {
		common.LogFatal("開啟食譜目錄失敗", zap.Error(err))
	}
	defer repo.Close()

	n, err := repo.SeedFile(ctx, *file)
	if err != nil {
		common.LogError("匯入食譜失敗", zap.String("file", *file), zap.Error(err))
		return
	}
	fmt.Printf("imported %d recipes into %s\n", n, path)
}
