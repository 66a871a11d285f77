package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"batipro/internal/cache"
	"batipro/internal/config"
	"batipro/internal/db"
	"batipro/internal/importer"
	"batipro/internal/logging"
	categoryrepo "batipro/internal/repository/category"
	productrepo "batipro/internal/repository/product"
	categorysvc "batipro/internal/service/category"
	productsvc "batipro/internal/service/product"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a product or category CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	// Imports go through the services so rows are validated and the
	// storefront cache is flushed once products change.
	var catalogCache cache.Cache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, Password: cfg.Cache.RedisPassword})
		defer client.Close()
		catalogCache = cache.NewRedisCache(client, "batipro")
	}
	products := productsvc.New(productrepo.NewPostgres(pool, logger), catalogCache, cfg.Cache.TTL, logger)
	categories := categorysvc.New(categoryrepo.NewPostgres(pool, logger))

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	kind, err := importer.DetectKind(f)
	if err != nil {
		logger.Fatal("detect file kind", zap.Error(err))
	}
	if _, err := f.Seek(0, 0); err != nil {
		logger.Fatal("rewind file", zap.Error(err))
	}

	imp := importer.NewCSVImporter(f, products, categories, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d %s in %s\n", count, kind, time.Since(start).Truncate(time.Millisecond))
}
