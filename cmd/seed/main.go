package main

import (
	"context"

	"batipro/internal/cache"
	"batipro/internal/config"
	"batipro/internal/db"
	"batipro/internal/logging"
	categoryrepo "batipro/internal/repository/category"
	productrepo "batipro/internal/repository/product"
	"batipro/internal/seed"
	categorysvc "batipro/internal/service/category"
	productsvc "batipro/internal/service/product"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	categories := categorysvc.New(categoryrepo.NewPostgres(pool, logger))
	products := productsvc.New(productrepo.NewPostgres(pool, logger), cache.Nop{}, 0, logger)

	if err := seed.Apply(ctx, categories, products); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
