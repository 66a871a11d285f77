package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"batipro/internal/auth"
	"batipro/internal/cache"
	"batipro/internal/config"
	"batipro/internal/db"
	"batipro/internal/format"
	"batipro/internal/httpserver"
	"batipro/internal/invoice"
	"batipro/internal/logging"
	"batipro/internal/mailer"
	categoryrepo "batipro/internal/repository/category"
	orderrepo "batipro/internal/repository/order"
	productrepo "batipro/internal/repository/product"
	"batipro/internal/retry"
	categorysvc "batipro/internal/service/category"
	"batipro/internal/service/checkout"
	ordersvc "batipro/internal/service/order"
	productsvc "batipro/internal/service/product"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("api")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	formatter, err := format.Load(cfg.Invoice.Locale, cfg.Invoice.Currency, cfg.Invoice.Timezone)
	if err != nil {
		logger.Fatal("invoice formatter", zap.Error(err))
	}

	catalogCache := newCache(ctx, cfg.Cache, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo, catalogCache, cfg.Cache.TTL, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	categoryService := categorysvc.New(categoryRepo)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	orderService := ordersvc.New(orderRepo, logger)

	engine := &invoice.Engine{
		Company:   invoice.Company(cfg.Company),
		Formatter: formatter,
		Assets:    invoice.NewLogoLoader(cfg.Invoice.LogoDir, cfg.Invoice.LogoURL),
		LogoName:  cfg.Invoice.LogoName,
		Logger:    logger.Named("invoice"),
	}

	if !invoice.ValidPrefix(cfg.Invoice.Prefix) {
		logger.Warn("invalid INVOICE_PREFIX, using default",
			zap.String("prefix", cfg.Invoice.Prefix), zap.String("default", invoice.DefaultPrefix))
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger.Named("mail")}
	if cfg.Mail.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.Mail.ResendAPIKey, logger)
	} else {
		logger.Warn("RESEND_API_KEY not set, invoice emails are only logged")
	}

	var (
		scheduler checkout.RetryScheduler = retry.NopPublisher{Logger: logger}
		amqpConn  *amqp.Connection
		publisher *retry.Publisher
	)
	if cfg.Retry.AMQPURL != "" {
		amqpConn, err = amqp.Dial(cfg.Retry.AMQPURL)
		if err != nil {
			logger.Fatal("connect to broker", zap.Error(err))
		}
		defer amqpConn.Close()
		publisher, err = retry.NewPublisher(amqpConn, logger)
		if err != nil {
			logger.Fatal("init retry publisher", zap.Error(err))
		}
		defer publisher.Close()
		scheduler = publisher
	}

	pipeline := checkout.New(checkout.Config{
		From:          cfg.Mail.From,
		ReplyTo:       cfg.Mail.ReplyTo,
		TestRecipient: cfg.Mail.TestRecipient,
		CompanyName:   cfg.Company.Name,
		ContactEmail:  cfg.Company.Email,
		MailTimeout:   cfg.Mail.Timeout,
	}, checkout.Deps{
		Orders:    orderRepo,
		Renderer:  engine,
		Mailer:    sender,
		Numbers:   invoice.NewNumberGenerator(cfg.Invoice.Prefix),
		Retry:     scheduler,
		Formatter: formatter,
		Logger:    logger.Named("checkout"),
	})

	if amqpConn != nil {
		consumer := retry.NewConsumer(amqpConn, publisher, retry.HandlerFunc(func(ctx context.Context, orderID string) error {
			_, err := pipeline.Redeliver(ctx, orderID)
			return err
		}), cfg.Retry.MaxAttempts, cfg.Retry.Backoff, logger)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("start retry consumer", zap.Error(err))
		}
	}

	deps := httpserver.Deps{
		Checkout:    pipeline,
		ProductSvc:  productService,
		CategorySvc: categoryService,
		OrderSvc:    orderService,
	}
	if cfg.JWTSecret != "" {
		verifier, err := auth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			logger.Fatal("init admin token verifier", zap.Error(err))
		}
		deps.Verifier = verifier
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps, cfg.CORSOrigins)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.Stringer("signal", sig))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// newCache returns a redis-backed catalog cache, or a no-op cache when redis
// is not configured or unreachable at startup.
func newCache(ctx context.Context, cfg config.Cache, logger *zap.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return cache.Nop{}
	}
	return cache.NewRedisCache(client, "batipro")
}
