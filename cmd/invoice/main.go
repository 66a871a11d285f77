// Command invoice renders an order JSON file to a PDF invoice, or prints an
// admin bearer token for the back-office routes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"batipro/internal/auth"
	"batipro/internal/config"
	"batipro/internal/domain"
	"batipro/internal/format"
	"batipro/internal/invoice"
	"batipro/internal/logging"
	"go.uber.org/zap"
)

func main() {
	var (
		orderPath  string
		outPath    string
		number     string
		adminToken string
		tokenTTL   time.Duration
	)
	flag.StringVar(&orderPath, "order", "", "Path to an order JSON file")
	flag.StringVar(&outPath, "out", "", "Output PDF path (default facture-<number>.pdf)")
	flag.StringVar(&number, "number", "", "Invoice number (generated when empty)")
	flag.StringVar(&adminToken, "admin-token", "", "Print an admin token for this subject and exit")
	flag.DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Admin token lifetime")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, "development")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if adminToken != "" {
		issuer, err := auth.NewIssuer(cfg.JWTSecret, tokenTTL)
		if err != nil {
			logger.Fatal("init token issuer", zap.Error(err))
		}
		token, err := issuer.Issue(adminToken, auth.RoleAdmin)
		if err != nil {
			logger.Fatal("issue token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	if orderPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(orderPath)
	if err != nil {
		logger.Fatal("read order", zap.Error(err))
	}
	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		logger.Fatal("decode order", zap.Error(err))
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	formatter, err := format.Load(cfg.Invoice.Locale, cfg.Invoice.Currency, cfg.Invoice.Timezone)
	if err != nil {
		logger.Fatal("invoice formatter", zap.Error(err))
	}
	engine := &invoice.Engine{
		Company:   invoice.Company(cfg.Company),
		Formatter: formatter,
		Assets:    invoice.NewLogoLoader(cfg.Invoice.LogoDir, cfg.Invoice.LogoURL),
		LogoName:  cfg.Invoice.LogoName,
		Logger:    logger,
	}

	if number == "" {
		number = o.InvoiceNumber
	}
	if number == "" {
		number = invoice.NewNumberGenerator(cfg.Invoice.Prefix).Next()
	}
	pdf, err := engine.Render(context.Background(), invoice.FromOrder(o, number))
	if err != nil {
		logger.Fatal("render invoice", zap.Error(err))
	}

	if outPath == "" {
		outPath = "facture-" + number + ".pdf"
	}
	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		logger.Fatal("write pdf", zap.Error(err))
	}
	logger.Info("invoice written", zap.String("path", outPath), zap.Int("items", len(o.Items)), zap.Int("bytes", len(pdf)))
}
