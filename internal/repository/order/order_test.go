package order

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"batipro/internal/domain"
	"batipro/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	created := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	o := domain.Order{
		ID: "CMD-1",
		Items: []domain.LineItem{
			{Name: "Ciment 25kg", Price: decimal.RequireFromString("7.50"), Quantity: 3},
		},
		Total:           decimal.RequireFromString("22.50"),
		CustomerEmail:   "a@b.fr",
		ShippingAddress: &domain.Address{Street: "3 rue Neuve", PostalCode: "69001", City: "Lyon"},
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       created,
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, "CMD-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Total.Equal(o.Total) || got.CustomerEmail != "a@b.fr" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected order %+v", got)
	}
	if len(got.Items) != 1 || !got.Items[0].Price.Equal(decimal.RequireFromString("7.5")) || got.Items[0].Quantity != 3 {
		t.Fatalf("unexpected items %+v", got.Items)
	}
	if got.ShippingAddress == nil || got.ShippingAddress.City != "Lyon" {
		t.Fatalf("unexpected address %+v", got.ShippingAddress)
	}
	if got.InvoiceSentAt != nil || got.InvoiceNumber != "" {
		t.Fatalf("expected no invoice data, got %+v", got)
	}

	if err := repo.Create(ctx, o); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate, got %v", err)
	}
	if _, err := repo.Get(ctx, "CMD-missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_MarkInvoicedAndStatus(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	if err := repo.Create(ctx, sampleOrder("CMD-2", "c@d.fr", time.Now().UTC())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sentAt := time.Date(2025, time.January, 15, 10, 0, 5, 0, time.UTC)
	err := repo.MarkInvoiced(ctx, "CMD-2", domain.InvoiceUpdate{
		Status:        domain.OrderPaid,
		PaymentStatus: domain.PaymentPaid,
		InvoiceNumber: "FAC-20250115-007",
		SentAt:        sentAt,
	})
	if err != nil {
		t.Fatalf("MarkInvoiced: %v", err)
	}
	got, err := repo.Get(ctx, "CMD-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.OrderPaid || got.PaymentStatus != domain.PaymentPaid || got.InvoiceNumber != "FAC-20250115-007" {
		t.Fatalf("unexpected invoiced order %+v", got)
	}
	if got.InvoiceSentAt == nil || !got.InvoiceSentAt.Equal(sentAt) {
		t.Fatalf("unexpected invoice_sent_at %v", got.InvoiceSentAt)
	}

	if err := repo.UpdateStatus(ctx, "CMD-2", domain.OrderShipped); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.MarkInvoiced(ctx, "CMD-2", domain.InvoiceUpdate{Status: domain.OrderPaid, PaymentStatus: domain.PaymentPaid, InvoiceNumber: "FAC-20250115-007", SentAt: sentAt}); err != nil {
		t.Fatalf("MarkInvoiced again: %v", err)
	}
	if got, err = repo.Get(ctx, "CMD-2"); err != nil || got.Status != domain.OrderShipped {
		t.Fatalf("expected shipped order to stay shipped, got %+v (err %v)", got, err)
	}
	if err := repo.UpdateStatus(ctx, "CMD-none", domain.OrderShipped); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkInvoiced(ctx, "CMD-none", domain.InvoiceUpdate{Status: domain.OrderPaid, PaymentStatus: domain.PaymentPaid, SentAt: sentAt}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_List(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@b.fr", "A@B.fr", "x@y.fr"} {
		id := []string{"CMD-a", "CMD-b", "CMD-c"}[i]
		if err := repo.Create(ctx, sampleOrder(id, email, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if err := repo.UpdateStatus(ctx, "CMD-c", domain.OrderCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	all, total, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 3 || all[0].ID != "CMD-c" {
		t.Fatalf("expected newest first, got total=%d %+v", total, all)
	}

	byEmail, total, err := repo.List(ctx, ListFilter{Email: "a@b.fr"})
	if err != nil {
		t.Fatalf("List by email: %v", err)
	}
	if total != 2 || len(byEmail) != 2 {
		t.Fatalf("expected 2 orders for a@b.fr, got %d", total)
	}

	cancelled, total, err := repo.List(ctx, ListFilter{Status: domain.OrderCancelled})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if total != 1 || cancelled[0].ID != "CMD-c" {
		t.Fatalf("unexpected cancelled orders %+v", cancelled)
	}

	page, total, err := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != "CMD-b" {
		t.Fatalf("unexpected page total=%d %+v", total, page)
	}
}

func sampleOrder(id, email string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:            id,
		Items:         []domain.LineItem{{Name: "Sable 0/4 big bag", Price: decimal.RequireFromString("49.90"), Quantity: 1}},
		Total:         decimal.RequireFromString("49.90"),
		CustomerEmail: email,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     createdAt,
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE orders`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
