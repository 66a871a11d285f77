package category

import (
	"context"
	"errors"
	"os"
	"testing"

	"batipro/internal/domain"
	"batipro/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	cat, err := repo.Upsert(ctx, domain.Category{Key: "gros-oeuvre", Name: "Gros œuvre", Slug: "gros-oeuvre"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if cat.ID == "" || cat.Key != "gros-oeuvre" {
		t.Fatalf("unexpected category %+v", cat)
	}
	if _, err := repo.Upsert(ctx, domain.Category{Key: "ciments", Name: "Ciments", Slug: "ciments", ParentKey: "gros-oeuvre"}); err != nil {
		t.Fatalf("upsert child: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "ciments" || list[0].ParentKey != "gros-oeuvre" {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := repo.GetByKey(ctx, "ciments")
	if err != nil || got.Name != "Ciments" {
		t.Fatalf("GetByKey: %+v %v", got, err)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Upsert(ctx, domain.Category{Key: "isolation", Name: "Isolation", Slug: "isolation", Description: "Laines et panneaux"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Key: "isolation", Name: "Isolation thermique", Slug: "isolation"})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same ID after update")
	}
	if second.Name != "Isolation thermique" || second.Description != "Laines et panneaux" {
		t.Fatalf("unexpected updated category %+v", second)
	}
}

func TestPostgres_Delete(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	if _, err := repo.Upsert(ctx, domain.Category{Key: "bois", Name: "Bois", Slug: "bois"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Delete(ctx, "bois"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "bois"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByKey(ctx, "bois"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
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
	if _, err := pool.Exec(ctx, `TRUNCATE products, categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
