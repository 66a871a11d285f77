package seed

import (
	"context"
	"errors"
	"testing"

	"batipro/internal/domain"
)

type recordingStore struct {
	categories []domain.Category
	products   []domain.Product
	err        error
}

type categoryStore struct{ *recordingStore }

func (s categoryStore) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.categories = append(s.categories, c)
	return &c, nil
}

type productStore struct{ *recordingStore }

func (s productStore) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	known := false
	for _, c := range s.categories {
		if c.Key == p.CategoryKey {
			known = true
		}
	}
	if !known {
		return nil, domain.ErrInvalid
	}
	s.products = append(s.products, p)
	return &p, nil
}

func TestApply(t *testing.T) {
	rec := &recordingStore{}
	if err := Apply(context.Background(), categoryStore{rec}, productStore{rec}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(rec.categories) != len(Categories) {
		t.Fatalf("expected %d categories, got %d", len(Categories), len(rec.categories))
	}
	if len(rec.products) != len(products) {
		t.Fatalf("expected %d products, got %d", len(products), len(rec.products))
	}
	for _, p := range rec.products {
		if p.Currency != "EUR" || !p.Price.IsPositive() {
			t.Fatalf("unexpected product %+v", p)
		}
	}
}

func TestCategoriesParentsFirst(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Categories {
		if c.ParentKey != "" && !seen[c.ParentKey] {
			t.Fatalf("category %s listed before its parent %s", c.Key, c.ParentKey)
		}
		seen[c.Key] = true
	}
}

func TestApply_StopsOnError(t *testing.T) {
	rec := &recordingStore{err: errors.New("db down")}
	if err := Apply(context.Background(), categoryStore{rec}, productStore{rec}); err == nil {
		t.Fatalf("expected error")
	}
	if len(rec.products) != 0 {
		t.Fatalf("products must not be written after a category failure")
	}
}
