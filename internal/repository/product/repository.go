package product

import (
	"context"

	"batipro/internal/domain"
)

// ListFilter narrows a catalog listing. Search matches name or SKU.
type ListFilter struct {
	CategoryKey string
	Search      string
	Limit       int
	Offset      int
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// Upsert inserts or updates by key.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
