package order

import (
	"context"

	"batipro/internal/domain"
)

// ListFilter narrows the admin order listing. Zero values match everything.
type ListFilter struct {
	Status domain.OrderStatus
	Email  string
	Limit  int
	Offset int
}

type Repository interface {
	// Create inserts o in one statement; a duplicate id yields domain.ErrAlreadyExists.
	Create(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	MarkInvoiced(ctx context.Context, id string, u domain.InvoiceUpdate) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// List returns one page of orders, newest first, and the total match count.
	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
}
