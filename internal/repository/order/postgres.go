package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"batipro/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

const selectColumns = `
SELECT id, items, total::text, customer_email, COALESCE(customer_name, ''), shipping_address,
       status, payment_status, COALESCE(invoice_number, ''), invoice_sent_at, created_at, updated_at
FROM orders
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	var address []byte
	if o.ShippingAddress != nil {
		if address, err = json.Marshal(o.ShippingAddress); err != nil {
			return fmt.Errorf("encode shipping address: %w", err)
		}
	}

	const q = `
INSERT INTO orders (id, items, total, customer_email, customer_name, shipping_address, status, payment_status, created_at, updated_at)
VALUES ($1, $2::jsonb, $3::text::numeric, $4, NULLIF($5, ''), $6::jsonb, $7, $8, $9, $9)
`
	_, err = r.pool.Exec(ctx, q,
		o.ID,
		items,
		o.Total.StringFixed(2),
		o.CustomerEmail,
		o.CustomerName,
		address,
		string(o.Status),
		string(o.PaymentStatus),
		o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.logger.Info("duplicate order id", zap.String("order_id", o.ID))
			return domain.ErrAlreadyExists
		}
		r.logger.Error("insert order", zap.String("order_id", o.ID), zap.Error(err))
		return err
	}
	r.logger.Debug("order inserted", zap.String("order_id", o.ID), zap.Int("items", len(o.Items)))
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectColumns+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get order", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) MarkInvoiced(ctx context.Context, id string, u domain.InvoiceUpdate) error {
	const q = `
UPDATE orders
SET status = CASE WHEN status = 'pending' THEN $2 ELSE status END, payment_status = $3, invoice_number = NULLIF($4, ''), invoice_sent_at = $5, updated_at = now()
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, q, id, string(u.Status), string(u.PaymentStatus), u.InvoiceNumber, u.SentAt)
	if err != nil {
		r.logger.Error("mark order invoiced", zap.String("order_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		r.logger.Error("update order status", zap.String("order_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := max(f.Offset, 0)

	const where = `WHERE ($1 = '' OR status = $1) AND ($2 = '' OR lower(customer_email) = lower($2))`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders `+where, string(f.Status), f.Email).Scan(&total); err != nil {
		r.logger.Error("count orders", zap.Error(err))
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, selectColumns+where+` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		string(f.Status), f.Email, limit, offset)
	if err != nil {
		r.logger.Error("list orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list orders rows", zap.Error(err))
		return nil, 0, err
	}
	return result, total, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o             domain.Order
		items         []byte
		total         string
		address       []byte
		status        string
		paymentStatus string
		sentAt        *time.Time
	)
	err := row.Scan(&o.ID, &items, &total, &o.CustomerEmail, &o.CustomerName, &address,
		&status, &paymentStatus, &o.InvoiceNumber, &sentAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if len(address) > 0 {
		var a domain.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, fmt.Errorf("decode shipping address of order %s: %w", o.ID, err)
		}
		o.ShippingAddress = &a
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total of order %s: %w", o.ID, err)
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.InvoiceSentAt = sentAt
	return &o, nil
}
