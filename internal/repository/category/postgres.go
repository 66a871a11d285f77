package category

import (
	"context"
	"errors"

	"batipro/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("category_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, key, name, slug, COALESCE(parent_key, ''), COALESCE(description, ''), created_at
FROM categories
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Key, &c.Name, &c.Slug, &c.ParentKey, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Category, error) {
	const q = `
SELECT id::text, key, name, slug, COALESCE(parent_key, ''), COALESCE(description, ''), created_at
FROM categories
WHERE key = $1
`
	var c domain.Category
	err := r.pool.QueryRow(ctx, q, key).Scan(&c.ID, &c.Key, &c.Name, &c.Slug, &c.ParentKey, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (key, name, slug, parent_key, description)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name,
    slug = EXCLUDED.slug,
    parent_key = EXCLUDED.parent_key,
    description = COALESCE(EXCLUDED.description, categories.description)
RETURNING id::text, created_at, COALESCE(parent_key, ''), COALESCE(description, '')
`
	out := domain.Category{Key: c.Key, Name: c.Name, Slug: c.Slug}
	err := r.pool.QueryRow(ctx, q, c.Key, c.Name, c.Slug, c.ParentKey, c.Description).
		Scan(&out.ID, &out.CreatedAt, &out.ParentKey, &out.Description)
	if err != nil {
		r.logger.Error("upsert category", zap.String("key", c.Key), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("category upserted", zap.String("key", out.Key), zap.String("id", out.ID))
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE key = $1`, key)
	if err != nil {
		r.logger.Error("delete category", zap.String("key", key), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
