package product

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"batipro/internal/cache"
	"batipro/internal/domain"
	productrepo "batipro/internal/repository/product"
	"go.uber.org/zap"
)

const (
	cacheOp    = "products"
	DefaultTTL = 5 * time.Minute
)

// Service serves the catalog with a read-through cache. Admin writes drop
// every cached product entry.
type Service struct {
	repo   productrepo.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func New(repo productrepo.Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, ttl: ttl, logger: logger.Named("product_service")}
}

func (s *Service) List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error) {
	key := s.cache.GenerateKey(cacheOp, "list:"+f.CategoryKey+":"+strings.ToLower(f.Search)+":"+strconv.Itoa(f.Limit)+":"+strconv.Itoa(f.Offset))
	var out []domain.Product
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	s.store(ctx, key, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	key := s.cache.GenerateKey(cacheOp, "id:"+id)
	var p domain.Product
	if s.cached(ctx, key, &p) {
		return &p, nil
	}
	got, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, got)
	return got, nil
}

func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Key = strings.TrimSpace(p.Key)
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	switch {
	case p.Key == "":
		return nil, fmt.Errorf("%w: key required", domain.ErrInvalid)
	case p.Name == "":
		return nil, fmt.Errorf("%w: name required", domain.ErrInvalid)
	case p.Price.IsNegative():
		return nil, fmt.Errorf("%w: negative price", domain.ErrInvalid)
	case p.Stock < 0:
		return nil, fmt.Errorf("%w: negative stock", domain.ErrInvalid)
	}
	if p.SKU == "" {
		p.SKU = strings.ToUpper(p.Key)
	}
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	if len(p.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be an ISO 4217 code", domain.ErrInvalid)
	}

	out, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// cached decodes a hit into dst. Cache errors degrade to a miss.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.logger.Warn("cache set", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheOp); err != nil {
		s.logger.Warn("cache invalidate", zap.Error(err))
	}
}
