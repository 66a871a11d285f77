package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"batipro/internal/cache"
	"batipro/internal/domain"
	productrepo "batipro/internal/repository/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	products  []domain.Product
	listCalls int
	getCalls  int
	upserted  []domain.Product
	upsertErr error
	deleteErr error
}

func (s *stubRepo) List(_ context.Context, f productrepo.ListFilter) ([]domain.Product, error) {
	s.listCalls++
	var out []domain.Product
	for _, p := range s.products {
		if f.CategoryKey == "" || p.CategoryKey == f.CategoryKey {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.getCalls++
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = append(s.upserted, p)
	p.ID = "new-id"
	return &p, nil
}

func (s *stubRepo) Delete(_ context.Context, _ string) error { return s.deleteErr }

type failingCache struct{ cache.Nop }

func (failingCache) Get(context.Context, string) (string, error) { return "", errors.New("redis down") }

func catalog() *stubRepo {
	return &stubRepo{products: []domain.Product{
		{ID: "p1", Key: "ciment-25", Name: "Ciment 25kg", Price: decimal.RequireFromString("7.50"), Currency: "EUR", CategoryKey: "ciments"},
		{ID: "p2", Key: "sable", Name: "Sable 0/4", Price: decimal.RequireFromString("49.90"), Currency: "EUR"},
	}}
}

func TestService_ListIsCached(t *testing.T) {
	repo := catalog()
	svc := New(repo, cache.NewMemory(), time.Minute, nil)

	first, err := svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)
	second, err := svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, second, 2)
	assert.True(t, second[0].Price.Equal(first[0].Price))

	_, err = svc.List(context.Background(), productrepo.ListFilter{CategoryKey: "ciments"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "different filter, different key")
}

func TestService_GetIsCachedAndNotFoundIsNot(t *testing.T) {
	repo := catalog()
	svc := New(repo, cache.NewMemory(), time.Minute, nil)

	for range 3 {
		p, err := svc.Get(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "ciment-25", p.Key)
	}
	assert.Equal(t, 1, repo.getCalls)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 3, repo.getCalls)
}

func TestService_WritesInvalidate(t *testing.T) {
	repo := catalog()
	svc := New(repo, cache.NewMemory(), time.Minute, nil)

	_, err := svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)
	_, err = svc.Upsert(context.Background(), domain.Product{Key: "tuile", Name: "Tuile", Price: decimal.RequireFromString("0.95")})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	_, err = svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.listCalls)
}

func TestService_UpsertValidation(t *testing.T) {
	svc := New(&stubRepo{}, nil, 0, nil)
	cases := map[string]domain.Product{
		"no key":         {Name: "x"},
		"no name":        {Key: "x"},
		"negative price": {Key: "x", Name: "x", Price: decimal.RequireFromString("-0.01")},
		"negative stock": {Key: "x", Name: "x", Stock: -1},
		"bad currency":   {Key: "x", Name: "x", Currency: "euro"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), p)
			assert.ErrorIs(t, err, domain.ErrInvalid)
		})
	}
}

func TestService_UpsertDefaults(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, nil, 0, nil)

	_, err := svc.Upsert(context.Background(), domain.Product{Key: " plaque-ba13 ", Name: "Plaque BA13", Currency: "eur"})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "plaque-ba13", repo.upserted[0].Key)
	assert.Equal(t, "PLAQUE-BA13", repo.upserted[0].SKU)
	assert.Equal(t, "EUR", repo.upserted[0].Currency)
}

func TestService_CacheFailureFallsBackToRepo(t *testing.T) {
	repo := catalog()
	svc := New(repo, failingCache{}, time.Minute, nil)

	list, err := svc.List(context.Background(), productrepo.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
