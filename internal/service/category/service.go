package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"batipro/internal/domain"
	"batipro/internal/repository/category"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Category{}
	}
	return list, nil
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Key = strings.TrimSpace(c.Key)
	c.Name = strings.TrimSpace(c.Name)
	c.ParentKey = strings.TrimSpace(c.ParentKey)
	if c.Key == "" || c.Name == "" {
		return nil, fmt.Errorf("%w: key and name required", domain.ErrInvalid)
	}
	if c.ParentKey == c.Key {
		return nil, fmt.Errorf("%w: category cannot be its own parent", domain.ErrInvalid)
	}
	if c.ParentKey != "" {
		if _, err := s.repo.GetByKey(ctx, c.ParentKey); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown parent %q", domain.ErrInvalid, c.ParentKey)
			}
			return nil, err
		}
	}
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	return s.repo.Upsert(ctx, c)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// Slugify lowercases s, strips accents and joins words with dashes.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		switch {
		case r == 'œ':
			b.WriteString("oe")
			dash = false
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
