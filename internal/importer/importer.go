// Package importer loads catalog CSV files into the product and category stores.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"batipro/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind is the type of rows a CSV file carries.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// DetectKind peeks at the header row. A price column marks a product file.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return "", fmt.Errorf("%w: missing key column", domain.ErrInvalid)
	}
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	return KindCategories, nil
}

// CSVImporter reads catalog CSV exports and inserts or updates rows by key.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		logger:     logger.Named("importer"),
	}
}

type productRow struct {
	line     int
	Key      string
	SKU      string
	Name     string
	Desc     string
	Price    decimal.Decimal
	Currency string
	Category string
	Unit     string
	Stock    int
	Images   []string
}

// Run parses the file and upserts its rows. The header decides whether the
// file holds products or categories.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return 0, fmt.Errorf("%w: missing key column", domain.ErrInvalid)
	}
	if _, ok := index["price"]; ok {
		if i.products == nil {
			return 0, errors.New("product file given but no product writer configured")
		}
		return i.runProducts(ctx, index)
	}
	if i.categories == nil {
		return 0, errors.New("category file given but no category writer configured")
	}
	return i.runCategories(ctx, index)
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	var (
		current  *productRow
		imported int
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row, err := parseProductRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.Key != "" {
			if current != nil {
				if err := i.saveProduct(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.Images = append(current.Images, row.Images...)
		}
	}

	if current != nil {
		if err := i.saveProduct(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}
	i.logger.Info("products imported", zap.Int("count", imported))
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) error {
	if row.Name == "" {
		return fmt.Errorf("line %d: %w: product %q has no name", row.line, domain.ErrInvalid, row.Key)
	}

	p := domain.Product{
		Key:         row.Key,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		Currency:    row.Currency,
		CategoryKey: row.Category,
		Unit:        row.Unit,
		Stock:       row.Stock,
	}
	if len(row.Images) > 0 {
		p.ImageURL = row.Images[0]
	}
	if len(row.Images) > 1 {
		p.Attributes = map[string]interface{}{"images": row.Images}
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("line %d: upsert product %q: %w", row.line, row.Key, err)
	}
	return nil
}

func parseProductRow(record []string, index map[string]int, line int) (*productRow, error) {
	key := pick(record, index, "key")
	image := pick(record, index, "image")
	if key == "" && image == "" {
		return nil, nil
	}
	row := &productRow{
		line:     line,
		Key:      key,
		SKU:      pick(record, index, "sku"),
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		Currency: pick(record, index, "currency"),
		Category: pick(record, index, "category"),
		Unit:     pick(record, index, "unit"),
	}
	for _, u := range strings.Split(image, ";") {
		if u = strings.TrimSpace(u); u != "" {
			row.Images = append(row.Images, u)
		}
	}
	if key == "" {
		return row, nil
	}

	price, err := ParsePrice(pick(record, index, "price"))
	if err != nil {
		return nil, fmt.Errorf("line %d: product %q: %w", line, key, err)
	}
	row.Price = price
	if s := pick(record, index, "stock"); s != "" {
		row.Stock, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: product %q: %w: stock %q", line, key, domain.ErrInvalid, s)
		}
	}
	return row, nil
}

// ParsePrice reads a decimal amount written with either a dot or a comma.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: price required", domain.ErrInvalid)
	}
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: price %q", domain.ErrInvalid, s)
	}
	return d, nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	var rows []domain.Category
	seen := make(map[string]int)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		c := domain.Category{
			Key:         pick(record, index, "key"),
			Name:        pick(record, index, "name"),
			Slug:        pick(record, index, "slug"),
			ParentKey:   pick(record, index, "parent"),
			Description: pick(record, index, "description"),
		}
		if c.Key == "" {
			continue
		}
		if at, ok := seen[c.Key]; ok {
			rows[at] = c
			continue
		}
		seen[c.Key] = len(rows)
		rows = append(rows, c)
	}

	ordered, err := parentsFirst(rows)
	if err != nil {
		return 0, err
	}
	for n, c := range ordered {
		if _, err := i.categories.Upsert(ctx, c); err != nil {
			return n, fmt.Errorf("upsert category %q: %w", c.Key, err)
		}
	}
	i.logger.Info("categories imported", zap.Int("count", len(ordered)))
	return len(ordered), nil
}

// parentsFirst orders rows so every parent defined in the file precedes its
// children. Parents not in the file are assumed to exist already.
func parentsFirst(rows []domain.Category) ([]domain.Category, error) {
	inFile := make(map[string]bool, len(rows))
	for _, c := range rows {
		inFile[c.Key] = true
	}
	done := make(map[string]bool, len(rows))
	out := make([]domain.Category, 0, len(rows))
	for len(out) < len(rows) {
		progressed := false
		for _, c := range rows {
			if done[c.Key] {
				continue
			}
			if c.ParentKey != "" && inFile[c.ParentKey] && !done[c.ParentKey] {
				continue
			}
			done[c.Key] = true
			out = append(out, c)
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("%w: category parents form a cycle", domain.ErrInvalid)
		}
	}
	return out, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
