// Package seed loads a small building-materials catalog for manual testing.
package seed

import (
	"context"
	"fmt"

	"batipro/internal/domain"
	"github.com/shopspring/decimal"
)

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// Categories are listed parents first.
var Categories = []domain.Category{
	{Key: "gros-oeuvre", Name: "Gros œuvre", Description: "Ciments, parpaings, granulats"},
	{Key: "ciments", Name: "Ciments et mortiers", ParentKey: "gros-oeuvre"},
	{Key: "maconnerie", Name: "Maçonnerie", ParentKey: "gros-oeuvre"},
	{Key: "isolation", Name: "Isolation", Description: "Laines minérales et isolants minces"},
	{Key: "outillage", Name: "Outillage"},
}

type productSeed struct {
	Key         string
	SKU         string
	Name        string
	Description string
	Price       string
	Category    string
	Unit        string
	Stock       int
}

var products = []productSeed{
	{"ciment-cem2-35kg", "CIM-CEM2-35", "Ciment gris CEM II 32,5 R - 35 kg", "Ciment pour maçonnerie courante et béton", "7.50", "ciments", "sac", 240},
	{"mortier-batard-25kg", "MOR-BAT-25", "Mortier bâtard 25 kg", "Prêt à gâcher, montage et jointoiement", "9.90", "ciments", "sac", 160},
	{"parpaing-creux-20", "PAR-CR-20", "Parpaing creux 20x20x50 cm", "Bloc béton B40", "1.35", "maconnerie", "unité", 3000},
	{"brique-rouge-pleine", "BRI-RP-22", "Brique rouge pleine 22x10,5x6 cm", "", "0.89", "maconnerie", "unité", 5000},
	{"laine-verre-100mm", "LDV-100", "Rouleau laine de verre 100 mm - 6 m²", "R = 2,5 m².K/W", "32.40", "isolation", "rouleau", 80},
	{"truelle-ronde-18", "OUT-TRU-18", "Truelle ronde de maçon 18 cm", "Lame acier trempé", "12.90", "outillage", "unité", 45},
	{"niveau-aluminium-120", "OUT-NIV-120", "Niveau aluminium 120 cm 3 fioles", "", "24.95", "outillage", "unité", 30},
}

// Apply upserts the demo catalog. Rows are keyed, so repeated runs converge.
func Apply(ctx context.Context, categories CategoryWriter, productsW ProductWriter) error {
	for _, c := range Categories {
		if _, err := categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}
	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("price of %s: %w", p.Key, err)
		}
		if _, err := productsW.Upsert(ctx, domain.Product{
			Key:         p.Key,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Currency:    "EUR",
			CategoryKey: p.Category,
			Unit:        p.Unit,
			Stock:       p.Stock,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	return nil
}
