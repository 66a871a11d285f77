package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"key"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Price       decimal.Decimal        `json:"price"`
	Currency    string                 `json:"currency"`
	CategoryKey string                 `json:"categoryKey,omitempty"`
	Unit        string                 `json:"unit,omitempty"`
	Stock       int                    `json:"stock"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
