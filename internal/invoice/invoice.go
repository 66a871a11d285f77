// Package invoice derives invoices from orders and lays them out as A4 documents.
package invoice

import (
	"strings"
	"time"

	"batipro/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentTermDays is the fixed delay between issue and due date.
const PaymentTermDays = 30

// DefaultCountry fills an address that carries no country.
const DefaultCountry = "France"

// TaxRate is the VAT rate assumed to be included in every order total.
var TaxRate = decimal.RequireFromString("0.20")

// Company is the issuer printed in the header and footer.
type Company struct {
	Name    string
	Tagline string
	Address string
	Phone   string
	Email   string
	Website string
	SIRET   string
	VATID   string
}

// Party is one side of the billed-to / shipped-to block.
type Party struct {
	Name    string
	Email   string
	Address *domain.Address
}

// Invoice is derived from an order for one render; it is never stored.
type Invoice struct {
	Number    string
	OrderID   string
	IssueDate time.Time
	DueDate   time.Time
	BilledTo  Party
	ShippedTo Party
	Items     []domain.LineItem
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// FromOrder computes the invoice fields. Tax is back-computed from the
// tax-inclusive total: subtotal = total / (1 + rate), tax = total - subtotal.
func FromOrder(o domain.Order, number string) Invoice {
	total := o.ItemsTotal()
	subtotal := total.Div(decimal.NewFromInt(1).Add(TaxRate))

	name := strings.TrimSpace(o.CustomerName)
	if name == "" {
		name = "Client"
	}
	addr := normalizeAddress(o.ShippingAddress)
	party := Party{Name: name, Email: o.CustomerEmail, Address: addr}

	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)

	return Invoice{
		Number:    number,
		OrderID:   o.ID,
		IssueDate: o.CreatedAt,
		DueDate:   o.CreatedAt.AddDate(0, 0, PaymentTermDays),
		BilledTo:  party,
		ShippedTo: party,
		Items:     items,
		Subtotal:  subtotal,
		TaxRate:   TaxRate,
		Tax:       total.Sub(subtotal),
		Total:     total,
	}
}

func normalizeAddress(a *domain.Address) *domain.Address {
	if a.Blank() {
		return nil
	}
	out := domain.Address{
		Street:     strings.TrimSpace(a.Street),
		PostalCode: strings.TrimSpace(a.PostalCode),
		City:       strings.TrimSpace(a.City),
		Country:    strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return &out
}
