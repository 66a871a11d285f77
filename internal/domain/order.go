package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks settlement separately from fulfilment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// LineItem is one purchased article. Price is the unit price, tax included.
type LineItem struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price × quantity without rounding.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Address is a postal address. Every field is optional.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// Blank reports whether the address carries no usable street line.
func (a *Address) Blank() bool {
	return a == nil || strings.TrimSpace(a.Street) == ""
}

// Order is a completed purchase. The ID is assigned by the client at checkout.
type Order struct {
	ID              string          `json:"id"`
	Items           []LineItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerName    string          `json:"customerName,omitempty"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	InvoiceNumber   string          `json:"invoiceNumber,omitempty"`
	InvoiceSentAt   *time.Time      `json:"invoiceSentAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ItemsTotal sums line subtotals exactly.
func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range o.Items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

// InvoiceUpdate is the set of fields mutated once an invoice email went out.
type InvoiceUpdate struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	InvoiceNumber string
	SentAt        time.Time
}
