package checkout

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"batipro/internal/domain"
	"batipro/internal/format"
	"github.com/shopspring/decimal"
)

const maxOrderIDLen = 64

var (
	// ErrInvalidOrder wraps every validation failure of a submission.
	ErrInvalidOrder = fmt.Errorf("invalid order: %w", domain.ErrInvalid)
	// ErrConflict means the order id is already taken by another customer.
	ErrConflict = errors.New("order id already used")
	// ErrPersistence means the order could not be saved; nothing else ran.
	ErrPersistence = errors.New("order not saved")
	// ErrNotDelivered is returned by Redeliver when the invoice did not go out.
	ErrNotDelivered = errors.New("invoice not delivered")
)

// SubmitRequest is the checkout payload sent by the storefront.
type SubmitRequest struct {
	OrderID         string            `json:"orderId"`
	Items           []domain.LineItem `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerName    string            `json:"customerName,omitempty"`
	ShippingAddress *domain.Address   `json:"shippingAddress,omitempty"`
	Timestamp       string            `json:"timestamp,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

// buildOrder validates req and turns it into a pending order. The stored
// total is always the exact sum of the lines.
func buildOrder(req SubmitRequest, now time.Time, newID func(time.Time) string) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, invalid("no items")
	}
	items := make([]domain.LineItem, len(req.Items))
	for i, it := range req.Items {
		it.Name = strings.TrimSpace(it.Name)
		switch {
		case it.Name == "":
			return domain.Order{}, invalid("item %d: name required", i)
		case it.Quantity <= 0:
			return domain.Order{}, invalid("item %d: quantity must be positive", i)
		case it.Price.IsNegative():
			return domain.Order{}, invalid("item %d: negative price", i)
		case !it.Price.Equal(it.Price.Round(2)):
			return domain.Order{}, invalid("item %d: price %s has sub-cent precision", i, it.Price)
		}
		items[i] = it
	}

	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Order{}, invalid("customer email required")
	}

	o := domain.Order{
		ID:              strings.TrimSpace(req.OrderID),
		Items:           items,
		CustomerEmail:   email,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		ShippingAddress: req.ShippingAddress,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       now,
	}
	o.Total = o.ItemsTotal()
	if !req.Total.Round(2).Equal(o.Total.Round(2)) {
		return domain.Order{}, invalid("total %s does not match items %s", req.Total.StringFixed(2), o.Total.StringFixed(2))
	}

	if req.Timestamp != "" {
		ts, err := format.ParseTimestamp(req.Timestamp)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		}
		o.CreatedAt = ts.UTC()
	}

	if len(o.ID) > maxOrderIDLen {
		return domain.Order{}, invalid("order id longer than %d characters", maxOrderIDLen)
	}
	if o.ID == "" {
		o.ID = newID(now)
	}
	return o, nil
}

// NewOrderID returns CMD-<unix millis>-<6 base-36 chars>.
func NewOrderID(now time.Time) string {
	const space = 36 * 36 * 36 * 36 * 36 * 36
	suffix := strconv.FormatInt(rand.Int64N(space), 36)
	suffix = strings.Repeat("0", 6-len(suffix)) + suffix
	return fmt.Sprintf("CMD-%d-%s", now.UnixMilli(), suffix)
}
