package invoice

import (
	"testing"
	"time"

	"batipro/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cimentOrder() domain.Order {
	return domain.Order{
		ID:            "CMD-1",
		Items:         []domain.LineItem{{Name: "Ciment 25kg", Price: decimal.RequireFromString("7.50"), Quantity: 3}},
		Total:         decimal.RequireFromString("22.50"),
		CustomerEmail: "a@b.fr",
		CreatedAt:     time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestFromOrder_CimentScenario(t *testing.T) {
	inv := FromOrder(cimentOrder(), "FAC-20250115-001")

	assert.Equal(t, "22.5", inv.Total.String())
	assert.Equal(t, "18.75", inv.Subtotal.Round(2).StringFixed(2))
	assert.Equal(t, "3.75", inv.Tax.Round(2).StringFixed(2))
	assert.Equal(t, time.Date(2025, time.February, 14, 10, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Equal(t, "Client", inv.BilledTo.Name)
	assert.Nil(t, inv.ShippedTo.Address)
}

func TestFromOrder_SubtotalPlusTaxReconstructsTotal(t *testing.T) {
	totals := []string{"0.01", "9.99", "22.50", "1234.56", "100000.07"}
	for _, raw := range totals {
		o := domain.Order{Items: []domain.LineItem{{Name: "x", Price: decimal.RequireFromString(raw), Quantity: 1}}}
		inv := FromOrder(o, "N")
		assert.True(t, inv.Subtotal.Add(inv.Tax).Equal(inv.Total), raw)
		displayed := inv.Subtotal.Round(2).Add(inv.Tax.Round(2))
		assert.True(t, displayed.Sub(inv.Total).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")), raw)
	}
}

func TestFromOrder_TotalIsSumOfLines(t *testing.T) {
	o := domain.Order{Items: []domain.LineItem{
		{Name: "Parpaing 20x20x50", Price: decimal.RequireFromString("1.333"), Quantity: 3},
		{Name: "Mortier", Price: decimal.RequireFromString("0.005"), Quantity: 1},
	}}
	inv := FromOrder(o, "N")
	assert.Equal(t, "4.004", inv.Total.String())
}

func TestFromOrder_DueDateRollover(t *testing.T) {
	cases := map[time.Time]time.Time{
		time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC):  time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 10, 0, 0, 0, 0, time.UTC): time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC):  time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
	for issue, due := range cases {
		o := cimentOrder()
		o.CreatedAt = issue
		assert.Equal(t, due, FromOrder(o, "N").DueDate, issue.String())
	}
}

func TestFromOrder_AddressDefaults(t *testing.T) {
	o := cimentOrder()
	o.CustomerName = "  Jeanne Martin "
	o.ShippingAddress = &domain.Address{Street: " 4 rue du Port ", PostalCode: "44000", City: "Nantes"}
	inv := FromOrder(o, "N")
	require.NotNil(t, inv.ShippedTo.Address)
	assert.Equal(t, "4 rue du Port", inv.ShippedTo.Address.Street)
	assert.Equal(t, DefaultCountry, inv.ShippedTo.Address.Country)
	assert.Equal(t, "Jeanne Martin", inv.BilledTo.Name)
	assert.Equal(t, inv.BilledTo, inv.ShippedTo)
}

func TestFromOrder_BlankStreetIsTreatedAsMissing(t *testing.T) {
	o := cimentOrder()
	o.ShippingAddress = &domain.Address{Street: " ", City: "Lille", Country: "France"}
	assert.Nil(t, FromOrder(o, "N").BilledTo.Address)
}
