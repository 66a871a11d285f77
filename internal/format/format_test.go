package format

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func french(t *testing.T) *Formatter {
	t.Helper()
	f, err := New(language.French, "EUR", time.UTC)
	require.NoError(t, err)
	return f
}

func TestCurrency_French(t *testing.T) {
	f := french(t)
	assert.Equal(t, "22,50 €", f.Currency(decimal.RequireFromString("22.5")))
	assert.Equal(t, "18,75 €", f.Currency(decimal.RequireFromString("18.75")))
	assert.Equal(t, "0,00 €", f.Currency(decimal.Zero))
}

func TestCurrency_RoundsOnlyAtDisplay(t *testing.T) {
	f := french(t)
	third := decimal.NewFromInt(10).Div(decimal.NewFromInt(3))
	assert.Equal(t, "3,33 €", f.Currency(third))
	assert.Equal(t, "10,00 €", f.Currency(third.Mul(decimal.NewFromInt(3))))
}

func TestCurrency_English(t *testing.T) {
	f, err := New(language.English, "EUR", nil)
	require.NoError(t, err)
	assert.Equal(t, "€7.50", f.Currency(decimal.RequireFromString("7.5")))
}

func TestNew_UnknownCurrency(t *testing.T) {
	_, err := New(language.French, "XYZW", nil)
	require.Error(t, err)
}

func TestDate_French(t *testing.T) {
	f := french(t)
	got, err := f.Date(time.Date(2025, time.February, 14, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "14 février 2025", got)

	withTime, err := f.DateTime(time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "15 janvier 2025 à 10:00", withTime)
}

func TestDate_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	f, err := New(language.French, "EUR", loc)
	require.NoError(t, err)
	got, err := f.Date(time.Date(2025, time.March, 31, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "1 avril 2025", got)
}

func TestDate_ZeroTimeFails(t *testing.T) {
	f := french(t)
	_, err := f.Date(time.Time{})
	assert.True(t, errors.Is(err, ErrInvalidDate))
	_, err = f.DateTime(time.Time{})
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2025-01-15T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)))

	_, err = ParseTimestamp("2025-01-15T10:00:00.123+01:00")
	require.NoError(t, err)

	for _, bad := range []string{"", "yesterday", "2025-13-40"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestLoad(t *testing.T) {
	f, err := Load("fr-FR", "EUR", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "EUR", f.CurrencyCode())
	assert.Equal(t, time.UTC, f.Location())
	assert.Equal(t, "22,50 €", f.Currency(decimal.RequireFromString("22.5")))

	_, err = Load("xx-!!", "EUR", "UTC")
	assert.Error(t, err)
	_, err = Load("fr-FR", "EUR", "Mars/Olympus")
	assert.Error(t, err)
	_, err = Load("fr-FR", "ZZZ", "")
	assert.Error(t, err)
}
