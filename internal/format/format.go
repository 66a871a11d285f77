// Package format renders money and dates for customer-facing documents.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidDate is returned instead of emitting a placeholder for an unusable timestamp.
var ErrInvalidDate = errors.New("invalid date")

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

var monthNames = map[string][12]string{
	"fr": {"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// WinAnsi has no narrow no-break space; PDF core fonts would drop it.
var spaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// Formatter formats amounts of a single currency for a single locale and time zone.
type Formatter struct {
	printer  *message.Printer
	lang     string
	unit     currency.Unit
	symbol   string
	location *time.Location
}

// New builds a Formatter. loc defaults to UTC.
func New(locale language.Tag, currencyCode string, loc *time.Location) (*Formatter, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", currencyCode, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	base, _ := locale.Base()
	lang := base.String()
	if _, ok := monthNames[lang]; !ok {
		lang = "en"
	}
	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String()
	}
	return &Formatter{
		printer:  message.NewPrinter(locale),
		lang:     lang,
		unit:     unit,
		symbol:   symbol,
		location: loc,
	}, nil
}

// Load parses a BCP 47 locale, an ISO 4217 code and an IANA zone name.
func Load(locale, currencyCode, timezone string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	loc := time.UTC
	if timezone != "" {
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("timezone %q: %w", timezone, err)
		}
	}
	return New(tag, currencyCode, loc)
}

// MustNew is New for static configuration; it panics on error.
func MustNew(locale language.Tag, currencyCode string, loc *time.Location) *Formatter {
	f, err := New(locale, currencyCode, loc)
	if err != nil {
		panic(err)
	}
	return f
}

// CurrencyCode returns the ISO 4217 code.
func (f *Formatter) CurrencyCode() string {
	return f.unit.String()
}

// Location returns the time zone dates are printed in.
func (f *Formatter) Location() *time.Location {
	return f.location
}

// Currency rounds to two decimals and adds the currency symbol.
func (f *Formatter) Currency(amount decimal.Decimal) string {
	digits := f.number(amount.Round(2))
	if f.lang == "en" {
		if strings.HasPrefix(digits, "-") {
			return "-" + f.symbol + strings.TrimPrefix(digits, "-")
		}
		return f.symbol + digits
	}
	return digits + " " + f.symbol
}

// Percent renders a rate given as a fraction (0.20 → "20 %").
func (f *Formatter) Percent(rate decimal.Decimal) string {
	pct := rate.Mul(decimal.NewFromInt(100))
	s := spaces.Replace(f.printer.Sprint(number.Decimal(pct.InexactFloat64())))
	if f.lang == "en" {
		return s + "%"
	}
	return s + " %"
}

// Date renders t as a long-form date, e.g. "15 janvier 2025".
func (f *Formatter) Date(t time.Time) (string, error) {
	if t.IsZero() {
		return "", ErrInvalidDate
	}
	t = t.In(f.location)
	month := monthNames[f.lang][t.Month()-1]
	if f.lang == "en" {
		return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year()), nil
	}
	return fmt.Sprintf("%d %s %d", t.Day(), month, t.Year()), nil
}

// DateTime renders the long-form date followed by the 24h time.
func (f *Formatter) DateTime(t time.Time) (string, error) {
	d, err := f.Date(t)
	if err != nil {
		return "", err
	}
	clock := t.In(f.location).Format("15:04")
	if f.lang == "en" {
		return d + " at " + clock, nil
	}
	return d + " à " + clock, nil
}

func (f *Formatter) number(d decimal.Decimal) string {
	return spaces.Replace(f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2))))
}

// ParseTimestamp parses an RFC 3339 timestamp, with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidDate)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
