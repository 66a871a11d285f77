package invoice

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"batipro/internal/domain"
	"batipro/internal/format"
	"go.uber.org/zap"
)

// Page geometry in millimetres (A4 portrait).
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 15.0
	ContentWidth = PageWidth - 2*Margin

	// FooterTop never depends on content; content stops at ContentLimit.
	FooterTop    = PageHeight - 25.0
	ContentLimit = FooterTop - 5.0

	logoMaxWidth  = 60.0
	logoMaxHeight = 24.0
	titleWidth    = 70.0
	titleHeight   = 12.0

	partyTop     = 58.0
	partyLineH   = 5.0
	partyColumnW = (ContentWidth - 10) / 2

	// FirstTableTop follows the party block, which always has six lines.
	FirstTableTop = partyTop + 6*partyLineH + 8
	// NextTableTop is where the table resumes on continuation pages.
	NextTableTop = 56.0

	TableHeaderHeight = 8.0
	RowHeight         = 7.0
	cellPadding       = 2.0

	totalsGap    = 6.0
	totalsLineH  = 6.0
	totalsTotalH = 9.0
	totalsWidth  = 80.0
	// TotalsHeight is the space the totals block needs below the table.
	TotalsHeight = totalsGap + 2*totalsLineH + totalsTotalH

	notesGap    = 6.0
	notesHeight = 14.0

	// NameMaxRunes is the width budget of the article column.
	NameMaxRunes = 32
	// PartyMaxRunes is the width budget of a billed-to or shipped-to line.
	PartyMaxRunes = 40
	ellipsis      = "..."
)

// ColumnFractions are the table column boundaries as fractions of ContentWidth.
var ColumnFractions = [5]float64{0, 0.50, 0.64, 0.82, 1}

// PlaceholderAddress replaces a missing or blank address.
var PlaceholderAddress = [3]string{"Adresse non spécifiée", "Veuillez nous contacter", "pour la livraison"}

var (
	brandColor = Color{196, 90, 17}
	textColor  = Color{33, 37, 41}
	mutedColor = Color{108, 117, 125}
	zebraColor = Color{245, 243, 240}
	ruleColor  = Color{206, 212, 218}
	white      = Color{255, 255, 255}
)

// RenderError reports a failure of the drawing backend or of a mandatory field.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render invoice: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// PagePlan says which rows and blocks go on one page.
type PagePlan struct {
	First, End int
	Table      bool
	Totals     bool
}

// Paginate distributes rows over pages so nothing crosses ContentLimit.
func Paginate(rows int) []PagePlan {
	var pages []PagePlan
	top := FirstTableTop
	for i := 0; ; {
		capacity := int(math.Floor((ContentLimit - top - TableHeaderHeight) / RowHeight))
		remaining := rows - i
		if remaining > capacity {
			pages = append(pages, PagePlan{First: i, End: i + capacity, Table: true})
			i += capacity
			top = NextTableTop
			continue
		}
		table := remaining > 0 || rows == 0
		end := top
		if table {
			end += TableHeaderHeight + float64(remaining)*RowHeight
		}
		if end+TotalsHeight <= ContentLimit {
			pages = append(pages, PagePlan{First: i, End: rows, Table: table, Totals: true})
		} else {
			pages = append(pages,
				PagePlan{First: i, End: rows, Table: table},
				PagePlan{First: rows, End: rows, Totals: true},
			)
		}
		return pages
	}
}

// TruncateName shortens article names that exceed the column budget.
func TruncateName(name string) string {
	return clip(name, NameMaxRunes)
}

// TruncateParty shortens a party block line so it stays inside its column.
func TruncateParty(s string) string {
	return clip(s, PartyMaxRunes)
}

func clip(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// FitBox scales (w, h) uniformly so it fits inside (maxW, maxH).
func FitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := math.Min(maxW/w, maxH/h)
	return w * scale, h * scale
}

func columnX(i int) float64 {
	return Margin + ColumnFractions[i]*ContentWidth
}

// Engine lays invoices out on a Canvas.
type Engine struct {
	Company   Company
	Formatter *format.Formatter
	Assets    AssetLoader
	LogoName  string
	NewCanvas CanvasFactory
	Logger    *zap.Logger
}

type header struct {
	number  string
	issue   string
	due     string
	logo    string
	logoW   float64
	logoH   float64
	hasLogo bool
}

// Render draws inv and returns the encoded document. Missing logo or address
// data never fails the render.
func (e *Engine) Render(ctx context.Context, inv Invoice) ([]byte, error) {
	if e.Formatter == nil {
		return nil, &RenderError{Op: "setup", Err: fmt.Errorf("formatter not configured")}
	}
	issue, err := e.Formatter.Date(inv.IssueDate)
	if err != nil {
		return nil, &RenderError{Op: "issue date", Err: err}
	}
	due, err := e.Formatter.Date(inv.DueDate)
	if err != nil {
		return nil, &RenderError{Op: "due date", Err: err}
	}

	newCanvas := e.NewCanvas
	if newCanvas == nil {
		newCanvas = func() Canvas { return NewPDFCanvas(PDFOptions{Title: "Facture " + inv.Number}) }
	}
	c := newCanvas()

	pages := Paginate(len(inv.Items))
	h := header{number: inv.Number, issue: issue, due: due}
	logoData := e.loadLogo(ctx)

	for i, p := range pages {
		c.AddPage()
		if i == 0 && logoData != nil {
			h.logo = "logo"
			w, ht, err := c.RegisterImage(h.logo, logoData)
			if err != nil {
				e.logger().Warn("invoice logo unreadable, using text header", zap.Error(err))
			} else {
				h.logoW, h.logoH = FitBox(w, ht, logoMaxWidth, logoMaxHeight)
				h.hasLogo = h.logoW > 0
			}
		}
		e.drawHeader(c, h)

		y := NextTableTop
		if i == 0 {
			e.drawParties(c, inv)
			y = FirstTableTop
		}
		if p.Table {
			y = e.drawTable(c, inv.Items, p.First, p.End, y)
		}
		if p.Totals {
			y = e.drawTotals(c, inv, y+totalsGap)
			if y+notesGap+notesHeight <= ContentLimit {
				e.drawNotes(c, inv, y+notesGap)
			}
		}
		e.drawFooter(c, i+1, len(pages))
	}

	out, err := c.Bytes()
	if err != nil {
		return nil, &RenderError{Op: "encode", Err: err}
	}
	return out, nil
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Engine) loadLogo(ctx context.Context) []byte {
	if e.Assets == nil || e.LogoName == "" {
		return nil
	}
	data, err := e.Assets.Load(ctx, e.LogoName)
	if err != nil {
		e.logger().Info("invoice logo not loaded, using text header", zap.String("asset", e.LogoName), zap.Error(err))
		return nil
	}
	return data
}

func (e *Engine) drawHeader(c Canvas, h header) {
	if h.hasLogo {
		c.DrawImage(h.logo, Margin, Margin, h.logoW, h.logoH)
	} else {
		c.SetTextColor(brandColor)
		c.SetFont(Bold, 22)
		c.Text(Margin, Margin+1, 100, 10, AlignLeft, e.Company.Name)
		if e.Company.Tagline != "" {
			c.SetTextColor(mutedColor)
			c.SetFont(Italic, 9)
			c.Text(Margin, Margin+12, 100, 5, AlignLeft, e.Company.Tagline)
		}
	}

	x := PageWidth - Margin - titleWidth
	c.SetFillColor(brandColor)
	c.Rect(x, Margin, titleWidth, titleHeight, true)
	c.SetTextColor(white)
	c.SetFont(Bold, 18)
	c.Text(x, Margin, titleWidth, titleHeight, AlignCenter, "FACTURE")

	c.SetTextColor(textColor)
	c.SetFont(Regular, 9)
	c.Text(x, 30, titleWidth, 5, AlignRight, "N° "+h.number)
	c.Text(x, 35, titleWidth, 5, AlignRight, "Date : "+h.issue)
	c.Text(x, 40, titleWidth, 5, AlignRight, "Échéance : "+h.due)
}

func (e *Engine) drawParties(c Canvas, inv Invoice) {
	e.drawParty(c, Margin, "FACTURÉ À", inv.BilledTo)
	e.drawParty(c, Margin+partyColumnW+10, "LIVRÉ À", inv.ShippedTo)
}

func (e *Engine) drawParty(c Canvas, x float64, title string, p Party) {
	y := partyTop
	c.SetTextColor(brandColor)
	c.SetFont(Bold, 10)
	c.Text(x, y, partyColumnW, partyLineH, AlignLeft, title)

	c.SetTextColor(textColor)
	c.SetFont(Bold, 9)
	y += partyLineH
	c.Text(x, y, partyColumnW, partyLineH, AlignLeft, TruncateParty(p.Name))

	c.SetFont(Regular, 9)
	y += partyLineH
	c.Text(x, y, partyColumnW, partyLineH, AlignLeft, TruncateParty(p.Email))

	for _, line := range AddressLines(p.Address) {
		y += partyLineH
		c.Text(x, y, partyColumnW, partyLineH, AlignLeft, TruncateParty(line))
	}
}

// AddressLines returns the printable lines of a, or the placeholder.
func AddressLines(a *domain.Address) []string {
	if a.Blank() {
		return PlaceholderAddress[:]
	}
	lines := []string{strings.TrimSpace(a.Street)}
	if city := strings.TrimSpace(strings.TrimSpace(a.PostalCode) + " " + strings.TrimSpace(a.City)); city != "" {
		lines = append(lines, city)
	}
	if country := strings.TrimSpace(a.Country); country != "" {
		lines = append(lines, country)
	}
	return lines
}

func (e *Engine) drawTable(c Canvas, items []domain.LineItem, first, end int, top float64) float64 {
	c.SetFillColor(brandColor)
	c.Rect(Margin, top, ContentWidth, TableHeaderHeight, true)
	c.SetTextColor(white)
	c.SetFont(Bold, 9)
	headings := [4]string{"Article", "Qté", "Prix unitaire", "Total"}
	aligns := [4]Align{AlignLeft, AlignCenter, AlignRight, AlignRight}
	for col := range headings {
		e.cell(c, col, top, TableHeaderHeight, aligns[col], headings[col])
	}

	y := top + TableHeaderHeight
	c.SetFont(Regular, 9)
	c.SetTextColor(textColor)
	for i := first; i < end; i++ {
		it := items[i]
		if i%2 == 1 {
			c.SetFillColor(zebraColor)
			c.Rect(Margin, y, ContentWidth, RowHeight, true)
		}
		e.cell(c, 0, y, RowHeight, aligns[0], TruncateName(it.Name))
		e.cell(c, 1, y, RowHeight, aligns[1], strconv.Itoa(it.Quantity))
		e.cell(c, 2, y, RowHeight, aligns[2], e.Formatter.Currency(it.Price))
		e.cell(c, 3, y, RowHeight, aligns[3], e.Formatter.Currency(it.Subtotal()))
		y += RowHeight
	}

	c.SetDrawColor(ruleColor)
	c.Line(Margin, top, Margin+ContentWidth, top)
	c.Line(Margin, y, Margin+ContentWidth, y)
	for i := range ColumnFractions {
		c.Line(columnX(i), top, columnX(i), y)
	}
	return y
}

func (e *Engine) cell(c Canvas, col int, y, h float64, align Align, s string) {
	x := columnX(col) + cellPadding
	w := columnX(col+1) - columnX(col) - 2*cellPadding
	c.Text(x, y, w, h, align, s)
}

func (e *Engine) drawTotals(c Canvas, inv Invoice, y float64) float64 {
	x := PageWidth - Margin - totalsWidth
	labelW := totalsWidth * 0.55
	valueW := totalsWidth - labelW - cellPadding

	c.SetTextColor(textColor)
	c.SetFont(Regular, 9)
	c.Text(x+cellPadding, y, labelW, totalsLineH, AlignLeft, "Sous-total HT")
	c.Text(x+labelW, y, valueW, totalsLineH, AlignRight, e.Formatter.Currency(inv.Subtotal))
	y += totalsLineH
	c.Text(x+cellPadding, y, labelW, totalsLineH, AlignLeft, "TVA ("+e.Formatter.Percent(inv.TaxRate)+")")
	c.Text(x+labelW, y, valueW, totalsLineH, AlignRight, e.Formatter.Currency(inv.Tax))
	y += totalsLineH

	c.SetFillColor(brandColor)
	c.Rect(x, y, totalsWidth, totalsTotalH, true)
	c.SetTextColor(white)
	c.SetFont(Bold, 11)
	c.Text(x+cellPadding, y, labelW, totalsTotalH, AlignLeft, "Total TTC")
	c.Text(x+labelW, y, valueW, totalsTotalH, AlignRight, e.Formatter.Currency(inv.Total))
	return y + totalsTotalH
}

func (e *Engine) drawNotes(c Canvas, inv Invoice, y float64) {
	c.SetTextColor(textColor)
	c.SetFont(Bold, 9)
	c.Text(Margin, y, ContentWidth, 5, AlignLeft, "Notes")
	c.SetTextColor(mutedColor)
	c.SetFont(Italic, 8)
	c.Text(Margin, y+5, ContentWidth, 4.5, AlignLeft, "Merci pour votre commande n° "+inv.OrderID+".")
	contact := "Pour toute question concernant cette facture, contactez-nous"
	if e.Company.Email != "" {
		contact += " à " + e.Company.Email
	}
	c.Text(Margin, y+9.5, ContentWidth, 4.5, AlignLeft, contact+".")
}

func (e *Engine) drawFooter(c Canvas, page, total int) {
	c.SetDrawColor(ruleColor)
	c.Line(Margin, FooterTop, PageWidth-Margin, FooterTop)

	c.SetTextColor(mutedColor)
	c.SetFont(Regular, 7.5)
	lines := []string{
		joinNonEmpty(" - ", e.Company.Name, e.Company.Address),
		joinNonEmpty(" - ", prefixed("SIRET ", e.Company.SIRET), prefixed("TVA intracommunautaire ", e.Company.VATID)),
		joinNonEmpty(" | ", e.Company.Phone, e.Company.Email, e.Company.Website),
	}
	y := FooterTop + 3
	for _, line := range lines {
		if line != "" {
			c.Text(Margin, y, ContentWidth, 4, AlignCenter, line)
		}
		y += 4
	}
	c.Text(Margin, y, ContentWidth, 4, AlignRight, fmt.Sprintf("Page %d/%d", page, total))
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
