package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// PDFOptions tunes the PDF backend.
type PDFOptions struct {
	Title        string
	Author       string
	Uncompressed bool
	// CreatedAt pins the document creation date, for reproducible output.
	CreatedAt time.Time
}

type pdfCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas opens an A4 portrait document measured in millimetres.
// Text is translated from UTF-8 to the WinAnsi encoding of the core fonts.
func NewPDFCanvas(opts PDFOptions) Canvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetCreator("batipro", false)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
	}
	return &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *pdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *pdfCanvas) SetFont(style FontStyle, size float64) {
	c.pdf.SetFont(fontFamily, string(style), size)
}

func (c *pdfCanvas) SetTextColor(col Color) { c.pdf.SetTextColor(col.R, col.G, col.B) }
func (c *pdfCanvas) SetFillColor(col Color) { c.pdf.SetFillColor(col.R, col.G, col.B) }
func (c *pdfCanvas) SetDrawColor(col Color) { c.pdf.SetDrawColor(col.R, col.G, col.B) }

func (c *pdfCanvas) Text(x, y, w, h float64, align Align, s string) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.tr(s), "", 0, string(align)+"M", false, 0, "")
}

func (c *pdfCanvas) Rect(x, y, w, h float64, fill bool) {
	style := "D"
	if fill {
		style = "F"
	}
	c.pdf.Rect(x, y, w, h, style)
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.SetLineWidth(0.2)
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *pdfCanvas) RegisterImage(name string, data []byte) (float64, float64, error) {
	var imageType string
	switch mime := mimetype.Detect(data); {
	case mime.Is("image/png"):
		imageType = "PNG"
	case mime.Is("image/jpeg"):
		imageType = "JPG"
	case mime.Is("image/gif"):
		imageType = "GIF"
	default:
		return 0, 0, fmt.Errorf("unsupported image type %s", mime.String())
	}

	info := c.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}, bytes.NewReader(data))
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return 0, 0, err
	}
	if info == nil {
		return 0, 0, fmt.Errorf("image %q not registered", name)
	}
	w, h := info.Extent()
	return w, h, nil
}

func (c *pdfCanvas) DrawImage(name string, x, y, w, h float64) {
	c.pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
}

func (c *pdfCanvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
