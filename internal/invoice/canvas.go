package invoice

// Align is a horizontal text alignment inside a cell.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// FontStyle selects a face of the document font.
type FontStyle string

const (
	Regular FontStyle = ""
	Bold    FontStyle = "B"
	Italic  FontStyle = "I"
)

// Color is an RGB triple with components in [0, 255].
type Color struct{ R, G, B int }

// Canvas is the drawing surface of one document. Coordinates are millimetres
// from the top-left corner of the current page.
type Canvas interface {
	AddPage()
	SetFont(style FontStyle, size float64)
	SetTextColor(c Color)
	SetFillColor(c Color)
	SetDrawColor(c Color)
	// Text writes s in the w×h cell whose top-left corner is (x, y).
	Text(x, y, w, h float64, align Align, s string)
	Rect(x, y, w, h float64, fill bool)
	Line(x1, y1, x2, y2 float64)
	// RegisterImage decodes data and returns its natural size.
	RegisterImage(name string, data []byte) (w, h float64, err error)
	DrawImage(name string, x, y, w, h float64)
	Bytes() ([]byte, error)
}

// CanvasFactory opens a new blank A4 document.
type CanvasFactory func() Canvas
