// Package document holds pages as ordered lists of drawing operations and
// serializes them to PDF with go-pdf/fpdf.
//
// Pages use PDF user space: points, origin at the bottom-left corner.
package document

import "engagement/internal/layout"

// A4 page size in points.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
)

// FontStyle selects one of the four faces an agreement is set in.
type FontStyle int

const (
	Regular FontStyle = iota
	Bold
	Italic
	Signature
)

func (s FontStyle) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Signature:
		return "signature"
	default:
		return "regular"
	}
}

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	Black = Color{}
	White = Color{R: 1, G: 1, B: 1}
)

func (c Color) rgb() (int, int, int) {
	scale := func(v float64) int {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return int(v*255 + 0.5)
	}
	return scale(c.R), scale(c.G), scale(c.B)
}

// TextRun is a piece of text in one style and size.
type TextRun struct {
	Text  string
	Style FontStyle
	Size  float64
}

// Op is a single drawing operation on a page.
type Op interface {
	render(w *PDF, pageHeight float64)
}

// TextOp draws a run with its baseline starting at (X, Y).
type TextOp struct {
	Run   TextRun
	X, Y  float64
	Color Color
}

// RectOp draws a filled and stroked rectangle whose lower-left corner is (X, Y).
type RectOp struct {
	X, Y, W, H  float64
	Fill        Color
	Border      Color
	BorderWidth float64
}

// LineOp strokes a segment.
type LineOp struct {
	X1, Y1, X2, Y2 float64
	Thickness      float64
	Color          Color
}

// ImageOp places a registered image with its lower-left corner at (X, Y).
type ImageOp struct {
	Name       string
	X, Y, W, H float64
}

// Page is a fixed-size page and the operations drawn on it, in order.
type Page struct {
	Width  float64
	Height float64
	Ops    []Op
}

// NewPage returns an empty A4 page.
func NewPage() *Page {
	return &Page{Width: PageWidth, Height: PageHeight}
}

// DrawText draws run with its baseline starting at (x, y).
func (p *Page) DrawText(run TextRun, x, y float64, c Color) {
	p.Ops = append(p.Ops, TextOp{Run: run, X: x, Y: y, Color: c})
}

// DrawRect draws a filled and stroked rectangle.
func (p *Page) DrawRect(op RectOp) {
	p.Ops = append(p.Ops, op)
}

// DrawLine strokes a straight line.
func (p *Page) DrawLine(op LineOp) {
	p.Ops = append(p.Ops, op)
}

// DrawImage places the registered image name with its lower-left corner at
// (x, y), scaled to w by h.
func (p *Page) DrawImage(name string, x, y, w, h float64) {
	p.Ops = append(p.Ops, ImageOp{Name: name, X: x, Y: y, W: w, H: h})
}

// DrawLines draws laid out lines. Justified lines are drawn word by word at
// their stretched positions, the others as a single run.
func (p *Page) DrawLines(lines []layout.Line, style FontStyle, size float64, c Color) {
	for _, l := range lines {
		if !l.Justified {
			p.DrawText(TextRun{Text: l.Text(), Style: style, Size: size}, l.X[0], l.Y, c)
			continue
		}
		for i, w := range l.Words {
			p.DrawText(TextRun{Text: w, Style: style, Size: size}, l.X[i], l.Y, c)
		}
	}
}

// Texts returns the text operations of the page in drawing order.
func (p *Page) Texts() []TextOp {
	var out []TextOp
	for _, op := range p.Ops {
		if t, ok := op.(TextOp); ok {
			out = append(out, t)
		}
	}
	return out
}

// Document is an ordered list of pages.
type Document struct {
	Pages []*Page
}
