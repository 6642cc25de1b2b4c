// Package layout breaks a paragraph into lines that fit a frame and
// positions every word on them, either left-aligned or justified.
//
// Coordinates follow the PDF convention: y grows upwards, so every new
// line sits one LineHeight below the previous one.
package layout

import "strings"

// Metrics measures text set in one font.
type Metrics interface {
	WidthOfTextAtSize(text string, size float64) float64
}

// Paragraph is a run of text in a single font and size.
type Paragraph struct {
	Text string
	Font Metrics
	Size float64
}

// Frame is the horizontal band a paragraph is laid out in.
//
// When FirstWidth is set, the first line starts at FirstX and is at most
// FirstWidth wide; every following line uses X and Width.
type Frame struct {
	X          float64
	Width      float64
	LineHeight float64
	FirstX     float64
	FirstWidth float64
}

// Indent returns a copy of f whose first line starts at x and is at most
// width wide.
func (f Frame) Indent(x, width float64) Frame {
	f.FirstX = x
	f.FirstWidth = width
	return f
}

func (f Frame) bounds(first bool) (x, width float64) {
	if first && f.FirstWidth > 0 {
		return f.FirstX, f.FirstWidth
	}
	return f.X, f.Width
}

// Line is one laid out line: each word with the x it starts at.
type Line struct {
	Words     []string
	X         []float64
	Y         float64
	Justified bool
}

// Text returns the words of the line separated by single spaces.
func (l Line) Text() string {
	return strings.Join(l.Words, " ")
}

// Wrap greedily fills lines and leaves every one of them left-aligned.
// It returns the lines and the y one line below the last of them.
func Wrap(p Paragraph, f Frame, y float64) ([]Line, float64) {
	return layout(p, f, y, false)
}

// Justify lays out like Wrap but stretches the gaps of every line except
// the last so that it spans the full width of the frame. A line holding a
// single word is never stretched.
func Justify(p Paragraph, f Frame, y float64) ([]Line, float64) {
	return layout(p, f, y, true)
}

func layout(p Paragraph, f Frame, y float64, justify bool) ([]Line, float64) {
	var (
		lines   []Line
		words   []string
		pending string
	)
	for _, word := range strings.Fields(p.Text) {
		x, width := f.bounds(len(lines) == 0)
		// An empty line always takes the word, however wide it is.
		if len(words) > 0 && p.Font.WidthOfTextAtSize(pending+word+" ", p.Size) > width {
			lines = append(lines, place(p, words, x, width, y, justify))
			y -= f.LineHeight
			words, pending = nil, ""
		}
		words = append(words, word)
		pending += word + " "
	}
	if len(words) > 0 {
		x, width := f.bounds(len(lines) == 0)
		lines = append(lines, place(p, words, x, width, y, false))
		y -= f.LineHeight
	}
	return lines, y
}

func place(p Paragraph, words []string, x, width, y float64, justify bool) Line {
	line := Line{Words: words, X: make([]float64, len(words)), Y: y}
	space := p.Font.WidthOfTextAtSize(" ", p.Size)

	var extra float64
	if justify && len(words) > 1 {
		used := p.Font.WidthOfTextAtSize(line.Text(), p.Size)
		extra = (width - used) / float64(len(words)-1)
		line.Justified = true
	}

	cursor := x
	for i, w := range words {
		line.X[i] = cursor
		cursor += p.Font.WidthOfTextAtSize(w, p.Size) + space + extra
	}
	return line
}
