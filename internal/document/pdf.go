package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"engagement/internal/domain"
	"engagement/internal/layout"
)

// LogoImage is the name the logo is registered under.
const LogoImage = "logo"

const signatureFamily = "signature"

// PDF wraps an fpdf document holding the fonts and images of an agreement.
// It measures text for the layout engine and replays pages onto fpdf.
// A PDF is used by a single request and is not safe for concurrent use.
type PDF struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// Metadata is written into the document information dictionary.
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Created time.Time
}

// NewPDF creates a document with the standard Helvetica faces, the given
// TrueType signature font and the given PNG logo.
func NewPDF(signatureFont, logoPNG []byte) (p *PDF, err error) {
	// fpdf can panic on malformed font tables.
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("load assets: %v", r)
		}
	}()

	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)

	f.AddUTF8FontFromBytes(signatureFamily, "", signatureFont)
	// A font fpdf cannot parse is only reported once it is selected.
	f.SetFont(signatureFamily, "", 12)
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("signature font: %w", err)
	}

	f.RegisterImageOptionsReader(LogoImage, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(logoPNG))
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}

	return &PDF{pdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}, nil
}

// SetMetadata sets the document information dictionary.
func (p *PDF) SetMetadata(m Metadata) {
	p.pdf.SetTitle(m.Title, true)
	p.pdf.SetAuthor(m.Author, true)
	p.pdf.SetSubject(m.Subject, true)
	p.pdf.SetCreator("engagement", false)
	if !m.Created.IsZero() {
		p.pdf.SetCreationDate(m.Created)
	}
}

// Metrics returns the text measurer of the given style.
func (p *PDF) Metrics(style FontStyle) layout.Metrics {
	return metrics{pdf: p, style: style}
}

type metrics struct {
	pdf   *PDF
	style FontStyle
}

func (m metrics) WidthOfTextAtSize(text string, size float64) float64 {
	m.pdf.setFont(m.style, size)
	return m.pdf.pdf.GetStringWidth(m.pdf.encode(m.style, text))
}

func (p *PDF) setFont(style FontStyle, size float64) {
	switch style {
	case Bold:
		p.pdf.SetFont("Helvetica", "B", size)
	case Italic:
		p.pdf.SetFont("Helvetica", "I", size)
	case Signature:
		p.pdf.SetFont(signatureFamily, "", size)
	default:
		p.pdf.SetFont("Helvetica", "", size)
	}
}

// encode converts text to the byte encoding the face expects: cp1252 for
// the core Helvetica faces, UTF-8 for the embedded signature font.
func (p *PDF) encode(style FontStyle, text string) string {
	if style == Signature {
		return text
	}
	return p.tr(text)
}

// Encodable reports whether text can be set in the core Helvetica faces,
// which only cover Windows-1252.
func Encodable(text string) bool {
	for _, r := range text {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// Render draws every page of doc and returns the serialized document.
// Text the core faces cannot print fails with domain.ErrUnsupportedText
// instead of being substituted.
func (p *PDF) Render(doc *Document) ([]byte, error) {
	for i, page := range doc.Pages {
		for _, op := range page.Ops {
			if t, ok := op.(TextOp); ok && t.Run.Style != Signature && !Encodable(t.Run.Text) {
				return nil, fmt.Errorf("%w: %s text on page %d", domain.ErrUnsupportedText, t.Run.Style, i+1)
			}
		}
	}

	for _, page := range doc.Pages {
		p.pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})
		for _, op := range page.Ops {
			op.render(p, page.Height)
		}
	}
	if err := p.pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fpdf measures y from the top of the page.

func (t TextOp) render(w *PDF, pageHeight float64) {
	w.setFont(t.Run.Style, t.Run.Size)
	w.pdf.SetTextColor(t.Color.rgb())
	w.pdf.Text(t.X, pageHeight-t.Y, w.encode(t.Run.Style, t.Run.Text))
}

func (r RectOp) render(w *PDF, pageHeight float64) {
	w.pdf.SetFillColor(r.Fill.rgb())
	w.pdf.SetDrawColor(r.Border.rgb())
	w.pdf.SetLineWidth(r.BorderWidth)
	w.pdf.Rect(r.X, pageHeight-r.Y-r.H, r.W, r.H, "FD")
}

func (l LineOp) render(w *PDF, pageHeight float64) {
	w.pdf.SetDrawColor(l.Color.rgb())
	w.pdf.SetLineWidth(l.Thickness)
	w.pdf.Line(l.X1, pageHeight-l.Y1, l.X2, pageHeight-l.Y2)
}

func (i ImageOp) render(w *PDF, pageHeight float64) {
	w.pdf.ImageOptions(i.Name, i.X, pageHeight-i.Y-i.H, i.W, i.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}
