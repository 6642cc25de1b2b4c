// Package agreement composes the two-page membership agreement from a
// submission and serializes it to PDF.
package agreement

import (
	"fmt"
	"strings"
	"time"

	"engagement/internal/document"
	"engagement/internal/domain"
	"engagement/internal/layout"
)

const (
	marginLeft = 60.0
	maxWidth   = 480.0
	lineHeight = 18.0

	bodySize    = 12.0
	sectionSize = 14.0
	titleSize   = 16.0

	logoSize = 120.0
	logoY    = 700.0

	page1Top = 650.0
	page2Top = 780.0

	checkboxSize = 10.0
	checkboxGap  = 5.0
	bulletIndent = 15.0

	signatureSize    = 40.0
	signatureOffsetX = 150.0
	signatureOffsetY = 20.0
)

var (
	checkGreen     = document.Color{G: 0.7}
	signatureColor = document.Color{G: 0.5, B: 0.8}
)

// Fonts provides a text measurer per font style.
type Fonts interface {
	Metrics(style document.FontStyle) layout.Metrics
}

// Composer builds agreements. It holds no per-request state and can be
// shared between requests.
type Composer struct {
	Assets      document.AssetSource
	Association Association
	Now         func() time.Time
}

// NewComposer returns a Composer reading its assets from assets.
func NewComposer(assets document.AssetSource, association Association) *Composer {
	return &Composer{Assets: assets, Association: association, Now: time.Now}
}

// Compose renders the agreement of sub to PDF bytes. Any unreadable asset
// aborts the composition with an error wrapping domain.ErrAsset; fields the
// core fonts cannot print yield a *domain.UnsupportedTextError.
func (c *Composer) Compose(sub domain.Submission) ([]byte, error) {
	if err := sub.CheckText(document.Encodable); err != nil {
		return nil, err
	}

	font, err := c.Assets.Font()
	if err != nil {
		return nil, err
	}
	logo, err := c.Assets.Logo()
	if err != nil {
		return nil, err
	}

	pdf, err := document.NewPDF(font, logo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAsset, err)
	}
	meta := document.Metadata{
		Title:   "Engagement " + sub.FullName(),
		Author:  c.Association.Name,
		Subject: strings.Join(titleLines, " "),
	}
	if c.Now != nil {
		meta.Created = c.Now()
	}
	pdf.SetMetadata(meta)

	out, err := pdf.Render(Build(sub, pdf, c.Association))
	if err != nil {
		return nil, fmt.Errorf("render agreement: %w", err)
	}
	return out, nil
}

// Build lays out both pages of the agreement without serializing them.
func Build(sub domain.Submission, fonts Fonts, a Association) *document.Document {
	w := &writer{fonts: fonts}

	w.page = document.NewPage()
	first := w.page
	w.identityPage(sub, a)

	w.page = document.NewPage()
	second := w.page
	w.commitmentPage(sub, a)

	return &document.Document{Pages: []*document.Page{first, second}}
}

// writer draws onto the current page and tracks the vertical cursor.
type writer struct {
	fonts Fonts
	page  *document.Page
	y     float64
}

func (w *writer) width(style document.FontStyle, text string, size float64) float64 {
	return w.fonts.Metrics(style).WidthOfTextAtSize(text, size)
}

func (w *writer) text(text string, style document.FontStyle, size, x float64) {
	w.page.DrawText(document.TextRun{Text: text, Style: style, Size: size}, x, w.y, document.Black)
}

func (w *writer) frame() layout.Frame {
	return layout.Frame{X: marginLeft, Width: maxWidth, LineHeight: lineHeight}
}

func (w *writer) wrap(text string, style document.FontStyle, size float64) {
	lines, y := layout.Wrap(layout.Paragraph{Text: text, Font: w.fonts.Metrics(style), Size: size}, w.frame(), w.y)
	w.page.DrawLines(lines, style, size, document.Black)
	w.y = y
}

func (w *writer) justify(text string, frame layout.Frame) {
	lines, y := layout.Justify(layout.Paragraph{Text: text, Font: w.fonts.Metrics(document.Regular), Size: bodySize}, frame, w.y)
	w.page.DrawLines(lines, document.Regular, bodySize, document.Black)
	w.y = y
}

func (w *writer) centeredTitle(text string) {
	x := (w.page.Width - w.width(document.Bold, text, titleSize)) / 2
	w.text(text, document.Bold, titleSize, x)
	w.y -= lineHeight * 1.2
}

func (w *writer) section(text string) {
	w.text(text, document.Bold, sectionSize, marginLeft)
	w.y -= lineHeight * 1.2
}

// field draws a regular label followed by an italic value on one line.
func (w *writer) field(label, value string) {
	w.text(label, document.Regular, bodySize, marginLeft)
	w.text(value, document.Italic, bodySize, marginLeft+w.width(document.Regular, label, bodySize))
	w.y -= lineHeight
}

func (w *writer) identityPage(sub domain.Submission, a Association) {
	w.page.DrawImage(document.LogoImage, (w.page.Width-logoSize)/2, logoY, logoSize, logoSize)

	w.y = page1Top
	for _, t := range titleLines {
		w.centeredTitle(t)
	}
	w.y -= lineHeight * 0.5

	w.wrap("Association "+a.Name, document.Bold, bodySize)
	w.wrap("E-mail : "+a.Email, document.Regular, bodySize)
	w.y -= lineHeight

	w.section(identitySection)
	w.field("• Nom et prénom : ", sub.ReversedName())
	w.field("• Adresse e-mail : ", sub.Email)
	w.field("• Pseudonyme Discord (si applicable) : ", sub.Discord)
	w.y -= lineHeight * 0.5

	w.section(declarationSection)
	w.declaration(sub.FullName(), declarationSuffix(a))

	for _, doc := range documentList {
		w.text("- ", document.Regular, bodySize, marginLeft)
		w.text(doc, document.Bold, bodySize, marginLeft+bulletIndent)
		w.y -= lineHeight
	}

	w.y -= lineHeight * 0.5
	for _, p := range acceptanceParagraphs(a) {
		w.justify(p, w.frame())
	}
}

// declaration sets prefix, italic name and suffix on one line when they
// fit; otherwise the suffix moves to the next line without its leading
// comma.
func (w *writer) declaration(name, suffix string) {
	prefixWidth := w.width(document.Regular, declarationPrefix, bodySize)
	nameWidth := w.width(document.Italic, name, bodySize)
	suffixWidth := w.width(document.Regular, suffix, bodySize)

	w.text(declarationPrefix, document.Regular, bodySize, marginLeft)
	w.text(name, document.Italic, bodySize, marginLeft+prefixWidth)

	if prefixWidth+nameWidth+suffixWidth > maxWidth {
		w.y -= lineHeight
		w.text(strings.TrimLeft(suffix, ", "), document.Regular, bodySize, marginLeft)
	} else {
		w.text(suffix, document.Regular, bodySize, marginLeft+prefixWidth+nameWidth)
	}
	w.y -= lineHeight
}

func (w *writer) commitmentPage(sub domain.Submission, a Association) {
	w.y = page2Top
	w.section(commitmentSection)

	textX := marginLeft + checkboxSize + checkboxGap
	for _, c := range commitments(a) {
		w.checkbox(marginLeft, w.y-checkboxSize/2)
		w.justify(c, w.frame().Indent(textX, maxWidth-checkboxSize-checkboxGap))
		w.y -= lineHeight * 0.3
	}

	w.section(signatureSection)
	w.field(cityLabel, sub.City)
	w.field(dateLabel, sub.Date)
	w.y -= lineHeight * 0.5

	w.text(signatureCaption, document.Regular, bodySize, marginLeft)
	w.page.DrawText(
		document.TextRun{Text: sub.FullName(), Style: document.Signature, Size: signatureSize},
		marginLeft+signatureOffsetX, w.y-signatureOffsetY, signatureColor,
	)
}

// checkbox draws a ticked box whose lower-left corner is (x, y).
func (w *writer) checkbox(x, y float64) {
	w.page.DrawRect(document.RectOp{
		X: x, Y: y, W: checkboxSize, H: checkboxSize,
		Fill: document.White, Border: checkGreen, BorderWidth: 1,
	})
	w.page.DrawLine(document.LineOp{
		X1: x + 2, Y1: y + checkboxSize/2, X2: x + 4, Y2: y + 2,
		Thickness: 1.5, Color: checkGreen,
	})
	w.page.DrawLine(document.LineOp{
		X1: x + 4, Y1: y + 2, X2: x + checkboxSize - 2, Y2: y + checkboxSize - 2,
		Thickness: 1.5, Color: checkGreen,
	})
}
