package agreement

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goitalic"

	"engagement/internal/document"
	"engagement/internal/domain"
	"engagement/internal/layout"
)

// monoFonts gives every rune a width of factor × size, whatever the style.
type monoFonts float64

func (f monoFonts) Metrics(document.FontStyle) layout.Metrics { return f }

func (f monoFonts) WidthOfTextAtSize(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * float64(f)
}

var duck23 = Association{Name: "DUCK23", Email: "duck23.asso@gmail.com"}

func alice() domain.Submission {
	return domain.Submission{
		FirstName: "Alice",
		LastName:  "Martin",
		Email:     "a@x.com",
		Date:      "2024-01-01",
		City:      "Paris",
		Discord:   "alice#1",
	}
}

func findText(t *testing.T, p *document.Page, text string) document.TextOp {
	t.Helper()
	for _, op := range p.Texts() {
		if op.Run.Text == text {
			return op
		}
	}
	t.Fatalf("text %q not drawn", text)
	return document.TextOp{}
}

func textsAt(p *document.Page, y float64) []document.TextOp {
	var out []document.TextOp
	for _, op := range p.Texts() {
		if op.Y > y-1e-6 && op.Y < y+1e-6 {
			out = append(out, op)
		}
	}
	return out
}

func minX(ops []document.TextOp) float64 {
	m := ops[0].X
	for _, op := range ops[1:] {
		if op.X < m {
			m = op.X
		}
	}
	return m
}

func TestBuild_TwoA4Pages(t *testing.T) {
	doc := Build(alice(), monoFonts(0.5), duck23)

	require.Len(t, doc.Pages, 2)
	for _, p := range doc.Pages {
		assert.Equal(t, 595.28, p.Width)
		assert.Equal(t, 841.89, p.Height)
		assert.NotEmpty(t, p.Ops)
	}
}

func TestBuild_FirstPageHeader(t *testing.T) {
	page := Build(alice(), monoFonts(0.5), duck23).Pages[0]

	logo, ok := page.Ops[0].(document.ImageOp)
	require.True(t, ok, "logo is drawn first")
	assert.Equal(t, document.LogoImage, logo.Name)
	assert.InDelta(t, (595.28-120)/2, logo.X, 1e-9)
	assert.Equal(t, 700.0, logo.Y)

	title := findText(t, page, titleLines[0])
	assert.Equal(t, document.Bold, title.Run.Style)
	assert.Equal(t, 650.0, title.Y)
	width := float64(utf8.RuneCountInString(titleLines[0])) * titleSize * 0.5
	assert.InDelta(t, (595.28-width)/2, title.X, 1e-9)

	assert.Equal(t, document.Bold, findText(t, page, "Association DUCK23").Run.Style)
	assert.Equal(t, document.Regular, findText(t, page, "E-mail : duck23.asso@gmail.com").Run.Style)
}

func TestBuild_IdentityFieldsUseLabelWidth(t *testing.T) {
	page := Build(alice(), monoFonts(0.5), duck23).Pages[0]

	label := findText(t, page, "• Nom et prénom : ")
	value := findText(t, page, "Martin Alice")
	assert.Equal(t, document.Regular, label.Run.Style)
	assert.Equal(t, document.Italic, value.Run.Style)
	assert.Equal(t, label.Y, value.Y)
	assert.InDelta(t, 60+18*6.0, value.X, 1e-9)

	email := findText(t, page, "a@x.com")
	discord := findText(t, page, "alice#1")
	assert.Equal(t, value.Y-lineHeight, email.Y)
	assert.Equal(t, email.Y-lineHeight, discord.Y)
}

func TestBuild_DeclarationFitsOnOneLine(t *testing.T) {
	page := Build(alice(), monoFonts(0.2), duck23).Pages[0]

	prefix := findText(t, page, declarationPrefix)
	name := findText(t, page, "Alice Martin")
	suffix := findText(t, page, declarationSuffix(duck23))

	assert.Equal(t, prefix.Y, name.Y)
	assert.Equal(t, prefix.Y, suffix.Y)
	assert.Equal(t, document.Italic, name.Run.Style)
	assert.InDelta(t, 60+16*2.4, name.X, 1e-9)
	assert.InDelta(t, 60+28*2.4, suffix.X, 1e-9)
}

func TestBuild_DeclarationSplitsSuffixWithoutComma(t *testing.T) {
	page := Build(alice(), monoFonts(0.5), duck23).Pages[0]

	name := findText(t, page, "Alice Martin")
	suffix := findText(t, page, "atteste avoir pris connaissance des documents suivants de l'association DUCK23 :")

	assert.Equal(t, 60.0, suffix.X)
	assert.Equal(t, name.Y-lineHeight, suffix.Y)

	first := findText(t, page, documentList[0])
	assert.Equal(t, document.Bold, first.Run.Style)
	assert.Equal(t, 75.0, first.X)
	assert.Equal(t, suffix.Y-lineHeight, first.Y)
}

func TestBuild_AcceptanceParagraphsAreJustified(t *testing.T) {
	fonts := monoFonts(0.5)
	page := Build(alice(), fonts, duck23).Pages[0]

	// The first paragraph wraps, so its first word is drawn on its own.
	first := findText(t, page, "Je")
	line := textsAt(page, first.Y)
	require.Greater(t, len(line), 2)

	last := line[len(line)-1]
	end := last.X + fonts.WidthOfTextAtSize(last.Run.Text, bodySize)
	assert.InDelta(t, marginLeft+maxWidth, end, 1e-6)
}

func TestBuild_CommitmentsHaveCheckboxesAndHangingIndent(t *testing.T) {
	page := Build(alice(), monoFonts(0.5), duck23).Pages[1]

	var boxes []document.RectOp
	var strokes int
	for _, op := range page.Ops {
		switch o := op.(type) {
		case document.RectOp:
			boxes = append(boxes, o)
		case document.LineOp:
			strokes++
			assert.Equal(t, 1.5, o.Thickness)
			assert.Equal(t, checkGreen, o.Color)
		}
	}
	require.Len(t, boxes, 6)
	assert.Equal(t, 12, strokes)

	for _, box := range boxes {
		assert.Equal(t, 60.0, box.X)
		assert.Equal(t, 10.0, box.W)
		assert.Equal(t, document.White, box.Fill)
		assert.Equal(t, checkGreen, box.Border)

		first := textsAt(page, box.Y+checkboxSize/2)
		require.NotEmpty(t, first)
		assert.Equal(t, 75.0, minX(first))
	}

	// The fifth commitment takes three lines: after the box, then at the margin.
	y := boxes[4].Y + checkboxSize/2
	second := textsAt(page, y-lineHeight)
	third := textsAt(page, y-2*lineHeight)
	require.NotEmpty(t, second)
	require.NotEmpty(t, third)
	assert.Equal(t, 60.0, minX(second))
	assert.Equal(t, "strictement interdite.", third[0].Run.Text)
	assert.Equal(t, 60.0, third[0].X)
}

func TestBuild_SignatureBlock(t *testing.T) {
	page := Build(alice(), monoFonts(0.5), duck23).Pages[1]

	city := findText(t, page, "Paris")
	date := findText(t, page, "2024-01-01")
	assert.Equal(t, document.Italic, city.Run.Style)
	assert.InDelta(t, 60+9*6.0, city.X, 1e-9)
	assert.Equal(t, city.Y-lineHeight, date.Y)

	caption := findText(t, page, signatureCaption)
	sig := textsAt(page, caption.Y-20)
	require.Len(t, sig, 1)
	assert.Equal(t, "Alice Martin", sig[0].Run.Text)
	assert.Equal(t, document.Signature, sig[0].Run.Style)
	assert.Equal(t, 40.0, sig[0].Run.Size)
	assert.Equal(t, 210.0, sig[0].X)
	assert.Equal(t, document.Color{G: 0.5, B: 0.8}, sig[0].Color)
}

func TestBuild_AssociationNameIsConfigurable(t *testing.T) {
	page := Build(alice(), monoFonts(0.2), Association{Name: "CANARD", Email: "c@x.org"}).Pages[0]
	findText(t, page, "Association CANARD")
	findText(t, page, "E-mail : c@x.org")
	for _, op := range page.Texts() {
		assert.NotContains(t, op.Run.Text, "DUCK23")
	}
}

type fakeAssets struct {
	font, logo []byte
	err        error
}

func (f fakeAssets) Font() ([]byte, error) { return f.font, f.err }
func (f fakeAssets) Logo() ([]byte, error) { return f.logo, f.err }

func testLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 255, G: 204, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompose_ProducesPDF(t *testing.T) {
	c := NewComposer(fakeAssets{font: goitalic.TTF, logo: testLogo(t)}, duck23)
	c.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	out, err := c.Compose(alice())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, strings.Contains(string(out), "%%EOF"))
}

func TestCompose_AssetFailuresAbort(t *testing.T) {
	missing := NewComposer(fakeAssets{err: domain.ErrAsset}, duck23)
	out, err := missing.Compose(alice())
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrAsset))

	broken := NewComposer(fakeAssets{font: []byte("not a font"), logo: testLogo(t)}, duck23)
	out, err = broken.Compose(alice())
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrAsset))
}

func TestCompose_RejectsNamesOutsideCoreFonts(t *testing.T) {
	c := NewComposer(fakeAssets{font: goitalic.TTF, logo: testLogo(t)}, duck23)

	sub := alice()
	sub.FirstName = "Łukasz"
	sub.LastName = "Wąsik"
	out, err := c.Compose(sub)
	assert.Nil(t, out)

	var terr *domain.UnsupportedTextError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Equal(t, []string{"firstname", "lastname"}, terr.Fields)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedText))
}

func TestCompose_RejectsAssociationTextOutsideCoreFonts(t *testing.T) {
	c := NewComposer(fakeAssets{font: goitalic.TTF, logo: testLogo(t)}, Association{Name: "Związek", Email: "z@x.pl"})

	out, err := c.Compose(alice())
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedText), "got %v", err)
}
