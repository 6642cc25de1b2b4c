package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagement/internal/layout"
)

func TestNewPage_IsA4(t *testing.T) {
	p := NewPage()
	assert.Equal(t, 595.28, p.Width)
	assert.Equal(t, 841.89, p.Height)
	assert.Empty(t, p.Ops)
}

func TestDrawLines_JustifiedWordsAreDrawnSeparately(t *testing.T) {
	p := NewPage()
	p.DrawLines([]layout.Line{
		{Words: []string{"un", "deux"}, X: []float64{60, 120}, Y: 700, Justified: true},
		{Words: []string{"trois", "quatre"}, X: []float64{60, 90}, Y: 682},
	}, Italic, 12, Black)

	texts := p.Texts()
	require.Len(t, texts, 3)
	assert.Equal(t, "un", texts[0].Run.Text)
	assert.Equal(t, 120.0, texts[1].X)
	assert.Equal(t, "trois quatre", texts[2].Run.Text)
	assert.Equal(t, 682.0, texts[2].Y)
	assert.Equal(t, Italic, texts[2].Run.Style)
}

func TestColor_RGBClampsAndRounds(t *testing.T) {
	r, g, b := Color{R: -1, G: 0.7, B: 2}.rgb()
	assert.Equal(t, 0, r)
	assert.Equal(t, 179, g)
	assert.Equal(t, 255, b)
}

func TestFontStyle_String(t *testing.T) {
	assert.Equal(t, "regular", Regular.String())
	assert.Equal(t, "bold", Bold.String())
	assert.Equal(t, "italic", Italic.String())
	assert.Equal(t, "signature", Signature.String())
}
