package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certificate-service/internal/fonts"
	"certificate-service/internal/models"
)

func sampleTemplate() *models.Template {
	return &models.Template{
		ID:                 "tpl-1",
		Name:               "Diploma",
		Width:              297,
		Height:             210,
		BackgroundImageURL: "/uploads/bg.png",
		Fields: []models.Field{
			{ID: "name", Type: models.FieldText, X: 50, Y: 50, Width: 100, Height: 20, FontSize: 24,
				FontFamily: "Helvetica", FontWeight: models.WeightBold, Color: "#1a2B3c", Align: models.AlignLeft, Placeholder: "Recipient"},
			{ID: "date", Type: models.FieldDate, X: 148.5, Y: 150, Width: 60, Height: 10, FontSize: 12,
				FontFamily: "Brand_Font", Align: models.AlignCenter},
			{ID: "sig", Type: models.FieldSignature, X: 200, Y: 160, Width: 50, Height: 25},
			{ID: "seal", Type: models.FieldImage, X: 20, Y: 160, Width: 30, Height: 30, SignatureImageURL: "/uploads/seal.png"},
		},
	}
}

func TestResolveLayoutValuesAndPlaceholders(t *testing.T) {
	tpl := sampleTemplate()
	l := ResolveLayout(tpl, map[string]string{"name": "Jane Doe", "stale": "ignored"}, nil)

	require.Len(t, l.Boxes, 4)
	assert.True(t, l.ShowBackground)
	assert.Equal(t, 297.0, l.Width)

	name := l.Boxes[0]
	assert.Equal(t, "Jane Doe", name.Text)
	assert.False(t, name.Skip)
	assert.Equal(t, 50.0, name.AnchorX)
	assert.True(t, name.Bold)
	assert.Equal(t, RGB{0x1a, 0x2b, 0x3c}, name.Color)
	assert.Equal(t, fonts.Helvetica, name.Font.Key)

	date := l.Boxes[1]
	assert.True(t, date.Skip, "no value and no placeholder")
	assert.Equal(t, models.AlignCenter, date.Align)
	assert.False(t, date.Font.Builtin)

	assert.True(t, l.Boxes[2].Skip, "signature without image is skipped")
	assert.False(t, l.Boxes[3].Skip)
	assert.Equal(t, "/uploads/seal.png", l.Boxes[3].ImageRef)
}

func TestResolveLayoutBlankValueFallsBackToPlaceholder(t *testing.T) {
	l := ResolveLayout(sampleTemplate(), map[string]string{"name": "   "}, nil)
	assert.Equal(t, "Recipient", l.Boxes[0].Text)
}

func TestBackgroundVisibilityOnlyAffectsBackground(t *testing.T) {
	hidden := false
	l := ResolveLayout(sampleTemplate(), map[string]string{"name": "Jane"}, &hidden)

	assert.False(t, l.ShowBackground)
	assert.False(t, l.Boxes[0].Skip)
	assert.Equal(t, "/uploads/bg.png", l.Background)
}

func TestResolveLayoutDoesNotMutateTemplate(t *testing.T) {
	tpl := sampleTemplate()
	before := tpl.Clone()
	ResolveLayout(tpl, map[string]string{"name": "x"}, nil)
	assert.Equal(t, before, tpl)
}

func TestLeftEdge(t *testing.T) {
	assert.Equal(t, 50.0, LeftEdge(50, 30, models.AlignLeft))
	assert.Equal(t, 35.0, LeftEdge(50, 30, models.AlignCenter))
	assert.Equal(t, 20.0, LeftEdge(50, 30, models.AlignRight))
}

func TestCustomFontsAndImageRefs(t *testing.T) {
	tpl := sampleTemplate()
	l := ResolveLayout(tpl, map[string]string{"date": "2026-10-17"}, nil)

	assert.Equal(t, []string{"Brand_Font"}, l.CustomFonts())
	assert.Equal(t, []string{"/uploads/seal.png"}, l.ImageRefs())
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, RGB{255, 0, 128}, ParseHexColor("#ff0080"))
	assert.Equal(t, RGB{255, 0, 128}, ParseHexColor("FF0080"))
	assert.Equal(t, RGB{}, ParseHexColor("red"))
	assert.Equal(t, RGB{}, ParseHexColor("#zzzzzz"))
	assert.Equal(t, "#ff0080", RGB{255, 0, 128}.Hex())
}
