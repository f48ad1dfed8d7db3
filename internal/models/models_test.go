package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certificate-service/internal/errs"
)

func TestNewFieldDefaults(t *testing.T) {
	text := NewField(FieldText, "Recipient")
	assert.Equal(t, 100.0, text.Width)
	assert.Equal(t, 20.0, text.Height)
	assert.Equal(t, InsertX, text.X)
	assert.Equal(t, InsertY, text.Y)
	assert.Equal(t, DefaultFontFamily, text.FontFamily)
	assert.Equal(t, AlignLeft, text.Align)

	sig := NewField(FieldSignature, "")
	assert.Equal(t, 50.0, sig.Width)
	assert.Equal(t, 25.0, sig.Height)
	assert.Equal(t, "signature", sig.Name)
	assert.Empty(t, sig.FontFamily)
}

func TestNewFieldIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := NewFieldID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		parts := strings.SplitN(id, "_", 2)
		require.Len(t, parts, 2)
		assert.Len(t, parts[1], 9)
	}
}

func TestValidateFieldPosition(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  bool
	}{
		{"origin", Field{Type: FieldText, X: 0, Y: 0}, true},
		{"negative x", Field{Type: FieldText, X: -1, Y: 5}, false},
		{"negative y", Field{Type: FieldText, X: 5, Y: -0.1}, false},
		{"x past page", Field{Type: FieldText, X: 298, Y: 5}, false},
		{"y on edge", Field{Type: FieldText, X: 5, Y: 210}, true},
		{"text box may overflow", Field{Type: FieldText, X: 290, Y: 5, Width: 100, Height: 20}, true},
		{"image fits", Field{Type: FieldImage, X: 247, Y: 185, Width: 50, Height: 25}, true},
		{"image overflows right", Field{Type: FieldImage, X: 248, Y: 5, Width: 50, Height: 25}, false},
		{"signature overflows bottom", Field{Type: FieldSignature, X: 5, Y: 190, Width: 50, Height: 25}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.field
			assert.Equal(t, tt.want, ValidateFieldPosition(f, 297, 210))
			assert.Equal(t, tt.field, f)
		})
	}
}

func TestTemplateValidate(t *testing.T) {
	valid := func() *Template {
		return &Template{
			Name:   "Diploma",
			Width:  297,
			Height: 210,
			Fields: []Field{NewField(FieldText, "Name"), NewField(FieldImage, "Seal")},
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*Template){
		"empty name":     func(tp *Template) { tp.Name = " " },
		"zero width":     func(tp *Template) { tp.Width = 0 },
		"duplicate id":   func(tp *Template) { tp.Fields[1].ID = tp.Fields[0].ID },
		"missing id":     func(tp *Template) { tp.Fields[0].ID = "" },
		"unknown type":   func(tp *Template) { tp.Fields[0].Type = "barcode" },
		"bad align":      func(tp *Template) { tp.Fields[0].Align = "justify" },
		"bad weight":     func(tp *Template) { tp.Fields[0].FontWeight = "600" },
		"bad color":      func(tp *Template) { tp.Fields[0].Color = "red" },
		"zero font size": func(tp *Template) { tp.Fields[0].FontSize = 0 },
		"zero height":    func(tp *Template) { tp.Fields[1].Height = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tp := valid()
			mutate(tp)
			err := tp.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInvalidInput))
		})
	}
}

func TestPositionWarningsAreAdvisory(t *testing.T) {
	tp := &Template{Name: "A", Width: 100, Height: 100, Fields: []Field{
		{ID: "a", Name: "inside", Type: FieldText, X: 1, Y: 1, Width: 10, Height: 5, FontSize: 12},
		{ID: "b", Name: "outside", Type: FieldText, X: 120, Y: 1, Width: 10, Height: 5, FontSize: 12},
	}}

	require.NoError(t, tp.Validate())
	warnings := tp.PositionWarnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "outside")
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.Error(t, Settings{NormalMoveAmount: 0, ShiftMoveAmount: 1}.Validate())
	assert.Error(t, Settings{NormalMoveAmount: 1, ShiftMoveAmount: 10.5}.Validate())
	assert.NoError(t, Settings{NormalMoveAmount: 10, ShiftMoveAmount: 10}.Validate())
}

func TestCertificatePatchApply(t *testing.T) {
	c := &Certificate{TemplateID: "t1", RecipientName: "Jane", FieldValues: map[string]string{"a": "1"}}
	name := "John"
	hidden := false
	CertificatePatch{RecipientName: &name, BackgroundVisible: &hidden}.Apply(c)

	assert.Equal(t, "John", c.RecipientName)
	assert.False(t, c.BackgroundVisible)
	assert.Equal(t, map[string]string{"a": "1"}, c.FieldValues)
	assert.Equal(t, "t1", c.TemplateID)
}

func TestTemplateCloneIsDeep(t *testing.T) {
	tp := &Template{Fields: []Field{{ID: "a", X: 1}}}
	c := tp.Clone()
	c.Fields[0].X = 50
	assert.Equal(t, 1.0, tp.Fields[0].X)
}
