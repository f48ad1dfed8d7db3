// Package layout resolves a template and per-issuance values into
// backend-neutral boxes in millimeters. The interactive, vector and raster
// backends only paint what ResolveLayout returns, so placement rules live
// in one place.
package layout

import (
	"strconv"
	"strings"

	"certificate-service/internal/fonts"
	"certificate-service/internal/models"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Box is one resolved field.
type Box struct {
	FieldID string
	Name    string
	Type    models.FieldType

	// Field box, mm from the page's top-left corner.
	X, Y, Width, Height float64

	// Text, date and qrcode fields.
	Text string
	// AnchorX is where the text is anchored for its alignment: the left
	// edge, the center or the right edge. It equals X for every alignment.
	AnchorX  float64
	Align    models.Align
	Font     fonts.Resolved
	Bold     bool
	FontSize float64 // points
	Color    RGB

	// Signature and image fields.
	ImageRef string

	// Skip is set when there is nothing to paint.
	Skip bool
}

// Layout is a resolved page.
type Layout struct {
	TemplateID     string
	Width, Height  float64 // mm
	Background     string
	ShowBackground bool
	Boxes          []Box
}

// ResolveLayout computes the boxes for tpl with the given values. A nil
// backgroundVisible means visible. Values for unknown field ids are
// ignored. The template is not modified.
func ResolveLayout(tpl *models.Template, values map[string]string, backgroundVisible *bool) Layout {
	show := true
	if backgroundVisible != nil {
		show = *backgroundVisible
	}

	l := Layout{
		TemplateID:     tpl.ID,
		Width:          tpl.Width,
		Height:         tpl.Height,
		Background:     tpl.BackgroundImageURL,
		ShowBackground: show && tpl.BackgroundImageURL != "",
		Boxes:          make([]Box, 0, len(tpl.Fields)),
	}

	for _, f := range tpl.Fields {
		b := Box{
			FieldID: f.ID,
			Name:    f.Name,
			Type:    f.Type,
			X:       f.X,
			Y:       f.Y,
			Width:   f.Width,
			Height:  f.Height,
		}

		switch {
		case f.Type.IsImage():
			b.ImageRef = strings.TrimSpace(f.SignatureImageURL)
			b.Skip = b.ImageRef == ""

		case f.Type.TakesValue():
			b.Text = ResolveValue(f, values)
			b.Skip = b.Text == ""
			b.Align = normalizeAlign(f.Align)
			b.AnchorX = f.X
			b.Font = fonts.Resolve(f.FontFamily)
			b.Bold = f.FontWeight == models.WeightBold
			b.FontSize = f.FontSize
			if b.FontSize <= 0 {
				b.FontSize = models.DefaultFontSize
			}
			b.Color = ParseHexColor(f.Color)

		default:
			b.Skip = true
		}

		l.Boxes = append(l.Boxes, b)
	}
	return l
}

// ResolveValue picks the supplied value, then the placeholder, then "".
func ResolveValue(f models.Field, values map[string]string) string {
	if v, ok := values[f.ID]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return f.Placeholder
}

// LeftEdge returns where text of the given width starts for an anchor and
// alignment. All backends use it with their own text width.
func LeftEdge(anchor, textWidth float64, align models.Align) float64 {
	switch align {
	case models.AlignCenter:
		return anchor - textWidth/2
	case models.AlignRight:
		return anchor - textWidth
	default:
		return anchor
	}
}

// CustomFonts returns the distinct custom font keys used by painted boxes,
// in first-use order.
func (l Layout) CustomFonts() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range l.Boxes {
		if b.Skip || b.Type == models.FieldQRCode || !b.Type.TakesValue() || b.Font.Builtin {
			continue
		}
		if !seen[b.Font.Key] {
			seen[b.Font.Key] = true
			out = append(out, b.Font.Key)
		}
	}
	return out
}

// ImageRefs returns the distinct image references of painted boxes.
func (l Layout) ImageRefs() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range l.Boxes {
		if b.Skip || b.ImageRef == "" || seen[b.ImageRef] {
			continue
		}
		seen[b.ImageRef] = true
		out = append(out, b.ImageRef)
	}
	return out
}

func normalizeAlign(a models.Align) models.Align {
	switch a {
	case models.AlignCenter, models.AlignRight:
		return a
	default:
		return models.AlignLeft
	}
}

// ParseHexColor parses "#RRGGBB" (the # is optional). Anything else is black.
func ParseHexColor(hex string) RGB {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return RGB{}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}
