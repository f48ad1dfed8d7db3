package generator

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"

	"k8s.io/klog/v2"

	"certificate-service/internal/fonts"
	"certificate-service/internal/layout"
	"certificate-service/internal/models"
	"certificate-service/internal/units"
)

// Element is one field of the interactive page, in editor pixels.
type Element struct {
	FieldID string           `json:"fieldId"`
	Name    string           `json:"name"`
	Type    models.FieldType `json:"type"`

	// Field box
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Text       string       `json:"text,omitempty"`
	Anchor     float64      `json:"anchor,omitempty"`
	Align      models.Align `json:"align,omitempty"`
	FontFamily string       `json:"fontFamily,omitempty"`
	FontWeight string       `json:"fontWeight,omitempty"`
	FontSize   float64      `json:"fontSize,omitempty"`
	Color      string       `json:"color,omitempty"`
	Src        string       `json:"src,omitempty"`

	// Empty fields show their name in the box so they can still be grabbed.
	Empty    bool `json:"empty,omitempty"`
	Selected bool `json:"selected,omitempty"`
}

// InteractiveLayout is the designer's view of a page at one zoom level.
type InteractiveLayout struct {
	TemplateID string           `json:"templateId"`
	Scale      float64          `json:"scale"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Background string           `json:"background,omitempty"`
	Elements   []Element        `json:"elements"`
	FontFaces  []fonts.FontFace `json:"fontFaces"`
}

// BuildInteractive lays l out at scale. Custom fonts are injected into
// session; its declarations end up in FontFaces.
func BuildInteractive(l layout.Layout, scale float64, session *fonts.Session, selectedID string) *InteractiveLayout {
	scale = units.ClampScale(scale)
	px := func(mm float64) float64 { return units.MMToPixels(mm, scale) }

	il := &InteractiveLayout{
		TemplateID: l.TemplateID,
		Scale:      scale,
		Width:      px(l.Width),
		Height:     px(l.Height),
		Elements:   make([]Element, 0, len(l.Boxes)),
	}
	if l.ShowBackground {
		il.Background = publicSrc(l.Background)
	}

	for _, b := range l.Boxes {
		e := Element{
			FieldID:  b.FieldID,
			Name:     b.Name,
			Type:     b.Type,
			Left:     px(b.X),
			Top:      px(b.Y),
			Width:    px(b.Width),
			Height:   px(b.Height),
			Empty:    b.Skip,
			Selected: b.FieldID == selectedID,
		}

		switch {
		case b.Type.IsImage():
			if !b.Skip {
				e.Src = publicSrc(b.ImageRef)
			}
		case b.Type.TakesValue():
			e.Text = b.Text
			e.Anchor = px(b.AnchorX)
			e.Align = b.Align
			e.FontSize = units.PointsToPixels(b.FontSize, scale)
			e.Color = b.Color.Hex()
			e.FontWeight = string(models.WeightNormal)
			if b.Bold {
				e.FontWeight = string(models.WeightBold)
			}
			e.FontFamily = fonts.FamilyWithFallback(b.Font.Key)
			if session != nil && !b.Font.Builtin {
				session.Inject(b.Font.Key)
			}
			if b.Type == models.FieldQRCode && !b.Skip {
				e.Src = qrDataURI(b.Text, int(e.Width+0.5))
			}
		}
		il.Elements = append(il.Elements, e)
	}

	if session != nil {
		il.FontFaces = session.Faces()
	}
	return il
}

func qrDataURI(content string, size int) string {
	data, err := qrPNG(content, size)
	if err != nil {
		klog.V(4).Infof("interactive: qr code skipped: %v", err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// HitTest finds the field or selected-field handle under (x, y).
func (il *InteractiveLayout) HitTest(x, y float64, selectedID string) (layout.Hit, bool) {
	targets := make([]layout.Target, len(il.Elements))
	for i, e := range il.Elements {
		targets[i] = layout.Target{
			FieldID: e.FieldID,
			Rect:    layout.Rect{Left: e.Left, Top: e.Top, Width: e.Width, Height: e.Height},
		}
	}
	return layout.HitTestTargets(targets, x, y, selectedID)
}

// BoxStyle positions the field's bounding box.
func (e Element) BoxStyle() template.CSS {
	return template.CSS(fmt.Sprintf("left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;",
		e.Left, e.Top, e.Width, e.Height))
}

// TextStyle anchors the text at the field's x for its alignment and at the
// top of the box.
func (e Element) TextStyle() template.CSS {
	shift := "0"
	switch e.Align {
	case models.AlignCenter:
		shift = "-50%"
	case models.AlignRight:
		shift = "-100%"
	}
	return template.CSS(fmt.Sprintf(
		"left:%.2fpx;top:%.2fpx;transform:translateX(%s);font-family:%s;font-size:%.2fpx;font-weight:%s;color:%s;text-align:%s;",
		e.Anchor, e.Top, shift, e.FontFamily, e.FontSize, e.FontWeight, e.Color, e.Align))
}

// IsText reports whether the element paints text.
func (e Element) IsText() bool {
	return e.Type.IsText() && !e.Empty
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"url": safeURL,
	"css": func(f fonts.FontFace) template.CSS { return template.CSS(f.CSS()) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
{{range .FontFaces}}{{css .}}
{{end}}.page { position: relative; overflow: hidden; background: #fff; }
.page > .bg { position: absolute; left: 0; top: 0; width: 100%; height: 100%; }
.field { position: absolute; box-sizing: border-box; }
.field.selected { outline: 1px dashed #1a73e8; }
.field > img { display: block; width: 100%; height: 100%; }
.text { position: absolute; white-space: pre; line-height: 1.2; }
.empty { opacity: 0.5; }
</style>
</head>
<body>
<div class="page" style="width:{{printf "%.2f" .Width}}px;height:{{printf "%.2f" .Height}}px;">
{{with .Background}}<img class="bg" src="{{url .}}" alt="">
{{end}}{{range .Elements}}<div class="field{{if .Selected}} selected{{end}}{{if .Empty}} empty{{end}}" data-field-id="{{.FieldID}}" style="{{.BoxStyle}}">{{if .Empty}}{{.Name}}{{else if .Src}}<img src="{{url .Src}}" alt="{{.Name}}">{{end}}</div>
{{if .IsText}}<div class="text" data-field-id="{{.FieldID}}" style="{{.TextStyle}}">{{.Text}}</div>
{{end}}{{end}}</div>
</body>
</html>
`))

// WriteHTML renders a standalone preview page.
func (il *InteractiveLayout) WriteHTML(w io.Writer) error {
	if err := pageTemplate.Execute(w, il); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// safeURL passes image references the browser may load and drops the rest.
func safeURL(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "/"):
		return template.URL(ref)
	default:
		return ""
	}
}
