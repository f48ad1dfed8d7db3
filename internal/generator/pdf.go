package generator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"k8s.io/klog/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/layout"
	"certificate-service/internal/units"
)

// PDFGenerator paints a layout as a single-page vector PDF measured in
// points. Text stays selectable; custom fonts are embedded.
type PDFGenerator struct {
	layout layout.Layout
	assets AssetSource
	fonts  FontSource

	pdf     *gofpdf.Fpdf
	metrics *Metrics

	placements []Placement
	warnings   []error
}

// NewPDFGenerator creates a generator for l. fontSrc may be nil when the
// layout only uses built-in families.
func NewPDFGenerator(l layout.Layout, assets AssetSource, fontSrc FontSource) *PDFGenerator {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size: gofpdf.SizeType{
			Wd: units.MMToPoints(l.Width),
			Ht: units.MMToPoints(l.Height),
		},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	return &PDFGenerator{
		layout:  l,
		assets:  assets,
		fonts:   fontSrc,
		pdf:     pdf,
		metrics: newMetrics(pdf),
	}
}

// Placements returns where each text line was drawn, in points from the
// page's top-left corner.
func (g *PDFGenerator) Placements() []Placement {
	return g.placements
}

// PageSize returns the page width and height in points.
func (g *PDFGenerator) PageSize() (float64, float64) {
	return g.pdf.GetPageSize()
}

// Warnings returns the optional assets that were skipped.
func (g *PDFGenerator) Warnings() []error {
	return g.warnings
}

// Generate creates the PDF and returns the bytes. Only an unreadable
// background fails the render; other assets are skipped with a warning.
func (g *PDFGenerator) Generate(ctx context.Context) ([]byte, error) {
	if g.layout.ShowBackground {
		if err := g.drawBackground(ctx); err != nil {
			return nil, err
		}
	}

	for _, key := range g.layout.CustomFonts() {
		g.embedFont(ctx, key)
	}

	for _, b := range g.layout.Boxes {
		if b.Skip {
			continue
		}
		var err error
		switch {
		case b.Type.IsImage():
			err = g.drawImage(ctx, b)
		case b.Type.IsText():
			g.drawText(b)
		default:
			err = g.drawQRCode(b)
		}
		if err != nil {
			g.degrade(b.FieldID, err)
		}
	}

	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to output PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) degrade(id string, err error) {
	g.pdf.ClearError()
	werr := errs.Degraded("render.vector", id, err)
	klog.Warningf("pdf: %v", werr)
	g.warnings = append(g.warnings, werr)
}

func (g *PDFGenerator) drawBackground(ctx context.Context) error {
	ref := g.layout.Background
	w := units.RasterSize(g.layout.Width)
	h := units.RasterSize(g.layout.Height)
	data, err := g.assets.PNG(ctx, ref, w, h)
	if err != nil {
		return errs.Fatal("render.vector", "background", err)
	}
	if err := g.placePNG(imageName(ref, w, h), data, 0, 0, units.MMToPoints(g.layout.Width), units.MMToPoints(g.layout.Height)); err != nil {
		g.pdf.ClearError()
		return errs.Fatal("render.vector", "background", err)
	}
	return nil
}

// embedFont adds a custom TrueType font. Fonts that cannot be loaded or
// parsed are left out and their fields fall back to Times.
func (g *PDFGenerator) embedFont(ctx context.Context, key string) {
	if g.fonts == nil {
		g.degrade(key, fmt.Errorf("no font source"))
		return
	}
	data, err := g.fonts.Load(ctx, key)
	if err != nil {
		g.degrade(key, err)
		return
	}
	if err := g.metrics.Register(key, data); err != nil {
		g.degrade(key, err)
	}
}

func (g *PDFGenerator) drawText(b layout.Box) {
	g.metrics.SetFont(b.Font, b.Bold, b.FontSize)
	g.pdf.SetTextColor(int(b.Color.R), int(b.Color.G), int(b.Color.B))

	anchor := units.MMToPoints(b.AnchorX)
	top := units.MMToPoints(b.Y)
	ascent := g.metrics.Ascent()

	for i, line := range lines(b.Text) {
		if line == "" {
			continue
		}
		line = g.metrics.Encode(line)
		width := g.metrics.Width(line)
		left := layout.LeftEdge(anchor, width, b.Align)
		lineTop := top + float64(i)*LineHeight*b.FontSize

		g.pdf.Text(left, lineTop+ascent, line)
		g.placements = append(g.placements, Placement{
			FieldID:  b.FieldID,
			Text:     line,
			Left:     left,
			Top:      lineTop,
			Baseline: lineTop + ascent,
			Width:    width,
		})
	}
}

func (g *PDFGenerator) drawImage(ctx context.Context, b layout.Box) error {
	w, h := boxPixels(b, units.MMToRasterPixels)
	data, err := g.assets.PNG(ctx, b.ImageRef, w, h)
	if err != nil {
		return err
	}
	return g.placePNG(imageName(b.ImageRef, w, h), data,
		units.MMToPoints(b.X), units.MMToPoints(b.Y),
		units.MMToPoints(b.Width), units.MMToPoints(b.Height))
}

func (g *PDFGenerator) drawQRCode(b layout.Box) error {
	w, h := boxPixels(b, units.MMToRasterPixels)
	size := w
	if h > size {
		size = h
	}
	data, err := qrPNG(b.Text, size)
	if err != nil {
		return err
	}
	return g.placePNG(imageName("qr:"+b.FieldID+":"+b.Text, size, size), data,
		units.MMToPoints(b.X), units.MMToPoints(b.Y),
		units.MMToPoints(b.Width), units.MMToPoints(b.Height))
}

// placePNG registers PNG bytes under name and stretches them over the box.
func (g *PDFGenerator) placePNG(name string, data []byte, x, y, w, h float64) error {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	info := g.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || g.pdf.Err() {
		return fmt.Errorf("failed to register image %s: %v", name, g.pdf.Error())
	}
	g.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return g.pdf.Error()
}
