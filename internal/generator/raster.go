package generator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"k8s.io/klog/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/layout"
	"certificate-service/internal/units"
)

// Raster output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// DefaultQuality is the JPEG and WebP quality when none is configured.
const DefaultQuality = 92

// NormalizeFormat maps a requested format or extension to one of the
// raster formats. ok is false for anything unsupported.
func NormalizeFormat(format string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type of a normalized raster format.
func ContentType(format string) string {
	switch format {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// RasterOptions configures encoding.
type RasterOptions struct {
	Format  string
	Quality int
}

// RasterGenerator flattens a layout into a bitmap at units.RasterDPI.
type RasterGenerator struct {
	layout layout.Layout
	assets AssetSource
	fonts  FontSource
	opts   RasterOptions

	placements []Placement
	warnings   []error
}

// NewRasterGenerator creates a generator for l. fontSrc may be nil when
// the layout only uses built-in families.
func NewRasterGenerator(l layout.Layout, assets AssetSource, fontSrc FontSource, opts RasterOptions) *RasterGenerator {
	if f, ok := NormalizeFormat(opts.Format); ok {
		opts.Format = f
	} else {
		opts.Format = FormatJPEG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &RasterGenerator{layout: l, assets: assets, fonts: fontSrc, opts: opts}
}

// Placements returns where each text line was drawn, in pixels.
func (g *RasterGenerator) Placements() []Placement {
	return g.placements
}

// Warnings returns the optional assets that were skipped.
func (g *RasterGenerator) Warnings() []error {
	return g.warnings
}

// Generate renders and encodes the page.
func (g *RasterGenerator) Generate(ctx context.Context) ([]byte, error) {
	img, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch g.opts.Format {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(g.opts.Quality)})
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(g.opts.Quality))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", g.opts.Format, err)
	}
	return buf.Bytes(), nil
}

// Render paints the page on a white canvas of the page size at 300 DPI.
func (g *RasterGenerator) Render(ctx context.Context) (*image.NRGBA, error) {
	w := units.RasterSize(g.layout.Width)
	h := units.RasterSize(g.layout.Height)
	canvas := imaging.New(w, h, color.White)

	if g.layout.ShowBackground {
		bg, err := g.assets.Image(ctx, g.layout.Background)
		if err != nil {
			return nil, errs.Fatal("render.raster", "background", err)
		}
		canvas = imaging.Overlay(canvas, imaging.Resize(bg, w, h, imaging.Lanczos), image.Pt(0, 0), 1.0)
	}

	faces, err := fonts.NewFaces(units.RasterDPI)
	if err != nil {
		return nil, fmt.Errorf("render.raster: %w", err)
	}
	defer faces.Close()

	metrics := NewMetrics()

	// Every custom font is registered before the first glyph is drawn.
	for _, key := range g.layout.CustomFonts() {
		if err := g.registerFont(ctx, faces, metrics, key); err != nil {
			g.degrade(key, err)
		}
	}

	for _, b := range g.layout.Boxes {
		if b.Skip {
			continue
		}
		var err error
		switch {
		case b.Type.IsImage():
			canvas, err = g.drawImage(ctx, canvas, b)
		case b.Type.IsText():
			canvas, err = g.drawText(canvas, faces, metrics, b)
		default:
			canvas, err = g.drawQRCode(canvas, b)
		}
		if err != nil {
			g.degrade(b.FieldID, err)
		}
	}
	return canvas, nil
}

func (g *RasterGenerator) degrade(id string, err error) {
	werr := errs.Degraded("render.raster", id, err)
	klog.Warningf("raster: %v", werr)
	g.warnings = append(g.warnings, werr)
}

func (g *RasterGenerator) registerFont(ctx context.Context, faces *fonts.Faces, metrics *Metrics, key string) error {
	if g.fonts == nil {
		return fmt.Errorf("no font source")
	}
	data, err := g.fonts.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := metrics.Register(key, data); err != nil {
		return err
	}
	return faces.Register(key, data)
}

// drawText places each line with the vector backend's metrics and fits the
// rasterized glyphs to the measured advance width.
func (g *RasterGenerator) drawText(canvas *image.NRGBA, faces *fonts.Faces, metrics *Metrics, b layout.Box) (*image.NRGBA, error) {
	r := metrics.SetFont(b.Font, b.Bold, b.FontSize)
	face, err := faces.Face(r, b.Bold, b.FontSize)
	if err != nil {
		return canvas, err
	}
	src := image.NewUniform(color.NRGBA{R: b.Color.R, G: b.Color.G, B: b.Color.B, A: 255})
	m := face.Metrics()
	faceAscent := m.Ascent.Ceil()
	faceHeight := faceAscent + m.Descent.Ceil()

	anchor := units.MMToRasterPixels(b.AnchorX)
	top := units.MMToRasterPixels(b.Y)
	sizePx := b.FontSize * units.RasterDPI / 72
	ascent := pointsToRaster(metrics.Ascent())

	for i, line := range lines(b.Text) {
		if line == "" {
			continue
		}
		width := pointsToRaster(metrics.Width(metrics.Encode(line)))
		left := layout.LeftEdge(anchor, width, b.Align)
		lineTop := top + float64(i)*LineHeight*sizePx
		baseline := lineTop + ascent

		natural := font.MeasureString(face, line).Ceil()
		fitted := int(width + 0.5)
		if natural > 0 && fitted > 0 && faceHeight > 0 {
			glyphs := image.NewNRGBA(image.Rect(0, 0, natural, faceHeight))
			d := &font.Drawer{
				Dst:  glyphs,
				Src:  src,
				Face: face,
				Dot:  fixed.P(0, faceAscent),
			}
			d.DrawString(line)
			if fitted != natural {
				glyphs = imaging.Resize(glyphs, fitted, faceHeight, imaging.Lanczos)
			}
			at := image.Pt(int(left+0.5), int(baseline+0.5)-faceAscent)
			canvas = imaging.Overlay(canvas, glyphs, at, 1.0)
		}
		g.placements = append(g.placements, Placement{
			FieldID:  b.FieldID,
			Text:     line,
			Left:     left,
			Top:      lineTop,
			Baseline: baseline,
			Width:    width,
		})
	}
	return canvas, nil
}

func pointsToRaster(pt float64) float64 {
	return pt * units.RasterDPI / 72
}

func (g *RasterGenerator) drawImage(ctx context.Context, canvas *image.NRGBA, b layout.Box) (*image.NRGBA, error) {
	img, err := g.assets.Image(ctx, b.ImageRef)
	if err != nil {
		return canvas, err
	}
	w, h := boxPixels(b, units.MMToRasterPixels)
	resized := imaging.Resize(img, w, h, imaging.Lanczos)
	return imaging.Overlay(canvas, resized, boxOrigin(b), 1.0), nil
}

func (g *RasterGenerator) drawQRCode(canvas *image.NRGBA, b layout.Box) (*image.NRGBA, error) {
	q, err := qrcode.New(b.Text, qrcode.Medium)
	if err != nil {
		return canvas, fmt.Errorf("failed to generate QR code: %w", err)
	}
	w, h := boxPixels(b, units.MMToRasterPixels)
	size := w
	if h > size {
		size = h
	}
	code := imaging.Resize(q.Image(size), w, h, imaging.NearestNeighbor)
	return imaging.Overlay(canvas, code, boxOrigin(b), 1.0), nil
}

func boxOrigin(b layout.Box) image.Point {
	return image.Pt(int(units.MMToRasterPixels(b.X)+0.5), int(units.MMToRasterPixels(b.Y)+0.5))
}
