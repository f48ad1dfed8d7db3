// Package generator paints a resolved layout.Layout with one of three
// backends: a vector PDF (gofpdf), a flattened 300 DPI bitmap and the
// interactive HTML layout used by the designer.
package generator

import (
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"strings"

	"github.com/skip2/go-qrcode"

	"certificate-service/internal/cache"
	"certificate-service/internal/layout"
)

// AssetSource resolves image references. *cache.Assets implements it.
type AssetSource interface {
	Bytes(ctx context.Context, ref string) ([]byte, error)
	Image(ctx context.Context, ref string) (image.Image, error)
	PNG(ctx context.Context, ref string, width, height int) ([]byte, error)
}

// FontSource returns the bytes of a custom font. *fonts.Service implements it.
type FontSource interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// LineHeight is the line advance for multi-line text, relative to the font size.
const LineHeight = 1.2

// Placement records where a text line was drawn, in backend units. The
// top is the field's top edge, the baseline is where glyphs sit.
type Placement struct {
	FieldID  string
	Text     string
	Left     float64
	Top      float64
	Baseline float64
	Width    float64
}

// ============ HELPER FUNCTIONS ============

// lines splits text on newlines, dropping a trailing empty line.
func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// imageName derives a stable registration name for an image and size.
func imageName(ref string, w, h int) string {
	hash := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d", ref, w, h)))
	return fmt.Sprintf("img_%x", hash[:8])
}

// qrPNG encodes content as a square QR code of size pixels.
func qrPNG(content string, size int) ([]byte, error) {
	// Ensure minimum size for quality
	if size < 100 {
		size = 100
	}
	// Cap maximum size for performance
	if size > 2048 {
		size = 2048
	}
	data, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return data, nil
}

// publicSrc maps an asset reference to something a browser can load.
func publicSrc(ref string) string {
	if key, ok := cache.StorageKey(ref); ok {
		return cache.AssetURLPrefix + key
	}
	return ref
}

// boxPixels is the raster size of a box, at least one pixel each way.
func boxPixels(b layout.Box, toPx func(float64) float64) (int, int) {
	w := int(toPx(b.Width) + 0.5)
	h := int(toPx(b.Height) + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
