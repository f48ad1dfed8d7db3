package generator

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"certificate-service/internal/fonts"
)

// Ascender of the PDF core fonts in 1/1000 em, from their AFM files. The
// core font definitions gofpdf ships carry widths but no descriptor.
var coreAscent = map[string]float64{
	fonts.TimesRoman: 683,
	fonts.Helvetica:  718,
	fonts.Courier:    629,
}

// Metrics measures text with the font metrics the vector backend prints
// with. The raster backend places its lines with the same numbers, so a
// field lands at the same page position in both outputs. Lengths are in
// points.
type Metrics struct {
	pdf *gofpdf.Fpdf
	// cp1252 translation for the core fonts
	tr func(string) string
	// custom font key -> registered successfully
	registered map[string]bool

	current fonts.Resolved
	size    float64
}

// NewMetrics creates a measuring context with no custom fonts.
func NewMetrics() *Metrics {
	return newMetrics(gofpdf.New("P", "pt", "A4", ""))
}

func newMetrics(pdf *gofpdf.Fpdf) *Metrics {
	return &Metrics{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		registered: make(map[string]bool),
	}
}

// Register adds a custom TrueType font under key.
func (m *Metrics) Register(key string, data []byte) (err error) {
	if m.registered[key] {
		return nil
	}
	// gofpdf panics on some malformed font tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font %s: %v", key, r)
		}
		if err != nil {
			m.pdf.ClearError()
		}
	}()
	m.pdf.AddUTF8FontFromBytes(key, "", data)
	if err := m.pdf.Error(); err != nil {
		return err
	}
	m.registered[key] = true
	return nil
}

// SetFont selects the font for the following measurements and returns the
// font actually used. Unregistered custom fonts fall back to the default;
// custom fonts have a single style.
func (m *Metrics) SetFont(r fonts.Resolved, bold bool, size float64) fonts.Resolved {
	if !r.Builtin && !m.registered[r.Key] {
		r = fonts.Default
	}
	style := ""
	if r.Builtin && bold {
		style = "B"
	}
	m.pdf.SetFont(r.PDFFamily, style, size)
	m.current = r
	m.size = size
	return r
}

// Encode converts a line to the encoding of the current font.
func (m *Metrics) Encode(line string) string {
	if m.current.Builtin {
		return m.tr(line)
	}
	return line
}

// Width returns the advance width of an encoded line.
func (m *Metrics) Width(encoded string) float64 {
	return m.pdf.GetStringWidth(encoded)
}

// Ascent returns the distance from the top of a line to its baseline.
func (m *Metrics) Ascent() float64 {
	if a, ok := coreAscent[m.current.Key]; ok && m.current.Builtin {
		return a / 1000 * m.size
	}
	if desc := m.pdf.GetFontDesc("", ""); desc.Ascent > 0 {
		return float64(desc.Ascent) / 1000 * m.size
	}
	return 0.8 * m.size
}
