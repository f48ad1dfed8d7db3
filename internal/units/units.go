// Package units converts template millimeters into the native units of the
// three render backends: CSS pixels for the editor, PDF points for the vector
// document and 300 DPI pixels for the raster image.
package units

import "math"

const (
	// PixelsPerMM is CSS pixels per millimeter at 96 DPI.
	PixelsPerMM = 3.7795275591
	// MMPerPixel is the editor's inverse constant. It is intentionally not
	// 1/PixelsPerMM; drag math has always used this rounded value.
	MMPerPixel = 0.264583
	// PointsPerMM is PDF points (1/72 in) per millimeter.
	PointsPerMM = 2.834645669
	// RasterPixelsPerMM is pixels per millimeter at the fixed 300 DPI raster resolution.
	RasterPixelsPerMM = 11.811
	// RasterDPI is the raster backend resolution.
	RasterDPI = 300

	MinScale  = 0.5
	MaxScale  = 3.0
	ScaleStep = 0.1
)

// MMToPixels converts millimeters to editor pixels at the given zoom scale.
func MMToPixels(mm, scale float64) float64 {
	return mm * PixelsPerMM * scale
}

// PixelsToMM converts editor pixels at the given zoom scale to millimeters.
func PixelsToMM(px, scale float64) float64 {
	return px * MMPerPixel / scale
}

// MMToPoints converts millimeters to PDF points.
func MMToPoints(mm float64) float64 {
	return mm * PointsPerMM
}

// PointsToMM converts PDF points to millimeters.
func PointsToMM(pt float64) float64 {
	return pt / PointsPerMM
}

// MMToRasterPixels converts millimeters to pixels at 300 DPI.
func MMToRasterPixels(mm float64) float64 {
	return mm * RasterPixelsPerMM
}

// RasterPixelsToMM converts 300 DPI pixels back to millimeters.
func RasterPixelsToMM(px float64) float64 {
	return px / RasterPixelsPerMM
}

// RasterSize returns the whole-pixel raster dimension for a length in mm.
func RasterSize(mm float64) int {
	return int(math.Round(MMToRasterPixels(mm)))
}

// PointsToPixels converts a font size in points to editor pixels.
func PointsToPixels(pt, scale float64) float64 {
	return pt * 96.0 / 72.0 * scale
}

// ClampScale keeps an editor zoom factor within [MinScale, MaxScale].
func ClampScale(scale float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, scale))
}
