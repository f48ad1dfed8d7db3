package layout

import (
	"certificate-service/internal/models"
	"certificate-service/internal/units"
)

// HandleSize is the edge length of a resize handle in screen pixels.
const HandleSize = 8.0

// Corner names a resize handle: a combination of n|s and w|e.
type Corner string

const (
	CornerNW Corner = "nw"
	CornerNE Corner = "ne"
	CornerSW Corner = "sw"
	CornerSE Corner = "se"
)

// Corners lists the handles in hit-test order.
var Corners = []Corner{CornerNW, CornerNE, CornerSW, CornerSE}

// North reports whether the corner moves the top edge.
func (c Corner) North() bool { return len(c) == 2 && c[0] == 'n' }

// West reports whether the corner moves the left edge.
func (c Corner) West() bool { return len(c) == 2 && c[1] == 'w' }

// Valid reports whether c is one of the four corners.
func (c Corner) Valid() bool {
	switch c {
	case CornerNW, CornerNE, CornerSW, CornerSE:
		return true
	}
	return false
}

// Rect is a screen-space rectangle in editor pixels.
type Rect struct {
	Left, Top, Width, Height float64
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

// ScreenRect converts a field's millimeter box to editor pixels.
func ScreenRect(f models.Field, scale float64) Rect {
	return Rect{
		Left:   units.MMToPixels(f.X, scale),
		Top:    units.MMToPixels(f.Y, scale),
		Width:  units.MMToPixels(f.Width, scale),
		Height: units.MMToPixels(f.Height, scale),
	}
}

// HandleRect returns the square handle centered on a corner of r.
func HandleRect(r Rect, c Corner) Rect {
	cx, cy := r.Left+r.Width, r.Top+r.Height
	if c.West() {
		cx = r.Left
	}
	if c.North() {
		cy = r.Top
	}
	return Rect{Left: cx - HandleSize/2, Top: cy - HandleSize/2, Width: HandleSize, Height: HandleSize}
}

// Hit is the result of a hit test.
type Hit struct {
	FieldID string
	Corner  Corner // set when a resize handle of the selected field was hit
}

// Target is a hit-testable rectangle of one field.
type Target struct {
	FieldID string
	Rect    Rect
}

// Targets converts fields to screen-space targets, in drawing order.
func Targets(fields []models.Field, scale float64) []Target {
	out := make([]Target, len(fields))
	for i, f := range fields {
		out[i] = Target{FieldID: f.ID, Rect: ScreenRect(f, scale)}
	}
	return out
}

// HitTest finds what lies under the canvas-local point (x, y). Handles are
// only shown, and therefore only hit, for the selected field. Later fields
// are drawn on top and win.
func HitTest(fields []models.Field, x, y, scale float64, selectedID string) (Hit, bool) {
	return HitTestTargets(Targets(fields, scale), x, y, selectedID)
}

// HitTestTargets is HitTest over precomputed rectangles.
func HitTestTargets(targets []Target, x, y float64, selectedID string) (Hit, bool) {
	if selectedID != "" {
		for _, t := range targets {
			if t.FieldID != selectedID {
				continue
			}
			for _, c := range Corners {
				if HandleRect(t.Rect, c).Contains(x, y) {
					return Hit{FieldID: t.FieldID, Corner: c}, true
				}
			}
		}
	}
	for i := len(targets) - 1; i >= 0; i-- {
		if targets[i].Rect.Contains(x, y) {
			return Hit{FieldID: targets[i].FieldID}, true
		}
	}
	return Hit{}, false
}
