package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"certificate-service/internal/errs"
)

// InsertX and InsertY are where new fields appear in the designer.
const (
	InsertX = 10.0
	InsertY = 10.0

	DefaultFontSize   = 16.0
	DefaultFontFamily = "TimesRoman"
	DefaultColor      = "#000000"
)

var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// NewFieldID returns a "{unix millis}_{random}" id, unique within an
// editing session.
func NewFieldID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
}

// DefaultSize returns the geometry a new field of type t starts with.
func DefaultSize(t FieldType) (width, height float64) {
	switch {
	case t.IsImage():
		return 50, 25
	case t == FieldQRCode:
		return 30, 30
	default:
		return 100, 20
	}
}

// NewField creates a field with default geometry at the insertion point.
func NewField(t FieldType, name string) Field {
	w, h := DefaultSize(t)
	if name == "" {
		name = string(t)
	}
	f := Field{
		ID:     NewFieldID(),
		Type:   t,
		Name:   name,
		X:      InsertX,
		Y:      InsertY,
		Width:  w,
		Height: h,
	}
	if t.IsText() {
		f.FontSize = DefaultFontSize
		f.FontFamily = DefaultFontFamily
		f.FontWeight = WeightNormal
		f.Color = DefaultColor
		f.Align = AlignLeft
		f.Placeholder = name
	}
	return f
}

// ValidateFieldPosition reports whether the field's origin lies on the page
// and, for image fields, whether its box fits. It never mutates the field.
func ValidateFieldPosition(f Field, templateWidth, templateHeight float64) bool {
	if f.X < 0 || f.Y < 0 || f.X > templateWidth || f.Y > templateHeight {
		return false
	}
	if f.Type.IsImage() && f.Width > 0 && f.Height > 0 {
		if f.X+f.Width > templateWidth || f.Y+f.Height > templateHeight {
			return false
		}
	}
	return true
}

// Validate checks the hard invariants of a template. Position problems are
// advisory and reported by PositionWarnings instead.
func (t *Template) Validate() error {
	const op = "template.validate"

	if strings.TrimSpace(t.Name) == "" {
		return errs.Invalid(op, "name is required")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return errs.Invalid(op, "page size must be positive, got %vx%v mm", t.Width, t.Height)
	}

	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if f.ID == "" {
			return errs.Invalid(op, "field %d has no id", i)
		}
		if seen[f.ID] {
			return errs.Invalid(op, "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true

		if !f.Type.Valid() {
			return errs.Invalid(op, "field %q: unknown type %q", f.ID, f.Type)
		}
		if f.Width <= 0 || f.Height <= 0 {
			return errs.Invalid(op, "field %q: size must be positive", f.ID)
		}
		if !f.Type.IsText() {
			continue
		}
		if f.FontSize <= 0 {
			return errs.Invalid(op, "field %q: fontSize must be positive", f.ID)
		}
		switch f.Align {
		case "", AlignLeft, AlignCenter, AlignRight:
		default:
			return errs.Invalid(op, "field %q: unknown align %q", f.ID, f.Align)
		}
		switch f.FontWeight {
		case "", WeightNormal, WeightBold:
		default:
			return errs.Invalid(op, "field %q: unknown fontWeight %q", f.ID, f.FontWeight)
		}
		if f.Color != "" && !hexColorRegex.MatchString(f.Color) {
			return errs.Invalid(op, "field %q: color %q is not #RRGGBB", f.ID, f.Color)
		}
	}
	return nil
}

// PositionWarnings lists fields that fail ValidateFieldPosition.
func (t *Template) PositionWarnings() []string {
	var warnings []string
	for _, f := range t.Fields {
		if !ValidateFieldPosition(f, t.Width, t.Height) {
			warnings = append(warnings, fmt.Sprintf("field %q (%s) lies outside the %gx%g mm page", f.Name, f.ID, t.Width, t.Height))
		}
	}
	return warnings
}

// Validate checks the settings ranges.
func (s Settings) Validate() error {
	const op = "settings.validate"

	if s.NormalMoveAmount <= 0 || s.NormalMoveAmount > 10 {
		return errs.Invalid(op, "normalMoveAmount must be in (0, 10], got %v", s.NormalMoveAmount)
	}
	if s.ShiftMoveAmount <= 0 || s.ShiftMoveAmount > 10 {
		return errs.Invalid(op, "shiftMoveAmount must be in (0, 10], got %v", s.ShiftMoveAmount)
	}
	return nil
}
