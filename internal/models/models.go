package models

import (
	"time"
)

// ============ TEMPLATE STRUCTURES ============

// FieldType is the variant of a template field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldDate      FieldType = "date"
	FieldSignature FieldType = "signature"
	FieldImage     FieldType = "image"
	FieldQRCode    FieldType = "qrcode"
)

// IsText reports whether the field carries a text value (text or date).
func (t FieldType) IsText() bool {
	return t == FieldText || t == FieldDate
}

// IsImage reports whether the field draws a referenced raster image.
func (t FieldType) IsImage() bool {
	return t == FieldSignature || t == FieldImage
}

// TakesValue reports whether certificates supply a value for the field.
func (t FieldType) TakesValue() bool {
	return t.IsText() || t == FieldQRCode
}

// Valid reports whether t is a known variant.
func (t FieldType) Valid() bool {
	return t.TakesValue() || t.IsImage()
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// Template is a reusable certificate design. Width and Height are the
// physical page size in millimeters.
type Template struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Width              float64   `json:"width"`
	Height             float64   `json:"height"`
	BackgroundImageURL string    `json:"backgroundImageUrl"`
	Fields             []Field   `json:"fields"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Field is a positioned element of a template. X and Y are the top-left
// corner in millimeters relative to the page's top-left corner.
type Field struct {
	ID     string    `json:"id"`
	Type   FieldType `json:"type"`
	Name   string    `json:"name"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`

	// text/date
	FontSize    float64    `json:"fontSize,omitempty"` // points
	FontFamily  string     `json:"fontFamily,omitempty"`
	FontWeight  FontWeight `json:"fontWeight,omitempty"`
	Color       string     `json:"color,omitempty"`
	Align       Align      `json:"align,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`

	// signature/image
	SignatureImageURL string `json:"signatureImageUrl,omitempty"`
}

// FieldByID returns the field with the given id.
func (t *Template) FieldByID(id string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	c := *t
	c.Fields = CloneFields(t.Fields)
	return &c
}

// CloneFields copies a field slice. Fields hold no pointers, so a slice
// copy is a deep copy.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ============ CERTIFICATE STRUCTURES ============

// Certificate is an issuance record binding recipient values to a template.
type Certificate struct {
	ID                string            `json:"id"`
	TemplateID        string            `json:"templateId"`
	RecipientName     string            `json:"recipientName"`
	IssuedTo          string            `json:"issuedTo,omitempty"`
	FieldValues       map[string]string `json:"fieldValues"`
	BackgroundVisible bool              `json:"backgroundVisible"`
	CertificateNumber string            `json:"certificateNumber,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// CertificatePatch is a partial update. Nil members are left unchanged;
// the template reference cannot be patched.
type CertificatePatch struct {
	RecipientName     *string           `json:"recipientName,omitempty"`
	IssuedTo          *string           `json:"issuedTo,omitempty"`
	FieldValues       map[string]string `json:"fieldValues,omitempty"`
	BackgroundVisible *bool             `json:"backgroundVisible,omitempty"`
	CertificateNumber *string           `json:"certificateNumber,omitempty"`
}

// Apply copies the set members of p onto c.
func (p CertificatePatch) Apply(c *Certificate) {
	if p.RecipientName != nil {
		c.RecipientName = *p.RecipientName
	}
	if p.IssuedTo != nil {
		c.IssuedTo = *p.IssuedTo
	}
	if p.FieldValues != nil {
		c.FieldValues = p.FieldValues
	}
	if p.BackgroundVisible != nil {
		c.BackgroundVisible = *p.BackgroundVisible
	}
	if p.CertificateNumber != nil {
		c.CertificateNumber = *p.CertificateNumber
	}
}

// ============ FONT STRUCTURES ============

type FontKind string

const (
	FontBuiltin FontKind = "builtin"
	FontCustom  FontKind = "custom"
)

// Font is a selectable font family. Custom fonts are addressed by their
// stored filename without extension.
type Font struct {
	Name     string   `json:"name"`
	Kind     FontKind `json:"kind"`
	Filename string   `json:"filename,omitempty"`
}

// ============ SETTINGS ============

// Settings are the editor and issuance options administrators can change.
type Settings struct {
	NormalMoveAmount         float64 `json:"normalMoveAmount" yaml:"normal_move_amount"`
	ShiftMoveAmount          float64 `json:"shiftMoveAmount" yaml:"shift_move_amount"`
	DefaultBackgroundVisible bool    `json:"defaultBackgroundVisible" yaml:"default_background_visible"`
}

// DefaultSettings returns the stock nudge steps (0.5mm and 1mm) with
// backgrounds shown.
func DefaultSettings() Settings {
	return Settings{
		NormalMoveAmount:         0.5,
		ShiftMoveAmount:          1.0,
		DefaultBackgroundVisible: true,
	}
}

// ============ REQUEST/RESPONSE STRUCTURES ============

// RenderRequest carries per-issuance values for an ad-hoc render.
type RenderRequest struct {
	FieldValues       map[string]string `json:"fieldValues"`
	BackgroundVisible *bool             `json:"backgroundVisible,omitempty"`
	Format            string            `json:"format,omitempty"`
}

// SaveTemplateResponse returns the stored template plus advisory warnings.
type SaveTemplateResponse struct {
	Template *Template `json:"template"`
	Warnings []string  `json:"warnings,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}
