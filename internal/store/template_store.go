package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
)

type templateRecord struct {
	ID                 string                            `gorm:"primaryKey;size:64"`
	Name               string                            `gorm:"size:255;not null"`
	Description        string                            `gorm:"type:text"`
	Width              float64                           `gorm:"not null"`
	Height             float64                           `gorm:"not null"`
	BackgroundImageURL string                            `gorm:"type:text"`
	Fields             datatypes.JSONSlice[models.Field] `gorm:"type:json"`
	IsActive           bool                              `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (templateRecord) TableName() string { return "templates" }

func toTemplateRecord(t *models.Template) *templateRecord {
	return &templateRecord{
		ID:                 t.ID,
		Name:               t.Name,
		Description:        t.Description,
		Width:              t.Width,
		Height:             t.Height,
		BackgroundImageURL: t.BackgroundImageURL,
		Fields:             datatypes.JSONSlice[models.Field](models.CloneFields(t.Fields)),
		IsActive:           t.IsActive,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func (r *templateRecord) model() *models.Template {
	fields := []models.Field(r.Fields)
	if fields == nil {
		fields = []models.Field{}
	}
	return &models.Template{
		ID:                 r.ID,
		Name:               r.Name,
		Description:        r.Description,
		Width:              r.Width,
		Height:             r.Height,
		BackgroundImageURL: r.BackgroundImageURL,
		Fields:             fields,
		IsActive:           r.IsActive,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// TemplateStore persists templates. The field list is stored as one JSON
// document, so a save replaces it atomically.
type TemplateStore struct {
	db *gorm.DB
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// Get returns the template with id.
func (s *TemplateStore) Get(ctx context.Context, id string) (*models.Template, error) {
	var rec templateRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "template.get", "template", id)
	}
	return rec.model(), nil
}

// List returns templates by name. activeOnly drops inactive templates.
func (s *TemplateStore) List(ctx context.Context, activeOnly bool) ([]*models.Template, error) {
	var recs []templateRecord
	q := s.db.WithContext(ctx).Order("name ASC, id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("template.list: %w", err)
	}
	out := make([]*models.Template, len(recs))
	for i := range recs {
		out[i] = recs[i].model()
	}
	return out, nil
}

// Save inserts or fully replaces t. UpdatedAt is set to now; CreatedAt is
// set when zero.
func (s *TemplateStore) Save(ctx context.Context, t *models.Template) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(toTemplateRecord(t)).Error; err != nil {
		return fmt.Errorf("template.save %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes the template. Certificates issued from it are kept.
func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&templateRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("template.delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("template.delete", "template", id)
	}
	return nil
}
