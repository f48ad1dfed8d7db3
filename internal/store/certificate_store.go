package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
)

type certificateRecord struct {
	ID                string                                `gorm:"primaryKey;size:64"`
	TemplateID        string                                `gorm:"size:64;index;not null"`
	RecipientName     string                                `gorm:"size:255"`
	IssuedTo          string                                `gorm:"size:255"`
	FieldValues       datatypes.JSONType[map[string]string] `gorm:"type:json"`
	BackgroundVisible bool
	// NULL when unset, so the unique index only covers assigned numbers
	CertificateNumber *string `gorm:"size:64;uniqueIndex"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (certificateRecord) TableName() string { return "certificates" }

func toCertificateRecord(c *models.Certificate) *certificateRecord {
	rec := &certificateRecord{
		ID:                c.ID,
		TemplateID:        c.TemplateID,
		RecipientName:     c.RecipientName,
		IssuedTo:          c.IssuedTo,
		FieldValues:       datatypes.NewJSONType(c.FieldValues),
		BackgroundVisible: c.BackgroundVisible,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.CertificateNumber != "" {
		n := c.CertificateNumber
		rec.CertificateNumber = &n
	}
	return rec
}

func (r *certificateRecord) model() *models.Certificate {
	values := r.FieldValues.Data()
	if values == nil {
		values = map[string]string{}
	}
	c := &models.Certificate{
		ID:                r.ID,
		TemplateID:        r.TemplateID,
		RecipientName:     r.RecipientName,
		IssuedTo:          r.IssuedTo,
		FieldValues:       values,
		BackgroundVisible: r.BackgroundVisible,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.CertificateNumber != nil {
		c.CertificateNumber = *r.CertificateNumber
	}
	return c
}

// CertificateStore persists issued certificates.
type CertificateStore struct {
	db *gorm.DB
}

func NewCertificateStore(db *gorm.DB) *CertificateStore {
	return &CertificateStore{db: db}
}

// Get returns the certificate with id.
func (s *CertificateStore) Get(ctx context.Context, id string) (*models.Certificate, error) {
	var rec certificateRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "certificate.get", "certificate", id)
	}
	return rec.model(), nil
}

// List returns certificates, newest first. A non-empty templateID filters.
func (s *CertificateStore) List(ctx context.Context, templateID string) ([]*models.Certificate, error) {
	var recs []certificateRecord
	q := s.db.WithContext(ctx).Order("created_at DESC, id ASC")
	if templateID != "" {
		q = q.Where("template_id = ?", templateID)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("certificate.list: %w", err)
	}
	out := make([]*models.Certificate, len(recs))
	for i := range recs {
		out[i] = recs[i].model()
	}
	return out, nil
}

// Create inserts c. A certificate number already in use is a Constraint error.
func (s *CertificateStore) Create(ctx context.Context, c *models.Certificate) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkNumberFree(tx, c.CertificateNumber, c.ID); err != nil {
			return err
		}
		if err := tx.Create(toCertificateRecord(c)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.Conflict("certificate.create", "certificate number %q already issued", c.CertificateNumber)
			}
			return fmt.Errorf("certificate.create: %w", err)
		}
		return nil
	})
}

// UpdateFields applies patch to the certificate with id and returns the
// result. The template reference never changes.
func (s *CertificateStore) UpdateFields(ctx context.Context, id string, patch models.CertificatePatch) (*models.Certificate, error) {
	var out *models.Certificate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec certificateRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return notFound(err, "certificate.update", "certificate", id)
		}
		c := rec.model()
		patch.Apply(c)
		c.UpdatedAt = time.Now().UTC()

		if patch.CertificateNumber != nil {
			if err := checkNumberFree(tx, c.CertificateNumber, id); err != nil {
				return err
			}
		}
		if err := tx.Save(toCertificateRecord(c)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.Conflict("certificate.update", "certificate number %q already issued", c.CertificateNumber)
			}
			return fmt.Errorf("certificate.update %s: %w", id, err)
		}
		out = c
		return nil
	})
	return out, err
}

// Delete removes the certificate.
func (s *CertificateStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&certificateRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("certificate.delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("certificate.delete", "certificate", id)
	}
	return nil
}

func checkNumberFree(tx *gorm.DB, number, selfID string) error {
	if number == "" {
		return nil
	}
	var n int64
	err := tx.Model(&certificateRecord{}).
		Where("certificate_number = ? AND id <> ?", number, selfID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("certificate number lookup: %w", err)
	}
	if n > 0 {
		return errs.Conflict("certificate.number", "certificate number %q already issued", number)
	}
	return nil
}
