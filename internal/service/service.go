// Package service implements the template, certificate, settings and render
// operations on top of the stores, asset cache and generators.
package service

import (
	"context"

	"certificate-service/internal/models"
)

// TemplateRepository is implemented by *store.TemplateStore.
type TemplateRepository interface {
	Get(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Template, error)
	Save(ctx context.Context, t *models.Template) error
	Delete(ctx context.Context, id string) error
}

// CertificateRepository is implemented by *store.CertificateStore.
type CertificateRepository interface {
	Get(ctx context.Context, id string) (*models.Certificate, error)
	List(ctx context.Context, templateID string) ([]*models.Certificate, error)
	Create(ctx context.Context, c *models.Certificate) error
	UpdateFields(ctx context.Context, id string, patch models.CertificatePatch) (*models.Certificate, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepository is implemented by *store.SettingsStore.
type SettingsRepository interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}
