package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/generator"
	"certificate-service/internal/layout"
	"certificate-service/internal/models"
)

// TemplateService manages template definitions.
type TemplateService struct {
	templates TemplateRepository
}

func NewTemplateService(templates TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	return s.templates.Get(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, activeOnly bool) ([]*models.Template, error) {
	return s.templates.List(ctx, activeOnly)
}

// Create stores a new template under a fresh id. Fields without an id get
// one. Out-of-page fields are reported, not rejected.
func (s *TemplateService) Create(ctx context.Context, t *models.Template) (*models.SaveTemplateResponse, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Time{}
	return s.save(ctx, t)
}

// Update replaces the template with id. Its creation time is kept.
func (s *TemplateService) Update(ctx context.Context, id string, t *models.Template) (*models.SaveTemplateResponse, error) {
	existing, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.CreatedAt = existing.CreatedAt
	return s.save(ctx, t)
}

func (s *TemplateService) save(ctx context.Context, t *models.Template) (*models.SaveTemplateResponse, error) {
	if t.Fields == nil {
		t.Fields = []models.Field{}
	}
	for i := range t.Fields {
		if t.Fields[i].ID == "" {
			t.Fields[i].ID = models.NewFieldID()
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	warnings := t.PositionWarnings()
	if err := s.templates.Save(ctx, t); err != nil {
		return nil, err
	}
	klog.Infof("saved template %s (%q, %d fields, %d warnings)", t.ID, t.Name, len(t.Fields), len(warnings))
	return &models.SaveTemplateResponse{Template: t, Warnings: warnings}, nil
}

// Delete removes the template. Issued certificates keep their reference
// and fail to render with NotFound afterwards.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	klog.Infof("deleted template %s", id)
	return nil
}

// PreviewRequest selects what the designer shows.
type PreviewRequest struct {
	Scale             float64
	Values            map[string]string
	BackgroundVisible *bool
	SelectedID        string
}

// Preview lays the template out for the designer. Custom fonts are
// injected into session once each.
func (s *TemplateService) Preview(ctx context.Context, id string, req PreviewRequest, session *fonts.Session) (*generator.InteractiveLayout, error) {
	tpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Scale == 0 {
		req.Scale = 1
	}
	if req.Scale < 0 {
		return nil, errs.Invalid("template.preview", "scale must be positive, got %v", req.Scale)
	}
	l := layout.ResolveLayout(tpl, req.Values, req.BackgroundVisible)
	return generator.BuildInteractive(l, req.Scale, session, req.SelectedID), nil
}
