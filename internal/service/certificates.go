package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
)

// IssueRequest is the input for issuing a certificate.
type IssueRequest struct {
	TemplateID        string            `json:"templateId"`
	RecipientName     string            `json:"recipientName"`
	IssuedTo          string            `json:"issuedTo,omitempty"`
	FieldValues       map[string]string `json:"fieldValues"`
	BackgroundVisible *bool             `json:"backgroundVisible,omitempty"`
	CertificateNumber string            `json:"certificateNumber,omitempty"`
}

// CertificateService issues and maintains certificates.
type CertificateService struct {
	certs     CertificateRepository
	templates TemplateRepository
	settings  SettingsRepository
}

func NewCertificateService(certs CertificateRepository, templates TemplateRepository, settings SettingsRepository) *CertificateService {
	return &CertificateService{certs: certs, templates: templates, settings: settings}
}

func (s *CertificateService) Get(ctx context.Context, id string) (*models.Certificate, error) {
	return s.certs.Get(ctx, id)
}

func (s *CertificateService) List(ctx context.Context, templateID string) ([]*models.Certificate, error) {
	return s.certs.List(ctx, templateID)
}

// Issue creates a certificate for an existing template. Values for ids
// that are not value-taking fields of the template are dropped. Without an
// explicit choice the background follows the settings default.
func (s *CertificateService) Issue(ctx context.Context, req IssueRequest) (*models.Certificate, error) {
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, errs.Invalid("certificate.issue", "templateId is required")
	}
	tpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	var show bool
	if req.BackgroundVisible != nil {
		show = *req.BackgroundVisible
	} else {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		show = settings.DefaultBackgroundVisible
	}

	cert := &models.Certificate{
		ID:                uuid.NewString(),
		TemplateID:        tpl.ID,
		RecipientName:     strings.TrimSpace(req.RecipientName),
		IssuedTo:          strings.TrimSpace(req.IssuedTo),
		FieldValues:       filterValues(tpl, req.FieldValues),
		BackgroundVisible: show,
		CertificateNumber: strings.TrimSpace(req.CertificateNumber),
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, err
	}
	klog.Infof("issued certificate %s from template %s", cert.ID, tpl.ID)
	return cert, nil
}

// Update patches a certificate. Field values are filtered against the
// certificate's template when it still exists.
func (s *CertificateService) Update(ctx context.Context, id string, patch models.CertificatePatch) (*models.Certificate, error) {
	if patch.FieldValues != nil {
		cert, err := s.certs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		tpl, err := s.templates.Get(ctx, cert.TemplateID)
		switch {
		case err == nil:
			patch.FieldValues = filterValues(tpl, patch.FieldValues)
		case !errs.IsNotFound(err):
			return nil, err
		}
	}
	if patch.CertificateNumber != nil {
		n := strings.TrimSpace(*patch.CertificateNumber)
		patch.CertificateNumber = &n
	}
	return s.certs.UpdateFields(ctx, id, patch)
}

func (s *CertificateService) Delete(ctx context.Context, id string) error {
	return s.certs.Delete(ctx, id)
}

func filterValues(tpl *models.Template, values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for id, v := range values {
		if f, ok := tpl.FieldByID(id); ok && f.Type.TakesValue() {
			out[id] = v
		}
	}
	return out
}
