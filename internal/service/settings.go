package service

import (
	"context"

	"certificate-service/internal/models"
)

// SettingsService reads and changes the editor and issuance settings.
type SettingsService struct {
	settings SettingsRepository
}

func NewSettingsService(settings SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.settings.Get(ctx)
}

// Update validates and stores new settings.
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if err := settings.Validate(); err != nil {
		return models.Settings{}, err
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}
