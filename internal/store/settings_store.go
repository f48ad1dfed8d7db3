package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"certificate-service/internal/models"
)

const settingsRowID = 1

type settingsRecord struct {
	ID                       uint `gorm:"primaryKey"`
	NormalMoveAmount         float64
	ShiftMoveAmount          float64
	DefaultBackgroundVisible bool
}

func (settingsRecord) TableName() string { return "settings" }

// SettingsStore keeps the single settings row. Until one is saved the
// configured defaults apply.
type SettingsStore struct {
	db       *gorm.DB
	defaults models.Settings
}

func NewSettingsStore(db *gorm.DB, defaults models.Settings) *SettingsStore {
	return &SettingsStore{db: db, defaults: defaults}
}

func (s *SettingsStore) Get(ctx context.Context) (models.Settings, error) {
	// No row until settings are first saved.
	var rec settingsRecord
	res := s.db.WithContext(ctx).Limit(1).Find(&rec, settingsRowID)
	if res.Error != nil {
		return models.Settings{}, fmt.Errorf("settings.get: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.defaults, nil
	}
	return models.Settings{
		NormalMoveAmount:         rec.NormalMoveAmount,
		ShiftMoveAmount:          rec.ShiftMoveAmount,
		DefaultBackgroundVisible: rec.DefaultBackgroundVisible,
	}, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings models.Settings) error {
	rec := settingsRecord{
		ID:                       settingsRowID,
		NormalMoveAmount:         settings.NormalMoveAmount,
		ShiftMoveAmount:          settings.ShiftMoveAmount,
		DefaultBackgroundVisible: settings.DefaultBackgroundVisible,
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("settings.save: %w", err)
	}
	return nil
}
