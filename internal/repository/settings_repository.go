package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"invoicer/internal/model"
)

// SettingsRepository defines settings persistence operations.
type SettingsRepository interface {
	Create(ctx context.Context, settings *model.Settings) error
	Update(ctx context.Context, settings *model.Settings) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Settings, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Create creates the settings record of a user.
func (r *settingsRepository) Create(ctx context.Context, settings *model.Settings) error {
	return translate(r.db.WithContext(ctx).Create(settings).Error)
}

// Update saves every column of the settings record.
func (r *settingsRepository) Update(ctx context.Context, settings *model.Settings) error {
	return translate(r.db.WithContext(ctx).Save(settings).Error)
}

// FindByUserID finds the settings record owned by a user.
func (r *settingsRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Settings, error) {
	var settings model.Settings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}
