package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/listing-carts/internal/model"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns gorm.ErrRecordNotFound for agents that never saved settings.
func (r *SettingsRepository) Get(ctx context.Context, agentID uuid.UUID) (*model.AgentSettings, error) {
	var settings model.AgentSettings
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.AgentSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"commission_percent", "auto_apply", "updated_at"}),
	}).Create(settings).Error
}
