package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/repository"
)

// maxCommissionPercent is the largest value numeric(7,2) holds.
var maxCommissionPercent = decimal.RequireFromString("99999.99")

type SettingsService struct {
	store             *repository.Store
	defaultCommission decimal.Decimal
}

func NewSettingsService(store *repository.Store, defaultCommission decimal.Decimal) *SettingsService {
	return &SettingsService{store: store, defaultCommission: defaultCommission}
}

// Get returns the agent's settings, or the service defaults if none were saved.
func (s *SettingsService) Get(ctx context.Context, agentID uuid.UUID) (*model.AgentSettings, error) {
	if agentID == uuid.Nil {
		return nil, invalidInput("agent id is required")
	}
	settings, err := s.store.Settings.Get(ctx, agentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := defaultSettings(agentID, s.defaultCommission)
		return &d, nil
	}
	if err != nil {
		return nil, classify(err, "settings")
	}
	return settings, nil
}

// Update stores the agent's commission. It applies to prices assigned from now on;
// existing cart prices are not recomputed.
func (s *SettingsService) Update(ctx context.Context, agentID uuid.UUID, percent decimal.Decimal, autoApply bool) (*model.AgentSettings, error) {
	if agentID == uuid.Nil {
		return nil, invalidInput("agent id is required")
	}
	if percent.IsNegative() {
		return nil, invalidInput("commission_percent must not be negative")
	}
	if percent.GreaterThan(maxCommissionPercent) {
		return nil, invalidInput("commission_percent must not exceed %s", maxCommissionPercent)
	}

	settings := &model.AgentSettings{
		AgentID:           agentID,
		CommissionPercent: percent.Round(2),
		AutoApply:         autoApply,
	}
	if err := s.store.Settings.Upsert(ctx, settings); err != nil {
		return nil, classify(err, "settings")
	}
	return settings, nil
}

func defaultSettings(agentID uuid.UUID, percent decimal.Decimal) model.AgentSettings {
	return model.AgentSettings{
		AgentID:           agentID,
		CommissionPercent: percent,
		AutoApply:         true,
	}
}
