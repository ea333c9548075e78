package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AgentSettings struct {
	AgentID           uuid.UUID       `gorm:"column:agent_id;type:uuid;primaryKey"`
	CommissionPercent decimal.Decimal `gorm:"column:commission_percent;type:numeric(7,2);not null"`
	AutoApply         bool            `gorm:"column:auto_apply;not null"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AgentSettings) TableName() string { return "agent_settings" }

// EffectivePercent is the markup the commission engine should apply.
func (s AgentSettings) EffectivePercent() decimal.Decimal {
	if !s.AutoApply {
		return decimal.Zero
	}
	return s.CommissionPercent
}
