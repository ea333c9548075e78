package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceAudit keeps the raw/markup split of every price written to a cart item.
// It is internal: owner and vendor read paths only ever see CartItem.PriceCents.
type PriceAudit struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID            uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	CartItemID        uuid.UUID       `gorm:"column:cart_item_id;type:uuid;not null"`
	VendorID          *uuid.UUID      `gorm:"column:vendor_id;type:uuid"`
	RawCents          int64           `gorm:"column:raw_cents;not null"`
	CommissionPercent decimal.Decimal `gorm:"column:commission_percent;type:numeric(7,2);not null"`
	DisplayedCents    int64           `gorm:"column:displayed_cents;not null"`
	MarginCents       int64           `gorm:"column:margin_cents;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (PriceAudit) TableName() string { return "price_audits" }

func (a *PriceAudit) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
