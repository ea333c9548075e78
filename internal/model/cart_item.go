package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NegotiationStatus string

const (
	NegotiationPending          NegotiationStatus = "PENDING"
	NegotiationProviderAccepted NegotiationStatus = "PROVIDER_ACCEPTED"
	NegotiationAgentApproved    NegotiationStatus = "AGENT_APPROVED"
)

// CartItem is a snapshot of a catalog service taken when the cart was created.
// Name, description and supplier type are never re-read from the catalog.
type CartItem struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CartID            uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;index"`
	ServiceKey        string            `gorm:"column:service_key;not null"`
	Name              string            `gorm:"column:name;not null"`
	Description       string            `gorm:"column:description;not null"`
	SupplierType      string            `gorm:"column:supplier_type;not null"`
	Position          int               `gorm:"column:position;not null"`
	Selected          bool              `gorm:"column:selected;not null"`
	PriceCents        int64             `gorm:"column:price_cents;not null"`
	VendorID          *uuid.UUID        `gorm:"column:vendor_id;type:uuid"`
	Note              *string           `gorm:"column:note"`
	NegotiationStatus NegotiationStatus `gorm:"column:negotiation_status;type:negotiation_status;not null"`
	ProviderResponse  *string           `gorm:"column:provider_response"`
	CounterQuoteCents *int64            `gorm:"column:counter_quote_cents"`
	AvailableOn       *time.Time        `gorm:"column:available_on;type:date"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }

func (i *CartItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
