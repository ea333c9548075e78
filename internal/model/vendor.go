package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Vendor struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;not null"`
	Phone        string    `gorm:"column:phone;not null"`
	SupplierType string    `gorm:"column:supplier_type;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Vendor) TableName() string { return "vendors" }

func (v *Vendor) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// NormalizedEmail is the key work orders are grouped by.
func (v Vendor) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(v.Email))
}

// ServiceVendorLink is a vendor's quote for one catalog service. Priority 0 is the first choice.
type ServiceVendorLink struct {
	ServiceKey string    `gorm:"column:service_key;primaryKey"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;primaryKey"`
	QuoteCents int64     `gorm:"column:quote_cents;not null"`
	Priority   int       `gorm:"column:priority;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ServiceVendorLink) TableName() string { return "service_vendor_links" }
