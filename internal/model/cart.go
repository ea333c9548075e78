package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartStatus string

const (
	CartStatusDraft          CartStatus = "DRAFT"
	CartStatusSent           CartStatus = "SENT"
	CartStatusVendorApproved CartStatus = "VENDOR_APPROVED"
	CartStatusApproved       CartStatus = "APPROVED"
	CartStatusInvoiceSent    CartStatus = "INVOICE_SENT"
	CartStatusPaid           CartStatus = "PAID"
)

// FinalizationMode records which exit a cart took out of DRAFT.
type FinalizationMode string

const (
	FinalizationNegotiated FinalizationMode = "NEGOTIATED"
	FinalizationDirect     FinalizationMode = "DIRECT"
)

type PaymentTiming string

const (
	PaymentTimingAtListing PaymentTiming = "AT_LISTING"
	PaymentTimingAtClosing PaymentTiming = "AT_CLOSING"
)

type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodACH   PaymentMethod = "ACH"
	PaymentMethodCheck PaymentMethod = "CHECK"
)

type CommunicationMode string

const (
	CommunicationFirstCome        CommunicationMode = "FIRST_COME_FIRST_SERVE"
	CommunicationReviewAndApprove CommunicationMode = "REVIEW_AND_APPROVE"
)

type Cart struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SequenceLabel     string             `gorm:"column:sequence_label;not null;uniqueIndex"`
	AccessToken       string             `gorm:"column:access_token;not null;uniqueIndex"`
	PropertyAddress   string             `gorm:"column:property_address;not null"`
	OwnerName         string             `gorm:"column:owner_name;not null"`
	OwnerEmail        *string            `gorm:"column:owner_email"`
	OwnerPhone        *string            `gorm:"column:owner_phone"`
	AgentID           uuid.UUID          `gorm:"column:agent_id;type:uuid;not null;index"`
	AgentName         string             `gorm:"column:agent_name;not null"`
	AgentEmail        string             `gorm:"column:agent_email;not null"`
	Status            CartStatus         `gorm:"column:status;type:cart_status;not null"`
	FinalizationMode  *FinalizationMode  `gorm:"column:finalization_mode;type:finalization_mode"`
	PaymentTiming     PaymentTiming      `gorm:"column:payment_timing;type:payment_timing;not null"`
	PaymentMethod     PaymentMethod      `gorm:"column:payment_method;type:payment_method;not null"`
	CommunicationMode *CommunicationMode `gorm:"column:communication_mode;type:communication_mode"`
	TotalCents        int64              `gorm:"column:total_cents;not null"`
	SentAt            *time.Time         `gorm:"column:sent_at"`
	ApprovedAt        *time.Time         `gorm:"column:approved_at"`
	VendorApprovedAt  *time.Time         `gorm:"column:vendor_approved_at"`
	InvoicedAt        *time.Time         `gorm:"column:invoiced_at"`
	PaidAt            *time.Time         `gorm:"column:paid_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	Items             []CartItem         `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SelectedItems returns the selected lines in cart order.
func (c *Cart) SelectedItems() []CartItem {
	selected := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Selected {
			selected = append(selected, item)
		}
	}
	return selected
}

// SelectedTotal sums the current prices of selected lines.
func (c *Cart) SelectedTotal() int64 {
	var total int64
	for _, item := range c.Items {
		if item.Selected {
			total += item.PriceCents
		}
	}
	return total
}

// ItemByKey returns a pointer into Items so callers can mutate the line in place.
func (c *Cart) ItemByKey(serviceKey string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ServiceKey == serviceKey {
			return &c.Items[i]
		}
	}
	return nil
}

func (t PaymentTiming) IsValid() bool {
	return t == PaymentTimingAtListing || t == PaymentTimingAtClosing
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodACH, PaymentMethodCheck:
		return true
	}
	return false
}

func (m CommunicationMode) IsValid() bool {
	return m == CommunicationFirstCome || m == CommunicationReviewAndApprove
}

// VendorIDs lists the distinct vendors assigned to the cart's items.
func (c *Cart) VendorIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if item.VendorID == nil {
			continue
		}
		if _, ok := seen[*item.VendorID]; ok {
			continue
		}
		seen[*item.VendorID] = struct{}{}
		ids = append(ids, *item.VendorID)
	}
	return ids
}
