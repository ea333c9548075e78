package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageTargetType string

const (
	MessageAgentSummary MessageTargetType = "AGENT_SUMMARY"
	MessageWorkOrder    MessageTargetType = "WORK_ORDER"
	MessageInvoice      MessageTargetType = "INVOICE"
)

// OutboundMessage is write-once. Rows are never updated or deleted.
type OutboundMessage struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CartID     uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;index"`
	TargetType MessageTargetType `gorm:"column:target_type;type:message_target_type;not null"`
	Transition string            `gorm:"column:transition;not null"`
	Recipient  *string           `gorm:"column:recipient"`
	Subject    string            `gorm:"column:subject;not null"`
	Body       string            `gorm:"column:body;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OutboundMessage) TableName() string { return "outbound_messages" }

func (m *OutboundMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
