package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists messages. Outbound messages are never updated afterwards.
func (r *MessageRepository) Append(ctx context.Context, messages []model.OutboundMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&messages).Error
}

func (r *MessageRepository) ListByCart(ctx context.Context, cartID uuid.UUID) ([]model.OutboundMessage, error) {
	var messages []model.OutboundMessage
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("target_type ASC").
		Order("recipient ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
