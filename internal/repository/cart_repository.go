package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/listing-carts/internal/model"
)

// labelOrder compares labels as numbers so that "1000" follows "999".
const labelOrder = "CAST(sequence_label AS BIGINT)"

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Create inserts the cart together with its items.
func (r *CartRepository) Create(ctx context.Context, cart *model.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, false, "id = ?", id)
}

// GetByIDForUpdate locks the cart row until the surrounding transaction ends.
func (r *CartRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, true, "id = ?", id)
}

func (r *CartRepository) GetByToken(ctx context.Context, token string) (*model.Cart, error) {
	return r.get(ctx, false, "access_token = ?", token)
}

func (r *CartRepository) GetByTokenForUpdate(ctx context.Context, token string) (*model.Cart, error) {
	return r.get(ctx, true, "access_token = ?", token)
}

func (r *CartRepository) get(ctx context.Context, lock bool, where string, arg interface{}) (*model.Cart, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart model.Cart
	if err := query.Where(where, arg).First(&cart).Error; err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Order("service_key ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListByAgent returns the agent's carts, newest first, without items.
func (r *CartRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, status *model.CartStatus) ([]model.Cart, error) {
	query := r.db.WithContext(ctx).Where("agent_id = ?", agentID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var carts []model.Cart
	if err := query.Order("created_at DESC").Order(labelOrder + " DESC").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// Save writes the cart row only. Items are written with SaveItems.
func (r *CartRepository) Save(ctx context.Context, cart *model.Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(cart).Error
}

// SaveItems writes every item as one set; callers run it inside a transaction.
func (r *CartRepository) SaveItems(ctx context.Context, items []model.CartItem) error {
	for i := range items {
		if err := r.SaveItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *CartRepository) SaveItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// MaxSequence is the highest numeric sequence label issued so far, or zero.
func (r *CartRepository) MaxSequence(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Select("MAX(" + labelOrder + ")").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}
