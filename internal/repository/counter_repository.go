package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/listing-carts/internal/model"
)

// CounterRepository keeps named sequences in cart_counters. The UPDATE holds the
// counter row lock until the surrounding transaction ends, which serializes
// concurrent creators.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

func (r *CounterRepository) Increment(ctx context.Context, name string) (int64, error) {
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Counter{Name: name, Value: 0}).Error; err != nil {
		return 0, fmt.Errorf("ensure counter %s: %w", name, err)
	}

	res := db.Model(&model.Counter{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, res.Error)
	}

	var counter model.Counter
	if err := db.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// Current reads a sequence without advancing it. A sequence never drawn is zero.
func (r *CounterRepository) Current(ctx context.Context, name string) (int64, error) {
	var counter model.Counter
	err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return counter.Value, nil
}
