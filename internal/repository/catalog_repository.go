package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/listing-carts/internal/model"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListActive returns the services a new cart is seeded with, in catalog order.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]model.CatalogService, error) {
	var services []model.CatalogService
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("position ASC").
		Order("service_key ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *CatalogRepository) Get(ctx context.Context, key string) (*model.CatalogService, error) {
	var service model.CatalogService
	if err := r.db.WithContext(ctx).Where("service_key = ?", key).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepository) Upsert(ctx context.Context, service *model.CatalogService) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_key"}},
		UpdateAll: true,
	}).Create(service).Error
}
