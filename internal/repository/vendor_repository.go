package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/listing-carts/internal/model"
)

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// MapByIDs loads the given vendors keyed by id. Unknown ids are skipped.
func (r *VendorRepository) MapByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Vendor, error) {
	out := make(map[uuid.UUID]model.Vendor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var vendors []model.Vendor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&vendors).Error; err != nil {
		return nil, err
	}
	for _, vendor := range vendors {
		out[vendor.ID] = vendor
	}
	return out, nil
}

// UpsertLink creates the vendor's quote for a service or replaces quote and priority.
func (r *VendorRepository) UpsertLink(ctx context.Context, link *model.ServiceVendorLink) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_key"}, {Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quote_cents", "priority", "updated_at"}),
	}).Create(link).Error
}

func (r *VendorRepository) GetLink(ctx context.Context, serviceKey string, vendorID uuid.UUID) (*model.ServiceVendorLink, error) {
	var link model.ServiceVendorLink
	err := r.db.WithContext(ctx).
		Where("service_key = ? AND vendor_id = ?", serviceKey, vendorID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListLinks returns a service's links, first choice first.
func (r *VendorRepository) ListLinks(ctx context.Context, serviceKey string) ([]model.ServiceVendorLink, error) {
	var links []model.ServiceVendorLink
	err := r.db.WithContext(ctx).
		Where("service_key = ?", serviceKey).
		Order("priority ASC").
		Order("vendor_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// TopLink returns the first-choice link of a service, or gorm.ErrRecordNotFound.
func (r *VendorRepository) TopLink(ctx context.Context, serviceKey string) (*model.ServiceVendorLink, error) {
	links, err := r.ListLinks(ctx, serviceKey)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &links[0], nil
}

// SetPriority rewrites one link's priority.
func (r *VendorRepository) SetPriority(ctx context.Context, serviceKey string, vendorID uuid.UUID, priority int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE service_vendor_links
		SET priority = ?, updated_at = CURRENT_TIMESTAMP
		WHERE service_key = ? AND vendor_id = ?
	`, priority, serviceKey, vendorID).Error
}

// ServiceVendor is a vendor as offered for one service.
type ServiceVendor struct {
	VendorID     uuid.UUID
	Name         string
	Email        string
	SupplierType string
	QuoteCents   int64
	Priority     int
}

func (r *VendorRepository) ListForService(ctx context.Context, serviceKey string) ([]ServiceVendor, error) {
	var rows []ServiceVendor
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			v.id AS vendor_id,
			v.name,
			v.email,
			v.supplier_type,
			l.quote_cents,
			l.priority
		FROM service_vendor_links l
		JOIN vendors v ON v.id = l.vendor_id
		WHERE l.service_key = ?
		ORDER BY l.priority ASC, v.name ASC
	`, serviceKey).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
