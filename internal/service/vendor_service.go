package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/repository"
)

// VendorService maintains the catalog, vendors and which vendor is first choice per service.
type VendorService struct {
	store *repository.Store
}

func NewVendorService(store *repository.Store) *VendorService {
	return &VendorService{store: store}
}

type CreateVendorInput struct {
	Name         string
	Email        string
	Phone        string
	SupplierType string
}

type LinkVendorInput struct {
	ServiceKey string
	VendorID   uuid.UUID
	QuoteCents int64
	Priority   *int
}

func (s *VendorService) ListCatalog(ctx context.Context) ([]model.CatalogService, error) {
	services, err := s.store.Catalog.ListActive(ctx)
	if err != nil {
		return nil, classify(err, "catalog")
	}
	return services, nil
}

// UpsertCatalogService changes the catalog for carts created afterwards. Existing
// cart items keep the values they were created with.
func (s *VendorService) UpsertCatalogService(ctx context.Context, svc model.CatalogService) (*model.CatalogService, error) {
	svc.Key = strings.TrimSpace(svc.Key)
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Key == "" {
		return nil, invalidInput("service key is required")
	}
	if svc.Name == "" {
		return nil, invalidInput("name is required")
	}
	if svc.BasePriceCents < 0 {
		return nil, invalidInput("base_price_cents must not be negative")
	}
	if err := s.store.Catalog.Upsert(ctx, &svc); err != nil {
		return nil, classify(err, "service")
	}
	return &svc, nil
}

func (s *VendorService) CreateVendor(ctx context.Context, input CreateVendorInput) (*model.Vendor, error) {
	vendor := &model.Vendor{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		SupplierType: strings.TrimSpace(input.SupplierType),
	}
	if vendor.Name == "" {
		return nil, invalidInput("name is required")
	}
	if vendor.Email != "" && !strings.Contains(vendor.Email, "@") {
		return nil, invalidInput("email %q is not an address", vendor.Email)
	}
	if err := s.store.Vendors.Create(ctx, vendor); err != nil {
		return nil, classify(err, "vendor")
	}
	return vendor, nil
}

// LinkVendor records the vendor's quote for a service. Without an explicit
// priority a new link goes to the end of the list and an existing one keeps its place.
func (s *VendorService) LinkVendor(ctx context.Context, input LinkVendorInput) (*model.ServiceVendorLink, error) {
	if input.QuoteCents < 0 {
		return nil, invalidInput("quote_cents must not be negative")
	}
	if input.Priority != nil && *input.Priority < 0 {
		return nil, invalidInput("priority must not be negative")
	}

	var link *model.ServiceVendorLink
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Catalog.Get(ctx, input.ServiceKey); err != nil {
			return classify(err, "service")
		}
		if _, err := tx.Vendors.GetByID(ctx, input.VendorID); err != nil {
			return classify(err, "vendor")
		}

		links, err := tx.Vendors.ListLinks(ctx, input.ServiceKey)
		if err != nil {
			return err
		}
		priority := len(links)
		for _, existing := range links {
			if existing.VendorID == input.VendorID {
				priority = existing.Priority
			}
		}
		if input.Priority != nil {
			priority = *input.Priority
		}

		link = &model.ServiceVendorLink{
			ServiceKey: input.ServiceKey,
			VendorID:   input.VendorID,
			QuoteCents: input.QuoteCents,
			Priority:   priority,
		}
		return tx.Vendors.UpsertLink(ctx, link)
	})
	if err != nil {
		return nil, classify(err, "vendor link")
	}
	return link, nil
}

func (s *VendorService) ListServiceVendors(ctx context.Context, serviceKey string) ([]repository.ServiceVendor, error) {
	if _, err := s.store.Catalog.Get(ctx, serviceKey); err != nil {
		return nil, classify(err, "service")
	}
	vendors, err := s.store.Vendors.ListForService(ctx, serviceKey)
	if err != nil {
		return nil, classify(err, "vendors")
	}
	return vendors, nil
}

// ReorderVendors rewrites every priority of a service at once. vendorIDs must
// name each linked vendor exactly once; its index becomes the priority.
func (s *VendorService) ReorderVendors(ctx context.Context, serviceKey string, vendorIDs []uuid.UUID) ([]model.ServiceVendorLink, error) {
	var links []model.ServiceVendorLink
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		current, err := tx.Vendors.ListLinks(ctx, serviceKey)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return newError(KindNotFound, nil, "service %q has no vendors", serviceKey)
		}
		if err := samePermutation(current, vendorIDs); err != nil {
			return err
		}

		for priority, vendorID := range vendorIDs {
			if err := tx.Vendors.SetPriority(ctx, serviceKey, vendorID, priority); err != nil {
				return err
			}
		}
		links, err = tx.Vendors.ListLinks(ctx, serviceKey)
		return err
	})
	if err != nil {
		return nil, classify(err, "vendor order")
	}
	return links, nil
}

func samePermutation(links []model.ServiceVendorLink, vendorIDs []uuid.UUID) error {
	if len(vendorIDs) != len(links) {
		return invalidInput("expected %d vendors, got %d", len(links), len(vendorIDs))
	}
	linked := make(map[uuid.UUID]bool, len(links))
	for _, link := range links {
		linked[link.VendorID] = false
	}
	for _, id := range vendorIDs {
		seen, ok := linked[id]
		if !ok {
			return invalidInput("vendor %s is not linked to this service", id)
		}
		if seen {
			return invalidInput("vendor %s listed twice", id)
		}
		linked[id] = true
	}
	return nil
}
