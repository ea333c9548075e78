// Package testutil provides an in-memory database with the service schema for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/listing-carts/internal/model"
)

// NewDB opens a private in-memory sqlite database migrated with every model.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.CatalogService{},
		&model.Vendor{},
		&model.ServiceVendorLink{},
		&model.AgentSettings{},
		&model.Cart{},
		&model.CartItem{},
		&model.PriceAudit{},
		&model.OutboundMessage{},
		&model.Counter{},
	))
	return db
}

// SeedCatalog inserts services in the order given; position follows the slice.
func SeedCatalog(t *testing.T, db *gorm.DB, services ...model.CatalogService) {
	t.Helper()
	for i := range services {
		services[i].Position = i
		services[i].Active = true
		require.NoError(t, db.Create(&services[i]).Error)
	}
}

// SeedVendor creates a vendor and links it to serviceKey with the given quote and priority.
func SeedVendor(t *testing.T, db *gorm.DB, name, email, serviceKey string, quoteCents int64, priority int) model.Vendor {
	t.Helper()
	vendor := model.Vendor{Name: name, Email: email, Phone: "555-0100", SupplierType: "vendor"}
	require.NoError(t, db.Create(&vendor).Error)
	require.NoError(t, db.Create(&model.ServiceVendorLink{
		ServiceKey: serviceKey,
		VendorID:   vendor.ID,
		QuoteCents: quoteCents,
		Priority:   priority,
	}).Error)
	return vendor
}
