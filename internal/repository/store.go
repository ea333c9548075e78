package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db       *gorm.DB
	Carts    *CartRepository
	Vendors  *VendorRepository
	Catalog  *CatalogRepository
	Settings *SettingsRepository
	Messages *MessageRepository
	Audits   *AuditRepository
	Counters *CounterRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Carts:    NewCartRepository(db),
		Vendors:  NewVendorRepository(db),
		Catalog:  NewCatalogRepository(db),
		Settings: NewSettingsRepository(db),
		Messages: NewMessageRepository(db),
		Audits:   NewAuditRepository(db),
		Counters: NewCounterRepository(db),
	}
}

// WithinTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise, including
// on panic. fn must only use the Store it is handed.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
