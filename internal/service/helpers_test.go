package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/metrics"
	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/repository"
	"github.com/nurpe/listing-carts/internal/testutil"
)

var fixedNow = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

type harness struct {
	db       *gorm.DB
	store    *repository.Store
	carts    *CartService
	vendors  *VendorService
	settings *SettingsService
	agent    model.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedCatalog(t, db,
		model.CatalogService{Key: "photos", Name: "Photography", SupplierType: "photographer", DefaultSelected: true},
		model.CatalogService{Key: "signage", Name: "Yard sign", SupplierType: "signage"},
		model.CatalogService{Key: "copy", Name: "Listing copy", SupplierType: "writer", DefaultSelected: true},
	)

	store := repository.NewStore(db)
	composer := notification.NewComposer("https://carts.example.com", "USD")
	carts := NewCartService(store, composer, nil, metrics.NewCartMetrics(prometheus.NewRegistry()), zerolog.Nop(), decimal.NewFromInt(10))
	carts.now = func() time.Time { return fixedNow }

	return &harness{
		db:       db,
		store:    store,
		carts:    carts,
		vendors:  NewVendorService(store),
		settings: NewSettingsService(store, decimal.NewFromInt(10)),
		agent:    model.Principal{AgentID: uuid.New(), Name: "Alex Agent", Email: "alex@agency.test"},
	}
}

func (h *harness) createCart(t *testing.T) *model.Cart {
	t.Helper()
	cart, err := h.carts.CreateCart(context.Background(), CreateCartInput{
		Agent:           h.agent,
		PropertyAddress: "12 Harbor Lane",
		OwnerName:       "Dana Owner",
		PaymentTiming:   model.PaymentTimingAtClosing,
		PaymentMethod:   model.PaymentMethodACH,
	})
	require.NoError(t, err)
	return cart
}

// seedVendors links v@example.com to photos and signage (as two vendor records)
// and w@example.com to copy.
func (h *harness) seedVendors(t *testing.T) (v, vAlias, w model.Vendor) {
	t.Helper()
	v = testutil.SeedVendor(t, h.db, "Vivid Media", "v@example.com", "photos", 100000, 0)
	vAlias = testutil.SeedVendor(t, h.db, "Vivid Signs", "V@Example.com ", "signage", 20000, 0)
	w = testutil.SeedVendor(t, h.db, "Wordsmith", "w@example.com", "copy", 5000, 0)
	return v, vAlias, w
}

func (h *harness) messages(t *testing.T, cartID uuid.UUID) []model.OutboundMessage {
	t.Helper()
	msgs, err := h.store.Messages.ListByCart(context.Background(), cartID)
	require.NoError(t, err)
	return msgs
}

func countByType(msgs []model.OutboundMessage) map[model.MessageTargetType]int {
	out := map[model.MessageTargetType]int{}
	for _, m := range msgs {
		out[m.TargetType]++
	}
	return out
}

// scriptedCounter replays fixed values, then keeps counting from the last one.
type scriptedCounter struct {
	mu     sync.Mutex
	values []int64
	last   int64
}

func (c *scriptedCounter) Increment(_ context.Context, _ string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.values) > 0 {
		c.last = c.values[0]
		c.values = c.values[1:]
		return c.last, nil
	}
	c.last++
	return c.last, nil
}

// Seed makes scriptedCounter usable as an external sequence.
func (c *scriptedCounter) Seed(_ context.Context, _ string, floor int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if floor > c.last {
		c.last = floor
	}
	return c.last, nil
}
