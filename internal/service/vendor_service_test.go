package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/listing-carts/internal/model"
)

func TestLinkVendorAppendsAndKeepsPriority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.vendors.CreateVendor(ctx, CreateVendorInput{Name: "Vivid Media", Email: "v@example.com", SupplierType: "photographer"})
	require.NoError(t, err)
	second, err := h.vendors.CreateVendor(ctx, CreateVendorInput{Name: "Bright Shots", Email: "b@example.com"})
	require.NoError(t, err)

	link, err := h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: first.ID, QuoteCents: 100000})
	require.NoError(t, err)
	assert.Equal(t, 0, link.Priority)

	link, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: second.ID, QuoteCents: 90000})
	require.NoError(t, err)
	assert.Equal(t, 1, link.Priority)

	link, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: first.ID, QuoteCents: 95000})
	require.NoError(t, err)
	assert.Equal(t, 0, link.Priority, "requoting keeps the vendor's place")

	offered, err := h.vendors.ListServiceVendors(ctx, "photos")
	require.NoError(t, err)
	require.Len(t, offered, 2)
	assert.Equal(t, "Vivid Media", offered[0].Name)
	assert.Equal(t, int64(95000), offered[0].QuoteCents)

	_, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "drone", VendorID: first.ID})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: first.ID, QuoteCents: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateVendorValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.vendors.CreateVendor(context.Background(), CreateVendorInput{Email: "v@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.vendors.CreateVendor(context.Background(), CreateVendorInput{Name: "V", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReorderVendorsRewritesPrioritiesAsASet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	v, _, _ := h.seedVendors(t)
	bright, err := h.vendors.CreateVendor(ctx, CreateVendorInput{Name: "Bright Shots", Email: "b@example.com"})
	require.NoError(t, err)
	_, err = h.vendors.LinkVendor(ctx, LinkVendorInput{ServiceKey: "photos", VendorID: bright.ID, QuoteCents: 80000})
	require.NoError(t, err)

	_, err = h.vendors.ReorderVendors(ctx, "photos", []uuid.UUID{bright.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.vendors.ReorderVendors(ctx, "photos", []uuid.UUID{bright.ID, bright.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.vendors.ReorderVendors(ctx, "photos", []uuid.UUID{bright.ID, uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.vendors.ReorderVendors(ctx, "staging", []uuid.UUID{v.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	links, err := h.vendors.ReorderVendors(ctx, "photos", []uuid.UUID{bright.ID, v.ID})
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, bright.ID, links[0].VendorID)
	assert.Equal(t, 0, links[0].Priority)
	assert.Equal(t, v.ID, links[1].VendorID)
	assert.Equal(t, 1, links[1].Priority)

	cart := h.createCart(t)
	cart, err = h.carts.SetItemSelection(ctx, cart.ID, "photos", true)
	require.NoError(t, err)
	assert.Equal(t, bright.ID, *cart.ItemByKey("photos").VendorID, "new first choice is used")
	assert.Equal(t, int64(88000), cart.ItemByKey("photos").PriceCents)
}

func TestCatalogUpsertAffectsNewCartsOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.createCart(t)

	_, err := h.vendors.UpsertCatalogService(ctx, model.CatalogService{
		Key: "photos", Name: "Pro Photography", SupplierType: "photographer", Position: 0, Active: true,
	})
	require.NoError(t, err)

	reloaded, err := h.carts.GetCart(ctx, before.ID)
	require.NoError(t, err)
	assert.Equal(t, "Photography", reloaded.ItemByKey("photos").Name)

	after := h.createCart(t)
	assert.Equal(t, "Pro Photography", after.ItemByKey("photos").Name)

	_, err = h.vendors.UpsertCatalogService(ctx, model.CatalogService{Name: "No key"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSettingsService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	agentID := uuid.New()

	settings, err := h.settings.Get(ctx, agentID)
	require.NoError(t, err)
	assert.True(t, settings.AutoApply)
	assert.True(t, settings.CommissionPercent.Equal(decimal.NewFromInt(10)))

	settings, err = h.settings.Update(ctx, agentID, decimal.RequireFromString("12.345"), false)
	require.NoError(t, err)
	assert.Equal(t, "12.35", settings.CommissionPercent.StringFixed(2))

	stored, err := h.settings.Get(ctx, agentID)
	require.NoError(t, err)
	assert.False(t, stored.AutoApply)
	assert.True(t, stored.EffectivePercent().IsZero())

	_, err = h.settings.Update(ctx, agentID, decimal.NewFromInt(-1), true)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.settings.Update(ctx, agentID, decimal.NewFromInt(100000), true)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.settings.Get(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
