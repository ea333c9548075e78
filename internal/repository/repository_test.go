package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/testutil"
)

func newCart(label, token string, agentID uuid.UUID) *model.Cart {
	return &model.Cart{
		SequenceLabel:   label,
		AccessToken:     token,
		PropertyAddress: "12 Harbor Lane",
		OwnerName:       "Dana Owner",
		AgentID:         agentID,
		AgentName:       "Alex Agent",
		AgentEmail:      "alex@agency.test",
		Status:          model.CartStatusDraft,
		PaymentTiming:   model.PaymentTimingAtListing,
		PaymentMethod:   model.PaymentMethodCard,
		Items: []model.CartItem{
			{ServiceKey: "signage", Name: "Yard sign", Position: 1, NegotiationStatus: model.NegotiationPending},
			{ServiceKey: "photos", Name: "Photography", Position: 0, Selected: true, NegotiationStatus: model.NegotiationPending},
		},
	}
}

func TestCartRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	agentID := uuid.New()

	cart := newCart("001", "token-1", agentID)
	require.NoError(t, store.Carts.Create(ctx, cart))
	require.NotEqual(t, uuid.Nil, cart.ID)

	loaded, err := store.Carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "photos", loaded.Items[0].ServiceKey)
	assert.Equal(t, "signage", loaded.Items[1].ServiceKey)

	byToken, err := store.Carts.GetByTokenForUpdate(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, byToken.ID)

	_, err = store.Carts.GetByToken(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	loaded.Status = model.CartStatusApproved
	loaded.Items[1].Selected = true
	loaded.Items[1].PriceCents = 25000
	require.NoError(t, store.Carts.Save(ctx, loaded))
	require.NoError(t, store.Carts.SaveItems(ctx, loaded.Items))

	again, err := store.Carts.GetByIDForUpdate(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CartStatusApproved, again.Status)
	assert.True(t, again.Items[1].Selected)
	assert.Equal(t, int64(25000), again.Items[1].PriceCents)

	carts, err := store.Carts.ListByAgent(ctx, agentID, nil)
	require.NoError(t, err)
	assert.Len(t, carts, 1)
}

func TestCartRepositoryRejectsDuplicateLabel(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))

	require.NoError(t, store.Carts.Create(ctx, newCart("001", "token-1", uuid.New())))
	err := store.Carts.Create(ctx, newCart("001", "token-2", uuid.New()))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCartRepositoryOrdersLabelsNumerically(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	agentID := uuid.New()
	createdAt := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

	for _, label := range []string{"999", "1000", "010"} {
		cart := newCart(label, "token-"+label, agentID)
		cart.CreatedAt = createdAt
		require.NoError(t, store.Carts.Create(ctx, cart))
	}

	carts, err := store.Carts.ListByAgent(ctx, agentID, nil)
	require.NoError(t, err)
	labels := make([]string, 0, len(carts))
	for _, c := range carts {
		labels = append(labels, c.SequenceLabel)
	}
	assert.Equal(t, []string{"1000", "999", "010"}, labels)

	max, err := store.Carts.MaxSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), max)
}

func TestCartRepositoryMaxSequenceWithoutCarts(t *testing.T) {
	max, err := NewStore(testutil.NewDB(t)).Carts.MaxSequence(context.Background())
	require.NoError(t, err)
	assert.Zero(t, max)
}

func TestCounterRepositoryIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))

	for want := int64(1); want <= 3; want++ {
		got, err := store.Counters.Increment(ctx, model.CartSequenceCounter)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := store.Counters.Increment(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	current, err := store.Counters.Current(ctx, model.CartSequenceCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)

	unused, err := store.Counters.Current(ctx, "unused")
	require.NoError(t, err)
	assert.Zero(t, unused)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx *Store) error {
		if _, err := tx.Counters.Increment(ctx, model.CartSequenceCounter); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Counters.Increment(ctx, model.CartSequenceCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestVendorRepositoryLinksAndPriorities(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)

	first := testutil.SeedVendor(t, db, "Vivid Media", "v@example.com", "photos", 100000, 0)
	second := testutil.SeedVendor(t, db, "Bright Shots", "b@example.com", "photos", 90000, 1)

	top, err := store.Vendors.TopLink(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, first.ID, top.VendorID)

	require.NoError(t, store.Vendors.SetPriority(ctx, "photos", first.ID, 1))
	require.NoError(t, store.Vendors.SetPriority(ctx, "photos", second.ID, 0))

	offered, err := store.Vendors.ListForService(ctx, "photos")
	require.NoError(t, err)
	require.Len(t, offered, 2)
	assert.Equal(t, "Bright Shots", offered[0].Name)
	assert.Equal(t, int64(90000), offered[0].QuoteCents)

	require.NoError(t, store.Vendors.UpsertLink(ctx, &model.ServiceVendorLink{
		ServiceKey: "photos", VendorID: first.ID, QuoteCents: 120000, Priority: 1,
	}))
	link, err := store.Vendors.GetLink(ctx, "photos", first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), link.QuoteCents)

	_, err = store.Vendors.TopLink(ctx, "signage")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	vendors, err := store.Vendors.MapByIDs(ctx, []uuid.UUID{first.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, vendors, 1)
	assert.Equal(t, "Vivid Media", vendors[first.ID].Name)
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	agentID := uuid.New()

	_, err := store.Settings.Get(ctx, agentID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, store.Settings.Upsert(ctx, &model.AgentSettings{
		AgentID: agentID, CommissionPercent: decimal.RequireFromString("7.5"), AutoApply: true,
	}))
	require.NoError(t, store.Settings.Upsert(ctx, &model.AgentSettings{
		AgentID: agentID, CommissionPercent: decimal.RequireFromString("12.25"), AutoApply: false,
	}))

	settings, err := store.Settings.Get(ctx, agentID)
	require.NoError(t, err)
	assert.True(t, settings.CommissionPercent.Equal(decimal.RequireFromString("12.25")))
	assert.False(t, settings.AutoApply)
}

func TestAuditRepositoryMarginRowsKeepsLatestPrice(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	agentID := uuid.New()

	cart := newCart("001", "token-1", agentID)
	require.NoError(t, store.Carts.Create(ctx, cart))
	photos := cart.ItemByKey("photos")

	base := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Audits.Append(ctx,
		model.PriceAudit{CartID: cart.ID, CartItemID: photos.ID, RawCents: 50000, CommissionPercent: decimal.NewFromInt(10),
			DisplayedCents: 55000, MarginCents: 5000, CreatedAt: base},
		model.PriceAudit{CartID: cart.ID, CartItemID: photos.ID, RawCents: 100000, CommissionPercent: decimal.NewFromInt(10),
			DisplayedCents: 110000, MarginCents: 10000, CreatedAt: base.Add(time.Minute)},
	))

	rows, err := store.Audits.MarginRows(ctx, agentID, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows, "draft carts are not reported")

	approvedAt := base.Add(2 * time.Minute)
	cart.Status = model.CartStatusApproved
	cart.ApprovedAt = &approvedAt
	require.NoError(t, store.Carts.Save(ctx, cart))

	rows, err = store.Audits.MarginRows(ctx, agentID, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Photography", rows[0].ServiceName)
	assert.Equal(t, int64(100000), rows[0].RawCents)
	assert.Equal(t, int64(10000), rows[0].MarginCents)
	assert.True(t, rows[0].CommissionPercent.Equal(decimal.NewFromInt(10)))

	rows, err = store.Audits.MarginRows(ctx, agentID, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMessageRepositoryAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))
	cartID := uuid.New()
	v, w := "v@example.com", "w@example.com"

	require.NoError(t, store.Messages.Append(ctx, nil))
	require.NoError(t, store.Messages.Append(ctx, []model.OutboundMessage{
		{CartID: cartID, TargetType: model.MessageWorkOrder, Transition: "SEND", Recipient: &w, Subject: "s", Body: "b"},
		{CartID: cartID, TargetType: model.MessageWorkOrder, Transition: "SEND", Recipient: &v, Subject: "s", Body: "b"},
	}))

	messages, err := store.Messages.ListByCart(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}
