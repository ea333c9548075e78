package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/model"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, audits ...model.PriceAudit) error {
	if len(audits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&audits).Error
}

func (r *AuditRepository) ListByCart(ctx context.Context, cartID uuid.UUID) ([]model.PriceAudit, error) {
	var audits []model.PriceAudit
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}

// MarginRows returns the price in force for every selected item of the agent's
// carts finalized within [from, to). An item repriced while drafting has several
// audits; only the latest one counts.
func (r *AuditRepository) MarginRows(ctx context.Context, agentID uuid.UUID, from, to time.Time) ([]model.MarginRow, error) {
	var rows []struct {
		CartItemID        uuid.UUID
		CartID            uuid.UUID
		SequenceLabel     string
		PropertyAddress   string
		ServiceName       string
		VendorName        *string
		RawCents          int64
		CommissionPercent decimal.Decimal
		DisplayedCents    int64
		MarginCents       int64
		CreatedAt         time.Time
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			pa.cart_item_id,
			pa.cart_id,
			c.sequence_label,
			c.property_address,
			ci.name AS service_name,
			v.name AS vendor_name,
			pa.raw_cents,
			pa.commission_percent,
			pa.displayed_cents,
			pa.margin_cents,
			pa.created_at
		FROM price_audits pa
		JOIN carts c ON c.id = pa.cart_id
		JOIN cart_items ci ON ci.id = pa.cart_item_id
		LEFT JOIN vendors v ON v.id = pa.vendor_id
		WHERE c.agent_id = ?
			AND ci.selected = ?
			AND c.status IN (?)
			AND COALESCE(c.approved_at, c.vendor_approved_at) >= ?
			AND COALESCE(c.approved_at, c.vendor_approved_at) < ?
		ORDER BY CAST(c.sequence_label AS BIGINT) ASC, ci.position ASC, pa.created_at ASC
	`,
		agentID,
		true,
		[]string{
			string(model.CartStatusVendorApproved),
			string(model.CartStatusApproved),
			string(model.CartStatusInvoiceSent),
			string(model.CartStatusPaid),
		},
		from,
		to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]int, len(rows))
	out := make([]model.MarginRow, 0, len(rows))
	for _, row := range rows {
		mr := model.MarginRow{
			CartID:            row.CartID,
			SequenceLabel:     row.SequenceLabel,
			PropertyAddress:   row.PropertyAddress,
			ServiceName:       row.ServiceName,
			VendorName:        row.VendorName,
			RawCents:          row.RawCents,
			CommissionPercent: row.CommissionPercent,
			DisplayedCents:    row.DisplayedCents,
			MarginCents:       row.MarginCents,
			CreatedAt:         row.CreatedAt,
		}
		if idx, ok := latest[row.CartItemID]; ok {
			out[idx] = mr
			continue
		}
		latest[row.CartItemID] = len(out)
		out = append(out, mr)
	}
	return out, nil
}
