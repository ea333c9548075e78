package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MarginRow struct {
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

type MarginReport struct {
	AgentID     uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Rows        []MarginRow
}

func (r MarginReport) Totals() (raw, displayed, margin int64) {
	for _, row := range r.Rows {
		raw += row.RawCents
		displayed += row.DisplayedCents
		margin += row.MarginCents
	}
	return raw, displayed, margin
}

// InvoiceDocument is everything the invoice renderer needs. It deliberately
// carries no raw quotes or commission figures.
type InvoiceDocument struct {
	Cart      Cart
	Items     []CartItem
	Vendors   map[uuid.UUID]Vendor
	ReviewURL string
	IssuedAt  time.Time
}
