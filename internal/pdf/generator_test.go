package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/listing-carts/internal/model"
)

func invoiceDocument() model.InvoiceDocument {
	vendorID := uuid.MustParse("7d4f1c0e-6a3b-4c5d-8e9f-0a1b2c3d4e5f")
	available := time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
	email := "owner@example.com"
	return model.InvoiceDocument{
		Cart: model.Cart{
			SequenceLabel:   "LC-007",
			PropertyAddress: "12 Harbour Road",
			OwnerName:       "Sam Owner",
			OwnerEmail:      &email,
			AgentName:       "Dana Agent",
			AgentEmail:      "dana@example.com",
			PaymentTiming:   model.PaymentTimingAtClosing,
			PaymentMethod:   model.PaymentMethodACH,
		},
		Items: []model.CartItem{
			{Name: "Photography", PriceCents: 110000, VendorID: &vendorID, AvailableOn: &available},
			{Name: "Signage", PriceCents: 22000},
		},
		Vendors:   map[uuid.UUID]model.Vendor{vendorID: {ID: vendorID, Name: "Bright Photo"}},
		ReviewURL: "https://carts.example.com/owner/carts/abc123",
		IssuedAt:  time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	out, err := NewGenerator("USD").Generate(invoiceDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte("/Subtype /Image")), "review link QR code is embedded")
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := NewGenerator("USD")
	first, err := g.Generate(invoiceDocument())
	require.NoError(t, err)
	second, err := g.Generate(invoiceDocument())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateWithoutReviewLink(t *testing.T) {
	doc := invoiceDocument()
	doc.ReviewURL = ""
	doc.Items = nil

	out, err := NewGenerator("CAD").Generate(doc)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(out, []byte("/Subtype /Image")))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "At closing", humanize("AT_CLOSING"))
	assert.Equal(t, "ACH", humanize("ACH"))
	assert.Equal(t, "Card", humanize("CARD"))
	assert.Equal(t, "", humanize(""))
}
