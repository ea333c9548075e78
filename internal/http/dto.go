package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/repository"
)

const dateLayout = "2006-01-02"

type vendorRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type itemResponse struct {
	ServiceKey        string                  `json:"service_key"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	SupplierType      string                  `json:"supplier_type"`
	Position          int                     `json:"position"`
	Selected          bool                    `json:"selected"`
	PriceCents        int64                   `json:"price_cents"`
	Vendor            *vendorRef              `json:"vendor,omitempty"`
	Note              *string                 `json:"note,omitempty"`
	NegotiationStatus model.NegotiationStatus `json:"negotiation_status"`
	ProviderResponse  *string                 `json:"provider_response,omitempty"`
	CounterQuoteCents *int64                  `json:"counter_quote_cents,omitempty"`
	AvailableOn       *string                 `json:"available_on,omitempty"`
}

type cartResponse struct {
	ID                 uuid.UUID                `json:"id"`
	SequenceLabel      string                   `json:"sequence_label"`
	PropertyAddress    string                   `json:"property_address"`
	OwnerName          string                   `json:"owner_name"`
	OwnerEmail         *string                  `json:"owner_email,omitempty"`
	OwnerPhone         *string                  `json:"owner_phone,omitempty"`
	AgentName          string                   `json:"agent_name"`
	AgentEmail         string                   `json:"agent_email"`
	Status             model.CartStatus         `json:"status"`
	FinalizationMode   *model.FinalizationMode  `json:"finalization_mode,omitempty"`
	PaymentTiming      model.PaymentTiming      `json:"payment_timing"`
	PaymentMethod      model.PaymentMethod      `json:"payment_method"`
	CommunicationMode  *model.CommunicationMode `json:"communication_mode,omitempty"`
	TotalCents         int64                    `json:"total_cents"`
	SelectedTotalCents int64                    `json:"selected_total_cents"`
	ReviewURL          string                   `json:"review_url,omitempty"`
	SentAt             *time.Time               `json:"sent_at,omitempty"`
	ApprovedAt         *time.Time               `json:"approved_at,omitempty"`
	VendorApprovedAt   *time.Time               `json:"vendor_approved_at,omitempty"`
	InvoicedAt         *time.Time               `json:"invoiced_at,omitempty"`
	PaidAt             *time.Time               `json:"paid_at,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	Items              []itemResponse           `json:"items"`
}

type cartSummary struct {
	ID              uuid.UUID        `json:"id"`
	SequenceLabel   string           `json:"sequence_label"`
	PropertyAddress string           `json:"property_address"`
	OwnerName       string           `json:"owner_name"`
	Status          model.CartStatus `json:"status"`
	TotalCents      int64            `json:"total_cents"`
	CreatedAt       time.Time        `json:"created_at"`
}

type messageResponse struct {
	ID         uuid.UUID               `json:"id"`
	TargetType model.MessageTargetType `json:"target_type"`
	Transition string                  `json:"transition"`
	Recipient  *string                 `json:"recipient"`
	Subject    string                  `json:"subject"`
	Body       string                  `json:"body"`
	CreatedAt  time.Time               `json:"created_at"`
}

type settingsResponse struct {
	AgentID           uuid.UUID       `json:"agent_id"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	AutoApply         bool            `json:"auto_apply"`
}

type serviceVendorResponse struct {
	VendorID     uuid.UUID `json:"vendor_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	SupplierType string    `json:"supplier_type"`
	QuoteCents   int64     `json:"quote_cents"`
	Priority     int       `json:"priority"`
}

type catalogServiceResponse struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	BasePriceCents  int64  `json:"base_price_cents"`
	SupplierType    string `json:"supplier_type"`
	DefaultSelected bool   `json:"default_selected"`
	Position        int    `json:"position"`
	Active          bool   `json:"active"`
}

type vendorResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	SupplierType string    `json:"supplier_type"`
}

// toCartResponse renders a cart. reviewURL is only passed for agent views; the
// owner view never carries the access token.
func toCartResponse(cart *model.Cart, vendors map[uuid.UUID]model.Vendor, reviewURL string) cartResponse {
	resp := cartResponse{
		ID:                 cart.ID,
		SequenceLabel:      cart.SequenceLabel,
		PropertyAddress:    cart.PropertyAddress,
		OwnerName:          cart.OwnerName,
		OwnerEmail:         cart.OwnerEmail,
		OwnerPhone:         cart.OwnerPhone,
		AgentName:          cart.AgentName,
		AgentEmail:         cart.AgentEmail,
		Status:             cart.Status,
		FinalizationMode:   cart.FinalizationMode,
		PaymentTiming:      cart.PaymentTiming,
		PaymentMethod:      cart.PaymentMethod,
		CommunicationMode:  cart.CommunicationMode,
		TotalCents:         cart.TotalCents,
		SelectedTotalCents: cart.SelectedTotal(),
		ReviewURL:          reviewURL,
		SentAt:             cart.SentAt,
		ApprovedAt:         cart.ApprovedAt,
		VendorApprovedAt:   cart.VendorApprovedAt,
		InvoicedAt:         cart.InvoicedAt,
		PaidAt:             cart.PaidAt,
		CreatedAt:          cart.CreatedAt,
		Items:              make([]itemResponse, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, toItemResponse(item, vendors))
	}
	return resp
}

func toItemResponse(item model.CartItem, vendors map[uuid.UUID]model.Vendor) itemResponse {
	resp := itemResponse{
		ServiceKey:        item.ServiceKey,
		Name:              item.Name,
		Description:       item.Description,
		SupplierType:      item.SupplierType,
		Position:          item.Position,
		Selected:          item.Selected,
		PriceCents:        item.PriceCents,
		Note:              item.Note,
		NegotiationStatus: item.NegotiationStatus,
		ProviderResponse:  item.ProviderResponse,
		CounterQuoteCents: item.CounterQuoteCents,
	}
	if item.VendorID != nil {
		ref := vendorRef{ID: *item.VendorID}
		if vendor, ok := vendors[*item.VendorID]; ok {
			ref.Name = vendor.Name
		}
		resp.Vendor = &ref
	}
	if item.AvailableOn != nil {
		date := item.AvailableOn.Format(dateLayout)
		resp.AvailableOn = &date
	}
	return resp
}

func toCartSummaries(carts []model.Cart) []cartSummary {
	out := make([]cartSummary, 0, len(carts))
	for _, cart := range carts {
		out = append(out, cartSummary{
			ID:              cart.ID,
			SequenceLabel:   cart.SequenceLabel,
			PropertyAddress: cart.PropertyAddress,
			OwnerName:       cart.OwnerName,
			Status:          cart.Status,
			TotalCents:      cart.TotalCents,
			CreatedAt:       cart.CreatedAt,
		})
	}
	return out
}

func toMessageResponses(messages []model.OutboundMessage) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:         m.ID,
			TargetType: m.TargetType,
			Transition: m.Transition,
			Recipient:  m.Recipient,
			Subject:    m.Subject,
			Body:       m.Body,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out
}

func toSettingsResponse(s *model.AgentSettings) settingsResponse {
	return settingsResponse{
		AgentID:           s.AgentID,
		CommissionPercent: s.CommissionPercent,
		AutoApply:         s.AutoApply,
	}
}

func toServiceVendorResponses(rows []repository.ServiceVendor) []serviceVendorResponse {
	out := make([]serviceVendorResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, serviceVendorResponse{
			VendorID:     row.VendorID,
			Name:         row.Name,
			Email:        row.Email,
			SupplierType: row.SupplierType,
			QuoteCents:   row.QuoteCents,
			Priority:     row.Priority,
		})
	}
	return out
}

func toCatalogServiceResponse(svc model.CatalogService) catalogServiceResponse {
	return catalogServiceResponse{
		Key:             svc.Key,
		Name:            svc.Name,
		Description:     svc.Description,
		BasePriceCents:  svc.BasePriceCents,
		SupplierType:    svc.SupplierType,
		DefaultSelected: svc.DefaultSelected,
		Position:        svc.Position,
		Active:          svc.Active,
	}
}

func toVendorResponse(v *model.Vendor) vendorResponse {
	return vendorResponse{
		ID:           v.ID,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		SupplierType: v.SupplierType,
	}
}
