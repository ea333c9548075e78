package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/nurpe/listing-carts/internal/model"
)

const (
	counterQuotePercent  = 95
	availabilityLeadDays = 7
	availabilityLayout   = "2006-01-02"
)

var (
	ErrCartNotNegotiating = errors.New("items can only change negotiation status while the cart is sent")
	ErrItemNotSelected    = errors.New("item is not selected")
	ErrItemFinal          = errors.New("item is already agent approved")
)

type ItemAction string

const (
	ItemAdvance ItemAction = "ADVANCE"
	ItemReset   ItemAction = "RESET"
)

// CheckItemGuard verifies the owning cart lets items negotiate.
func CheckItemGuard(cart *model.Cart, item *model.CartItem) error {
	if cart.Status != model.CartStatusSent {
		return fmt.Errorf("%w: cart is %s", ErrCartNotNegotiating, cart.Status)
	}
	if !item.Selected {
		return fmt.Errorf("%w: %s", ErrItemNotSelected, item.ServiceKey)
	}
	return nil
}

// AdvanceItem moves an item one step forward. Accepting synthesizes the provider's
// counter-quote and availability; approving keeps them as they are.
func AdvanceItem(item *model.CartItem, now time.Time) error {
	switch item.NegotiationStatus {
	case model.NegotiationPending:
		quote := CounterQuote(item.PriceCents)
		available := AvailabilityDate(now)
		response := fmt.Sprintf("Accepted. Available from %s.", available.Format(availabilityLayout))

		item.CounterQuoteCents = &quote
		item.AvailableOn = &available
		item.ProviderResponse = &response
		item.NegotiationStatus = model.NegotiationProviderAccepted
		return nil
	case model.NegotiationProviderAccepted:
		item.NegotiationStatus = model.NegotiationAgentApproved
		return nil
	case model.NegotiationAgentApproved:
		return fmt.Errorf("%w: %s", ErrItemFinal, item.ServiceKey)
	}
	return fmt.Errorf("unknown negotiation status %q", item.NegotiationStatus)
}

// ResetItem restarts a negotiation. It is the only backwards move an item can make.
func ResetItem(item *model.CartItem) {
	item.NegotiationStatus = model.NegotiationPending
	item.ProviderResponse = nil
	item.CounterQuoteCents = nil
	item.AvailableOn = nil
}

// CycleItem advances until agent approved and then starts over.
func CycleItem(item *model.CartItem, now time.Time) (ItemAction, error) {
	if item.NegotiationStatus == model.NegotiationAgentApproved {
		ResetItem(item)
		return ItemReset, nil
	}
	if err := AdvanceItem(item, now); err != nil {
		return "", err
	}
	return ItemAdvance, nil
}

// CounterQuote is 95% of price, halves rounded up.
func CounterQuote(priceCents int64) int64 {
	return (priceCents*counterQuotePercent + 50) / 100
}

// AvailabilityDate is the UTC calendar day a week after now.
func AvailabilityDate(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+availabilityLeadDays, 0, 0, 0, 0, time.UTC)
}
