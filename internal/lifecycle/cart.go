// Package lifecycle holds the cart and item state machines. Everything here is pure:
// callers load state, apply a transition in memory and persist the result themselves.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nurpe/listing-carts/internal/model"
)

type Transition string

const (
	TransitionSend          Transition = "SEND"
	TransitionApprove       Transition = "APPROVE"
	TransitionVendorApprove Transition = "VENDOR_APPROVE"
	TransitionInvoice       Transition = "INVOICE"
	TransitionPay           Transition = "PAY"
)

var (
	ErrIllegalTransition = errors.New("transition not allowed from current status")
	ErrEmptySelection    = errors.New("at least one service must be selected")
	ErrUnknownService    = errors.New("unknown service key")
	ErrNotEditable       = errors.New("cart can only be edited while in draft")
)

type edge struct {
	from       model.CartStatus
	transition Transition
}

var cartEdges = map[edge]model.CartStatus{
	{model.CartStatusDraft, TransitionSend}:             model.CartStatusSent,
	{model.CartStatusDraft, TransitionApprove}:          model.CartStatusApproved,
	{model.CartStatusSent, TransitionVendorApprove}:     model.CartStatusVendorApproved,
	{model.CartStatusVendorApproved, TransitionInvoice}: model.CartStatusInvoiceSent,
	{model.CartStatusApproved, TransitionInvoice}:       model.CartStatusInvoiceSent,
	{model.CartStatusInvoiceSent, TransitionPay}:        model.CartStatusPaid,
}

// Next returns the status a cart in from reaches through t.
func Next(from model.CartStatus, t Transition) (model.CartStatus, error) {
	to, ok := cartEdges[edge{from: from, transition: t}]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrIllegalTransition, t, from)
	}
	return to, nil
}

func CanEdit(status model.CartStatus) bool {
	return status == model.CartStatusDraft
}

// IsFinalized reports whether the cart total has been snapshotted.
func IsFinalized(status model.CartStatus) bool {
	switch status {
	case model.CartStatusVendorApproved, model.CartStatusApproved,
		model.CartStatusInvoiceSent, model.CartStatusPaid:
		return true
	}
	return false
}

// ModeFor is the finalization mode chosen by a transition leaving DRAFT.
func ModeFor(t Transition) (model.FinalizationMode, bool) {
	switch t {
	case TransitionSend:
		return model.FinalizationNegotiated, true
	case TransitionApprove:
		return model.FinalizationDirect, true
	}
	return "", false
}

// Apply moves cart through t and stamps the derived fields of the new status.
// The cart is left untouched when the transition is illegal.
func Apply(cart *model.Cart, t Transition, now time.Time) error {
	to, err := Next(cart.Status, t)
	if err != nil {
		return err
	}
	if mode, ok := ModeFor(t); ok {
		cart.FinalizationMode = &mode
	}

	ts := now.UTC()
	switch t {
	case TransitionSend:
		cart.SentAt = &ts
	case TransitionApprove:
		cart.TotalCents = cart.SelectedTotal()
		cart.ApprovedAt = &ts
	case TransitionVendorApprove:
		cart.TotalCents = cart.SelectedTotal()
		cart.VendorApprovedAt = &ts
	case TransitionInvoice:
		cart.InvoicedAt = &ts
	case TransitionPay:
		cart.PaidAt = &ts
	}
	cart.Status = to
	return nil
}

// ApplySelection overwrites every item's selection flag from keys. Nothing is
// changed unless every key names an item of the cart.
func ApplySelection(cart *model.Cart, keys []string) error {
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if cart.ItemByKey(key) == nil {
			return fmt.Errorf("%w: %s", ErrUnknownService, key)
		}
		wanted[key] = struct{}{}
	}
	if len(wanted) == 0 {
		return ErrEmptySelection
	}

	for i := range cart.Items {
		_, ok := wanted[cart.Items[i].ServiceKey]
		cart.Items[i].Selected = ok
	}
	return nil
}

// ReadyForVendorApproval reports whether a SENT cart should auto-advance: the
// selected set is non-empty and every selected item is agent approved.
func ReadyForVendorApproval(cart *model.Cart) bool {
	if cart.Status != model.CartStatusSent {
		return false
	}
	selected := 0
	for _, item := range cart.Items {
		if !item.Selected {
			continue
		}
		selected++
		if item.NegotiationStatus != model.NegotiationAgentApproved {
			return false
		}
	}
	return selected > 0
}
