// Package notification renders the messages a cart transition sends out. Rendering is a
// pure function of the post-transition cart: identical input yields identical text.
package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/nurpe/listing-carts/internal/lifecycle"
	"github.com/nurpe/listing-carts/internal/model"
)

// Input is the state a transition left behind.
type Input struct {
	Transition lifecycle.Transition
	Cart       model.Cart
	Vendors    map[uuid.UUID]model.Vendor
}

type Composer struct {
	publicBaseURL string
	currency      string
}

func NewComposer(publicBaseURL, currency string) *Composer {
	return &Composer{
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		currency:      currency,
	}
}

// ReviewURL is the owner-facing link for a cart. The token in it is a bearer credential.
func (c *Composer) ReviewURL(token string) string {
	return c.publicBaseURL + "/owner/carts/" + token
}

// Compose returns the messages for in.Transition, in a stable order: the agent
// summary first, then one work order per vendor email. Transitions that notify
// nobody return an empty slice.
func (c *Composer) Compose(in Input) ([]model.OutboundMessage, error) {
	switch in.Transition {
	case lifecycle.TransitionSend:
		return c.workOrders(in)
	case lifecycle.TransitionApprove:
		summary, err := c.agentSummary(in, "The owner approved the cart. Work orders went out to the vendors below.")
		if err != nil {
			return nil, err
		}
		orders, err := c.workOrders(in)
		if err != nil {
			return nil, err
		}
		return append([]model.OutboundMessage{summary}, orders...), nil
	case lifecycle.TransitionVendorApprove:
		summary, err := c.agentSummary(in, "Every selected service has been confirmed by its vendor.")
		if err != nil {
			return nil, err
		}
		return []model.OutboundMessage{summary}, nil
	case lifecycle.TransitionInvoice:
		invoice, err := c.invoice(in)
		if err != nil {
			return nil, err
		}
		return []model.OutboundMessage{invoice}, nil
	case lifecycle.TransitionPay:
		return []model.OutboundMessage{}, nil
	}
	return nil, fmt.Errorf("no messages defined for transition %q", in.Transition)
}

type line struct {
	Name   string
	Price  string
	Vendor string
	Note   string
}

type summaryView struct {
	Cart       model.Cart
	Headline   string
	Timing     string
	Method     string
	Lines      []line
	Total      string
	Unassigned []line
}

type workOrderView struct {
	Cart          model.Cart
	RecipientName string
	Mode          string
	Lines         []line
	ReviewURL     string
}

type invoiceView struct {
	Cart      model.Cart
	Lines     []line
	Total     string
	Timing    string
	Method    string
	ReviewURL string
}

func (c *Composer) agentSummary(in Input, headline string) (model.OutboundMessage, error) {
	_, unassigned := GroupByVendorEmail(in.Cart.Items, in.Vendors)

	view := summaryView{
		Cart:     in.Cart,
		Headline: headline,
		Timing:   timingLabel(in.Cart.PaymentTiming),
		Method:   methodLabel(in.Cart.PaymentMethod),
		Total:    FormatCents(in.Cart.TotalCents, c.currency),
	}
	for _, item := range ordered(in.Cart.Items) {
		if !item.Selected {
			continue
		}
		l := line{Name: item.Name, Price: FormatCents(item.PriceCents, c.currency)}
		if vendor, ok := lookupVendor(item, in.Vendors); ok {
			l.Vendor = vendor.Name
		}
		view.Lines = append(view.Lines, l)
	}
	for _, item := range unassigned {
		view.Unassigned = append(view.Unassigned, line{Name: item.Name})
	}

	body, err := render(agentSummaryTmpl, view)
	if err != nil {
		return model.OutboundMessage{}, err
	}
	recipient := in.Cart.AgentEmail
	return model.OutboundMessage{
		CartID:     in.Cart.ID,
		TargetType: model.MessageAgentSummary,
		Transition: string(in.Transition),
		Recipient:  &recipient,
		Subject:    fmt.Sprintf("Cart %s confirmed: %s", in.Cart.SequenceLabel, in.Cart.PropertyAddress),
		Body:       body,
	}, nil
}

func (c *Composer) workOrders(in Input) ([]model.OutboundMessage, error) {
	groups, _ := GroupByVendorEmail(in.Cart.Items, in.Vendors)
	messages := make([]model.OutboundMessage, 0, len(groups))

	for _, group := range groups {
		view := workOrderView{
			Cart:          in.Cart,
			RecipientName: group.Name,
			Mode:          modeLabel(in.Cart.CommunicationMode),
			ReviewURL:     c.ReviewURL(in.Cart.AccessToken),
		}
		for _, item := range group.Items {
			l := line{Name: item.Name, Price: FormatCents(item.PriceCents, c.currency)}
			if item.Note != nil {
				l.Note = strings.TrimSpace(*item.Note)
			}
			view.Lines = append(view.Lines, l)
		}

		body, err := render(workOrderTmpl, view)
		if err != nil {
			return nil, err
		}
		recipient := group.Email
		messages = append(messages, model.OutboundMessage{
			CartID:     in.Cart.ID,
			TargetType: model.MessageWorkOrder,
			Transition: string(in.Transition),
			Recipient:  &recipient,
			Subject:    fmt.Sprintf("Work order %s: %s", in.Cart.SequenceLabel, in.Cart.PropertyAddress),
			Body:       body,
		})
	}
	return messages, nil
}

func (c *Composer) invoice(in Input) (model.OutboundMessage, error) {
	view := invoiceView{
		Cart:      in.Cart,
		Total:     FormatCents(in.Cart.TotalCents, c.currency),
		Timing:    timingLabel(in.Cart.PaymentTiming),
		Method:    methodLabel(in.Cart.PaymentMethod),
		ReviewURL: c.ReviewURL(in.Cart.AccessToken),
	}
	for _, item := range ordered(in.Cart.Items) {
		if item.Selected {
			view.Lines = append(view.Lines, line{Name: item.Name, Price: FormatCents(item.PriceCents, c.currency)})
		}
	}

	body, err := render(invoiceTmpl, view)
	if err != nil {
		return model.OutboundMessage{}, err
	}
	var recipient *string
	if in.Cart.OwnerEmail != nil && strings.TrimSpace(*in.Cart.OwnerEmail) != "" {
		email := strings.ToLower(strings.TrimSpace(*in.Cart.OwnerEmail))
		recipient = &email
	}
	return model.OutboundMessage{
		CartID:     in.Cart.ID,
		TargetType: model.MessageInvoice,
		Transition: string(in.Transition),
		Recipient:  recipient,
		Subject:    fmt.Sprintf("Invoice for cart %s: %s", in.Cart.SequenceLabel, in.Cart.PropertyAddress),
		Body:       body,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func modeLabel(mode *model.CommunicationMode) string {
	if mode == nil {
		return "approved directly by the owner"
	}
	switch *mode {
	case model.CommunicationFirstCome:
		return "first come, first serve"
	case model.CommunicationReviewAndApprove:
		return "review and approve"
	}
	return string(*mode)
}

func timingLabel(timing model.PaymentTiming) string {
	switch timing {
	case model.PaymentTimingAtListing:
		return "at listing"
	case model.PaymentTimingAtClosing:
		return "at closing"
	}
	return string(timing)
}

func methodLabel(method model.PaymentMethod) string {
	switch method {
	case model.PaymentMethodCard:
		return "card"
	case model.PaymentMethodACH:
		return "ACH transfer"
	case model.PaymentMethodCheck:
		return "check"
	}
	return string(method)
}
