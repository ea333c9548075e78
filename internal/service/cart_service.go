package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/commission"
	"github.com/nurpe/listing-carts/internal/identifier"
	"github.com/nurpe/listing-carts/internal/lifecycle"
	"github.com/nurpe/listing-carts/internal/metrics"
	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/repository"
)

const createAttempts = 3

type CartService struct {
	store             *repository.Store
	composer          *notification.Composer
	sequence          identifier.Counter
	metrics           *metrics.CartMetrics
	log               zerolog.Logger
	defaultCommission decimal.Decimal
	now               func() time.Time
}

// NewCartService wires the cart workflow. When sequence is nil labels are drawn
// from the cart_counters table inside the creating transaction.
func NewCartService(
	store *repository.Store,
	composer *notification.Composer,
	sequence identifier.Counter,
	m *metrics.CartMetrics,
	log zerolog.Logger,
	defaultCommission decimal.Decimal,
) *CartService {
	return &CartService{
		store:             store,
		composer:          composer,
		sequence:          sequence,
		metrics:           m,
		log:               log,
		defaultCommission: defaultCommission,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

type CreateCartInput struct {
	Agent           model.Principal
	PropertyAddress string
	OwnerName       string
	OwnerEmail      *string
	OwnerPhone      *string
	PaymentTiming   model.PaymentTiming
	PaymentMethod   model.PaymentMethod
}

type UpdateCartDetailsInput struct {
	PropertyAddress *string
	OwnerName       *string
	OwnerEmail      *string
	OwnerPhone      *string
	PaymentTiming   *model.PaymentTiming
	PaymentMethod   *model.PaymentMethod
}

func (s *CartService) CreateCart(ctx context.Context, input CreateCartInput) (*model.Cart, error) {
	if input.Agent.IsAnonymous() {
		return nil, invalidInput("agent is required")
	}
	if strings.TrimSpace(input.Agent.Email) == "" {
		return nil, invalidInput("agent email is required")
	}
	if strings.TrimSpace(input.PropertyAddress) == "" {
		return nil, invalidInput("property_address is required")
	}
	if strings.TrimSpace(input.OwnerName) == "" {
		return nil, invalidInput("owner_name is required")
	}
	if input.PaymentTiming == "" {
		input.PaymentTiming = model.PaymentTimingAtListing
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = model.PaymentMethodCard
	}
	if !input.PaymentTiming.IsValid() {
		return nil, invalidInput("unknown payment_timing %q", input.PaymentTiming)
	}
	if !input.PaymentMethod.IsValid() {
		return nil, invalidInput("unknown payment_method %q", input.PaymentMethod)
	}

	started := time.Now()
	var (
		cart *model.Cart
		err  error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		cart, err = s.createOnce(ctx, input)
		if err == nil || !Retryable(err) {
			break
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("cart identifier collision, retrying")
	}
	s.metrics.ObserveDuration("create_cart", time.Since(started))
	if err != nil {
		s.metrics.IncFailure("create_cart", string(KindOf(err)))
		return nil, err
	}

	s.log.Info().
		Str("cart_id", cart.ID.String()).
		Str("sequence_label", cart.SequenceLabel).
		Int("items", len(cart.Items)).
		Msg("cart created")
	return cart, nil
}

// SeedSequence raises an external label counter past every label already issued.
// Call it before serving; it is a no-op when labels come from cart_counters.
func (s *CartService) SeedSequence(ctx context.Context) error {
	seeder, ok := s.sequence.(identifier.Seeder)
	if !ok {
		return nil
	}

	counted, err := s.store.Counters.Current(ctx, model.CartSequenceCounter)
	if err != nil {
		return classify(err, "sequence")
	}
	issued, err := s.store.Carts.MaxSequence(ctx)
	if err != nil {
		return classify(err, "sequence")
	}
	floor := counted
	if issued > floor {
		floor = issued
	}

	value, err := seeder.Seed(ctx, model.CartSequenceCounter, floor)
	if err != nil {
		return classify(fmt.Errorf("seed sequence: %w", err), "sequence")
	}
	s.log.Info().Int64("floor", floor).Int64("value", value).Msg("cart sequence seeded")
	return nil
}

func (s *CartService) createOnce(ctx context.Context, input CreateCartInput) (*model.Cart, error) {
	var cart *model.Cart
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		services, err := tx.Catalog.ListActive(ctx)
		if err != nil {
			return classify(err, "catalog")
		}

		counter := s.sequence
		if counter == nil {
			counter = tx.Counters
		}
		label, err := identifier.NextLabel(ctx, counter, model.CartSequenceCounter)
		if err != nil {
			return classify(err, "sequence")
		}
		token, err := identifier.NewToken()
		if err != nil {
			return classify(err, "access token")
		}

		cart = &model.Cart{
			SequenceLabel:   label,
			AccessToken:     token,
			PropertyAddress: strings.TrimSpace(input.PropertyAddress),
			OwnerName:       strings.TrimSpace(input.OwnerName),
			OwnerEmail:      trimmed(input.OwnerEmail),
			OwnerPhone:      trimmed(input.OwnerPhone),
			AgentID:         input.Agent.AgentID,
			AgentName:       input.Agent.Name,
			AgentEmail:      strings.TrimSpace(input.Agent.Email),
			Status:          model.CartStatusDraft,
			PaymentTiming:   input.PaymentTiming,
			PaymentMethod:   input.PaymentMethod,
			Items:           make([]model.CartItem, 0, len(services)),
		}
		for i, svc := range services {
			cart.Items = append(cart.Items, model.CartItem{
				ServiceKey:        svc.Key,
				Name:              svc.Name,
				Description:       svc.Description,
				SupplierType:      svc.SupplierType,
				Position:          i,
				Selected:          svc.DefaultSelected,
				NegotiationStatus: model.NegotiationPending,
			})
		}
		return classify(tx.Carts.Create(ctx, cart), "cart")
	})
	if err != nil {
		return nil, classify(err, "cart")
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	cart, err := s.store.Carts.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "cart")
	}
	return cart, nil
}

// GetCartByToken is the owner view. The token is the only credential checked.
func (s *CartService) GetCartByToken(ctx context.Context, token string) (*model.Cart, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(KindNotFound, nil, "cart not found")
	}
	cart, err := s.store.Carts.GetByToken(ctx, token)
	if err != nil {
		return nil, classify(err, "cart")
	}
	return cart, nil
}

func (s *CartService) ListCarts(ctx context.Context, agentID uuid.UUID, status *model.CartStatus) ([]model.Cart, error) {
	carts, err := s.store.Carts.ListByAgent(ctx, agentID, status)
	if err != nil {
		return nil, classify(err, "carts")
	}
	return carts, nil
}

func (s *CartService) ListMessages(ctx context.Context, cartID uuid.UUID) ([]model.OutboundMessage, error) {
	if _, err := s.store.Carts.GetByID(ctx, cartID); err != nil {
		return nil, classify(err, "cart")
	}
	messages, err := s.store.Messages.ListByCart(ctx, cartID)
	if err != nil {
		return nil, classify(err, "messages")
	}
	return messages, nil
}

// Vendors loads the vendors assigned to the cart's items.
func (s *CartService) Vendors(ctx context.Context, cart *model.Cart) (map[uuid.UUID]model.Vendor, error) {
	vendors, err := s.store.Vendors.MapByIDs(ctx, cart.VendorIDs())
	if err != nil {
		return nil, classify(err, "vendors")
	}
	return vendors, nil
}

func (s *CartService) UpdateCartDetails(ctx context.Context, id uuid.UUID, input UpdateCartDetailsInput) (*model.Cart, error) {
	return s.mutate(ctx, "update_cart", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		if !lifecycle.CanEdit(cart.Status) {
			return lifecycle.ErrNotEditable
		}
		if input.PropertyAddress != nil {
			if strings.TrimSpace(*input.PropertyAddress) == "" {
				return invalidInput("property_address must not be empty")
			}
			cart.PropertyAddress = strings.TrimSpace(*input.PropertyAddress)
		}
		if input.OwnerName != nil {
			if strings.TrimSpace(*input.OwnerName) == "" {
				return invalidInput("owner_name must not be empty")
			}
			cart.OwnerName = strings.TrimSpace(*input.OwnerName)
		}
		if input.OwnerEmail != nil {
			cart.OwnerEmail = trimmed(input.OwnerEmail)
		}
		if input.OwnerPhone != nil {
			cart.OwnerPhone = trimmed(input.OwnerPhone)
		}
		if input.PaymentTiming != nil {
			if !input.PaymentTiming.IsValid() {
				return invalidInput("unknown payment_timing %q", *input.PaymentTiming)
			}
			cart.PaymentTiming = *input.PaymentTiming
		}
		if input.PaymentMethod != nil {
			if !input.PaymentMethod.IsValid() {
				return invalidInput("unknown payment_method %q", *input.PaymentMethod)
			}
			cart.PaymentMethod = *input.PaymentMethod
		}
		return tx.Carts.Save(ctx, cart)
	})
}

// SetItemSelection toggles a line. Selecting an unassigned line assigns the
// service's first-choice vendor, if it has one, and prices the line.
func (s *CartService) SetItemSelection(ctx context.Context, id uuid.UUID, serviceKey string, selected bool) (*model.Cart, error) {
	return s.mutate(ctx, "set_item_selection", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := editableItem(cart, serviceKey)
		if err != nil {
			return err
		}
		item.Selected = selected

		if selected && item.VendorID == nil {
			link, err := tx.Vendors.TopLink(ctx, item.ServiceKey)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			default:
				if err := s.priceItem(ctx, tx, cart, item, link); err != nil {
					return err
				}
			}
		}
		return tx.Carts.SaveItem(ctx, item)
	})
}

// AssignVendor prices a line from the vendor's quote. A nil vendor unassigns the
// line and resets its price to zero.
func (s *CartService) AssignVendor(ctx context.Context, id uuid.UUID, serviceKey string, vendorID *uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, "assign_vendor", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := editableItem(cart, serviceKey)
		if err != nil {
			return err
		}

		if vendorID == nil {
			if err := s.unpriceItem(ctx, tx, cart, item); err != nil {
				return err
			}
			return tx.Carts.SaveItem(ctx, item)
		}

		if _, err := tx.Vendors.GetByID(ctx, *vendorID); err != nil {
			return classify(err, "vendor")
		}
		link, err := tx.Vendors.GetLink(ctx, item.ServiceKey, *vendorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("vendor %s does not offer %s", vendorID, item.ServiceKey)
		}
		if err != nil {
			return err
		}
		if err := s.priceItem(ctx, tx, cart, item, link); err != nil {
			return err
		}
		return tx.Carts.SaveItem(ctx, item)
	})
}

func (s *CartService) SetItemNote(ctx context.Context, id uuid.UUID, serviceKey, note string) (*model.Cart, error) {
	return s.mutate(ctx, "set_item_note", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := editableItem(cart, serviceKey)
		if err != nil {
			return err
		}
		item.Note = trimmed(&note)
		return tx.Carts.SaveItem(ctx, item)
	})
}

// SendToProviders opens negotiation and sends one work order per vendor email.
func (s *CartService) SendToProviders(ctx context.Context, id uuid.UUID, mode model.CommunicationMode) (*model.Cart, error) {
	return s.mutate(ctx, "send_to_providers", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		if _, err := lifecycle.Next(cart.Status, lifecycle.TransitionSend); err != nil {
			return err
		}
		if !mode.IsValid() {
			return invalidInput("unknown communication_mode %q", mode)
		}

		vendors, err := tx.Vendors.MapByIDs(ctx, cart.VendorIDs())
		if err != nil {
			return err
		}
		groups, _ := notification.GroupByVendorEmail(cart.Items, vendors)
		if len(groups) == 0 {
			return invalidInput("at least one selected service needs a vendor with an email address")
		}

		cart.CommunicationMode = &mode
		return s.transition(ctx, tx, cart, lifecycle.TransitionSend, vendors)
	})
}

// ApproveCart is the owner's one-step approval of the selected keys.
func (s *CartService) ApproveCart(ctx context.Context, token string, serviceKeys []string) (*model.Cart, error) {
	return s.mutate(ctx, "approve_cart", byToken(token), func(tx *repository.Store, cart *model.Cart) error {
		if _, err := lifecycle.Next(cart.Status, lifecycle.TransitionApprove); err != nil {
			return err
		}
		if err := lifecycle.ApplySelection(cart, serviceKeys); err != nil {
			return err
		}
		if err := tx.Carts.SaveItems(ctx, cart.Items); err != nil {
			return err
		}

		vendors, err := tx.Vendors.MapByIDs(ctx, cart.VendorIDs())
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, cart, lifecycle.TransitionApprove, vendors)
	})
}

func (s *CartService) MarkInvoiceSent(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, "mark_invoice_sent", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		return s.transition(ctx, tx, cart, lifecycle.TransitionInvoice, nil)
	})
}

func (s *CartService) MarkPaid(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, "mark_paid", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		return s.transition(ctx, tx, cart, lifecycle.TransitionPay, nil)
	})
}

// AdvanceItem moves one negotiation forward. When it was the last selected item
// to be approved the cart becomes VENDOR_APPROVED in the same transaction.
func (s *CartService) AdvanceItem(ctx context.Context, id uuid.UUID, serviceKey string) (*model.Cart, error) {
	return s.mutate(ctx, "advance_item", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := negotiatingItem(cart, serviceKey)
		if err != nil {
			return err
		}
		if err := lifecycle.AdvanceItem(item, s.now()); err != nil {
			return err
		}
		return s.afterItemChange(ctx, tx, cart, item, lifecycle.ItemAdvance)
	})
}

// ResetItem restarts one negotiation.
func (s *CartService) ResetItem(ctx context.Context, id uuid.UUID, serviceKey string) (*model.Cart, error) {
	return s.mutate(ctx, "reset_item", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := negotiatingItem(cart, serviceKey)
		if err != nil {
			return err
		}
		lifecycle.ResetItem(item)
		return s.afterItemChange(ctx, tx, cart, item, lifecycle.ItemReset)
	})
}

// CycleItem advances the item, or resets it when it is already approved.
func (s *CartService) CycleItem(ctx context.Context, id uuid.UUID, serviceKey string) (*model.Cart, error) {
	return s.mutate(ctx, "cycle_item", byID(id), func(tx *repository.Store, cart *model.Cart) error {
		item, err := negotiatingItem(cart, serviceKey)
		if err != nil {
			return err
		}
		action, err := lifecycle.CycleItem(item, s.now())
		if err != nil {
			return err
		}
		return s.afterItemChange(ctx, tx, cart, item, action)
	})
}

func (s *CartService) afterItemChange(ctx context.Context, tx *repository.Store, cart *model.Cart, item *model.CartItem, action lifecycle.ItemAction) error {
	if err := tx.Carts.SaveItem(ctx, item); err != nil {
		return err
	}
	s.metrics.IncItemTransition(string(action), string(item.NegotiationStatus))

	if !lifecycle.ReadyForVendorApproval(cart) {
		return nil
	}
	vendors, err := tx.Vendors.MapByIDs(ctx, cart.VendorIDs())
	if err != nil {
		return err
	}
	return s.transition(ctx, tx, cart, lifecycle.TransitionVendorApprove, vendors)
}

// transition applies t, saves the cart and persists the messages t produces.
// Any failure, including message persistence, aborts the transaction.
func (s *CartService) transition(ctx context.Context, tx *repository.Store, cart *model.Cart, t lifecycle.Transition, vendors map[uuid.UUID]model.Vendor) error {
	from := cart.Status
	if err := lifecycle.Apply(cart, t, s.now()); err != nil {
		return err
	}
	if err := tx.Carts.Save(ctx, cart); err != nil {
		return err
	}

	messages, err := s.composer.Compose(notification.Input{Transition: t, Cart: *cart, Vendors: vendors})
	if err != nil {
		return fmt.Errorf("compose %s messages: %w", t, err)
	}
	if err := tx.Messages.Append(ctx, messages); err != nil {
		return fmt.Errorf("persist %s messages: %w", t, err)
	}

	s.metrics.IncTransition(string(t), string(cart.Status))
	for _, msg := range messages {
		s.metrics.AddMessages(string(msg.TargetType), 1)
	}
	s.log.Info().
		Str("cart_id", cart.ID.String()).
		Str("from", string(from)).
		Str("to", string(cart.Status)).
		Int("messages", len(messages)).
		Msg("cart transitioned")
	return nil
}

// priceItem assigns link's vendor to item at the agent's commission and records the split.
func (s *CartService) priceItem(ctx context.Context, tx *repository.Store, cart *model.Cart, item *model.CartItem, link *model.ServiceVendorLink) error {
	settings, err := s.settingsFor(ctx, tx, cart.AgentID)
	if err != nil {
		return err
	}
	quote, err := commission.Apply(link.QuoteCents, settings.EffectivePercent())
	if err != nil {
		return err
	}

	vendorID := link.VendorID
	item.VendorID = &vendorID
	item.PriceCents = quote.DisplayedCents

	return tx.Audits.Append(ctx, model.PriceAudit{
		CartID:            cart.ID,
		CartItemID:        item.ID,
		VendorID:          &vendorID,
		RawCents:          quote.RawCents,
		CommissionPercent: quote.Percent,
		DisplayedCents:    quote.DisplayedCents,
		MarginCents:       quote.MarginCents,
	})
}

// unpriceItem clears item's vendor and records the zero price so the audit trail
// keeps matching the displayed price.
func (s *CartService) unpriceItem(ctx context.Context, tx *repository.Store, cart *model.Cart, item *model.CartItem) error {
	settings, err := s.settingsFor(ctx, tx, cart.AgentID)
	if err != nil {
		return err
	}

	item.VendorID = nil
	item.PriceCents = 0

	return tx.Audits.Append(ctx, model.PriceAudit{
		CartID:            cart.ID,
		CartItemID:        item.ID,
		CommissionPercent: settings.EffectivePercent(),
	})
}

func (s *CartService) settingsFor(ctx context.Context, tx *repository.Store, agentID uuid.UUID) (model.AgentSettings, error) {
	settings, err := tx.Settings.Get(ctx, agentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultSettings(agentID, s.defaultCommission), nil
	}
	if err != nil {
		return model.AgentSettings{}, err
	}
	return *settings, nil
}

type cartLoader func(ctx context.Context, tx *repository.Store) (*model.Cart, error)

func byID(id uuid.UUID) cartLoader {
	return func(ctx context.Context, tx *repository.Store) (*model.Cart, error) {
		return tx.Carts.GetByIDForUpdate(ctx, id)
	}
}

func byToken(token string) cartLoader {
	return func(ctx context.Context, tx *repository.Store) (*model.Cart, error) {
		if strings.TrimSpace(token) == "" {
			return nil, gorm.ErrRecordNotFound
		}
		return tx.Carts.GetByTokenForUpdate(ctx, token)
	}
}

// mutate runs fn on a locked cart in one transaction and returns the cart as committed.
func (s *CartService) mutate(ctx context.Context, op string, load cartLoader, fn func(tx *repository.Store, cart *model.Cart) error) (*model.Cart, error) {
	started := time.Now()
	var cart *model.Cart
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		loaded, err := load(ctx, tx)
		if err != nil {
			return classify(err, "cart")
		}
		if err := fn(tx, loaded); err != nil {
			return classify(err, "cart")
		}
		cart = loaded
		return nil
	})
	s.metrics.ObserveDuration(op, time.Since(started))
	if err != nil {
		err = classify(err, "cart")
		kind := KindOf(err)
		s.metrics.IncFailure(op, string(kind))
		event := s.log.Warn()
		if kind == KindInternal {
			event = s.log.Error()
		}
		event.Err(err).Str("operation", op).Str("kind", string(kind)).Msg("cart operation failed")
		return nil, err
	}
	return cart, nil
}

func editableItem(cart *model.Cart, serviceKey string) (*model.CartItem, error) {
	if !lifecycle.CanEdit(cart.Status) {
		return nil, lifecycle.ErrNotEditable
	}
	return findItem(cart, serviceKey)
}

func negotiatingItem(cart *model.Cart, serviceKey string) (*model.CartItem, error) {
	item, err := findItem(cart, serviceKey)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckItemGuard(cart, item); err != nil {
		return nil, err
	}
	return item, nil
}

func findItem(cart *model.Cart, serviceKey string) (*model.CartItem, error) {
	item := cart.ItemByKey(strings.TrimSpace(serviceKey))
	if item == nil {
		return nil, newError(KindNotFound, nil, "service %q not found in cart", serviceKey)
	}
	return item, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
