package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const (
	maxCodeAttempts  = 5
	checkoutPayment  = "checkout"
	idempotencyScope = "checkout"
)

// CheckoutUseCase commits a cart as one atomic order.
type CheckoutUseCase struct {
	tx       repository.Transactor
	policy   Policy
	idem     repository.IdempotencyStore
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	newCode  func(eventID int64) string
}

// NewCheckoutUseCase constructs CheckoutUseCase. A nil idempotency store disables keys.
func NewCheckoutUseCase(tx repository.Transactor, policy Policy, idem repository.IdempotencyStore, observer Observer, logger *slog.Logger) *CheckoutUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutUseCase{
		tx:       tx,
		policy:   policy,
		idem:     idem,
		observer: observer,
		logger:   logger,
		now:      time.Now,
		newCode:  newTicketCode,
	}
}

func newTicketCode(eventID int64) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("EV%d-%s", eventID, strings.ToUpper(raw[:8]))
}

type cartParts struct {
	tickets     []model.TicketLine
	campsites   []model.CampsiteLine
	merchandise []model.MerchandiseLine
	assets      []model.AssetLine
	subevents   []model.SubeventLine
}

// Checkout validates the cart, then allocates every line and writes the order in one transaction.
// With a non-empty idempotencyKey a previously committed result for the same buyer and key is returned as is.
func (u *CheckoutUseCase) Checkout(ctx context.Context, buyer model.Principal, cart model.Cart, idempotencyKey string) (result *model.CheckoutResult, err error) {
	start := u.now()
	defer func() {
		u.observer.ObserveCheckout(domainErrors.CodeOf(err), u.now().Sub(start))
		u.logOutcome(buyer, cart, result, err)
	}()

	parts, err := partitionCart(cart)
	if err != nil {
		return nil, err
	}

	if idempotencyKey == "" || u.idem == nil {
		return u.commit(ctx, buyer, cart.EventID, parts)
	}

	key := fmt.Sprintf("%s:%d:%s", idempotencyScope, buyer.UserID, idempotencyKey)
	stored, err := u.idem.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return stored, nil
	}

	result, err = u.commit(ctx, buyer, cart.EventID, parts)
	if err != nil {
		if relErr := u.idem.Release(ctx, key); relErr != nil {
			u.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", relErr))
		}
		return nil, err
	}
	if err := u.idem.Complete(ctx, key, result); err != nil {
		u.logger.Warn("store checkout result", slog.String("key", key), slog.Any("error", err))
	}
	return result, nil
}

func (u *CheckoutUseCase) logOutcome(buyer model.Principal, cart model.Cart, result *model.CheckoutResult, err error) {
	if err == nil {
		u.logger.Info("checkout committed",
			slog.Int64("order_id", result.OrderID),
			slog.Int64("user_id", buyer.UserID),
			slog.Int64("event_id", result.EventID),
			slog.String("total", result.Total.StringFixed(2)),
		)
		return
	}

	level := slog.LevelInfo
	if domainErrors.KindOf(err) == domainErrors.KindInfrastructure {
		level = slog.LevelError
	}
	u.logger.Log(context.Background(), level, "checkout rejected",
		slog.Int64("user_id", buyer.UserID),
		slog.Int64("event_id", cart.EventID),
		slog.String("error_code", domainErrors.CodeOf(err)),
		slog.Any("error", err),
	)
}

func partitionCart(cart model.Cart) (cartParts, error) {
	var parts cartParts
	if len(cart.Lines) == 0 {
		return parts, domainErrors.ErrEmptyCart
	}
	if cart.EventID <= 0 {
		return parts, fmt.Errorf("%w: event id must be positive", domainErrors.ErrInvalidCartLine)
	}

	for i, line := range cart.Lines {
		switch l := line.(type) {
		case model.TicketLine:
			if l.Quantity <= 0 {
				return parts, fmt.Errorf("%w: line %d ticket quantity %d", domainErrors.ErrInvalidQuantity, i, l.Quantity)
			}
			if len(l.Attendees) > l.Quantity {
				return parts, fmt.Errorf("%w: line %d has %d attendees for %d tickets",
					domainErrors.ErrInvalidQuantity, i, len(l.Attendees), l.Quantity)
			}
			parts.tickets = append(parts.tickets, l)
		case model.CampsiteLine:
			if err := validateStay(i, l.Stay, l.ClientPrice); err != nil {
				return parts, err
			}
			parts.campsites = append(parts.campsites, l)
		case model.MerchandiseLine:
			if l.Quantity <= 0 {
				return parts, fmt.Errorf("%w: line %d merchandise quantity %d", domainErrors.ErrInvalidQuantity, i, l.Quantity)
			}
			parts.merchandise = append(parts.merchandise, l)
		case model.AssetLine:
			if err := validateStay(i, l.Stay, l.ClientPrice); err != nil {
				return parts, err
			}
			parts.assets = append(parts.assets, l)
		case model.SubeventLine:
			if l.ClientPrice.IsNegative() {
				return parts, fmt.Errorf("%w: line %d negative price", domainErrors.ErrInvalidAmount, i)
			}
			parts.subevents = append(parts.subevents, l)
		default:
			return parts, fmt.Errorf("%w: line %d has unsupported type %T", domainErrors.ErrInvalidCartLine, i, line)
		}
	}
	return parts, nil
}

func validateStay(i int, stay model.DateRange, price decimal.Decimal) error {
	if !stay.CheckOut.After(stay.CheckIn) {
		return fmt.Errorf("%w: line %d", domainErrors.ErrInvalidDateRange, i)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: line %d negative price", domainErrors.ErrInvalidAmount, i)
	}
	return nil
}

// commit runs the allocation. Everything is rebuilt inside the closure so a retried attempt starts clean.
func (u *CheckoutUseCase) commit(ctx context.Context, buyer model.Principal, eventID int64, parts cartParts) (*model.CheckoutResult, error) {
	var result *model.CheckoutResult
	err := u.tx.InTx(ctx, func(tx repository.Tx) error {
		res, err := u.allocate(ctx, tx, buyer, eventID, parts)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type allocation struct {
	tx      repository.Tx
	order   *model.Order
	total   decimal.Decimal
	tickets []model.IssuedTicket
}

func (a *allocation) addItem(ctx context.Context, attendeeID int64, kind model.ItemKind, refID int64, price decimal.Decimal) (*model.OrderItem, error) {
	item := &model.OrderItem{
		OrderID:    a.order.ID,
		AttendeeID: attendeeID,
		Kind:       kind,
		RefID:      refID,
		Price:      price,
	}
	if err := a.tx.CreateOrderItem(ctx, item); err != nil {
		return nil, err
	}
	a.total = a.total.Add(price)
	return item, nil
}

func (u *CheckoutUseCase) allocate(ctx context.Context, tx repository.Tx, buyer model.Principal, eventID int64, parts cartParts) (*model.CheckoutResult, error) {
	now := u.now().UTC()

	buyerPerson, err := ResolveBuyer(ctx, tx, buyer)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:    buyer.UserID,
		EventID:   eventID,
		Total:     decimal.Zero,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	a := &allocation{tx: tx, order: order, total: decimal.Zero}

	if err := u.allocateTickets(ctx, a, buyer, buyerPerson, parts.tickets); err != nil {
		return nil, err
	}

	anchor, err := u.resolveAnchor(ctx, a, buyerPerson)
	if err != nil {
		return nil, err
	}

	if err := u.allocateCampsites(ctx, a, anchor, parts.campsites); err != nil {
		return nil, err
	}
	if err := u.allocateMerchandise(ctx, a, anchor, parts.merchandise); err != nil {
		return nil, err
	}
	if err := u.allocateAssets(ctx, a, anchor, parts.assets); err != nil {
		return nil, err
	}
	if err := u.allocateSubevents(ctx, a, anchor, parts.subevents); err != nil {
		return nil, err
	}

	order.Total = a.total
	if u.policy.SettleOnCheckout {
		order.Status = model.PaymentStatusPaid
	}
	if err := tx.FinalizeOrder(ctx, order.ID, order.Total, order.Status); err != nil {
		return nil, err
	}
	if u.policy.SettleOnCheckout {
		payment := &model.Payment{OrderID: order.ID, Amount: order.Total, Reference: checkoutPayment, CreatedAt: now}
		if err := tx.RecordPayment(ctx, payment); err != nil {
			return nil, err
		}
	}

	if err := enqueue(ctx, tx, model.EventOrderPlaced, order.ID, orderPayload(order), now); err != nil {
		return nil, err
	}

	return &model.CheckoutResult{
		OrderID: order.ID,
		EventID: eventID,
		Total:   order.Total,
		Status:  order.Status,
		Tickets: a.tickets,
	}, nil
}

func (u *CheckoutUseCase) allocateTickets(ctx context.Context, a *allocation, buyer model.Principal, buyerPerson *model.Person, lines []model.TicketLine) error {
	seat := 0
	for _, line := range lines {
		ticketType, err := a.tx.TicketType(ctx, a.order.EventID, line.TicketTypeID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("%w: %d", domainErrors.ErrInvalidTicketType, line.TicketTypeID)
			}
			return err
		}

		for i := 0; i < line.Quantity; i++ {
			var details model.AttendeeDetails
			if i < len(line.Attendees) {
				details = line.Attendees[i]
			}

			person, err := ResolveAttendee(ctx, a.tx, buyer, buyerPerson, details, seat == 0)
			if err != nil {
				return err
			}
			seat++

			attendee, err := u.issueAttendee(ctx, a.tx, a.order.EventID, person.ID, ticketType.ID)
			if err != nil {
				return err
			}
			if _, err := a.addItem(ctx, attendee.ID, model.ItemKindTicket, ticketType.ID, ticketType.Price); err != nil {
				return err
			}
			a.tickets = append(a.tickets, model.IssuedTicket{
				AttendeeID:   attendee.ID,
				PersonID:     person.ID,
				TicketTypeID: ticketType.ID,
				Code:         attendee.Code,
			})
		}
	}
	return nil
}

func (u *CheckoutUseCase) issueAttendee(ctx context.Context, tx repository.AttendeeStore, eventID, personID, ticketTypeID int64) (*model.Attendee, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		attendee := &model.Attendee{
			EventID:      eventID,
			PersonID:     personID,
			TicketTypeID: ticketTypeID,
			Code:         u.newCode(eventID),
			Status:       model.AttendeeStatusRegistered,
		}
		created, err := tx.CreateAttendee(ctx, attendee)
		if err != nil {
			return nil, err
		}
		if created {
			return attendee, nil
		}
	}
	return nil, fmt.Errorf("%w: no free ticket code after %d attempts", domainErrors.ErrConflict, maxCodeAttempts)
}

// resolveAnchor picks the attendee that non-ticket items hang off.
func (u *CheckoutUseCase) resolveAnchor(ctx context.Context, a *allocation, buyerPerson *model.Person) (int64, error) {
	if len(a.tickets) > 0 {
		return a.tickets[0].AttendeeID, nil
	}

	existing, err := a.tx.ActiveAttendee(ctx, a.order.EventID, buyerPerson.ID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return 0, err
	}

	if !u.policy.AllowTicketlessOrders {
		return 0, domainErrors.ErrTicketRequired
	}

	ticketType, err := a.tx.DefaultTicketType(ctx, a.order.EventID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return 0, fmt.Errorf("%w: event %d", domainErrors.ErrNoTicketTypesDefined, a.order.EventID)
		}
		return 0, err
	}

	attendee, err := u.issueAttendee(ctx, a.tx, a.order.EventID, buyerPerson.ID, ticketType.ID)
	if err != nil {
		return 0, err
	}
	return attendee.ID, nil
}

func (u *CheckoutUseCase) allocateCampsites(ctx context.Context, a *allocation, anchor int64, lines []model.CampsiteLine) error {
	for _, line := range lines {
		site, err := a.tx.LockCampsite(ctx, a.order.EventID, line.CampsiteID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("%w: %d", domainErrors.ErrInvalidCampsite, line.CampsiteID)
			}
			return err
		}

		free, err := CampsiteAvailable(ctx, a.tx, site.ID, line.Stay)
		if err != nil {
			return err
		}
		if !free {
			return fmt.Errorf("%w: campsite %d for %s", domainErrors.ErrCampsiteUnavailable, site.ID, line.Stay)
		}

		price, err := ValidateStayPrice(site.StayPricing, line.Stay, line.ClientPrice, u.policy.PriceTolerance)
		if err != nil {
			return fmt.Errorf("campsite %d: %w", site.ID, err)
		}

		item, err := a.addItem(ctx, anchor, model.ItemKindCampsite, site.ID, price)
		if err != nil {
			return err
		}
		booking := &model.CampsiteBooking{CampsiteID: site.ID, OrderItemID: item.ID, Stay: line.Stay}
		if err := a.tx.CreateCampsiteBooking(ctx, booking); err != nil {
			return err
		}
	}
	return nil
}

func (u *CheckoutUseCase) allocateMerchandise(ctx context.Context, a *allocation, anchor int64, lines []model.MerchandiseLine) error {
	for _, line := range lines {
		sku, err := a.tx.Sku(ctx, a.order.EventID, line.SkuID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("%w: %d", domainErrors.ErrInvalidSku, line.SkuID)
			}
			return err
		}
		if !sku.Active {
			return fmt.Errorf("%w: %d is inactive", domainErrors.ErrInvalidSku, sku.ID)
		}

		reserved, err := a.tx.ReserveStock(ctx, sku.ID, line.Quantity)
		if err != nil {
			return err
		}
		if !reserved {
			return fmt.Errorf("%w: sku %d, requested %d", domainErrors.ErrInsufficientStock, sku.ID, line.Quantity)
		}

		// One row per unit: the stock delta always equals the number of rows.
		for i := 0; i < line.Quantity; i++ {
			if _, err := a.addItem(ctx, anchor, model.ItemKindMerchandise, sku.ID, sku.Price); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *CheckoutUseCase) allocateAssets(ctx context.Context, a *allocation, anchor int64, lines []model.AssetLine) error {
	for _, line := range lines {
		assetType, err := a.tx.LockAssetType(ctx, a.order.EventID, line.AssetTypeID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("%w: %d", domainErrors.ErrInvalidAssetType, line.AssetTypeID)
			}
			return err
		}

		price, err := ValidateStayPrice(assetType.StayPricing, line.Stay, line.ClientPrice, u.policy.PriceTolerance)
		if err != nil {
			return fmt.Errorf("asset type %d: %w", assetType.ID, err)
		}

		itemID, err := AllocateAssetItem(ctx, a.tx, assetType.ID, line.Stay)
		if err != nil {
			return err
		}

		item, err := a.addItem(ctx, anchor, model.ItemKindAsset, assetType.ID, price)
		if err != nil {
			return err
		}
		hire := &model.AssetHire{AssetItemID: itemID, OrderItemID: item.ID, Stay: line.Stay}
		if err := a.tx.CreateAssetHire(ctx, hire); err != nil {
			return err
		}
	}
	return nil
}

func (u *CheckoutUseCase) allocateSubevents(ctx context.Context, a *allocation, anchor int64, lines []model.SubeventLine) error {
	for _, line := range lines {
		subevent, err := a.tx.LockSubevent(ctx, a.order.EventID, line.SubeventID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("%w: %d", domainErrors.ErrInvalidSubevent, line.SubeventID)
			}
			return err
		}

		if err := ValidateFlatPrice(subevent.Price, line.ClientPrice, u.policy.PriceTolerance); err != nil {
			return fmt.Errorf("subevent %d: %w", subevent.ID, err)
		}

		if u.policy.EnforceSubeventCapacity && subevent.Capacity != nil {
			registered, err := a.tx.SubeventRegistrationCount(ctx, subevent.ID)
			if err != nil {
				return err
			}
			if registered >= *subevent.Capacity {
				return fmt.Errorf("%w: subevent %d holds %d", domainErrors.ErrSubeventFull, subevent.ID, *subevent.Capacity)
			}
		}

		item, err := a.addItem(ctx, anchor, model.ItemKindSubevent, subevent.ID, subevent.Price)
		if err != nil {
			return err
		}
		registration := &model.SubeventRegistration{SubeventID: subevent.ID, OrderItemID: item.ID}
		if err := a.tx.CreateSubeventRegistration(ctx, registration); err != nil {
			return err
		}
	}
	return nil
}
