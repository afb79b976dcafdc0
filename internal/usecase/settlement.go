package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const manualPayment = "manual"

// SettlementUseCase records payments and refunds individual items of settled orders.
type SettlementUseCase struct {
	tx     repository.Transactor
	logger *slog.Logger
	now    func() time.Time
}

// NewSettlementUseCase constructs SettlementUseCase.
func NewSettlementUseCase(tx repository.Transactor, logger *slog.Logger) *SettlementUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementUseCase{tx: tx, logger: logger, now: time.Now}
}

// SettleOrder records a payment. The order becomes Paid once payments cover the total.
func (u *SettlementUseCase) SettleOrder(ctx context.Context, staff model.Principal, orderID int64, amount decimal.Decimal, reference string) (*model.Order, error) {
	if !staff.IsAdmin() {
		return nil, domainErrors.ErrForbidden
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", domainErrors.ErrInvalidAmount)
	}
	if reference == "" {
		reference = manualPayment
	}

	var settled *model.Order
	err := u.tx.InTx(ctx, func(tx repository.Tx) error {
		now := u.now().UTC()

		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == model.PaymentStatusPaid {
			return domainErrors.ErrNotSettleable
		}

		payment := &model.Payment{OrderID: order.ID, Amount: amount, Reference: reference, CreatedAt: now}
		if err := tx.RecordPayment(ctx, payment); err != nil {
			return err
		}

		paid, err := tx.PaidAmount(ctx, order.ID)
		if err != nil {
			return err
		}
		order.Status = model.PaymentStatusPartiallyPaid
		if paid.GreaterThanOrEqual(order.Total) {
			order.Status = model.PaymentStatusPaid
		}
		if err := tx.UpdateOrderStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}
		order.UpdatedAt = now

		if err := enqueue(ctx, tx, model.EventOrderSettled, order.ID, orderPayload(order), now); err != nil {
			return err
		}
		settled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order settled",
		slog.Int64("order_id", settled.ID),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("status", string(settled.Status)),
	)
	return settled, nil
}

// RefundItem marks one item of a settled order refunded and releases what it held.
// The recorded price is left untouched.
func (u *SettlementUseCase) RefundItem(ctx context.Context, staff model.Principal, orderID, itemID int64) (*model.OrderItem, error) {
	if !staff.IsAdmin() {
		return nil, domainErrors.ErrForbidden
	}

	var refunded *model.OrderItem
	err := u.tx.InTx(ctx, func(tx repository.Tx) error {
		now := u.now().UTC()

		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Settled() {
			return domainErrors.ErrNotSettled
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		var item *model.OrderItem
		for i := range items {
			if items[i].ID == itemID {
				item = &items[i]
				break
			}
		}
		if item == nil {
			return fmt.Errorf("%w: item %d of order %d", domainErrors.ErrNotFound, itemID, orderID)
		}
		if item.RefundedAt != nil {
			return domainErrors.ErrAlreadyRefunded
		}

		switch item.Kind {
		case model.ItemKindMerchandise:
			if err := tx.RestoreStock(ctx, item.RefID, 1); err != nil {
				return err
			}
		case model.ItemKindTicket:
			if err := tx.CancelAttendees(ctx, []int64{item.AttendeeID}); err != nil {
				return err
			}
		case model.ItemKindCampsite, model.ItemKindAsset, model.ItemKindSubevent:
			if err := tx.ReleaseItemHold(ctx, item.ID); err != nil {
				return err
			}
		}

		if err := tx.MarkItemRefunded(ctx, item.ID, now); err != nil {
			return err
		}
		item.RefundedAt = &now

		payload := orderPayload(order)
		payload.ItemID = item.ID
		if err := enqueue(ctx, tx, model.EventOrderItemRefunded, order.ID, payload, now); err != nil {
			return err
		}
		refunded = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order item refunded", slog.Int64("order_id", orderID), slog.Int64("item_id", itemID))
	return refunded, nil
}
