package usecase

import (
	"context"
	"log/slog"
	"slices"
	"time"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// ReversalUseCase cancels orders that have not been settled yet.
type ReversalUseCase struct {
	tx       repository.Transactor
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewReversalUseCase constructs ReversalUseCase.
func NewReversalUseCase(tx repository.Transactor, observer Observer, logger *slog.Logger) *ReversalUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReversalUseCase{tx: tx, observer: observer, logger: logger, now: time.Now}
}

// CancelOrder releases every hold of a pending order, restores stock, cancels its ticket
// attendees and deletes the order, all in one transaction.
func (u *ReversalUseCase) CancelOrder(ctx context.Context, buyer model.Principal, orderID int64) (err error) {
	defer func() {
		u.observer.ObserveCancellation(domainErrors.CodeOf(err))
		if err != nil {
			u.logger.Info("order cancellation rejected",
				slog.Int64("order_id", orderID),
				slog.Int64("user_id", buyer.UserID),
				slog.String("error_code", domainErrors.CodeOf(err)),
			)
			return
		}
		u.logger.Info("order cancelled", slog.Int64("order_id", orderID), slog.Int64("user_id", buyer.UserID))
	}()

	return u.tx.InTx(ctx, func(tx repository.Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != buyer.UserID {
			return domainErrors.ErrForbidden
		}
		if !order.Cancellable() {
			return domainErrors.ErrNotCancellable
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}

		if err := tx.ReleaseOrderHolds(ctx, orderID); err != nil {
			return err
		}

		units := make(map[int64]int)
		var attendees []int64
		for _, item := range items {
			switch item.Kind {
			case model.ItemKindMerchandise:
				units[item.RefID]++
			case model.ItemKindTicket:
				if !slices.Contains(attendees, item.AttendeeID) {
					attendees = append(attendees, item.AttendeeID)
				}
			}
		}

		skus := make([]int64, 0, len(units))
		for skuID := range units {
			skus = append(skus, skuID)
		}
		// Fixed order keeps concurrent reversals from deadlocking on sku rows.
		slices.Sort(skus)
		for _, skuID := range skus {
			if err := tx.RestoreStock(ctx, skuID, units[skuID]); err != nil {
				return err
			}
		}

		if len(attendees) > 0 {
			if err := tx.CancelAttendees(ctx, attendees); err != nil {
				return err
			}
		}

		if err := tx.DeleteOrder(ctx, orderID); err != nil {
			return err
		}

		return enqueue(ctx, tx, model.EventOrderCancelled, order.ID, orderPayload(order), u.now().UTC())
	})
}
