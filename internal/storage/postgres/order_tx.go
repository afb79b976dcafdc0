package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

// --- OrderStore ---

func (t *registrationTx) CreateOrder(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (user_id, event_id, total, payment_status, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return t.tx.QueryRow(ctx, query,
		order.UserID, order.EventID, order.Total, order.Status, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
}

func (t *registrationTx) CreateOrderItem(ctx context.Context, item *model.OrderItem) error {
	const query = `INSERT INTO order_items (order_id, attendee_id, kind, ref_id, price)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return t.tx.QueryRow(ctx, query,
		item.OrderID, item.AttendeeID, item.Kind, item.RefID, item.Price,
	).Scan(&item.ID)
}

func (t *registrationTx) FinalizeOrder(ctx context.Context, orderID int64, total decimal.Decimal, status model.PaymentStatus) error {
	const query = `UPDATE orders SET total = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`
	return t.execOne(ctx, query, orderID, total, status)
}

func (t *registrationTx) LockOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	const query = `SELECT id, user_id, event_id, total, payment_status, created_at, updated_at
                   FROM orders WHERE id = $1 FOR UPDATE`
	var o model.Order
	err := t.tx.QueryRow(ctx, query, orderID).Scan(&o.ID, &o.UserID, &o.EventID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (t *registrationTx) OrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return queryOrderItems(ctx, t.tx, orderID)
}

func (t *registrationTx) DeleteOrder(ctx context.Context, orderID int64) error {
	return t.execOne(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
}

func (t *registrationTx) RecordPayment(ctx context.Context, payment *model.Payment) error {
	const query = `INSERT INTO payment_transactions (order_id, amount, reference, created_at)
                   VALUES ($1, $2, $3, $4) RETURNING id`
	return t.tx.QueryRow(ctx, query, payment.OrderID, payment.Amount, payment.Reference, payment.CreatedAt).Scan(&payment.ID)
}

func (t *registrationTx) PaidAmount(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payment_transactions WHERE order_id = $1`
	var paid decimal.Decimal
	if err := t.tx.QueryRow(ctx, query, orderID).Scan(&paid); err != nil {
		return decimal.Zero, err
	}
	return paid, nil
}

func (t *registrationTx) UpdateOrderStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	const query = `UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`
	return t.execOne(ctx, query, orderID, status)
}

func (t *registrationTx) MarkItemRefunded(ctx context.Context, itemID int64, at time.Time) error {
	const query = `UPDATE order_items SET refunded_at = $2 WHERE id = $1 AND refunded_at IS NULL`
	tag, err := t.tx.Exec(ctx, query, itemID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAlreadyRefunded
	}
	return nil
}

// execOne runs a statement that must touch exactly one row.
func (t *registrationTx) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- HoldStore ---

func (t *registrationTx) CreateCampsiteBooking(ctx context.Context, booking *model.CampsiteBooking) error {
	const query = `INSERT INTO campsite_bookings (campsite_id, order_item_id, check_in, check_out)
                   VALUES ($1, $2, $3, $4) RETURNING id`
	err := t.tx.QueryRow(ctx, query, booking.CampsiteID, booking.OrderItemID, booking.Stay.CheckIn, booking.Stay.CheckOut).Scan(&booking.ID)
	return mapError(err)
}

func (t *registrationTx) CreateAssetHire(ctx context.Context, hire *model.AssetHire) error {
	const query = `INSERT INTO asset_hires (asset_item_id, order_item_id, check_in, check_out)
                   VALUES ($1, $2, $3, $4) RETURNING id`
	err := t.tx.QueryRow(ctx, query, hire.AssetItemID, hire.OrderItemID, hire.Stay.CheckIn, hire.Stay.CheckOut).Scan(&hire.ID)
	return mapError(err)
}

func (t *registrationTx) CreateSubeventRegistration(ctx context.Context, registration *model.SubeventRegistration) error {
	const query = `INSERT INTO subevent_registrations (subevent_id, order_item_id) VALUES ($1, $2) RETURNING id`
	err := t.tx.QueryRow(ctx, query, registration.SubeventID, registration.OrderItemID).Scan(&registration.ID)
	return mapError(err)
}

var holdTables = []string{"campsite_bookings", "asset_hires", "subevent_registrations"}

func (t *registrationTx) ReleaseOrderHolds(ctx context.Context, orderID int64) error {
	for _, table := range holdTables {
		query := `DELETE FROM ` + table + ` WHERE order_item_id IN (SELECT id FROM order_items WHERE order_id = $1)`
		if _, err := t.tx.Exec(ctx, query, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (t *registrationTx) ReleaseItemHold(ctx context.Context, itemID int64) error {
	for _, table := range holdTables {
		query := `DELETE FROM ` + table + ` WHERE order_item_id = $1`
		if _, err := t.tx.Exec(ctx, query, itemID); err != nil {
			return err
		}
	}
	return nil
}

// --- OutboxWriter ---

func (t *registrationTx) Enqueue(ctx context.Context, event *model.OutboxEvent) error {
	const query = `INSERT INTO outbox (event_id, event_type, key, payload, created_at)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return t.tx.QueryRow(ctx, query, event.EventID, event.Type, event.Key, event.Payload, event.CreatedAt).Scan(&event.ID)
}
