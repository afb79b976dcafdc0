package postgres

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

// outboxLease is how long a claimed event stays invisible to other relays.
const outboxLease = 30 * time.Second

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, email, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email, passwordHash, role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.Email = email
	u.PasswordHash = passwordHash
	u.Role = role
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at FROM users WHERE email=$1`
	return r.get(ctx, query, email)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at FROM users WHERE id=$1`
	return r.get(ctx, query, id)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	const query = `SELECT id, user_id, event_id, total, payment_status, created_at, updated_at
                   FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.EventID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	const query = `SELECT id, user_id, event_id, total, payment_status, created_at, updated_at FROM orders WHERE id=$1`
	var o model.Order
	err := r.storage.pool.QueryRow(ctx, query, orderID).Scan(&o.ID, &o.UserID, &o.EventID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	items, err := queryOrderItems(ctx, r.storage.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func queryOrderItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT id, order_id, attendee_id, kind, ref_id, price, refunded_at
                   FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.AttendeeID, &it.Kind, &it.RefID, &it.Price, &it.RefundedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// --- OutboxRepository implementation ---

// ClaimPending leases unsent events in id order. A relay that dies mid-batch
// releases its lease when it expires. An event is claimed only when every earlier
// unsent event of its key is claimed in the same statement, so a leased or
// concurrently claimed predecessor holds back the rest of its key.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	const claimQuery = `WITH candidates AS (
                            SELECT id, key FROM outbox
                            WHERE sent_at IS NULL AND (locked_until IS NULL OR locked_until < NOW())
                            ORDER BY id
                            LIMIT $1
                            FOR UPDATE SKIP LOCKED
                        )
                        UPDATE outbox SET locked_until = $2
                        FROM candidates c
                        WHERE outbox.id = c.id
                          AND NOT EXISTS (
                            SELECT 1 FROM outbox prev
                            WHERE prev.key = c.key AND prev.id < c.id AND prev.sent_at IS NULL
                              AND prev.id NOT IN (SELECT id FROM candidates)
                          )
                        RETURNING outbox.id, outbox.event_id, outbox.event_type, outbox.key, outbox.payload, outbox.created_at`

	var events []model.OutboxEvent
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, claimQuery, limit, time.Now().Add(outboxLease))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e model.OutboxEvent
			if err := rows.Scan(&e.ID, &e.EventID, &e.Type, &e.Key, &e.Payload, &e.CreatedAt); err != nil {
				return err
			}
			events = append(events, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// RETURNING does not preserve subquery order.
	slices.SortFunc(events, func(a, b model.OutboxEvent) int { return cmp.Compare(a.ID, b.ID) })
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	const query = `UPDATE outbox SET sent_at = NOW(), locked_until = NULL WHERE id=$1 AND sent_at IS NULL`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}
