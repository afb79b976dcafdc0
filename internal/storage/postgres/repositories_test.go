package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

var (
	orderColumns = []string{"id", "user_id", "event_id", "total", "payment_status", "created_at", "updated_at"}
	itemColumns  = []string{"id", "order_id", "attendee_id", "kind", "ref_id", "price", "refunded_at"}
	userColumns  = []string{"id", "email", "password_hash", "role", "created_at"}
)

func TestUserRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &userRepository{storage: storage}

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO users").WithArgs("ada@example.com", "hash", model.RoleUser).WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt),
	)
	user, err := repo.Create(context.Background(), "ada@example.com", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 1 || user.Email != "ada@example.com" || user.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs("ada@example.com", "hash", model.RoleUser).WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.Create(context.Background(), "ada@example.com", "hash", model.RoleUser); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists error, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs("ada@example.com", "hash", model.RoleAdmin).WillReturnError(errors.New("other"))
	if _, err := repo.Create(context.Background(), "ada@example.com", "hash", model.RoleAdmin); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("SELECT id, email, password_hash, role, created_at FROM users WHERE email=").WithArgs("ada@example.com").WillReturnRows(
		pgxmockv3.NewRows(userColumns).AddRow(int64(1), "ada@example.com", "hash", model.RoleAdmin, createdAt))
	user, err = repo.GetByEmail(context.Background(), "ada@example.com")
	if err != nil || user.Role != model.RoleAdmin {
		t.Fatalf("unexpected result: %+v err=%v", user, err)
	}

	mock.ExpectQuery("SELECT id, email, password_hash, role, created_at FROM users WHERE email=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByEmail(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT id, email, password_hash, role, created_at FROM users WHERE id=").WithArgs(int64(1)).WillReturnRows(
		pgxmockv3.NewRows(userColumns).AddRow(int64(1), "ada@example.com", "hash", model.RoleUser, createdAt))
	if _, err := repo.GetByID(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery("SELECT id, email, password_hash, role, created_at FROM users WHERE id=").WithArgs(int64(3)).WillReturnError(errors.New("boom"))
	if _, err := repo.GetByID(context.Background(), 3); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected raw error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryGetAndList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	now := time.Now()
	total := decimal.RequireFromString("72.50")
	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(7)).WillReturnRows(
		pgxmockv3.NewRows(orderColumns).AddRow(int64(7), int64(1), int64(3), total, model.PaymentStatusPending, now, now))
	mock.ExpectQuery("FROM order_items WHERE order_id=").WithArgs(int64(7)).WillReturnRows(
		pgxmockv3.NewRows(itemColumns).
			AddRow(int64(20), int64(7), int64(5), model.ItemKindTicket, int64(1), decimal.RequireFromString("50"), nil).
			AddRow(int64(21), int64(7), int64(5), model.ItemKindMerchandise, int64(2), decimal.RequireFromString("22.50"), &now))
	order, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.Total.Equal(total) || len(order.Items) != 2 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.Items[0].RefundedAt != nil || order.Items[1].RefundedAt == nil {
		t.Fatalf("expected only second item refunded, got %+v", order.Items)
	}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), 8); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(9)).WillReturnRows(
		pgxmockv3.NewRows(orderColumns).AddRow(int64(9), int64(1), int64(3), total, model.PaymentStatusPaid, now, now))
	mock.ExpectQuery("FROM order_items WHERE order_id=").WithArgs(int64(9)).WillReturnError(errors.New("items"))
	if _, err := repo.GetByID(context.Background(), 9); err == nil {
		t.Fatal("expected items error")
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(1)).WillReturnRows(
		pgxmockv3.NewRows(orderColumns).
			AddRow(int64(2), int64(1), int64(3), total, model.PaymentStatusPaid, now, now).
			AddRow(int64(1), int64(1), int64(3), total, model.PaymentStatusPending, now, now),
	)
	orders, err := repo.ListByUser(context.Background(), 1)
	if err != nil || len(orders) != 2 || orders[0].ID != 2 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(2)).WillReturnError(errors.New("query"))
	if _, err := repo.ListByUser(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(3)).WillReturnRows(
		pgxmockv3.NewRows(orderColumns).AddRow("bad", int64(1), int64(3), total, model.PaymentStatusPaid, now, now),
	)
	if _, err := repo.ListByUser(context.Background(), 3); err == nil {
		t.Fatal("expected scan error")
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(5)).WillReturnRows(pgxmockv3.NewRows(orderColumns))
	orders, err = repo.ListByUser(context.Background(), 5)
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", orders, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListByUserRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo := &orderRepository{storage: storage}

	if _, err := repo.ListByUser(context.Background(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestOutboxRepositoryClaimPending(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &outboxRepository{storage: storage}

	now := time.Now()
	columns := []string{"id", "event_id", "event_type", "key", "payload", "created_at"}
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE outbox SET locked_until").WithArgs(10, pgxmockv3.AnyArg()).WillReturnRows(
		pgxmockv3.NewRows(columns).
			AddRow(int64(5), "e-5", model.EventOrderCancelled, "order-2", json.RawMessage(`{"order_id":2}`), now).
			AddRow(int64(4), "e-4", model.EventOrderPlaced, "order-2", json.RawMessage(`{"order_id":2}`), now),
	)
	mock.ExpectCommit()

	events, err := repo.ClaimPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].ID != 4 || events[1].ID != 5 {
		t.Fatalf("expected events ordered by id, got %+v", events)
	}
	if string(events[0].Payload) != `{"order_id":2}` {
		t.Fatalf("unexpected payload %s", events[0].Payload)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE outbox SET locked_until").WithArgs(10, pgxmockv3.AnyArg()).WillReturnError(errors.New("claim"))
	mock.ExpectRollback()
	if _, err := repo.ClaimPending(context.Background(), 10); err == nil {
		t.Fatal("expected claim error")
	}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE outbox SET locked_until").WithArgs(10, pgxmockv3.AnyArg()).WillReturnRows(
		pgxmockv3.NewRows(columns).AddRow("bad", "e", "t", "k", json.RawMessage(`{}`), now),
	)
	mock.ExpectRollback()
	if _, err := repo.ClaimPending(context.Background(), 10); err == nil {
		t.Fatal("expected scan error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOutboxRepositoryClaimHoldsBackKeyBehindUnsentPredecessor(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &outboxRepository{storage: storage}

	claim := `(?s)FOR UPDATE SKIP LOCKED.*UPDATE outbox SET locked_until = \$2.*` +
		`NOT EXISTS \(\s*SELECT 1 FROM outbox prev\s+WHERE prev\.key = c\.key AND prev\.id < c\.id AND prev\.sent_at IS NULL\s+` +
		`AND prev\.id NOT IN \(SELECT id FROM candidates\)`
	mock.ExpectBegin()
	mock.ExpectQuery(claim).WithArgs(10, pgxmockv3.AnyArg()).WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "event_id", "event_type", "key", "payload", "created_at"}).
			AddRow(int64(21), "e-21", model.EventOrderPlaced, "order-6", json.RawMessage(`{"order_id":6}`), time.Now()),
	)
	mock.ExpectCommit()

	events, err := repo.ClaimPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Key != "order-6" {
		t.Fatalf("expected only the unblocked key, got %+v", events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOutboxRepositoryClaimPendingRowsError(t *testing.T) {
	tx := &rowsErrorTx{rows: &errorRows{err: errors.New("rows err")}}
	storage := newWithPool(&rowsErrorTxPool{tx: tx}, nil)
	repo := &outboxRepository{storage: storage}

	if _, err := repo.ClaimPending(context.Background(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestOutboxRepositoryMarkSent(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &outboxRepository{storage: storage}

	mock.ExpectExec("UPDATE outbox SET sent_at").WithArgs(int64(4)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.MarkSent(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE outbox SET sent_at").WithArgs(int64(5)).WillReturnError(errors.New("mark"))
	if err := repo.MarkSent(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
