package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/eventreg/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 20 * time.Millisecond
)

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool        pgxPool
	logger      *slog.Logger
	isolation   pgx.TxIsoLevel
	maxAttempts int
	retryDelay  time.Duration
}

// Option tunes transaction behaviour of Storage.
type Option func(*Storage)

// WithSerializable runs registration transactions at SERIALIZABLE isolation.
func WithSerializable(enabled bool) Option {
	return func(s *Storage) {
		if enabled {
			s.isolation = pgx.Serializable
		}
	}
}

// WithMaxAttempts bounds how many times a transaction is retried on serialization failure or deadlock.
func WithMaxAttempts(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type outboxRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := newWithPool(pool, logger, opts...)
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

func newWithPool(pool pgxPool, logger *slog.Logger, opts ...Option) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{pool: pool, logger: logger, maxAttempts: defaultMaxAttempts, retryDelay: defaultRetryDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Outbox() repository.OutboxRepository {
	return &outboxRepository{storage: s}
}

func (s *Storage) Registrations() repository.Transactor {
	return s
}

var _ repository.Factory = (*Storage)(nil)

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
