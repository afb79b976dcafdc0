package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeExclusionViolation   = "23P01"
	codeClassConnection      = "08"
)

// InTx runs fn in one registration transaction at the configured isolation level.
// Serialization failures and deadlocks are retried; when attempts run out the error is ErrConflict.
func (s *Storage) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.retry(ctx, pgx.TxOptions{IsoLevel: s.isolation}, func(tx pgx.Tx) error {
		return fn(&registrationTx{tx: tx})
	})
}

// ReadOnly runs fn in a read-only transaction. Besides serialization failures it retries
// transient infrastructure errors such as dropped connections; domain errors from fn are final.
func (s *Storage) ReadOnly(ctx context.Context, fn func(r repository.AvailabilityReader) error) error {
	return s.retryWhen(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, transientRead, func(tx pgx.Tx) error {
		return fn(&registrationTx{tx: tx})
	})
}

var _ repository.Transactor = (*Storage)(nil)

func (s *Storage) retry(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	return s.retryWhen(ctx, opts, retryable, fn)
}

func (s *Storage) retryWhen(ctx context.Context, opts pgx.TxOptions, shouldRetry func(error) bool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.withinTransaction(ctx, opts, fn)
		if !shouldRetry(err) {
			return mapError(err)
		}

		s.logger.Warn("transaction retry",
			slog.Int("attempt", attempt),
			slog.String("sqlstate", sqlState(err)),
			slog.String("error", err.Error()),
		)
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
	if !retryable(err) {
		return fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, err)
	}
	return fmt.Errorf("%w: gave up after %d attempts: %v", domainErrors.ErrConflict, s.maxAttempts, err)
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return s.withinTransaction(ctx, pgx.TxOptions{IsoLevel: s.isolation}, fn)
}

func (s *Storage) withinTransaction(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

func retryable(err error) bool {
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// transientRead reports errors worth another attempt on a read-only transaction.
// Errors outside the domain taxonomy count as connection failures.
func transientRead(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if retryable(err) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, codeClassConnection)
	}
	return domainErrors.KindOf(err) == domainErrors.KindInfrastructure
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapError turns constraint violations into domain errors. Other errors pass through.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeExclusionViolation:
		switch pgErr.ConstraintName {
		case constraintCampsiteOverlap:
			return fmt.Errorf("%w: %s", domainErrors.ErrCampsiteUnavailable, pgErr.Detail)
		case constraintAssetOverlap:
			return fmt.Errorf("%w: %s", domainErrors.ErrNoAssetAvailable, pgErr.Detail)
		}
		return fmt.Errorf("%w: %s", domainErrors.ErrConflict, pgErr.ConstraintName)
	case codeCheckViolation:
		if pgErr.ConstraintName == constraintStockNegative {
			return domainErrors.ErrInsufficientStock
		}
	case codeUniqueViolation:
		return domainErrors.ErrAlreadyExists
	}
	return err
}
