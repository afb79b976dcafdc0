package usecase

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/test"
)

const eventID int64 = 1

var buyer = model.Principal{UserID: 7, Email: "ada@example.com", Role: model.RoleUser}

var staff = model.Principal{UserID: 1, Email: "ops@example.com", Role: model.RoleAdmin}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func mustStay(t *testing.T, in, out string) model.DateRange {
	t.Helper()
	r, err := model.ParseDateRange(in, out)
	if err != nil {
		t.Fatalf("parse stay: %v", err)
	}
	return r
}

type recordingObserver struct {
	mu            sync.Mutex
	checkouts     []string
	cancellations []string
}

func (o *recordingObserver) ObserveCheckout(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkouts = append(o.checkouts, outcome)
}

func (o *recordingObserver) ObserveCancellation(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancellations = append(o.cancellations, outcome)
}

func newCheckout(store *test.MemoryStore, mutate func(*Policy)) *CheckoutUseCase {
	policy := DefaultPolicy()
	if mutate != nil {
		mutate(&policy)
	}
	return NewCheckoutUseCase(store, policy, nil, nil, discardLogger())
}
