package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, email, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: time.Unix(0, 0)}
	s.Next++
	s.Users[email] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub allows tests to customize behaviour.
type OrderRepositoryStub struct {
	ListByUserFn func(context.Context, int64) ([]model.Order, error)
	GetByIDFn    func(context.Context, int64) (*model.Order, error)

	Orders []model.Order
}

// ListByUser returns orders from configured slice.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	var out []model.Order
	for _, o := range s.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetByID returns matched order either via override or stored slice.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, orderID)
	}
	for _, o := range s.Orders {
		if o.ID == orderID {
			order := o
			return &order, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// OutboxRepositoryStub serves queued events and records acknowledgements.
type OutboxRepositoryStub struct {
	ClaimFn    func(context.Context, int) ([]model.OutboxEvent, error)
	MarkSentFn func(context.Context, int64) error

	mu      sync.Mutex
	Pending []model.OutboxEvent
	Sent    []int64
}

// ClaimPending hands out up to limit queued events.
func (s *OutboxRepositoryStub) ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.Pending) {
		limit = len(s.Pending)
	}
	batch := s.Pending[:limit]
	s.Pending = s.Pending[limit:]
	return batch, nil
}

// MarkSent records acknowledged event ids.
func (s *OutboxRepositoryStub) MarkSent(ctx context.Context, id int64) error {
	if s.MarkSentFn != nil {
		return s.MarkSentFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, id)
	return nil
}

// SentIDs returns a copy of acknowledged ids.
func (s *OutboxRepositoryStub) SentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.Sent...)
}

// IdempotencyStoreStub keeps keys in a map.
type IdempotencyStoreStub struct {
	AcquireFn func(context.Context, string) (*model.CheckoutResult, error)

	mu       sync.Mutex
	inFlight map[string]bool
	done     map[string]*model.CheckoutResult
	Released []string
}

// Acquire returns a completed result, claims a free key or reports one in flight.
func (s *IdempotencyStoreStub) Acquire(ctx context.Context, key string) (*model.CheckoutResult, error) {
	if s.AcquireFn != nil {
		return s.AcquireFn(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if res, ok := s.done[key]; ok {
		return res, nil
	}
	if s.inFlight[key] {
		return nil, domainErrors.ErrRequestInFlight
	}
	s.inFlight[key] = true
	return nil, nil
}

func (s *IdempotencyStoreStub) init() {
	if s.inFlight == nil {
		s.inFlight = map[string]bool{}
	}
	if s.done == nil {
		s.done = map[string]*model.CheckoutResult{}
	}
}

// Complete stores the result for key.
func (s *IdempotencyStoreStub) Complete(ctx context.Context, key string, result *model.CheckoutResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	delete(s.inFlight, key)
	s.done[key] = result
	return nil
}

// Release frees key without storing a result.
func (s *IdempotencyStoreStub) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
	s.Released = append(s.Released, key)
	return nil
}

var (
	_ repository.UserRepository   = (*UserRepositoryStub)(nil)
	_ repository.OrderRepository  = (*OrderRepositoryStub)(nil)
	_ repository.OutboxRepository = (*OutboxRepositoryStub)(nil)
	_ repository.IdempotencyStore = (*IdempotencyStoreStub)(nil)
)
