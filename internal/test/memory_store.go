package test

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

type memoryState struct {
	seq int64

	ticketTypes   map[int64]model.TicketType
	campsites     map[int64]model.Campsite
	skus          map[int64]model.Sku
	assetTypes    map[int64]model.AssetType
	assetItems    map[int64]model.AssetItem
	subevents     map[int64]model.Subevent
	persons       map[int64]model.Person
	attendees     map[int64]model.Attendee
	orders        map[int64]model.Order
	items         map[int64]model.OrderItem
	bookings      map[int64]model.CampsiteBooking
	hires         map[int64]model.AssetHire
	registrations map[int64]model.SubeventRegistration
	payments      map[int64]model.Payment
	slots         map[int64]model.DutySlot
	volunteers    map[int64][]model.DutyParticipant
	outbox        []model.OutboxEvent
}

func (s *memoryState) next() int64 {
	s.seq++
	return s.seq
}

func (s memoryState) clone() memoryState {
	c := s
	c.ticketTypes = maps.Clone(s.ticketTypes)
	c.campsites = maps.Clone(s.campsites)
	c.skus = maps.Clone(s.skus)
	c.assetTypes = maps.Clone(s.assetTypes)
	c.assetItems = maps.Clone(s.assetItems)
	c.subevents = maps.Clone(s.subevents)
	c.persons = maps.Clone(s.persons)
	c.attendees = maps.Clone(s.attendees)
	c.orders = maps.Clone(s.orders)
	c.items = maps.Clone(s.items)
	c.bookings = maps.Clone(s.bookings)
	c.hires = maps.Clone(s.hires)
	c.registrations = maps.Clone(s.registrations)
	c.payments = maps.Clone(s.payments)
	c.slots = maps.Clone(s.slots)
	c.volunteers = maps.Clone(s.volunteers)
	c.outbox = slices.Clone(s.outbox)
	return c
}

// MemoryStore is an in-memory repository.Transactor. Transactions run one at a time on a copy of
// the state that is published only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState

	// CodeCollisions makes the next N attendee inserts report a taken ticket code.
	CodeCollisions int
	// FailOn makes the named Tx method return FailErr.
	FailOn  string
	FailErr error

	Transactions int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memoryState{
		ticketTypes:   map[int64]model.TicketType{},
		campsites:     map[int64]model.Campsite{},
		skus:          map[int64]model.Sku{},
		assetTypes:    map[int64]model.AssetType{},
		assetItems:    map[int64]model.AssetItem{},
		subevents:     map[int64]model.Subevent{},
		persons:       map[int64]model.Person{},
		attendees:     map[int64]model.Attendee{},
		orders:        map[int64]model.Order{},
		items:         map[int64]model.OrderItem{},
		bookings:      map[int64]model.CampsiteBooking{},
		hires:         map[int64]model.AssetHire{},
		registrations: map[int64]model.SubeventRegistration{},
		payments:      map[int64]model.Payment{},
		slots:         map[int64]model.DutySlot{},
		volunteers:    map[int64][]model.DutyParticipant{},
	}}
}

var _ repository.Transactor = (*MemoryStore)(nil)

// InTx runs fn against a working copy and keeps it only when fn returns nil.
func (m *MemoryStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions++

	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.state.clone()
	if err := fn(&memoryTx{store: m, s: &work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// ReadOnly runs fn against the committed state.
func (m *MemoryStore) ReadOnly(ctx context.Context, fn func(r repository.AvailabilityReader) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := m.state.clone()
	return fn(&memoryTx{store: m, s: &snapshot})
}

func (m *MemoryStore) seed(fn func(s *memoryState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
}

func money(v string) decimal.Decimal {
	if v == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(v)
}

func optionalMoney(v string) decimal.NullDecimal {
	if v == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

// AddTicketType seeds a ticket type.
func (m *MemoryStore) AddTicketType(eventID int64, name, price string) model.TicketType {
	var tt model.TicketType
	m.seed(func(s *memoryState) {
		tt = model.TicketType{ID: s.next(), EventID: eventID, Name: name, Price: money(price), Role: "attendee"}
		s.ticketTypes[tt.ID] = tt
	})
	return tt
}

// AddCampsite seeds a campsite. An empty fullEvent leaves the full-event rate unset.
func (m *MemoryStore) AddCampsite(eventID int64, nightly, fullEvent string) model.Campsite {
	var c model.Campsite
	m.seed(func(s *memoryState) {
		c = model.Campsite{ID: s.next(), EventID: eventID, Name: "pitch", StayPricing: model.StayPricing{
			NightlyRate: money(nightly), FullEventRate: optionalMoney(fullEvent),
		}}
		s.campsites[c.ID] = c
	})
	return c
}

// AddSku seeds an active merchandise SKU.
func (m *MemoryStore) AddSku(eventID int64, price string, stock int) model.Sku {
	var sku model.Sku
	m.seed(func(s *memoryState) {
		sku = model.Sku{ID: s.next(), EventID: eventID, Name: "sku", Price: money(price), CurrentStock: stock, Active: true}
		s.skus[sku.ID] = sku
	})
	return sku
}

// DeactivateSku hides a SKU from sale.
func (m *MemoryStore) DeactivateSku(id int64) {
	m.seed(func(s *memoryState) {
		sku := s.skus[id]
		sku.Active = false
		s.skus[id] = sku
	})
}

// AddAssetType seeds an asset pool with the given number of items.
func (m *MemoryStore) AddAssetType(eventID int64, nightly, fullEvent string, items int) model.AssetType {
	var at model.AssetType
	m.seed(func(s *memoryState) {
		at = model.AssetType{ID: s.next(), EventID: eventID, Name: "asset", StayPricing: model.StayPricing{
			NightlyRate: money(nightly), FullEventRate: optionalMoney(fullEvent),
		}}
		s.assetTypes[at.ID] = at
		for i := 0; i < items; i++ {
			item := model.AssetItem{ID: s.next(), AssetTypeID: at.ID, Label: "item"}
			s.assetItems[item.ID] = item
		}
	})
	return at
}

// AddSubevent seeds a subevent. A negative capacity means unlimited.
func (m *MemoryStore) AddSubevent(eventID int64, price string, capacity int) model.Subevent {
	var se model.Subevent
	m.seed(func(s *memoryState) {
		se = model.Subevent{ID: s.next(), EventID: eventID, Name: "session", Price: money(price)}
		if capacity >= 0 {
			c := capacity
			se.Capacity = &c
		}
		s.subevents[se.ID] = se
	})
	return se
}

// AddDutySlot seeds a duty slot.
func (m *MemoryStore) AddDutySlot(eventID int64, date time.Time, start, end string) model.DutySlot {
	var slot model.DutySlot
	m.seed(func(s *memoryState) {
		slot = model.DutySlot{ID: s.next(), EventID: eventID, Date: date, StartTime: start, EndTime: end}
		s.slots[slot.ID] = slot
	})
	return slot
}

// AddVolunteer seeds a duty participant for an event.
func (m *MemoryStore) AddVolunteer(eventID int64, participant model.DutyParticipant) {
	m.seed(func(s *memoryState) {
		s.volunteers[eventID] = append(slices.Clone(s.volunteers[eventID]), participant)
	})
}

// Stock returns the committed stock counter of a SKU.
func (m *MemoryStore) Stock(skuID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.skus[skuID].CurrentStock
}

// Order returns a committed order with its items.
func (m *MemoryStore) Order(id int64) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if ok {
		o.Items = itemsOf(&m.state, id)
	}
	return o, ok
}

// OrderCount returns the number of committed orders.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

// ItemCount returns the number of committed order items.
func (m *MemoryStore) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.items)
}

// Attendees returns committed attendees ordered by id.
func (m *MemoryStore) Attendees() []model.Attendee {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.attendees, func(a model.Attendee) int64 { return a.ID })
}

// Persons returns committed persons ordered by id.
func (m *MemoryStore) Persons() []model.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.persons, func(p model.Person) int64 { return p.ID })
}

// Bookings returns committed campsite bookings ordered by id.
func (m *MemoryStore) Bookings() []model.CampsiteBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.bookings, func(b model.CampsiteBooking) int64 { return b.ID })
}

// Hires returns committed asset hires ordered by id.
func (m *MemoryStore) Hires() []model.AssetHire {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.hires, func(h model.AssetHire) int64 { return h.ID })
}

// Registrations returns committed subevent registrations ordered by id.
func (m *MemoryStore) Registrations() []model.SubeventRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.registrations, func(r model.SubeventRegistration) int64 { return r.ID })
}

// Payments returns committed payments ordered by id.
func (m *MemoryStore) Payments() []model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.payments, func(p model.Payment) int64 { return p.ID })
}

// Slots returns committed duty slots ordered by id.
func (m *MemoryStore) Slots() []model.DutySlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.slots, func(s model.DutySlot) int64 { return s.ID })
}

// Outbox returns committed outbox events in insertion order.
func (m *MemoryStore) Outbox() []model.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.outbox)
}

func sortedValues[T any](in map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}

func itemsOf(s *memoryState, orderID int64) []model.OrderItem {
	var out []model.OrderItem
	for _, item := range s.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b model.OrderItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

type memoryTx struct {
	store *MemoryStore
	s     *memoryState
}

var _ repository.Tx = (*memoryTx)(nil)

func (t *memoryTx) fail(op string) error {
	if t.store.FailOn == op {
		return t.store.FailErr
	}
	return nil
}

func (t *memoryTx) CampsiteExists(_ context.Context, campsiteID int64) (bool, error) {
	if err := t.fail("CampsiteExists"); err != nil {
		return false, err
	}
	_, ok := t.s.campsites[campsiteID]
	return ok, nil
}

func (t *memoryTx) CampsiteOverlaps(_ context.Context, campsiteID int64, stay model.DateRange) (int, error) {
	if err := t.fail("CampsiteOverlaps"); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range t.s.bookings {
		if b.CampsiteID == campsiteID && b.Stay.Overlaps(stay) {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) AssetItemLoads(_ context.Context, assetTypeID int64, stay model.DateRange) ([]model.AssetItemLoad, error) {
	if err := t.fail("AssetItemLoads"); err != nil {
		return nil, err
	}
	var loads []model.AssetItemLoad
	for _, item := range t.s.assetItems {
		if item.AssetTypeID != assetTypeID {
			continue
		}
		load := model.AssetItemLoad{Item: item}
		for _, h := range t.s.hires {
			if h.AssetItemID == item.ID && h.Stay.Overlaps(stay) {
				load.Overlaps++
			}
		}
		loads = append(loads, load)
	}
	slices.SortFunc(loads, func(a, b model.AssetItemLoad) int { return cmp.Compare(a.Item.ID, b.Item.ID) })
	return loads, nil
}

func (t *memoryTx) PersonForUser(_ context.Context, userID int64) (*model.Person, error) {
	for _, p := range sortedValues(t.s.persons, func(p model.Person) int64 { return p.ID }) {
		if p.UserID != nil && *p.UserID == userID {
			return &p, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (t *memoryTx) ManagedPersonByEmail(_ context.Context, managerUserID int64, email string) (*model.Person, error) {
	for _, p := range sortedValues(t.s.persons, func(p model.Person) int64 { return p.ID }) {
		if p.ManagerUserID != nil && *p.ManagerUserID == managerUserID && strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (t *memoryTx) CreatePerson(_ context.Context, person *model.Person) error {
	if err := t.fail("CreatePerson"); err != nil {
		return err
	}
	person.ID = t.s.next()
	t.s.persons[person.ID] = *person
	return nil
}

func (t *memoryTx) TicketType(_ context.Context, eventID, ticketTypeID int64) (*model.TicketType, error) {
	tt, ok := t.s.ticketTypes[ticketTypeID]
	if !ok || tt.EventID != eventID {
		return nil, domainErrors.ErrNotFound
	}
	return &tt, nil
}

func (t *memoryTx) DefaultTicketType(_ context.Context, eventID int64) (*model.TicketType, error) {
	for _, tt := range sortedValues(t.s.ticketTypes, func(tt model.TicketType) int64 { return tt.ID }) {
		if tt.EventID == eventID {
			return &tt, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (t *memoryTx) LockCampsite(_ context.Context, eventID, campsiteID int64) (*model.Campsite, error) {
	c, ok := t.s.campsites[campsiteID]
	if !ok || c.EventID != eventID {
		return nil, domainErrors.ErrNotFound
	}
	return &c, nil
}

func (t *memoryTx) Sku(_ context.Context, eventID, skuID int64) (*model.Sku, error) {
	sku, ok := t.s.skus[skuID]
	if !ok || sku.EventID != eventID {
		return nil, domainErrors.ErrNotFound
	}
	return &sku, nil
}

func (t *memoryTx) ReserveStock(_ context.Context, skuID int64, quantity int) (bool, error) {
	if err := t.fail("ReserveStock"); err != nil {
		return false, err
	}
	sku, ok := t.s.skus[skuID]
	if !ok || sku.CurrentStock < quantity {
		return false, nil
	}
	sku.CurrentStock -= quantity
	t.s.skus[skuID] = sku
	return true, nil
}

func (t *memoryTx) RestoreStock(_ context.Context, skuID int64, quantity int) error {
	sku, ok := t.s.skus[skuID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	sku.CurrentStock += quantity
	t.s.skus[skuID] = sku
	return nil
}

func (t *memoryTx) LockAssetType(_ context.Context, eventID, assetTypeID int64) (*model.AssetType, error) {
	at, ok := t.s.assetTypes[assetTypeID]
	if !ok || at.EventID != eventID {
		return nil, domainErrors.ErrNotFound
	}
	return &at, nil
}

func (t *memoryTx) LockSubevent(_ context.Context, eventID, subeventID int64) (*model.Subevent, error) {
	se, ok := t.s.subevents[subeventID]
	if !ok || se.EventID != eventID {
		return nil, domainErrors.ErrNotFound
	}
	return &se, nil
}

func (t *memoryTx) SubeventRegistrationCount(_ context.Context, subeventID int64) (int, error) {
	n := 0
	for _, r := range t.s.registrations {
		if r.SubeventID == subeventID {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) CreateAttendee(_ context.Context, attendee *model.Attendee) (bool, error) {
	if err := t.fail("CreateAttendee"); err != nil {
		return false, err
	}
	if t.store.CodeCollisions > 0 {
		t.store.CodeCollisions--
		return false, nil
	}
	for _, a := range t.s.attendees {
		if a.Code == attendee.Code {
			return false, nil
		}
	}
	attendee.ID = t.s.next()
	t.s.attendees[attendee.ID] = *attendee
	return true, nil
}

func (t *memoryTx) ActiveAttendee(_ context.Context, eventID, personID int64) (*model.Attendee, error) {
	for _, a := range sortedValues(t.s.attendees, func(a model.Attendee) int64 { return a.ID }) {
		if a.EventID == eventID && a.PersonID == personID && a.Status != model.AttendeeStatusCancelled {
			return &a, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (t *memoryTx) CancelAttendees(_ context.Context, attendeeIDs []int64) error {
	for _, id := range attendeeIDs {
		a, ok := t.s.attendees[id]
		if !ok {
			continue
		}
		a.Status = model.AttendeeStatusCancelled
		t.s.attendees[id] = a
	}
	return nil
}

func (t *memoryTx) CreateOrder(_ context.Context, order *model.Order) error {
	if err := t.fail("CreateOrder"); err != nil {
		return err
	}
	order.ID = t.s.next()
	stored := *order
	stored.Items = nil
	t.s.orders[order.ID] = stored
	return nil
}

func (t *memoryTx) CreateOrderItem(_ context.Context, item *model.OrderItem) error {
	if err := t.fail("CreateOrderItem"); err != nil {
		return err
	}
	item.ID = t.s.next()
	t.s.items[item.ID] = *item
	return nil
}

func (t *memoryTx) FinalizeOrder(_ context.Context, orderID int64, total decimal.Decimal, status model.PaymentStatus) error {
	if err := t.fail("FinalizeOrder"); err != nil {
		return err
	}
	o, ok := t.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.Total = total
	o.Status = status
	t.s.orders[orderID] = o
	return nil
}

func (t *memoryTx) LockOrder(_ context.Context, orderID int64) (*model.Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &o, nil
}

func (t *memoryTx) OrderItems(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	return itemsOf(t.s, orderID), nil
}

func (t *memoryTx) DeleteOrder(_ context.Context, orderID int64) error {
	if err := t.fail("DeleteOrder"); err != nil {
		return err
	}
	for id, item := range t.s.items {
		if item.OrderID == orderID {
			delete(t.s.items, id)
		}
	}
	delete(t.s.orders, orderID)
	return nil
}

func (t *memoryTx) RecordPayment(_ context.Context, payment *model.Payment) error {
	if err := t.fail("RecordPayment"); err != nil {
		return err
	}
	payment.ID = t.s.next()
	t.s.payments[payment.ID] = *payment
	return nil
}

func (t *memoryTx) PaidAmount(_ context.Context, orderID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range t.s.payments {
		if p.OrderID == orderID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (t *memoryTx) UpdateOrderStatus(_ context.Context, orderID int64, status model.PaymentStatus) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.Status = status
	t.s.orders[orderID] = o
	return nil
}

func (t *memoryTx) MarkItemRefunded(_ context.Context, itemID int64, at time.Time) error {
	item, ok := t.s.items[itemID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	item.RefundedAt = &at
	t.s.items[itemID] = item
	return nil
}

func (t *memoryTx) CreateCampsiteBooking(_ context.Context, booking *model.CampsiteBooking) error {
	if err := t.fail("CreateCampsiteBooking"); err != nil {
		return err
	}
	for _, b := range t.s.bookings {
		if b.CampsiteID == booking.CampsiteID && b.Stay.Overlaps(booking.Stay) {
			return domainErrors.ErrCampsiteUnavailable
		}
	}
	booking.ID = t.s.next()
	t.s.bookings[booking.ID] = *booking
	return nil
}

func (t *memoryTx) CreateAssetHire(_ context.Context, hire *model.AssetHire) error {
	if err := t.fail("CreateAssetHire"); err != nil {
		return err
	}
	for _, h := range t.s.hires {
		if h.AssetItemID == hire.AssetItemID && h.Stay.Overlaps(hire.Stay) {
			return domainErrors.ErrNoAssetAvailable
		}
	}
	hire.ID = t.s.next()
	t.s.hires[hire.ID] = *hire
	return nil
}

func (t *memoryTx) CreateSubeventRegistration(_ context.Context, registration *model.SubeventRegistration) error {
	if err := t.fail("CreateSubeventRegistration"); err != nil {
		return err
	}
	registration.ID = t.s.next()
	t.s.registrations[registration.ID] = *registration
	return nil
}

func (t *memoryTx) ReleaseOrderHolds(_ context.Context, orderID int64) error {
	if err := t.fail("ReleaseOrderHolds"); err != nil {
		return err
	}
	for _, item := range itemsOf(t.s, orderID) {
		t.releaseItem(item.ID)
	}
	return nil
}

func (t *memoryTx) ReleaseItemHold(_ context.Context, itemID int64) error {
	t.releaseItem(itemID)
	return nil
}

func (t *memoryTx) releaseItem(itemID int64) {
	for id, b := range t.s.bookings {
		if b.OrderItemID == itemID {
			delete(t.s.bookings, id)
		}
	}
	for id, h := range t.s.hires {
		if h.OrderItemID == itemID {
			delete(t.s.hires, id)
		}
	}
	for id, r := range t.s.registrations {
		if r.OrderItemID == itemID {
			delete(t.s.registrations, id)
		}
	}
}

func (t *memoryTx) Enqueue(_ context.Context, event *model.OutboxEvent) error {
	if err := t.fail("Enqueue"); err != nil {
		return err
	}
	event.ID = t.s.next()
	t.s.outbox = append(t.s.outbox, *event)
	return nil
}

func (t *memoryTx) DutySlots(_ context.Context, eventID int64) ([]model.DutySlot, error) {
	var out []model.DutySlot
	for _, slot := range sortedValues(t.s.slots, func(s model.DutySlot) int64 { return s.ID }) {
		if slot.EventID == eventID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (t *memoryTx) DutyParticipants(_ context.Context, eventID int64) ([]model.DutyParticipant, error) {
	return slices.Clone(t.s.volunteers[eventID]), nil
}

func (t *memoryTx) AssignDutySlot(_ context.Context, slotID int64, attendeeID *int64) error {
	if err := t.fail("AssignDutySlot"); err != nil {
		return err
	}
	slot, ok := t.s.slots[slotID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	slot.AttendeeID = attendeeID
	t.s.slots[slotID] = slot
	return nil
}
