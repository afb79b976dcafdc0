package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// registrationTx implements repository.Tx on top of one pgx transaction.
type registrationTx struct {
	tx pgx.Tx
}

var _ repository.Tx = (*registrationTx)(nil)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	return err
}

// --- AvailabilityReader ---

func (t *registrationTx) CampsiteExists(ctx context.Context, campsiteID int64) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campsites WHERE id = $1)`, campsiteID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *registrationTx) CampsiteOverlaps(ctx context.Context, campsiteID int64, stay model.DateRange) (int, error) {
	const query = `SELECT COUNT(*) FROM campsite_bookings
                   WHERE campsite_id = $1 AND daterange(check_in, check_out) && daterange($2::date, $3::date)`
	var n int
	if err := t.tx.QueryRow(ctx, query, campsiteID, stay.CheckIn, stay.CheckOut).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *registrationTx) AssetItemLoads(ctx context.Context, assetTypeID int64, stay model.DateRange) ([]model.AssetItemLoad, error) {
	const query = `SELECT i.id, i.asset_type_id, i.label,
                          COUNT(h.id) FILTER (WHERE daterange(h.check_in, h.check_out) && daterange($2::date, $3::date))
                   FROM asset_items i LEFT JOIN asset_hires h ON h.asset_item_id = i.id
                   WHERE i.asset_type_id = $1
                   GROUP BY i.id ORDER BY i.id`
	rows, err := t.tx.Query(ctx, query, assetTypeID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loads []model.AssetItemLoad
	for rows.Next() {
		var l model.AssetItemLoad
		if err := rows.Scan(&l.Item.ID, &l.Item.AssetTypeID, &l.Item.Label, &l.Overlaps); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loads, nil
}

// --- PersonStore ---

const personColumns = `id, user_id, manager_user_id, first_name, last_name, email`

func scanPerson(row pgx.Row) (*model.Person, error) {
	var p model.Person
	if err := row.Scan(&p.ID, &p.UserID, &p.ManagerUserID, &p.FirstName, &p.LastName, &p.Email); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *registrationTx) PersonForUser(ctx context.Context, userID int64) (*model.Person, error) {
	const query = `SELECT ` + personColumns + ` FROM persons WHERE user_id = $1`
	return scanPerson(t.tx.QueryRow(ctx, query, userID))
}

func (t *registrationTx) ManagedPersonByEmail(ctx context.Context, managerUserID int64, email string) (*model.Person, error) {
	const query = `SELECT ` + personColumns + ` FROM persons
                   WHERE manager_user_id = $1 AND lower(email) = lower($2)
                   ORDER BY id LIMIT 1`
	return scanPerson(t.tx.QueryRow(ctx, query, managerUserID, email))
}

func (t *registrationTx) CreatePerson(ctx context.Context, person *model.Person) error {
	const query = `INSERT INTO persons (user_id, manager_user_id, first_name, last_name, email)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := t.tx.QueryRow(ctx, query, person.UserID, person.ManagerUserID, person.FirstName, person.LastName, person.Email).Scan(&person.ID)
	return mapError(err)
}

// --- CatalogStore ---

func (t *registrationTx) TicketType(ctx context.Context, eventID, ticketTypeID int64) (*model.TicketType, error) {
	const query = `SELECT id, event_id, name, price, role FROM ticket_types WHERE event_id = $1 AND id = $2`
	var tt model.TicketType
	if err := t.tx.QueryRow(ctx, query, eventID, ticketTypeID).Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.Role); err != nil {
		return nil, notFound(err)
	}
	return &tt, nil
}

func (t *registrationTx) DefaultTicketType(ctx context.Context, eventID int64) (*model.TicketType, error) {
	const query = `SELECT id, event_id, name, price, role FROM ticket_types WHERE event_id = $1 ORDER BY id LIMIT 1`
	var tt model.TicketType
	if err := t.tx.QueryRow(ctx, query, eventID).Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.Role); err != nil {
		return nil, notFound(err)
	}
	return &tt, nil
}

func (t *registrationTx) LockCampsite(ctx context.Context, eventID, campsiteID int64) (*model.Campsite, error) {
	const query = `SELECT id, event_id, name, nightly_rate, full_event_rate FROM campsites
                   WHERE event_id = $1 AND id = $2 FOR UPDATE`
	var c model.Campsite
	err := t.tx.QueryRow(ctx, query, eventID, campsiteID).Scan(&c.ID, &c.EventID, &c.Name, &c.NightlyRate, &c.FullEventRate)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (t *registrationTx) Sku(ctx context.Context, eventID, skuID int64) (*model.Sku, error) {
	const query = `SELECT id, event_id, name, price, current_stock, active FROM skus WHERE event_id = $1 AND id = $2`
	var s model.Sku
	err := t.tx.QueryRow(ctx, query, eventID, skuID).Scan(&s.ID, &s.EventID, &s.Name, &s.Price, &s.CurrentStock, &s.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (t *registrationTx) ReserveStock(ctx context.Context, skuID int64, quantity int) (bool, error) {
	const query = `UPDATE skus SET current_stock = current_stock - $2 WHERE id = $1 AND current_stock >= $2`
	tag, err := t.tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *registrationTx) RestoreStock(ctx context.Context, skuID int64, quantity int) error {
	const query = `UPDATE skus SET current_stock = current_stock + $2 WHERE id = $1`
	_, err := t.tx.Exec(ctx, query, skuID, quantity)
	return err
}

func (t *registrationTx) LockAssetType(ctx context.Context, eventID, assetTypeID int64) (*model.AssetType, error) {
	const query = `SELECT id, event_id, name, nightly_rate, full_event_rate FROM asset_types
                   WHERE event_id = $1 AND id = $2 FOR UPDATE`
	var a model.AssetType
	err := t.tx.QueryRow(ctx, query, eventID, assetTypeID).Scan(&a.ID, &a.EventID, &a.Name, &a.NightlyRate, &a.FullEventRate)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (t *registrationTx) LockSubevent(ctx context.Context, eventID, subeventID int64) (*model.Subevent, error) {
	const query = `SELECT id, event_id, name, price, capacity, starts_at, ends_at FROM subevents
                   WHERE event_id = $1 AND id = $2 FOR UPDATE`
	var s model.Subevent
	err := t.tx.QueryRow(ctx, query, eventID, subeventID).Scan(&s.ID, &s.EventID, &s.Name, &s.Price, &s.Capacity, &s.StartsAt, &s.EndsAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (t *registrationTx) SubeventRegistrationCount(ctx context.Context, subeventID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM subevent_registrations WHERE subevent_id = $1`
	var n int
	if err := t.tx.QueryRow(ctx, query, subeventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// --- AttendeeStore ---

func (t *registrationTx) CreateAttendee(ctx context.Context, attendee *model.Attendee) (bool, error) {
	const query = `INSERT INTO attendees (event_id, person_id, ticket_type_id, code, status, is_volunteer, arrival_date, departure_date)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   ON CONFLICT (code) DO NOTHING
                   RETURNING id`
	err := t.tx.QueryRow(ctx, query,
		attendee.EventID, attendee.PersonID, attendee.TicketTypeID, attendee.Code, attendee.Status,
		attendee.IsVolunteer, attendee.ArrivalDate, attendee.DepartureDate,
	).Scan(&attendee.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *registrationTx) ActiveAttendee(ctx context.Context, eventID, personID int64) (*model.Attendee, error) {
	const query = `SELECT id, event_id, person_id, ticket_type_id, code, status, is_volunteer, arrival_date, departure_date
                   FROM attendees
                   WHERE event_id = $1 AND person_id = $2 AND status <> $3
                   ORDER BY id LIMIT 1`
	var a model.Attendee
	err := t.tx.QueryRow(ctx, query, eventID, personID, model.AttendeeStatusCancelled).Scan(
		&a.ID, &a.EventID, &a.PersonID, &a.TicketTypeID, &a.Code, &a.Status, &a.IsVolunteer, &a.ArrivalDate, &a.DepartureDate,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (t *registrationTx) CancelAttendees(ctx context.Context, attendeeIDs []int64) error {
	const query = `UPDATE attendees SET status = $1 WHERE id = ANY($2)`
	_, err := t.tx.Exec(ctx, query, model.AttendeeStatusCancelled, attendeeIDs)
	return err
}
