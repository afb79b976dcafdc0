package postgres

import (
	"context"
	"time"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

const clockLayout = "15:04"

// --- RosterStore ---

func (t *registrationTx) DutySlots(ctx context.Context, eventID int64) ([]model.DutySlot, error) {
	const query = `SELECT id, event_id, slot_date, start_time, end_time, attendee_id
                   FROM duty_slots WHERE event_id = $1 ORDER BY id`
	rows, err := t.tx.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.DutySlot
	for rows.Next() {
		var s model.DutySlot
		if err := rows.Scan(&s.ID, &s.EventID, &s.Date, &s.StartTime, &s.EndTime, &s.AttendeeID); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// DutyParticipants lists active volunteers of the event with the subevents they already attend.
func (t *registrationTx) DutyParticipants(ctx context.Context, eventID int64) ([]model.DutyParticipant, error) {
	const participantsQuery = `SELECT id, arrival_date, departure_date FROM attendees
                               WHERE event_id = $1 AND is_volunteer AND status <> $2
                               ORDER BY id`
	rows, err := t.tx.Query(ctx, participantsQuery, eventID, model.AttendeeStatusCancelled)
	if err != nil {
		return nil, err
	}

	var participants []model.DutyParticipant
	index := make(map[int64]int)
	for rows.Next() {
		var p model.DutyParticipant
		if err := rows.Scan(&p.AttendeeID, &p.ArrivalDate, &p.DepartureDate); err != nil {
			rows.Close()
			return nil, err
		}
		index[p.AttendeeID] = len(participants)
		participants = append(participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, nil
	}

	const commitmentsQuery = `SELECT oi.attendee_id, s.starts_at, s.ends_at
                              FROM subevent_registrations r
                              JOIN order_items oi ON oi.id = r.order_item_id
                              JOIN subevents s ON s.id = r.subevent_id
                              WHERE s.event_id = $1 AND oi.refunded_at IS NULL
                              ORDER BY oi.attendee_id, s.starts_at`
	rows, err = t.tx.Query(ctx, commitmentsQuery, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			attendeeID     int64
			startsAt, ends time.Time
		)
		if err := rows.Scan(&attendeeID, &startsAt, &ends); err != nil {
			return nil, err
		}
		i, ok := index[attendeeID]
		if !ok {
			continue
		}
		participants[i].Commitments = append(participants[i].Commitments, model.Commitment{
			Date:      time.Date(startsAt.Year(), startsAt.Month(), startsAt.Day(), 0, 0, 0, 0, time.UTC),
			StartTime: startsAt.Format(clockLayout),
			EndTime:   ends.Format(clockLayout),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (t *registrationTx) AssignDutySlot(ctx context.Context, slotID int64, attendeeID *int64) error {
	return t.execOne(ctx, `UPDATE duty_slots SET attendee_id = $2 WHERE id = $1`, slotID, attendeeID)
}
