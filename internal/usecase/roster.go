package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const clockLayout = "15:04"

// window is a same-day time interval in minutes after midnight.
type window struct {
	date       time.Time
	start, end int
}

func (w window) overlaps(o window) bool {
	return w.date.Equal(o.date) && w.start < o.end && w.end > o.start
}

func parseWindow(date time.Time, start, end string) (window, error) {
	s, err := time.Parse(clockLayout, start)
	if err != nil {
		return window{}, fmt.Errorf("start time %q: %w", start, err)
	}
	e, err := time.Parse(clockLayout, end)
	if err != nil {
		return window{}, fmt.Errorf("end time %q: %w", end, err)
	}
	y, m, d := date.Date()
	return window{
		date:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		start: s.Hour()*60 + s.Minute(),
		end:   e.Hour()*60 + e.Minute(),
	}, nil
}

type candidate struct {
	participant model.DutyParticipant
	commitments []window
}

func (c candidate) available(slot window) bool {
	if c.participant.ArrivalDate != nil && slot.date.Before(calendarDate(*c.participant.ArrivalDate)) {
		return false
	}
	if c.participant.DepartureDate != nil && slot.date.After(calendarDate(*c.participant.DepartureDate)) {
		return false
	}
	for _, busy := range c.commitments {
		if busy.overlaps(slot) {
			return false
		}
	}
	return true
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AssignRoster fills duty slots greedily in chronological order, giving each slot to the eligible
// participant with the fewest slots so far. Ties go to the earlier participant of a single
// permutation drawn from rng. Without replace, filled slots are kept and count towards load.
func AssignRoster(slots []model.DutySlot, participants []model.DutyParticipant, replace bool, rng *rand.Rand) (model.RosterResult, error) {
	type timedSlot struct {
		slot model.DutySlot
		at   window
	}

	timed := make([]timedSlot, 0, len(slots))
	for _, slot := range slots {
		w, err := parseWindow(slot.Date, slot.StartTime, slot.EndTime)
		if err != nil {
			return model.RosterResult{}, fmt.Errorf("duty slot %d: %w", slot.ID, err)
		}
		timed = append(timed, timedSlot{slot: slot, at: w})
	}
	slices.SortStableFunc(timed, func(a, b timedSlot) int {
		if c := a.at.date.Compare(b.at.date); c != 0 {
			return c
		}
		return cmp.Or(cmp.Compare(a.at.start, b.at.start), cmp.Compare(a.slot.ID, b.slot.ID))
	})

	order := make([]candidate, len(participants))
	for i, idx := range rng.Perm(len(participants)) {
		p := participants[idx]
		c := candidate{participant: p}
		for _, commitment := range p.Commitments {
			w, err := parseWindow(commitment.Date, commitment.StartTime, commitment.EndTime)
			if err != nil {
				return model.RosterResult{}, fmt.Errorf("attendee %d commitment: %w", p.AttendeeID, err)
			}
			c.commitments = append(c.commitments, w)
		}
		order[i] = c
	}

	load := make(map[int64]int, len(participants))
	held := make(map[int64][]window, len(participants))

	var pending []timedSlot
	for _, ts := range timed {
		if !replace && ts.slot.AttendeeID != nil {
			id := *ts.slot.AttendeeID
			load[id]++
			held[id] = append(held[id], ts.at)
			continue
		}
		pending = append(pending, ts)
	}

	var result model.RosterResult
	for _, ts := range pending {
		best := -1
		for i, c := range order {
			id := c.participant.AttendeeID
			if !c.available(ts.at) || clashes(held[id], ts.at) {
				continue
			}
			if best == -1 || load[id] < load[order[best].participant.AttendeeID] {
				best = i
			}
		}

		assignment := model.SlotAssignment{SlotID: ts.slot.ID}
		if best == -1 {
			result.UnassignedCount++
		} else {
			id := order[best].participant.AttendeeID
			load[id]++
			held[id] = append(held[id], ts.at)
			assignment.AttendeeID = &id
			result.AssignedCount++
		}
		result.Assignments = append(result.Assignments, assignment)
	}

	for _, p := range participants {
		result.Distribution = append(result.Distribution, model.ParticipantLoad{AttendeeID: p.AttendeeID, Slots: load[p.AttendeeID]})
	}
	slices.SortFunc(result.Distribution, func(a, b model.ParticipantLoad) int {
		return cmp.Compare(a.AttendeeID, b.AttendeeID)
	})

	return result, nil
}

func clashes(held []window, slot window) bool {
	for _, w := range held {
		if w.overlaps(slot) {
			return true
		}
	}
	return false
}

// RosterUseCase persists automatic duty assignments.
type RosterUseCase struct {
	tx     repository.Transactor
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewRosterUseCase constructs RosterUseCase.
func NewRosterUseCase(tx repository.Transactor, policy Policy, logger *slog.Logger) *RosterUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterUseCase{tx: tx, policy: policy, logger: logger, now: time.Now}
}

// AutoAssign distributes the event's duty slots among its volunteers.
func (u *RosterUseCase) AutoAssign(ctx context.Context, staff model.Principal, eventID int64, replace bool) (*model.RosterResult, error) {
	if !staff.IsAdmin() {
		return nil, domainErrors.ErrForbidden
	}

	seed := u.policy.rosterSeed(u.now())

	var result model.RosterResult
	err := u.tx.InTx(ctx, func(tx repository.Tx) error {
		slots, err := tx.DutySlots(ctx, eventID)
		if err != nil {
			return err
		}
		participants, err := tx.DutyParticipants(ctx, eventID)
		if err != nil {
			return err
		}

		result, err = AssignRoster(slots, participants, replace, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
		if err != nil {
			return err
		}

		for _, a := range result.Assignments {
			if a.AttendeeID == nil && !replace {
				continue
			}
			if err := tx.AssignDutySlot(ctx, a.SlotID, a.AttendeeID); err != nil {
				return err
			}
		}

		payload := rosterEvent{
			EventID:    eventID,
			Assigned:   result.AssignedCount,
			Unassigned: result.UnassignedCount,
			Replace:    replace,
		}
		return enqueue(ctx, tx, model.EventRosterAssigned, eventID, payload, u.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("roster assigned",
		slog.Int64("event_id", eventID),
		slog.Int("assigned", result.AssignedCount),
		slog.Int("unassigned", result.UnassignedCount),
	)
	return &result, nil
}
