package model

import "time"

// DutySlot is a fixed volunteer shift. StartTime and EndTime are "HH:MM" on Date.
type DutySlot struct {
	ID         int64
	EventID    int64
	Date       time.Time
	StartTime  string
	EndTime    string
	AttendeeID *int64
}

// Commitment is a same-day time window a participant already attends, such as a subevent.
type Commitment struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// DutyParticipant is a registered attendee flagged for duty.
// Nil arrival or departure leaves that side of the availability window open.
type DutyParticipant struct {
	AttendeeID    int64
	ArrivalDate   *time.Time
	DepartureDate *time.Time
	Commitments   []Commitment
}

// SlotAssignment is the decision taken for one processed slot. A nil AttendeeID leaves it open.
type SlotAssignment struct {
	SlotID     int64
	AttendeeID *int64
}

// ParticipantLoad is the number of slots a participant holds after assignment.
type ParticipantLoad struct {
	AttendeeID int64
	Slots      int
}

// RosterResult summarises an auto-assignment run.
type RosterResult struct {
	AssignedCount   int
	UnassignedCount int
	Distribution    []ParticipantLoad
	Assignments     []SlotAssignment
}
