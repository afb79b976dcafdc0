package dto

import "github.com/shopspring/decimal"

// SettleRequest records a payment against an order.
type SettleRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// ParticipantLoad is the slot count held by one attendee.
type ParticipantLoad struct {
	AttendeeID int64 `json:"attendee_id"`
	Slots      int   `json:"slots"`
}

// SlotAssignment is the outcome for one processed duty slot.
type SlotAssignment struct {
	SlotID     int64  `json:"slot_id"`
	AttendeeID *int64 `json:"attendee_id"`
}

// RosterResponse summarises an auto-assignment run.
type RosterResponse struct {
	AssignedCount   int               `json:"assigned_count"`
	UnassignedCount int               `json:"unassigned_count"`
	Distribution    []ParticipantLoad `json:"distribution"`
	Assignments     []SlotAssignment  `json:"assignments"`
}
