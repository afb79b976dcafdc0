package model

import (
	"strings"
	"time"
)

// AttendeeStatus is the lifecycle of an event registration.
type AttendeeStatus string

const (
	AttendeeStatusRegistered AttendeeStatus = "Registered"
	AttendeeStatusCheckedIn  AttendeeStatus = "CheckedIn"
	AttendeeStatusCancelled  AttendeeStatus = "Cancelled"
)

// Person is a human known to the platform, either an account holder or a guest managed by one.
type Person struct {
	ID            int64
	UserID        *int64
	ManagerUserID *int64
	FirstName     string
	LastName      string
	Email         string
}

// Attendee is a person's registration for one event under one ticket type.
// Attendees are never deleted; reversal flips them to Cancelled.
type Attendee struct {
	ID            int64
	EventID       int64
	PersonID      int64
	TicketTypeID  int64
	Code          string
	Status        AttendeeStatus
	IsVolunteer   bool
	ArrivalDate   *time.Time
	DepartureDate *time.Time
}

// AttendeeDetails are the optional contact details a buyer supplies per ticket seat.
type AttendeeDetails struct {
	FirstName string
	LastName  string
	Email     string
}

// IsEmpty reports whether no detail was supplied for the seat.
func (d AttendeeDetails) IsEmpty() bool {
	return strings.TrimSpace(d.FirstName) == "" &&
		strings.TrimSpace(d.LastName) == "" &&
		strings.TrimSpace(d.Email) == ""
}
