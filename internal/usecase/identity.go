package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const guestPlaceholderName = "Guest"

// ResolveBuyer returns the person record of the account, creating a placeholder on first use.
func ResolveBuyer(ctx context.Context, store repository.PersonStore, buyer model.Principal) (*model.Person, error) {
	person, err := store.PersonForUser(ctx, buyer.UserID)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	userID := buyer.UserID
	person = &model.Person{
		UserID:    &userID,
		FirstName: placeholderName(buyer.Email),
		Email:     buyer.Email,
	}
	if err := store.CreatePerson(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// ResolveAttendee maps a ticket seat to a person. The buyer's slot with no details, or details
// carrying the buyer's email, resolve to the buyer. Other seats reuse a managed guest with the
// same email or create a new one.
func ResolveAttendee(ctx context.Context, store repository.PersonStore, buyer model.Principal, buyerPerson *model.Person, details model.AttendeeDetails, buyerSlot bool) (*model.Person, error) {
	email := strings.TrimSpace(details.Email)

	if details.IsEmpty() {
		if buyerSlot {
			return buyerPerson, nil
		}
		return createGuest(ctx, store, buyer.UserID, model.AttendeeDetails{FirstName: guestPlaceholderName})
	}

	if email != "" && strings.EqualFold(email, buyer.Email) {
		return buyerPerson, nil
	}

	if email != "" {
		guest, err := store.ManagedPersonByEmail(ctx, buyer.UserID, email)
		if err == nil {
			return guest, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
	}

	return createGuest(ctx, store, buyer.UserID, details)
}

func createGuest(ctx context.Context, store repository.PersonStore, managerID int64, details model.AttendeeDetails) (*model.Person, error) {
	guest := &model.Person{
		ManagerUserID: &managerID,
		FirstName:     strings.TrimSpace(details.FirstName),
		LastName:      strings.TrimSpace(details.LastName),
		Email:         strings.TrimSpace(details.Email),
	}
	if err := store.CreatePerson(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func placeholderName(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return guestPlaceholderName
}
