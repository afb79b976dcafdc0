package usecase

import (
	"context"
	"testing"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
	"github.com/polkiloo/eventreg/internal/test"
)

func TestResolveBuyerCreatesPlaceholderOnce(t *testing.T) {
	store := test.NewMemoryStore()

	var first, second *model.Person
	err := store.InTx(context.Background(), func(tx repository.Tx) error {
		var err error
		if first, err = ResolveBuyer(context.Background(), tx, buyer); err != nil {
			return err
		}
		second, err = ResolveBuyer(context.Background(), tx, buyer)
		return err
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same person, got %d and %d", first.ID, second.ID)
	}
	if first.FirstName != "ada" || first.Email != buyer.Email {
		t.Fatalf("unexpected placeholder: %+v", first)
	}
	if first.UserID == nil || *first.UserID != buyer.UserID {
		t.Fatalf("placeholder must be linked to the account")
	}
}

func TestResolveBuyerWithoutLocalPart(t *testing.T) {
	store := test.NewMemoryStore()
	odd := model.Principal{UserID: 3, Email: "@example.com", Role: model.RoleUser}

	err := store.InTx(context.Background(), func(tx repository.Tx) error {
		p, err := ResolveBuyer(context.Background(), tx, odd)
		if err != nil {
			return err
		}
		if p.FirstName != "Guest" {
			t.Fatalf("expected Guest placeholder, got %q", p.FirstName)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
}

func TestResolveAttendee(t *testing.T) {
	store := test.NewMemoryStore()

	err := store.InTx(context.Background(), func(tx repository.Tx) error {
		ctx := context.Background()
		me, err := ResolveBuyer(ctx, tx, buyer)
		if err != nil {
			return err
		}

		got, err := ResolveAttendee(ctx, tx, buyer, me, model.AttendeeDetails{}, true)
		if err != nil || got.ID != me.ID {
			t.Fatalf("empty buyer seat must resolve to the buyer, got %+v err=%v", got, err)
		}

		got, err = ResolveAttendee(ctx, tx, buyer, me, model.AttendeeDetails{Email: " ADA@example.com "}, false)
		if err != nil || got.ID != me.ID {
			t.Fatalf("buyer email must resolve to the buyer, got %+v err=%v", got, err)
		}

		anon, err := ResolveAttendee(ctx, tx, buyer, me, model.AttendeeDetails{}, false)
		if err != nil {
			return err
		}
		if anon.ID == me.ID || anon.FirstName != "Guest" || anon.ManagerUserID == nil || *anon.ManagerUserID != buyer.UserID {
			t.Fatalf("empty guest seat must create a managed placeholder, got %+v", anon)
		}

		friend, err := ResolveAttendee(ctx, tx, buyer, me, model.AttendeeDetails{FirstName: "Bob", Email: "bob@example.com"}, false)
		if err != nil {
			return err
		}
		again, err := ResolveAttendee(ctx, tx, buyer, me, model.AttendeeDetails{FirstName: "Robert", Email: "bob@example.com"}, false)
		if err != nil {
			return err
		}
		if friend.ID != again.ID {
			t.Fatalf("managed guest with the same email must be reused")
		}

		other := model.Principal{UserID: 8, Email: "eve@example.com", Role: model.RoleUser}
		otherPerson, err := ResolveBuyer(ctx, tx, other)
		if err != nil {
			return err
		}
		theirs, err := ResolveAttendee(ctx, tx, other, otherPerson, model.AttendeeDetails{Email: "bob@example.com"}, false)
		if err != nil {
			return err
		}
		if theirs.ID == friend.ID {
			t.Fatalf("guests are scoped to their manager")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
}
