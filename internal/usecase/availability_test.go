package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
	"github.com/polkiloo/eventreg/internal/test"
)

func TestAvailabilityCampsite(t *testing.T) {
	store := test.NewMemoryStore()
	store.AddTicketType(eventID, "adult", "0")
	site := store.AddCampsite(eventID, "10", "")

	_, err := newCheckout(store, nil).Checkout(context.Background(), buyer, model.Cart{EventID: eventID, Lines: []model.CartLine{
		model.CampsiteLine{CampsiteID: site.ID, Stay: mustStay(t, "2026-07-04", "2026-07-06"), ClientPrice: dec("20")},
	}}, "")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	uc := NewAvailabilityUseCase(store)
	cases := []struct {
		in, out string
		want    bool
	}{
		{"2026-07-02", "2026-07-04", true},
		{"2026-07-03", "2026-07-05", false},
		{"2026-07-05", "2026-07-07", false},
		{"2026-07-06", "2026-07-08", true},
	}
	for _, tc := range cases {
		got, err := uc.Campsite(context.Background(), site.ID, mustStay(t, tc.in, tc.out))
		if err != nil {
			t.Fatalf("%s..%s: unexpected error %v", tc.in, tc.out, err)
		}
		if got != tc.want {
			t.Fatalf("%s..%s: expected %v, got %v", tc.in, tc.out, tc.want, got)
		}
	}
}

func TestAvailabilityAssetPicksLowestFreeItem(t *testing.T) {
	store := test.NewMemoryStore()
	store.AddTicketType(eventID, "adult", "0")
	bikes := store.AddAssetType(eventID, "5", "", 2)
	stay := mustStay(t, "2026-07-04", "2026-07-05")

	uc := NewAvailabilityUseCase(store)
	first, ok, err := uc.Asset(context.Background(), bikes.ID, stay)
	if err != nil || !ok {
		t.Fatalf("expected free item, got ok=%v err=%v", ok, err)
	}

	checkout := newCheckout(store, nil)
	line := model.AssetLine{AssetTypeID: bikes.ID, Stay: stay, ClientPrice: dec("5")}
	if _, err := checkout.Checkout(context.Background(), buyer, model.Cart{EventID: eventID, Lines: []model.CartLine{line}}, ""); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if store.Hires()[0].AssetItemID != first {
		t.Fatalf("checkout must allocate the item availability reported")
	}

	second, ok, err := uc.Asset(context.Background(), bikes.ID, stay)
	if err != nil || !ok || second <= first {
		t.Fatalf("expected next item after %d, got %d ok=%v err=%v", first, second, ok, err)
	}

	if _, err := checkout.Checkout(context.Background(), buyer, model.Cart{EventID: eventID, Lines: []model.CartLine{line}}, ""); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, ok, err := uc.Asset(context.Background(), bikes.ID, stay); err != nil || ok {
		t.Fatalf("expected exhausted pool, got ok=%v err=%v", ok, err)
	}
}

func TestAllocateAssetItemWrapsExhaustion(t *testing.T) {
	store := test.NewMemoryStore()
	empty := store.AddAssetType(eventID, "5", "", 0)

	err := store.ReadOnly(context.Background(), func(r repository.AvailabilityReader) error {
		_, err := AllocateAssetItem(context.Background(), r, empty.ID, mustStay(t, "2026-07-04", "2026-07-05"))
		return err
	})
	if !errors.Is(err, domainErrors.ErrNoAssetAvailable) {
		t.Fatalf("expected no asset available, got %v", err)
	}
}

func TestAvailabilityCampsiteUnknown(t *testing.T) {
	store := test.NewMemoryStore()
	uc := NewAvailabilityUseCase(store)

	_, err := uc.Campsite(context.Background(), 404, mustStay(t, "2026-07-04", "2026-07-05"))
	if !errors.Is(err, domainErrors.ErrInvalidCampsite) {
		t.Fatalf("expected invalid campsite, got %v", err)
	}
}

type failingTransactor struct {
	repository.Transactor
	err error
}

func (f failingTransactor) ReadOnly(context.Context, func(repository.AvailabilityReader) error) error {
	return f.err
}

func TestAvailabilityAssetKeepsFailuresDistinct(t *testing.T) {
	stay := mustStay(t, "2026-07-04", "2026-07-05")
	for _, cause := range []error{
		domainErrors.ErrConflict,
		errors.New("connection reset by peer"),
	} {
		uc := NewAvailabilityUseCase(failingTransactor{err: cause})
		id, ok, err := uc.Asset(context.Background(), 1, stay)
		if !errors.Is(err, cause) || ok || id != 0 {
			t.Fatalf("%v: expected error to surface, got id=%d ok=%v err=%v", cause, id, ok, err)
		}
	}

	store := test.NewMemoryStore()
	bikes := store.AddAssetType(eventID, "5", "", 1)
	store.FailOn, store.FailErr = "AssetItemLoads", errors.New("disk full")
	if _, ok, err := NewAvailabilityUseCase(store).Asset(context.Background(), bikes.ID, stay); err == nil || ok {
		t.Fatalf("expected infrastructure error, got ok=%v err=%v", ok, err)
	}
}
