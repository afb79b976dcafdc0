package usecase

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// CampsiteAvailable reports whether no booking of the campsite overlaps stay.
func CampsiteAvailable(ctx context.Context, r repository.AvailabilityReader, campsiteID int64, stay model.DateRange) (bool, error) {
	overlaps, err := r.CampsiteOverlaps(ctx, campsiteID, stay)
	if err != nil {
		return false, err
	}
	return overlaps == 0, nil
}

// AllocateAssetItem picks the lowest id item of the pool with no hire overlapping stay.
// Callers must hold the asset type lock when the result is used for an insert.
func AllocateAssetItem(ctx context.Context, r repository.AvailabilityReader, assetTypeID int64, stay model.DateRange) (int64, error) {
	loads, err := r.AssetItemLoads(ctx, assetTypeID, stay)
	if err != nil {
		return 0, err
	}
	for _, load := range loads {
		if load.Overlaps == 0 {
			return load.Item.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: asset type %d for %s", domainErrors.ErrNoAssetAvailable, assetTypeID, stay)
}

// AvailabilityUseCase answers public availability queries outside of checkout.
type AvailabilityUseCase struct {
	tx repository.Transactor
}

// NewAvailabilityUseCase constructs AvailabilityUseCase.
func NewAvailabilityUseCase(tx repository.Transactor) *AvailabilityUseCase {
	return &AvailabilityUseCase{tx: tx}
}

// Campsite reports whether the campsite is free for stay. Unknown campsites are ErrInvalidCampsite.
func (u *AvailabilityUseCase) Campsite(ctx context.Context, campsiteID int64, stay model.DateRange) (bool, error) {
	var available bool
	err := u.tx.ReadOnly(ctx, func(r repository.AvailabilityReader) error {
		exists, err := r.CampsiteExists(ctx, campsiteID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d", domainErrors.ErrInvalidCampsite, campsiteID)
		}
		available, err = CampsiteAvailable(ctx, r, campsiteID, stay)
		return err
	})
	return available, err
}

// Asset returns the item checkout would allocate for stay, or false when the pool is exhausted.
func (u *AvailabilityUseCase) Asset(ctx context.Context, assetTypeID int64, stay model.DateRange) (int64, bool, error) {
	var itemID int64
	err := u.tx.ReadOnly(ctx, func(r repository.AvailabilityReader) error {
		var err error
		itemID, err = AllocateAssetItem(ctx, r, assetTypeID, stay)
		return err
	})
	if errors.Is(err, domainErrors.ErrNoAssetAvailable) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return itemID, true, nil
}
