package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

// ValidateStayPrice accepts submitted when it matches the nightly total or the full-event
// rate within tolerance, and returns the matching server amount.
func ValidateStayPrice(pricing model.StayPricing, stay model.DateRange, submitted, tolerance decimal.Decimal) (decimal.Decimal, error) {
	nightly := pricing.NightlyRate.Mul(decimal.NewFromInt(stay.Nights()))
	if withinTolerance(nightly, submitted, tolerance) {
		return nightly, nil
	}
	if pricing.FullEventRate.Valid && withinTolerance(pricing.FullEventRate.Decimal, submitted, tolerance) {
		return pricing.FullEventRate.Decimal, nil
	}

	if pricing.FullEventRate.Valid {
		return decimal.Zero, fmt.Errorf("%w: submitted %s, expected %s for %d nights or full event %s",
			domainErrors.ErrPriceMismatch, submitted, nightly, stay.Nights(), pricing.FullEventRate.Decimal)
	}
	return decimal.Zero, fmt.Errorf("%w: submitted %s, expected %s for %d nights",
		domainErrors.ErrPriceMismatch, submitted, nightly, stay.Nights())
}

// ValidateFlatPrice checks a client quote against a fixed server price. A zero quote is not checked.
func ValidateFlatPrice(server, submitted, tolerance decimal.Decimal) error {
	if submitted.IsZero() || withinTolerance(server, submitted, tolerance) {
		return nil
	}
	return fmt.Errorf("%w: submitted %s, expected %s", domainErrors.ErrPriceMismatch, submitted, server)
}

func withinTolerance(expected, submitted, tolerance decimal.Decimal) bool {
	return expected.Sub(submitted).Abs().LessThanOrEqual(tolerance)
}
