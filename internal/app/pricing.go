/**
 * @description
 * Pricing calculator for the decisioning engine: interest-rate derivation from
 * amount and tenor, the standard amortization formula for the level monthly
 * payment, and the total repayment over the tenor. All functions are pure and
 * deterministic.
 */

package app

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPricingInput is returned when pricing is invoked with a
// non-positive principal or tenor. Callers are expected to validate first;
// this is a precondition violation, not a recoverable condition.
var ErrInvalidPricingInput = errors.New("invalid pricing input")

const (
	baseInterestRate = 5.0
	maxInterestRate  = 15.0

	largeAmountThreshold  = 10000.0
	largeAmountSurcharge  = 1.0
	mediumTenorThreshold  = 12
	longTenorThreshold    = 24
	tenorSurchargePerTier = 0.5
)

// roundToCents rounds half-up on the cents digit, matching how the stored
// decimal columns are populated.
func roundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// InterestRate derives the annual rate (percent) for a requested amount and
// tenor: base 5.0%, +1.0 above 10,000, +0.5 past 12 months and another +0.5
// past 24 months, capped at 15.0%.
func InterestRate(amount float64, periodMonths int) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidPricingInput, amount)
	}
	if periodMonths <= 0 {
		return 0, fmt.Errorf("%w: period must be positive, got %d", ErrInvalidPricingInput, periodMonths)
	}

	rate := baseInterestRate
	if amount > largeAmountThreshold {
		rate += largeAmountSurcharge
	}
	if periodMonths > mediumTenorThreshold {
		rate += tenorSurchargePerTier
	}
	if periodMonths > longTenorThreshold {
		rate += tenorSurchargePerTier
	}

	return math.Min(rate, maxInterestRate), nil
}

// MonthlyPayment computes the level amortized payment for a principal at an
// annual percentage rate over periodMonths, rounded to cents. A zero rate
// degenerates the formula, so it is special-cased to principal/periodMonths.
func MonthlyPayment(principal, annualRatePercent float64, periodMonths int) (float64, error) {
	if principal <= 0 {
		return 0, fmt.Errorf("%w: principal must be positive, got %.2f", ErrInvalidPricingInput, principal)
	}
	if periodMonths <= 0 {
		return 0, fmt.Errorf("%w: period must be positive, got %d", ErrInvalidPricingInput, periodMonths)
	}
	if annualRatePercent < 0 {
		return 0, fmt.Errorf("%w: rate must not be negative, got %.2f", ErrInvalidPricingInput, annualRatePercent)
	}

	if annualRatePercent == 0 {
		return roundToCents(principal / float64(periodMonths)), nil
	}

	monthlyRate := annualRatePercent / 100 / 12
	n := float64(periodMonths)
	growth := math.Pow(1+monthlyRate, n)
	payment := principal * monthlyRate * growth / (growth - 1)

	return roundToCents(payment), nil
}

// TotalRepayment computes the full amount repaid over the tenor: the monthly
// payment times the number of months, rounded to cents.
func TotalRepayment(principal, annualRatePercent float64, periodMonths int) (float64, error) {
	payment, err := MonthlyPayment(principal, annualRatePercent, periodMonths)
	if err != nil {
		return 0, err
	}
	return roundToCents(payment * float64(periodMonths)), nil
}
