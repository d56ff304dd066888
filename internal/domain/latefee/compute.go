package latefee

import (
	"fmt"

	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EffectiveDaysLate returns the days late after the grace period, floored
// at zero
func EffectiveDaysLate(totalDaysLate, gracePeriodDays int) int {
	effective := totalDaysLate - gracePeriodDays
	if effective < 0 {
		return 0
	}
	return effective
}

// Compute returns the total late fee owed as of today for the given overdue
// balance and effective days late. It is a pure function: re-invoking it
// with the same inputs always yields the same fee, which is what makes the
// daily delta posting idempotent.
func Compute(overdue valueobject.Money, effectiveDaysLate int, p Policy) (valueobject.Money, error) {
	if err := p.Validate(); err != nil {
		return valueobject.Zero(), err
	}
	if effectiveDaysLate <= 0 || !overdue.IsPositive() {
		return valueobject.Zero(), nil
	}

	var fee valueobject.Money
	switch p.Type {
	case PolicyTypeFixed:
		fee = valueobject.FromRupees(p.Amount)
	case PolicyTypePercentage:
		if p.Compounding {
			// overdue * ((1 + rate/100)^days - 1), exponential growth
			one := decimal.NewFromInt(1)
			factor := one.Add(p.Amount.Div(decimal.NewFromInt(100))).
				Pow(decimal.NewFromInt(int64(effectiveDaysLate))).
				Sub(one)
			fee = overdue.MulDecimal(factor)
		} else {
			fee = overdue.MulPercent(p.Amount)
		}
	case PolicyTypeSimpleDaily:
		// overdue * rate% * days, linear growth
		fee = overdue.MulPercent(p.Amount.Mul(decimal.NewFromInt(int64(effectiveDaysLate))))
	default:
		return valueobject.Zero(), fmt.Errorf("unhandled policy type %q", p.Type)
	}

	// the cap applies to the accumulated total, not to any single delta
	if p.MaxLateFee.IsPositive() {
		fee = fee.CapAt(p.MaxLateFee)
	}
	return fee, nil
}
