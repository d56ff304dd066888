package latefee

import (
	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
)

// SkipReason explains why a record needs no fee posting on this run
type SkipReason string

const (
	SkipPolicyDisabled SkipReason = "POLICY_DISABLED"
	SkipScope          SkipReason = "OUT_OF_SCOPE"
	SkipWithinGrace    SkipReason = "WITHIN_GRACE"
	SkipZeroBalance    SkipReason = "ZERO_BALANCE"
	SkipAlreadyApplied SkipReason = "ALREADY_APPLIED"
	SkipNoDelta        SkipReason = "NO_DELTA"
)

// Decision is the outcome of evaluating one overdue record against the
// policy. When Charge is true, Total is the accumulated fee as of today and
// Delta the portion that must be posted now.
type Decision struct {
	Charge bool
	Skip   SkipReason
	Total  valueobject.Money
	Delta  valueobject.Money
}

func skip(reason SkipReason) Decision {
	return Decision{Skip: reason}
}

// Evaluate applies the per-record eligibility rules and fee formula for one
// overdue record. One-time policies charge exactly once and then skip
// forever; growing policies recompute today's total and charge only the
// positive delta over what was already posted, so a same-day re-run always
// produces a zero delta and posts nothing.
func Evaluate(rec *billing.Record, p Policy, today calendar.Date) (Decision, error) {
	if err := p.Validate(); err != nil {
		return Decision{}, err
	}
	if !p.Enabled {
		return skip(SkipPolicyDisabled), nil
	}
	if rec.Type != p.AppliesTo {
		return skip(SkipScope), nil
	}

	overdue := rec.OverdueBalance()
	if !overdue.IsPositive() {
		return skip(SkipZeroBalance), nil
	}

	daysLate, err := rec.DaysLate(today)
	if err != nil {
		return Decision{}, err
	}
	effectiveDays := EffectiveDaysLate(daysLate, p.GracePeriodDays)
	if effectiveDays <= 0 {
		return skip(SkipWithinGrace), nil
	}

	if !p.IsGrowing() && rec.LateFeeApplied {
		return skip(SkipAlreadyApplied), nil
	}

	total, err := Compute(overdue, effectiveDays, p)
	if err != nil {
		return Decision{}, err
	}
	delta := total.Sub(rec.LateFee)
	if !delta.IsPositive() {
		return skip(SkipNoDelta), nil
	}

	return Decision{Charge: true, Total: total, Delta: delta}, nil
}
