package billing

import (
	"fmt"
	"time"

	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/shared"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RecordType distinguishes the charge a billing record carries
type RecordType string

const (
	RecordTypeRent RecordType = "RENT" // monthly rent charge
	RecordTypeCAM  RecordType = "CAM"  // common area maintenance charge
)

// IsValid checks if the record type is valid
func (t RecordType) IsValid() bool {
	return t == RecordTypeRent || t == RecordTypeCAM
}

// String returns the string representation of RecordType
func (t RecordType) String() string {
	return string(t)
}

// RecordStatus represents the payment state of a billing record
type RecordStatus string

const (
	RecordStatusPending       RecordStatus = "PENDING"        // Unpaid, not yet past due
	RecordStatusPartiallyPaid RecordStatus = "PARTIALLY_PAID" // Some payment applied, balance remains
	RecordStatusPaid          RecordStatus = "PAID"           // Effective amount due fully paid
	RecordStatusOverdue       RecordStatus = "OVERDUE"        // Past due with outstanding balance
	RecordStatusCancelled     RecordStatus = "CANCELLED"      // Terminal, never charged
)

// IsValid checks if the status is a valid RecordStatus
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusPartiallyPaid, RecordStatusPaid,
		RecordStatusOverdue, RecordStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RecordStatus
func (s RecordStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the record is in a terminal state
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusPaid || s == RecordStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s RecordStatus) CanApplyPayment() bool {
	return s == RecordStatusPending || s == RecordStatusPartiallyPaid || s == RecordStatusOverdue
}

// CanMarkOverdue returns true if the orchestrator may transition this status to overdue
func (s RecordStatus) CanMarkOverdue() bool {
	return s == RecordStatusPending || s == RecordStatusPartiallyPaid
}

// Record is the billing record aggregate root: one rent or CAM charge for
// one tenancy and one Bikram Sambat billing period. It is created once per
// period by the billing cycle run, mutated only through domain operations,
// and never physically deleted - cancellation is a terminal status.
type Record struct {
	shared.AuditedAggregateRoot
	TenancyID  uuid.UUID  `json:"tenancy_id"`
	PropertyID uuid.UUID  `json:"property_id"`
	Type       RecordType `json:"type"`

	// Billing period in both calendars. The Bikram Sambat pair drives all
	// billing logic; the Gregorian pair exists for downstream persistence
	// and reporting.
	PeriodYearBS  int `json:"period_year_bs"`
	PeriodMonthBS int `json:"period_month_bs"` // 1..12
	PeriodYearAD  int `json:"period_year_ad"`
	PeriodMonthAD int `json:"period_month_ad"`

	AmountDue      valueobject.Money `json:"amount_due_paisa"`
	PaidAmount     valueobject.Money `json:"paid_amount_paisa"`
	TaxWithholding valueobject.Money `json:"tax_withholding_paisa"`
	LateFee        valueobject.Money `json:"late_fee_paisa"`

	LateFeeApplied     bool       `json:"late_fee_applied"`     // first fee charge has happened
	LateFeeCompounding bool       `json:"late_fee_compounding"` // fee grows on subsequent runs
	LateFeeChargedAt   *time.Time `json:"late_fee_charged_at"`

	Status RecordStatus `json:"status"`

	DueDateBS calendar.Date `json:"due_date_bs"`
	DueDateAD time.Time     `json:"due_date_ad"`

	ReminderSentAt *time.Time `json:"reminder_sent_at"`
	PaidAt         *time.Time `json:"paid_at"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	CancelReason   string     `json:"cancel_reason"`
}

// NewRecordParams carries the validated inputs for creating a billing record
type NewRecordParams struct {
	TenancyID      uuid.UUID
	PropertyID     uuid.UUID
	Type           RecordType
	PeriodYearBS   int
	PeriodMonthBS  int
	AmountDue      valueobject.Money
	TaxWithholding valueobject.Money
	DueDateBS      calendar.Date
	DueDateAD      time.Time
	CreatedBy      uuid.UUID
}

// NewRecord creates a new billing record in pending status
func NewRecord(p NewRecordParams) (*Record, error) {
	if p.TenancyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANCY", "Tenancy ID cannot be empty")
	}
	if p.PropertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECORD_TYPE", fmt.Sprintf("Record type %q is not valid", p.Type))
	}
	if p.PeriodMonthBS < 1 || p.PeriodMonthBS > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Billing month %d must be 1..12", p.PeriodMonthBS))
	}
	if !p.AmountDue.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount due must be positive")
	}
	if p.TaxWithholding.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax withholding cannot be negative")
	}
	if p.TaxWithholding.GreaterThan(p.AmountDue) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax withholding cannot exceed amount due")
	}
	if err := p.DueDateBS.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", err.Error())
	}

	return &Record{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(p.CreatedBy),
		TenancyID:            p.TenancyID,
		PropertyID:           p.PropertyID,
		Type:                 p.Type,
		PeriodYearBS:         p.PeriodYearBS,
		PeriodMonthBS:        p.PeriodMonthBS,
		PeriodYearAD:         p.DueDateAD.Year(),
		PeriodMonthAD:        int(p.DueDateAD.Month()),
		AmountDue:            p.AmountDue,
		PaidAmount:           valueobject.Zero(),
		TaxWithholding:       p.TaxWithholding,
		LateFee:              valueobject.Zero(),
		Status:               RecordStatusPending,
		DueDateBS:            p.DueDateBS,
		DueDateAD:            p.DueDateAD,
	}, nil
}

// EffectiveDue returns the amount actually owed: amount due minus tax withheld at source
func (r *Record) EffectiveDue() valueobject.Money {
	return r.AmountDue.Sub(r.TaxWithholding)
}

// OverdueBalance returns the unpaid portion of the effective amount due.
// This is the base amount late fees are computed on.
func (r *Record) OverdueBalance() valueobject.Money {
	return r.EffectiveDue().Sub(r.PaidAmount)
}

// TotalPayable returns the effective due plus accumulated late fees
func (r *Record) TotalPayable() valueobject.Money {
	return r.EffectiveDue().Add(r.LateFee)
}

// ApplyPayment applies a payment against the effective amount due.
// A partial payment on an overdue record leaves it overdue; only full
// settlement of the effective due transitions to paid.
func (r *Record) ApplyPayment(amount valueobject.Money, now time.Time) error {
	if !r.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to record in %s status", r.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(r.OverdueBalance()) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING",
			fmt.Sprintf("Payment %s exceeds outstanding balance %s", amount, r.OverdueBalance()))
	}

	r.PaidAmount = r.PaidAmount.Add(amount)

	if r.PaidAmount.Equals(r.EffectiveDue()) {
		r.Status = RecordStatusPaid
		r.PaidAt = &now
	} else if r.Status != RecordStatusOverdue {
		r.Status = RecordStatusPartiallyPaid
	}

	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// ApplyLateFee records a late fee charge. newTotal is the full fee as of
// today and delta the portion being charged now; growing marks policies
// whose fee is recomputed on every eligible run.
func (r *Record) ApplyLateFee(delta, newTotal valueobject.Money, growing bool, now time.Time) error {
	if r.Status != RecordStatusOverdue {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot charge a late fee on record in %s status", r.Status))
	}
	if !delta.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Late fee delta must be positive")
	}
	if newTotal.LessThan(r.LateFee) {
		return shared.NewDomainError("INVALID_AMOUNT", "Late fee total cannot decrease")
	}

	r.LateFee = newTotal
	r.LateFeeApplied = true
	r.LateFeeCompounding = growing
	r.LateFeeChargedAt = &now
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// MarkOverdue transitions an unpaid record of a closed period to overdue.
// Only the billing cycle run calls this; every other status is derived from
// the paid versus effective-due amounts.
func (r *Record) MarkOverdue(now time.Time) error {
	if !r.Status.CanMarkOverdue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark record in %s status overdue", r.Status))
	}
	r.Status = RecordStatusOverdue
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// MarkReminderSent records that the payment reminder for this record's
// period went out, so it is never re-sent for the same record and period
func (r *Record) MarkReminderSent(now time.Time) error {
	if r.ReminderSentAt != nil {
		return shared.NewDomainError("ALREADY_SENT", "Reminder already sent for this record")
	}
	r.ReminderSentAt = &now
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// Cancel cancels the record. Records with payments applied cannot be cancelled.
func (r *Record) Cancel(reason string, now time.Time) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel record in %s status", r.Status))
	}
	if r.PaidAmount.IsPositive() {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel a record with existing payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	r.Status = RecordStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// IsUnpaid returns true if any effective due remains outstanding
func (r *Record) IsUnpaid() bool {
	return r.Status == RecordStatusPending ||
		r.Status == RecordStatusPartiallyPaid ||
		r.Status == RecordStatusOverdue
}

// DaysLate returns the day count from the record's due date to today, both
// in the Bikram Sambat calendar. Returns 0 when today is on or before the
// due date.
func (r *Record) DaysLate(today calendar.Date) (int, error) {
	diff, err := calendar.DaysBetween(r.DueDateBS, today)
	if err != nil {
		return 0, err
	}
	if diff < 0 {
		return 0, nil
	}
	return diff, nil
}
