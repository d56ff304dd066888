package ledger

import (
	"fmt"
	"time"

	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// TransactionType classifies the financial event a journal entry records
type TransactionType string

const (
	TransactionRentCharge      TransactionType = "RENT_CHARGE"
	TransactionCAMCharge       TransactionType = "CAM_CHARGE"
	TransactionLateFeeCharge   TransactionType = "LATE_FEE_CHARGE"
	TransactionPaymentReceived TransactionType = "PAYMENT_RECEIVED"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionRentCharge, TransactionCAMCharge,
		TransactionLateFeeCharge, TransactionPaymentReceived:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// ReferenceType names the source aggregate a journal entry refers to
type ReferenceType string

const (
	ReferenceBillingRecord ReferenceType = "BILLING_RECORD"
)

// IsValid checks if the reference type is valid
func (t ReferenceType) IsValid() bool {
	return t == ReferenceBillingRecord
}

// ValidationError reports a journal payload that failed validation. The
// event it describes is rejected before any write.
type ValidationError struct {
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("journal validation: %s", e.Reason)
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Line is one debit or credit leg of a journal entry. Exactly one of Debit
// and Credit must be positive; the other must be zero.
type Line struct {
	AccountCode string            `json:"account_code"`
	Debit       valueobject.Money `json:"debit_paisa"`
	Credit      valueobject.Money `json:"credit_paisa"`
	Description string            `json:"description"`
}

// Payload is a fully assembled double-entry journal entry awaiting posting.
// All financial events flow through a Payload and its Validate method; there
// is no path that writes ledger rows directly.
type Payload struct {
	TransactionType TransactionType `json:"transaction_type"`
	ReferenceType   ReferenceType   `json:"reference_type"`
	ReferenceID     uuid.UUID       `json:"reference_id"`

	// DedupKey is the natural idempotency key for posting. Builders derive
	// it from the event identity: charges post once per record, growing
	// late fees once per record per day, payments once per payment id.
	DedupKey string `json:"dedup_key"`

	TransactionDate time.Time     `json:"transaction_date"`
	DateBS          calendar.Date `json:"date_bs"`
	PeriodYearBS    int           `json:"period_year_bs"`
	PeriodMonthBS   int           `json:"period_month_bs"`

	Total       valueobject.Money `json:"total_paisa"`
	Lines       []Line            `json:"lines"`
	Description string            `json:"description"`
}

// Validate enforces the double-entry invariants. Every builder delegates
// here, so a payload that reaches the repository is known to balance.
func (p *Payload) Validate() error {
	if !p.TransactionType.IsValid() {
		return invalid("unknown transaction type %q", p.TransactionType)
	}
	if !p.ReferenceType.IsValid() {
		return invalid("unknown reference type %q", p.ReferenceType)
	}
	if p.ReferenceID == uuid.Nil {
		return invalid("reference id is required")
	}
	if p.DedupKey == "" {
		return invalid("dedup key is required")
	}
	if p.TransactionDate.IsZero() {
		return invalid("transaction date is required")
	}
	if err := p.DateBS.Validate(); err != nil {
		return invalid("transaction date: %v", err)
	}
	if p.PeriodMonthBS < 1 || p.PeriodMonthBS > 12 {
		return invalid("period month %d must be 1..12", p.PeriodMonthBS)
	}
	if p.PeriodYearBS <= 0 {
		return invalid("period year %d must be positive", p.PeriodYearBS)
	}
	if !p.Total.IsPositive() {
		return invalid("total %s must be positive", p.Total)
	}
	if len(p.Lines) < 2 {
		return invalid("journal needs at least 2 lines, got %d", len(p.Lines))
	}

	debits := valueobject.Zero()
	credits := valueobject.Zero()
	for i, line := range p.Lines {
		if line.AccountCode == "" {
			return invalid("line %d has no account code", i)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return invalid("line %d (%s) has a negative amount", i, line.AccountCode)
		}
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()
		if debitSet == creditSet {
			return invalid("line %d (%s) must have exactly one of debit or credit set", i, line.AccountCode)
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}

	if !debits.Equals(credits) {
		return invalid("journal does not balance: debits %s, credits %s", debits, credits)
	}
	if !debits.Equals(p.Total) {
		return invalid("total %s does not match line sum %s", p.Total, debits)
	}
	return nil
}
