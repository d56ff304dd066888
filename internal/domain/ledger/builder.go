package ledger

import (
	"fmt"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Builder assembles validated journal payloads for billing events. Each
// build method wires the account legs for one event type and delegates the
// invariants to Payload.Validate, so nothing unbalanced can leave here.
type Builder struct {
	accounts AccountLookup
}

// NewBuilder creates a journal builder over the given chart of accounts
func NewBuilder(accounts AccountLookup) *Builder {
	return &Builder{accounts: accounts}
}

// BuildRentCharge builds the journal for a newly created rent record:
// receivable (and withheld tax, when present) against rent revenue.
func (b *Builder) BuildRentCharge(rec *billing.Record, now time.Time, todayBS calendar.Date) (*Payload, error) {
	return b.buildCharge(rec, AccountRentRevenue, TransactionRentCharge, now, todayBS)
}

// BuildCAMCharge builds the journal for a newly created CAM record
func (b *Builder) BuildCAMCharge(rec *billing.Record, now time.Time, todayBS calendar.Date) (*Payload, error) {
	return b.buildCharge(rec, AccountCAMRevenue, TransactionCAMCharge, now, todayBS)
}

func (b *Builder) buildCharge(rec *billing.Record, revenue Account, txType TransactionType, now time.Time, todayBS calendar.Date) (*Payload, error) {
	receivableCode, err := b.accounts.Code(AccountReceivable)
	if err != nil {
		return nil, err
	}
	revenueCode, err := b.accounts.Code(revenue)
	if err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%s %d", calendar.MonthName(rec.PeriodMonthBS), rec.PeriodYearBS)
	lines := []Line{
		{
			AccountCode: receivableCode,
			Debit:       rec.EffectiveDue(),
			Description: fmt.Sprintf("%s receivable for %s", rec.Type, period),
		},
	}
	if rec.TaxWithholding.IsPositive() {
		tdsCode, err := b.accounts.Code(AccountTDSWithholding)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			AccountCode: tdsCode,
			Debit:       rec.TaxWithholding,
			Description: fmt.Sprintf("TDS withheld for %s", period),
		})
	}
	lines = append(lines, Line{
		AccountCode: revenueCode,
		Credit:      rec.AmountDue,
		Description: fmt.Sprintf("%s revenue for %s", rec.Type, period),
	})

	p := &Payload{
		TransactionType: txType,
		ReferenceType:   ReferenceBillingRecord,
		ReferenceID:     rec.ID,
		DedupKey:        fmt.Sprintf("%s:%s", txType, rec.ID),
		TransactionDate: now,
		DateBS:          todayBS,
		PeriodYearBS:    rec.PeriodYearBS,
		PeriodMonthBS:   rec.PeriodMonthBS,
		Total:           rec.AmountDue,
		Lines:           lines,
		Description:     fmt.Sprintf("%s charge for %s", rec.Type, period),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildLateFeeCharge builds the journal for one late fee delta: receivable
// against late fee revenue. The amount is the delta being charged now, not
// the accumulated fee total.
func (b *Builder) BuildLateFeeCharge(rec *billing.Record, delta valueobject.Money, now time.Time, todayBS calendar.Date) (*Payload, error) {
	receivableCode, err := b.accounts.Code(AccountReceivable)
	if err != nil {
		return nil, err
	}
	revenueCode, err := b.accounts.Code(AccountLateFeeRevenue)
	if err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%s %d", calendar.MonthName(rec.PeriodMonthBS), rec.PeriodYearBS)
	// one fee delta per record per day; the date keeps daily growing-policy
	// postings distinct while still blocking a same-day duplicate
	p := &Payload{
		TransactionType: TransactionLateFeeCharge,
		ReferenceType:   ReferenceBillingRecord,
		ReferenceID:     rec.ID,
		DedupKey:        fmt.Sprintf("%s:%s:%s", TransactionLateFeeCharge, rec.ID, todayBS),
		TransactionDate: now,
		DateBS:          todayBS,
		PeriodYearBS:    rec.PeriodYearBS,
		PeriodMonthBS:   rec.PeriodMonthBS,
		Total:           delta,
		Lines: []Line{
			{
				AccountCode: receivableCode,
				Debit:       delta,
				Description: fmt.Sprintf("Late fee receivable for %s", period),
			},
			{
				AccountCode: revenueCode,
				Credit:      delta,
				Description: fmt.Sprintf("Late fee revenue for %s", period),
			},
		},
		Description: fmt.Sprintf("Late fee on %s charge for %s", rec.Type, period),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildPaymentReceived builds the journal for a payment against a record:
// cash against receivable. paymentID identifies this payment event so that
// repeated partial payments on the same day stay distinct in the ledger.
// bankAccountCode overrides the default cash account when the payment
// landed in a specific bank account.
func (b *Builder) BuildPaymentReceived(rec *billing.Record, paymentID uuid.UUID, amount valueobject.Money, bankAccountCode string, now time.Time, todayBS calendar.Date) (*Payload, error) {
	if paymentID == uuid.Nil {
		return nil, invalid("payment id is required")
	}
	cashCode := bankAccountCode
	if cashCode == "" {
		var err error
		cashCode, err = b.accounts.Code(AccountCash)
		if err != nil {
			return nil, err
		}
	}
	receivableCode, err := b.accounts.Code(AccountReceivable)
	if err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%s %d", calendar.MonthName(rec.PeriodMonthBS), rec.PeriodYearBS)
	p := &Payload{
		TransactionType: TransactionPaymentReceived,
		ReferenceType:   ReferenceBillingRecord,
		ReferenceID:     rec.ID,
		DedupKey:        fmt.Sprintf("%s:%s:%s", TransactionPaymentReceived, rec.ID, paymentID),
		TransactionDate: now,
		DateBS:          todayBS,
		PeriodYearBS:    rec.PeriodYearBS,
		PeriodMonthBS:   rec.PeriodMonthBS,
		Total:           amount,
		Lines: []Line{
			{
				AccountCode: cashCode,
				Debit:       amount,
				Description: fmt.Sprintf("Payment received for %s %s", rec.Type, period),
			},
			{
				AccountCode: receivableCode,
				Credit:      amount,
				Description: fmt.Sprintf("Receivable settled for %s %s", rec.Type, period),
			},
		},
		Description: fmt.Sprintf("Payment on %s charge for %s", rec.Type, period),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
