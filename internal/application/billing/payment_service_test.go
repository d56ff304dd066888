package billing

import (
	"context"
	"testing"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPaymentEnv(t *testing.T) (*PaymentService, *fakeStore) {
	t.Helper()

	now, err := calendar.ToGregorian(calendar.Date{Year: 2081, Month: 4, Day: 10})
	require.NoError(t, err)

	store := newFakeStore()
	svc := NewPaymentService(
		&fakeUnitOfWork{store: store},
		ledger.NewBuilder(testAccounts),
		&fixedClock{now: now.Add(3 * time.Hour)},
		zap.NewNop(),
	)
	return svc, store
}

func seedPendingRecord(t *testing.T, store *fakeStore, duePaisa int64) uuid.UUID {
	t.Helper()

	due := calendar.Date{Year: 2081, Month: 4, Day: 1}
	dueAD, err := calendar.ToGregorian(due)
	require.NoError(t, err)

	rec, err := billing.NewRecord(billing.NewRecordParams{
		TenancyID:     uuid.New(),
		PropertyID:    uuid.New(),
		Type:          billing.RecordTypeRent,
		PeriodYearBS:  2081,
		PeriodMonthBS: 4,
		AmountDue:     valueobject.NewMoney(duePaisa),
		DueDateBS:     due,
		DueDateAD:     dueAD,
		CreatedBy:     uuid.New(),
	})
	require.NoError(t, err)
	store.records[rec.ID] = *rec
	return rec.ID
}

func TestRecordPayment_FullSettlement(t *testing.T) {
	svc, store := newPaymentEnv(t)
	recID := seedPendingRecord(t, store, 100_000)

	result, err := svc.RecordPayment(context.Background(), recID, valueobject.NewMoney(100_000), "")
	require.NoError(t, err)

	assert.Equal(t, billing.RecordStatusPaid, result.Status)
	assert.True(t, result.Outstanding.IsZero())

	rec := store.records[recID]
	assert.Equal(t, billing.RecordStatusPaid, rec.Status)
	assert.NotNil(t, rec.PaidAt)
	require.Len(t, store.journalsFor(recID, ledger.TransactionPaymentReceived), 1)
}

func TestRecordPayment_TwoPartialPaymentsSameDay(t *testing.T) {
	svc, store := newPaymentEnv(t)
	recID := seedPendingRecord(t, store, 100_000)

	first, err := svc.RecordPayment(context.Background(), recID, valueobject.NewMoney(40_000), "")
	require.NoError(t, err)
	assert.Equal(t, billing.RecordStatusPartiallyPaid, first.Status)
	assert.Equal(t, int64(60_000), first.Outstanding.Paisa())

	second, err := svc.RecordPayment(context.Background(), recID, valueobject.NewMoney(60_000), "1010")
	require.NoError(t, err)
	assert.Equal(t, billing.RecordStatusPaid, second.Status)

	// both payments journalled, distinct dedup keys
	journals := store.journalsFor(recID, ledger.TransactionPaymentReceived)
	require.Len(t, journals, 2)
}

func TestRecordPayment_ExceedsOutstandingRollsBack(t *testing.T) {
	svc, store := newPaymentEnv(t)
	recID := seedPendingRecord(t, store, 100_000)

	_, err := svc.RecordPayment(context.Background(), recID, valueobject.NewMoney(200_000), "")
	require.Error(t, err)

	rec := store.records[recID]
	assert.True(t, rec.PaidAmount.IsZero())
	assert.Equal(t, billing.RecordStatusPending, rec.Status)
	assert.Empty(t, store.journalsFor(recID, ledger.TransactionPaymentReceived))
}

func TestRecordPayment_UnknownRecord(t *testing.T) {
	svc, _ := newPaymentEnv(t)
	_, err := svc.RecordPayment(context.Background(), uuid.New(), valueobject.NewMoney(10_000), "")
	assert.Error(t, err)
}

func TestCancelRecord(t *testing.T) {
	svc, store := newPaymentEnv(t)

	t.Run("cancels unpaid record", func(t *testing.T) {
		recID := seedPendingRecord(t, store, 100_000)
		require.NoError(t, svc.CancelRecord(context.Background(), recID, "tenancy ended early"))

		rec := store.records[recID]
		assert.Equal(t, billing.RecordStatusCancelled, rec.Status)
		assert.Equal(t, "tenancy ended early", rec.CancelReason)
	})

	t.Run("rejects record with payments", func(t *testing.T) {
		recID := seedPendingRecord(t, store, 100_000)
		_, err := svc.RecordPayment(context.Background(), recID, valueobject.NewMoney(10_000), "")
		require.NoError(t, err)

		err = svc.CancelRecord(context.Background(), recID, "typo")
		require.Error(t, err)
		assert.Equal(t, billing.RecordStatusPartiallyPaid, store.records[recID].Status)
	})
}
