package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/latefee"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testAccounts = ledger.StaticAccountLookup{
	ledger.AccountReceivable:     "1200",
	ledger.AccountRentRevenue:    "4000",
	ledger.AccountCAMRevenue:     "4100",
	ledger.AccountLateFeeRevenue: "4200",
	ledger.AccountCash:           "1000",
	ledger.AccountTDSWithholding: "2300",
}

type runEnv struct {
	store       *fakeStore
	audit       *fakeAuditLog
	sink        *fakeSink
	lease       *fakeLease
	clock       *fixedClock
	tenancies   *fakeTenancies
	policies    *fakePolicies
	admins      *fakeAdmins
	systemAdmin uuid.UUID
	orch        *Orchestrator
}

func newRunEnv(t *testing.T, today calendar.Date) *runEnv {
	t.Helper()

	now, err := calendar.ToGregorian(today)
	require.NoError(t, err)

	env := &runEnv{
		store:       newFakeStore(),
		audit:       &fakeAuditLog{},
		sink:        &fakeSink{failFor: make(map[uuid.UUID]error)},
		lease:       &fakeLease{},
		clock:       &fixedClock{now: now.Add(2 * time.Hour)},
		tenancies:   &fakeTenancies{},
		policies:    &fakePolicies{policy: latefee.Policy{Enabled: false}},
		admins:      &fakeAdmins{ids: []uuid.UUID{uuid.New()}},
		systemAdmin: uuid.New(),
	}
	env.orch = NewOrchestrator(OrchestratorParams{
		UnitOfWork:    &fakeUnitOfWork{store: env.store},
		Records:       &fakeRecordRepo{store: env.store},
		Tenancies:     env.tenancies,
		AuditLog:      env.audit,
		Policies:      env.policies,
		Builder:       ledger.NewBuilder(testAccounts),
		Admins:        env.admins,
		Notifier:      env.sink,
		Lease:         env.lease,
		Clock:         env.clock,
		Logger:        zap.NewNop(),
		SystemAdminID: env.systemAdmin,
	})
	return env
}

func (e *runEnv) setToday(t *testing.T, today calendar.Date) {
	t.Helper()
	now, err := calendar.ToGregorian(today)
	require.NoError(t, err)
	e.clock.now = now.Add(2 * time.Hour)
}

// seedOverdueRecord puts one overdue rent record for BS 2081-04 in the store
func seedOverdueRecord(t *testing.T, env *runEnv, duePaisa int64) uuid.UUID {
	t.Helper()

	due := calendar.Date{Year: 2081, Month: 4, Day: 1}
	dueAD, err := calendar.ToGregorian(due)
	require.NoError(t, err)

	rec, err := billing.NewRecord(billing.NewRecordParams{
		TenancyID:      uuid.New(),
		PropertyID:     uuid.New(),
		Type:           billing.RecordTypeRent,
		PeriodYearBS:   2081,
		PeriodMonthBS:  4,
		AmountDue:      valueobject.NewMoney(duePaisa),
		TaxWithholding: valueobject.Zero(),
		DueDateBS:      due,
		DueDateAD:      dueAD,
		CreatedBy:      env.systemAdmin,
	})
	require.NoError(t, err)
	require.NoError(t, rec.MarkOverdue(dueAD))
	env.store.records[rec.ID] = *rec
	return rec.ID
}

func growingPolicy() latefee.Policy {
	return latefee.Policy{
		Enabled:         true,
		GracePeriodDays: 5,
		Type:            latefee.PolicyTypeSimpleDaily,
		Amount:          decimal.NewFromInt(1),
		AppliesTo:       billing.RecordTypeRent,
	}
}

func TestRunDaily_FirstOfMonthCreatesRecords(t *testing.T) {
	firstDay := calendar.Date{Year: 2081, Month: 4, Day: 1}
	env := newRunEnv(t, firstDay)

	withCAM := billing.Tenancy{
		ID:            uuid.New(),
		PropertyID:    uuid.New(),
		TenantName:    "Ramesh",
		MonthlyRent:   valueobject.NewMoney(1_500_000),
		MonthlyCAM:    valueobject.NewMoney(200_000),
		DueDayOfMonth: 1,
	}
	withTDS := billing.Tenancy{
		ID:             uuid.New(),
		PropertyID:     uuid.New(),
		TenantName:     "Sita",
		MonthlyRent:    valueobject.NewMoney(2_000_000),
		TaxWithholding: valueobject.NewMoney(200_000),
		DueDayOfMonth:  5,
	}
	env.tenancies.tenancies = []billing.Tenancy{withCAM, withTDS}

	// one unpaid record from the previous month to be flipped overdue
	prevDue := calendar.Date{Year: 2081, Month: 3, Day: 1}
	prevDueAD, err := calendar.ToGregorian(prevDue)
	require.NoError(t, err)
	prevRec, err := billing.NewRecord(billing.NewRecordParams{
		TenancyID:     withCAM.ID,
		PropertyID:    withCAM.PropertyID,
		Type:          billing.RecordTypeRent,
		PeriodYearBS:  2081,
		PeriodMonthBS: 3,
		AmountDue:     valueobject.NewMoney(1_500_000),
		DueDateBS:     prevDue,
		DueDateAD:     prevDueAD,
		CreatedBy:     env.systemAdmin,
	})
	require.NoError(t, err)
	env.store.records[prevRec.ID] = *prevRec

	result, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	// 2 rent + 1 CAM records for the new period
	created := env.audit.byType(billing.RunStepCreateRecords)
	require.Len(t, created, 1)
	assert.True(t, created[0].Success)
	assert.Equal(t, 3, created[0].Count)

	rentJournals := 0
	camJournals := 0
	for _, p := range env.store.journals {
		switch p.TransactionType {
		case ledger.TransactionRentCharge:
			rentJournals++
		case ledger.TransactionCAMCharge:
			camJournals++
		}
	}
	assert.Equal(t, 2, rentJournals)
	assert.Equal(t, 1, camJournals)

	// previous period record flipped overdue
	assert.Equal(t, billing.RecordStatusOverdue, env.store.records[prevRec.ID].Status)
	marked := env.audit.byType(billing.RunStepMarkOverdue)
	require.Len(t, marked, 1)
	assert.Equal(t, 1, marked[0].Count)

	assert.Equal(t, 1, env.lease.acquired)
	assert.Equal(t, 1, env.lease.released)
	assert.NotNil(t, result)
}

func TestRunDaily_SecondRunSameDayCreatesNothing(t *testing.T) {
	firstDay := calendar.Date{Year: 2081, Month: 4, Day: 1}
	env := newRunEnv(t, firstDay)
	env.tenancies.tenancies = []billing.Tenancy{{
		ID:            uuid.New(),
		PropertyID:    uuid.New(),
		MonthlyRent:   valueobject.NewMoney(1_000_000),
		DueDayOfMonth: 1,
	}}

	_, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)
	require.Len(t, env.store.records, 1)
	journalsAfterFirst := len(env.store.journals)

	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	assert.Len(t, env.store.records, 1)
	assert.Len(t, env.store.journals, journalsAfterFirst)

	created := env.audit.byType(billing.RunStepCreateRecords)
	require.Len(t, created, 2)
	assert.Equal(t, 0, created[1].Count)
}

func TestRunDaily_LateFeePassChargesAndIsIdempotent(t *testing.T) {
	// day 16 of the month, record due day 1: 15 days late, 10 past grace
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.policies.policy = growingPolicy()
	recID := seedOverdueRecord(t, env, 100_000)

	_, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	rec := env.store.records[recID]
	assert.Equal(t, int64(10_000), rec.LateFee.Paisa()) // 1% x 10 days
	assert.True(t, rec.LateFeeApplied)
	require.Len(t, env.store.journalsFor(recID, ledger.TransactionLateFeeCharge), 1)

	fees := env.audit.byType(billing.RunStepLateFees)
	require.Len(t, fees, 1)
	assert.Equal(t, 1, fees[0].Count)

	// same-day re-run: zero delta, no journal, and no audit spam
	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	rec = env.store.records[recID]
	assert.Equal(t, int64(10_000), rec.LateFee.Paisa())
	assert.Len(t, env.store.journalsFor(recID, ledger.TransactionLateFeeCharge), 1)
	assert.Len(t, env.audit.byType(billing.RunStepLateFees), 1)

	// next day the fee grows by one more day's worth
	env.setToday(t, calendar.Date{Year: 2081, Month: 4, Day: 17})
	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	rec = env.store.records[recID]
	assert.Equal(t, int64(11_000), rec.LateFee.Paisa())
	assert.Len(t, env.store.journalsFor(recID, ledger.TransactionLateFeeCharge), 2)
}

func TestRunDaily_IsolatesPerRecordFailures(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.policies.policy = growingPolicy()

	rec1 := seedOverdueRecord(t, env, 100_000)
	rec2 := seedOverdueRecord(t, env, 200_000)
	rec3 := seedOverdueRecord(t, env, 300_000)
	env.store.failJournalFor[rec2] = errors.New("journal store down")

	_, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	// records 1 and 3 charged
	assert.True(t, env.store.records[rec1].LateFeeApplied)
	assert.True(t, env.store.records[rec3].LateFeeApplied)
	assert.Len(t, env.store.journalsFor(rec1, ledger.TransactionLateFeeCharge), 1)
	assert.Len(t, env.store.journalsFor(rec3, ledger.TransactionLateFeeCharge), 1)

	// record 2 rolled back whole: no mutation, no journal
	assert.False(t, env.store.records[rec2].LateFeeApplied)
	assert.True(t, env.store.records[rec2].LateFee.IsZero())
	assert.Empty(t, env.store.journalsFor(rec2, ledger.TransactionLateFeeCharge))

	fees := env.audit.byType(billing.RunStepLateFees)
	require.Len(t, fees, 1)
	assert.False(t, fees[0].Success)
	assert.Equal(t, 2, fees[0].Count)
	assert.Contains(t, fees[0].Error, "1 records failed")
}

func TestRunDaily_MalformedPolicyIsNoOpWithAuditNote(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.policies.err = &latefee.ConfigurationError{Reason: "unknown policy type \"weekly\""}
	recID := seedOverdueRecord(t, env, 100_000)

	_, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	assert.True(t, env.store.records[recID].LateFee.IsZero())
	fees := env.audit.byType(billing.RunStepLateFees)
	require.Len(t, fees, 1)
	assert.True(t, fees[0].Success)
	assert.Contains(t, fees[0].Message, "weekly")
}

func TestRunDaily_LeaseUnavailableSkipsRun(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.lease.err = errors.New("lock held")
	seedOverdueRecord(t, env, 100_000)
	env.policies.policy = growingPolicy()

	_, err := env.orch.RunDaily(context.Background())
	assert.ErrorIs(t, err, ErrLeaseUnavailable)
	assert.Empty(t, env.audit.entries)
	assert.Empty(t, env.store.journals)
}

func TestRunDaily_AdminDirectoryFailureAbortsRun(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.admins.err = errors.New("directory unreachable")
	env.policies.policy = growingPolicy()
	recID := seedOverdueRecord(t, env, 100_000)

	_, err := env.orch.RunDaily(context.Background())
	var runErr *RunLevelError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "admin directory", runErr.Stage)

	// nothing processed, failure audited
	assert.True(t, env.store.records[recID].LateFee.IsZero())
	failures := env.audit.byType(billing.RunStepRunFailure)
	require.Len(t, failures, 1)
	assert.False(t, failures[0].Success)

	// the directory is gone, so the failure notice goes to the system admin
	require.Len(t, env.sink.sent, 1)
	assert.Equal(t, env.systemAdmin, env.sink.sent[0].AdminID)
	assert.Equal(t, "Billing run failed", env.sink.sent[0].Subject)
	assert.Contains(t, env.sink.sent[0].Body, "admin directory")
}

func TestRunDaily_CalendarOutOfRangeAbortsRun(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.clock.now = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC) // before supported table

	_, err := env.orch.RunDaily(context.Background())
	var runErr *RunLevelError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "calendar bootstrap", runErr.Stage)

	// aborting before the directory is read still notifies the system admin
	require.Len(t, env.sink.sent, 1)
	assert.Equal(t, env.systemAdmin, env.sink.sent[0].AdminID)
	assert.Equal(t, "Billing run failed", env.sink.sent[0].Subject)
}

func TestRunDaily_RemindersSentOncePerRecord(t *testing.T) {
	bounds, err := calendar.MonthBounds(2081, 4)
	require.NoError(t, err)
	env := newRunEnv(t, bounds.ReminderDay)

	admin2 := uuid.New()
	env.admins.ids = append(env.admins.ids, admin2)

	recID := seedOverdueRecord(t, env, 100_000)

	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	reminders := env.audit.byType(billing.RunStepReminders)
	require.Len(t, reminders, 1)
	assert.Equal(t, 1, reminders[0].Count)
	assert.Len(t, env.sink.sent, 2) // one per admin
	assert.NotNil(t, env.store.records[recID].ReminderSentAt)

	// re-run the same day: marker blocks a duplicate
	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Len(t, env.sink.sent, 2)
}

func TestRunDaily_NotificationFailureIsolatedPerAdmin(t *testing.T) {
	bounds, err := calendar.MonthBounds(2081, 4)
	require.NoError(t, err)
	env := newRunEnv(t, bounds.ReminderDay)

	healthy := env.admins.ids[0]
	broken := uuid.New()
	env.admins.ids = append(env.admins.ids, broken)
	env.sink.failFor[broken] = errors.New("smtp down")

	seedOverdueRecord(t, env, 100_000)

	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	require.Len(t, env.sink.sent, 1)
	assert.Equal(t, healthy, env.sink.sent[0].AdminID)
}

func TestRunDaily_EmptyAdminDirectoryFallsBackToSystemAdmin(t *testing.T) {
	bounds, err := calendar.MonthBounds(2081, 4)
	require.NoError(t, err)
	env := newRunEnv(t, bounds.ReminderDay)
	env.admins.ids = nil

	seedOverdueRecord(t, env, 100_000)

	_, err = env.orch.RunDaily(context.Background())
	require.NoError(t, err)

	require.Len(t, env.sink.sent, 1)
	assert.Equal(t, env.systemAdmin, env.sink.sent[0].AdminID)
}

func TestRunDaily_AuditFailureDoesNotAbortRun(t *testing.T) {
	today := calendar.Date{Year: 2081, Month: 4, Day: 16}
	env := newRunEnv(t, today)
	env.policies.policy = growingPolicy()
	env.audit.err = errors.New("audit store down")
	recID := seedOverdueRecord(t, env, 100_000)

	_, err := env.orch.RunDaily(context.Background())
	require.NoError(t, err)
	assert.True(t, env.store.records[recID].LateFeeApplied)
}
