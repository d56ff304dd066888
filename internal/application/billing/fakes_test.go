package billing

import (
	"context"
	"errors"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/latefee"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// In-memory fakes with real transaction semantics: the unit of work
// snapshots the store and restores it when the callback fails, so rollback
// behavior is observable in tests.

type fakeStore struct {
	records  map[uuid.UUID]billing.Record
	journals map[string]ledger.Payload

	// failJournalFor makes Post fail for the given record ids
	failJournalFor map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:        make(map[uuid.UUID]billing.Record),
		journals:       make(map[string]ledger.Payload),
		failJournalFor: make(map[uuid.UUID]error),
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	for k, v := range s.records {
		cp.records[k] = v
	}
	for k, v := range s.journals {
		cp.journals[k] = v
	}
	return cp
}

func (s *fakeStore) restore(from *fakeStore) {
	s.records = from.records
	s.journals = from.journals
}

func (s *fakeStore) journalsFor(recordID uuid.UUID, txType ledger.TransactionType) []ledger.Payload {
	var out []ledger.Payload
	for _, p := range s.journals {
		if p.ReferenceID == recordID && p.TransactionType == txType {
			out = append(out, p)
		}
	}
	return out
}

type fakeRecordRepo struct {
	store *fakeStore
}

func (r *fakeRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Record, error) {
	rec, ok := r.store.records[id]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (r *fakeRecordRepo) TenancyIDsWithRecord(_ context.Context, recordType billing.RecordType, yearBS, monthBS int) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{})
	for _, rec := range r.store.records {
		if rec.Type == recordType && rec.PeriodYearBS == yearBS && rec.PeriodMonthBS == monthBS {
			out[rec.TenancyID] = struct{}{}
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ListByStatusForPeriod(_ context.Context, yearBS, monthBS int, statuses []billing.RecordStatus) ([]billing.Record, error) {
	var out []billing.Record
	for _, rec := range r.store.records {
		if rec.PeriodYearBS != yearBS || rec.PeriodMonthBS != monthBS {
			continue
		}
		for _, st := range statuses {
			if rec.Status == st {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ListOverdueForFeePass(_ context.Context, recordType billing.RecordType, includeCharged bool) ([]billing.Record, error) {
	var out []billing.Record
	for _, rec := range r.store.records {
		if rec.Status != billing.RecordStatusOverdue || rec.Type != recordType {
			continue
		}
		if !includeCharged && rec.LateFeeApplied {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRecordRepo) ListUnpaidWithoutReminder(_ context.Context, yearBS, monthBS int) ([]billing.Record, error) {
	var out []billing.Record
	for _, rec := range r.store.records {
		if rec.PeriodYearBS == yearBS && rec.PeriodMonthBS == monthBS &&
			rec.IsUnpaid() && rec.ReminderSentAt == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) Create(_ context.Context, rec *billing.Record) error {
	if _, ok := r.store.records[rec.ID]; ok {
		return errors.New("record already exists")
	}
	r.store.records[rec.ID] = *rec
	return nil
}

func (r *fakeRecordRepo) Update(_ context.Context, rec *billing.Record) error {
	if _, ok := r.store.records[rec.ID]; !ok {
		return errors.New("record not found")
	}
	r.store.records[rec.ID] = *rec
	return nil
}

type fakeJournalRepo struct {
	store *fakeStore
}

func (r *fakeJournalRepo) Post(_ context.Context, payload *ledger.Payload) error {
	if err, ok := r.store.failJournalFor[payload.ReferenceID]; ok {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	if _, ok := r.store.journals[payload.DedupKey]; ok {
		return &ledger.DuplicatePostError{DedupKey: payload.DedupKey}
	}
	r.store.journals[payload.DedupKey] = *payload
	return nil
}

func (r *fakeJournalRepo) FindByReference(_ context.Context, refType ledger.ReferenceType, refID uuid.UUID) ([]*ledger.Payload, error) {
	var out []*ledger.Payload
	for _, p := range r.store.journals {
		if p.ReferenceType == refType && p.ReferenceID == refID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error {
	snap := u.store.snapshot()
	err := fn(ctx, TxRepos{
		Records:  &fakeRecordRepo{store: u.store},
		Journals: &fakeJournalRepo{store: u.store},
	})
	if err != nil {
		u.store.restore(snap)
	}
	return err
}

type fakeTenancies struct {
	tenancies []billing.Tenancy
	err       error
}

func (f *fakeTenancies) ListActive(context.Context) ([]billing.Tenancy, error) {
	return f.tenancies, f.err
}

type fakeAuditLog struct {
	entries []billing.RunAuditEntry
	err     error
}

func (f *fakeAuditLog) Append(_ context.Context, entry billing.RunAuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditLog) byType(stepType billing.RunStepType) []billing.RunAuditEntry {
	var out []billing.RunAuditEntry
	for _, e := range f.entries {
		if e.Type == stepType {
			out = append(out, e)
		}
	}
	return out
}

type fakePolicies struct {
	policy latefee.Policy
	err    error
}

func (f *fakePolicies) LoadPolicy(context.Context) (latefee.Policy, error) {
	return f.policy, f.err
}

type fakeAdmins struct {
	ids []uuid.UUID
	err error
}

func (f *fakeAdmins) ListActiveAdminIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeSink struct {
	sent    []Notification
	failFor map[uuid.UUID]error
}

func (f *fakeSink) Notify(_ context.Context, n Notification) error {
	if err, ok := f.failFor[n.AdminID]; ok {
		return err
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeLease struct {
	err      error
	acquired int
	released int
}

func (f *fakeLease) Acquire(context.Context) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}
