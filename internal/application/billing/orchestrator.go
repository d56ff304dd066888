package billing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/latefee"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunActive means a run is already in flight in this process
	ErrRunActive = errors.New("billing run already active")
	// ErrLeaseUnavailable means another instance holds the run lease
	ErrLeaseUnavailable = errors.New("billing run lease held elsewhere")
)

// RunResult summarizes one billing cycle run for callers such as the manual
// trigger endpoint. The audit log is the durable record; this is a view.
type RunResult struct {
	Date  calendar.Date           `json:"date"`
	Steps []billing.RunAuditEntry `json:"steps"`
}

// OrchestratorParams carries the orchestrator's collaborators
type OrchestratorParams struct {
	UnitOfWork    UnitOfWork
	Records       billing.Repository
	Tenancies     billing.TenancyProvider
	AuditLog      billing.AuditLogRepository
	Policies      PolicySource
	Builder       *ledger.Builder
	Admins        AdminDirectory
	Notifier      NotificationSink
	Lease         RunLease
	Clock         Clock
	Logger        *zap.Logger
	SystemAdminID uuid.UUID
}

// Orchestrator drives the daily billing cycle: record creation on the first
// day of the Bikram Sambat month, overdue marking, the late fee pass, and
// payment reminders. Every step is idempotent against persisted state so a
// crashed run can simply be re-invoked.
type Orchestrator struct {
	uow           UnitOfWork
	records       billing.Repository
	tenancies     billing.TenancyProvider
	auditLog      billing.AuditLogRepository
	policies      PolicySource
	builder       *ledger.Builder
	admins        AdminDirectory
	notifier      NotificationSink
	lease         RunLease
	clock         Clock
	logger        *zap.Logger
	systemAdminID uuid.UUID

	running atomic.Bool
}

// NewOrchestrator creates a billing cycle orchestrator
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	return &Orchestrator{
		uow:           p.UnitOfWork,
		records:       p.Records,
		tenancies:     p.Tenancies,
		auditLog:      p.AuditLog,
		policies:      p.Policies,
		builder:       p.Builder,
		admins:        p.Admins,
		notifier:      p.Notifier,
		lease:         p.Lease,
		clock:         p.Clock,
		logger:        p.Logger,
		systemAdminID: p.SystemAdminID,
	}
}

// RunDaily executes one full billing cycle for the current day. It is safe
// to call repeatedly on the same day: creation is guarded by the existing
// record set, fee posting by the delta rule and journal dedup key, and
// reminders by the sent marker. Only calendar bootstrap and admin directory
// failures abort the run; everything else is isolated per record.
func (o *Orchestrator) RunDaily(ctx context.Context) (*RunResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Warn("Billing run already active in this process, skipping")
		return nil, ErrRunActive
	}
	defer o.running.Store(false)

	release, err := o.lease.Acquire(ctx)
	if err != nil {
		o.logger.Warn("Billing run lease unavailable, skipping", zap.Error(err))
		return nil, ErrLeaseUnavailable
	}
	defer release()

	now := o.clock.Now()
	today, err := calendar.FromGregorian(now)
	if err != nil {
		return nil, o.abortRun(ctx, now, "calendar bootstrap", err, nil)
	}
	bounds, err := calendar.MonthBounds(today.Year, today.Month)
	if err != nil {
		return nil, o.abortRun(ctx, now, "calendar bootstrap", err, nil)
	}

	adminIDs, err := o.admins.ListActiveAdminIDs(ctx)
	if err != nil {
		return nil, o.abortRun(ctx, now, "admin directory", err, nil)
	}
	if len(adminIDs) == 0 {
		o.logger.Warn("No active admins found, falling back to system admin",
			zap.String("system_admin_id", o.systemAdminID.String()))
		if o.systemAdminID != uuid.Nil {
			adminIDs = []uuid.UUID{o.systemAdminID}
		}
	}

	o.logger.Info("Billing run starting",
		zap.String("date_bs", today.String()),
		zap.Time("date_ad", now))

	result := &RunResult{Date: today}

	if today.Equals(bounds.FirstDay) {
		entry := o.createPeriodRecords(ctx, today, bounds, now)
		result.Steps = append(result.Steps, entry)
		o.appendAudit(ctx, entry)

		entry = o.markPreviousOverdue(ctx, today, now)
		result.Steps = append(result.Steps, entry)
		o.appendAudit(ctx, entry)
	}

	if entry, ran := o.runLateFeePass(ctx, today, now); ran {
		result.Steps = append(result.Steps, entry)
		o.appendAudit(ctx, entry)
	}

	if today.Equals(bounds.ReminderDay) {
		entry := o.sendReminders(ctx, today, adminIDs, now)
		result.Steps = append(result.Steps, entry)
		o.appendAudit(ctx, entry)
	}

	o.logger.Info("Billing run finished",
		zap.String("date_bs", today.String()),
		zap.Int("steps", len(result.Steps)))
	return result, nil
}

// abortRun records and reports a run-level failure. These never reach a
// user synchronously; they land in the audit log and the admin sink. Aborts
// can happen before the admin directory resolves, so an empty adminIDs falls
// back to the system admin rather than notifying nobody.
func (o *Orchestrator) abortRun(ctx context.Context, now time.Time, stage string, cause error, adminIDs []uuid.UUID) error {
	runErr := &RunLevelError{Stage: stage, Err: cause}
	o.logger.Error("Billing run aborted", zap.String("stage", stage), zap.Error(cause))

	o.appendAudit(ctx, billing.NewFailedRunAuditEntry(
		billing.RunStepRunFailure, now, fmt.Sprintf("Run aborted at %s", stage), 0, cause))

	if len(adminIDs) == 0 && o.systemAdminID != uuid.Nil {
		adminIDs = []uuid.UUID{o.systemAdminID}
	}
	for _, adminID := range adminIDs {
		o.deliver(ctx, Notification{
			AdminID: adminID,
			Subject: "Billing run failed",
			Body:    runErr.Error(),
		})
	}
	return runErr
}

// createPeriodRecords creates the rent and CAM records for the new period.
// Tenancies that already have a record of a type for the period are skipped
// via a single set lookup per type, never a query per tenancy.
func (o *Orchestrator) createPeriodRecords(ctx context.Context, today calendar.Date, bounds calendar.Bounds, now time.Time) billing.RunAuditEntry {
	tenancies, err := o.tenancies.ListActive(ctx)
	if err != nil {
		o.logger.Error("Failed to list active tenancies", zap.Error(err))
		return billing.NewFailedRunAuditEntry(billing.RunStepCreateRecords, now,
			"Could not list active tenancies", 0, err)
	}

	existingRent, err := o.records.TenancyIDsWithRecord(ctx, billing.RecordTypeRent, today.Year, today.Month)
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepCreateRecords, now,
			"Could not load existing rent records", 0, err)
	}
	existingCAM, err := o.records.TenancyIDsWithRecord(ctx, billing.RecordTypeCAM, today.Year, today.Month)
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepCreateRecords, now,
			"Could not load existing CAM records", 0, err)
	}

	monthLen, err := calendar.DaysInMonth(today.Year, today.Month)
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepCreateRecords, now,
			"Unsupported billing period", 0, err)
	}

	created := 0
	failed := 0
	for _, tenancy := range tenancies {
		dueDay := tenancy.DueDayOfMonth
		if dueDay < 1 {
			dueDay = 1
		}
		if dueDay > monthLen {
			dueDay = monthLen
		}
		dueBS := calendar.Date{Year: today.Year, Month: today.Month, Day: dueDay}
		dueAD, err := calendar.ToGregorian(dueBS)
		if err != nil {
			o.logger.Error("Failed to resolve due date for tenancy",
				zap.String("tenancy_id", tenancy.ID.String()), zap.Error(err))
			failed++
			continue
		}

		if _, ok := existingRent[tenancy.ID]; !ok && tenancy.MonthlyRent.IsPositive() {
			if err := o.createChargedRecord(ctx, tenancy, billing.RecordTypeRent,
				tenancy.MonthlyRent, tenancy.TaxWithholding, today, dueBS, dueAD, now); err != nil {
				o.logger.Error("Failed to create rent record",
					zap.String("tenancy_id", tenancy.ID.String()), zap.Error(err))
				failed++
			} else {
				created++
			}
		}
		if _, ok := existingCAM[tenancy.ID]; !ok && tenancy.MonthlyCAM.IsPositive() {
			if err := o.createChargedRecord(ctx, tenancy, billing.RecordTypeCAM,
				tenancy.MonthlyCAM, valueobject.Zero(), today, dueBS, dueAD, now); err != nil {
				o.logger.Error("Failed to create CAM record",
					zap.String("tenancy_id", tenancy.ID.String()), zap.Error(err))
				failed++
			} else {
				created++
			}
		}
	}

	msg := fmt.Sprintf("Created %d billing records for %s %d",
		created, calendar.MonthName(today.Month), today.Year)
	if failed > 0 {
		return billing.NewFailedRunAuditEntry(billing.RunStepCreateRecords, now, msg, created,
			fmt.Errorf("%d tenancies failed", failed))
	}
	return billing.NewRunAuditEntry(billing.RunStepCreateRecords, now, msg, created)
}

// createChargedRecord creates one billing record and posts its charge
// journal in a single transaction
func (o *Orchestrator) createChargedRecord(ctx context.Context, tenancy billing.Tenancy, recType billing.RecordType,
	amount, withholding valueobject.Money, today, dueBS calendar.Date, dueAD time.Time, now time.Time) error {
	return o.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
		rec, err := billing.NewRecord(billing.NewRecordParams{
			TenancyID:      tenancy.ID,
			PropertyID:     tenancy.PropertyID,
			Type:           recType,
			PeriodYearBS:   today.Year,
			PeriodMonthBS:  today.Month,
			AmountDue:      amount,
			TaxWithholding: withholding,
			DueDateBS:      dueBS,
			DueDateAD:      dueAD,
			CreatedBy:      o.systemAdminID,
		})
		if err != nil {
			return err
		}
		if err := repos.Records.Create(ctx, rec); err != nil {
			return err
		}

		var payload *ledger.Payload
		if recType == billing.RecordTypeRent {
			payload, err = o.builder.BuildRentCharge(rec, now, today)
		} else {
			payload, err = o.builder.BuildCAMCharge(rec, now, today)
		}
		if err != nil {
			return err
		}
		return repos.Journals.Post(ctx, payload)
	})
}

// markPreviousOverdue flips the previous period's still unpaid records to
// overdue. Failures are isolated per record.
func (o *Orchestrator) markPreviousOverdue(ctx context.Context, today calendar.Date, now time.Time) billing.RunAuditEntry {
	prevYear, prevMonth := calendar.PreviousPeriod(today.Year, today.Month)
	records, err := o.records.ListByStatusForPeriod(ctx, prevYear, prevMonth,
		[]billing.RecordStatus{billing.RecordStatusPending, billing.RecordStatusPartiallyPaid})
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepMarkOverdue, now,
			"Could not list previous period records", 0, err)
	}

	marked := 0
	failed := 0
	for i := range records {
		rec := &records[i]
		err := o.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
			if err := rec.MarkOverdue(now); err != nil {
				return err
			}
			return repos.Records.Update(ctx, rec)
		})
		if err != nil {
			o.logger.Error("Failed to mark record overdue",
				zap.String("record_id", rec.ID.String()), zap.Error(err))
			failed++
			continue
		}
		marked++
	}

	msg := fmt.Sprintf("Marked %d records overdue for %s %d",
		marked, calendar.MonthName(prevMonth), prevYear)
	if failed > 0 {
		return billing.NewFailedRunAuditEntry(billing.RunStepMarkOverdue, now, msg, marked,
			fmt.Errorf("%d records failed", failed))
	}
	return billing.NewRunAuditEntry(billing.RunStepMarkOverdue, now, msg, marked)
}

// runLateFeePass evaluates the late fee policy over every eligible overdue
// record. A disabled or malformed policy makes the pass a no-op. The entry
// is only worth logging when something was processed or failed, so the
// returned bool reports whether to record it.
func (o *Orchestrator) runLateFeePass(ctx context.Context, today calendar.Date, now time.Time) (billing.RunAuditEntry, bool) {
	policy, err := o.policies.LoadPolicy(ctx)
	if err != nil {
		var cfgErr *latefee.ConfigurationError
		if errors.As(err, &cfgErr) {
			o.logger.Warn("Late fee policy unusable, skipping fee pass", zap.Error(err))
			return billing.NewRunAuditEntry(billing.RunStepLateFees, now,
				fmt.Sprintf("Fee pass skipped: %s", cfgErr.Reason), 0), true
		}
		return billing.NewFailedRunAuditEntry(billing.RunStepLateFees, now,
			"Could not load late fee policy", 0, err), true
	}
	if !policy.Enabled {
		return billing.RunAuditEntry{}, false
	}

	records, err := o.records.ListOverdueForFeePass(ctx, policy.AppliesTo, policy.IsGrowing())
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepLateFees, now,
			"Could not list overdue records", 0, err), true
	}

	processed := 0
	skipped := 0
	failed := 0
	for i := range records {
		rec := &records[i]
		decision, err := latefee.Evaluate(rec, policy, today)
		if err != nil {
			o.logger.Error("Late fee evaluation failed",
				zap.String("record_id", rec.ID.String()), zap.Error(err))
			failed++
			continue
		}
		if !decision.Charge {
			skipped++
			continue
		}

		err = o.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
			if err := rec.ApplyLateFee(decision.Delta, decision.Total, policy.IsGrowing(), now); err != nil {
				return err
			}
			if err := repos.Records.Update(ctx, rec); err != nil {
				return err
			}
			payload, err := o.builder.BuildLateFeeCharge(rec, decision.Delta, now, today)
			if err != nil {
				return err
			}
			return repos.Journals.Post(ctx, payload)
		})
		if err != nil {
			procErr := &RecordProcessingError{RecordID: rec.ID, Err: err}
			o.logger.Error("Late fee charge failed",
				zap.String("record_id", rec.ID.String()), zap.Error(procErr))
			failed++
			continue
		}
		processed++
	}

	if processed == 0 && failed == 0 {
		return billing.RunAuditEntry{}, false
	}
	msg := fmt.Sprintf("Late fee pass: %d charged, %d skipped, %d failed", processed, skipped, failed)
	if failed > 0 {
		return billing.NewFailedRunAuditEntry(billing.RunStepLateFees, now, msg, processed,
			fmt.Errorf("%d records failed", failed)), true
	}
	return billing.NewRunAuditEntry(billing.RunStepLateFees, now, msg, processed), true
}

// sendReminders notifies admins once per record per period about unpaid
// records. The sent marker commits before any delivery attempt, so a flaky
// sink can drop a reminder but never duplicate one.
func (o *Orchestrator) sendReminders(ctx context.Context, today calendar.Date, adminIDs []uuid.UUID, now time.Time) billing.RunAuditEntry {
	records, err := o.records.ListUnpaidWithoutReminder(ctx, today.Year, today.Month)
	if err != nil {
		return billing.NewFailedRunAuditEntry(billing.RunStepReminders, now,
			"Could not list unpaid records", 0, err)
	}

	sent := 0
	failed := 0
	for i := range records {
		rec := &records[i]
		err := o.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
			if err := rec.MarkReminderSent(now); err != nil {
				return err
			}
			return repos.Records.Update(ctx, rec)
		})
		if err != nil {
			o.logger.Error("Failed to mark reminder sent",
				zap.String("record_id", rec.ID.String()), zap.Error(err))
			failed++
			continue
		}
		sent++

		subject := fmt.Sprintf("Payment reminder: %s for %s %d",
			rec.Type, calendar.MonthName(rec.PeriodMonthBS), rec.PeriodYearBS)
		body := fmt.Sprintf("Tenancy %s has an outstanding balance of %s due %s.",
			rec.TenancyID, rec.OverdueBalance(), rec.DueDateBS)
		for _, adminID := range adminIDs {
			o.deliver(ctx, Notification{
				AdminID:  adminID,
				RecordID: rec.ID,
				Subject:  subject,
				Body:     body,
			})
		}
	}

	msg := fmt.Sprintf("Sent reminders for %d unpaid records", sent)
	if failed > 0 {
		return billing.NewFailedRunAuditEntry(billing.RunStepReminders, now, msg, sent,
			fmt.Errorf("%d records failed", failed))
	}
	return billing.NewRunAuditEntry(billing.RunStepReminders, now, msg, sent)
}

// deliver sends one notification, isolating failures per admin
func (o *Orchestrator) deliver(ctx context.Context, n Notification) {
	if err := o.notifier.Notify(ctx, n); err != nil {
		o.logger.Error("Notification delivery failed",
			zap.String("admin_id", n.AdminID.String()),
			zap.String("subject", n.Subject),
			zap.Error(err))
	}
}

// appendAudit persists one audit entry; audit failures never abort a run
func (o *Orchestrator) appendAudit(ctx context.Context, entry billing.RunAuditEntry) {
	if err := o.auditLog.Append(ctx, entry); err != nil {
		o.logger.Error("Failed to append run audit entry",
			zap.String("step", string(entry.Type)), zap.Error(err))
	}
}
