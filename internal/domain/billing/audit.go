package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunStepType identifies one step of a billing cycle run in the audit log
type RunStepType string

const (
	RunStepCreateRecords RunStepType = "CREATE_RECORDS"
	RunStepMarkOverdue   RunStepType = "MARK_OVERDUE"
	RunStepLateFees      RunStepType = "LATE_FEES"
	RunStepReminders     RunStepType = "REMINDERS"
	RunStepRunFailure    RunStepType = "RUN_FAILURE"
)

// RunAuditEntry is one append-only audit row per orchestrator step per run.
// It exists for idempotency diagnosis and operational visibility; business
// logic never reads it back.
type RunAuditEntry struct {
	ID      uuid.UUID   `json:"id"`
	Type    RunStepType `json:"type"`
	RanAt   time.Time   `json:"ran_at"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
}

// NewRunAuditEntry creates an audit entry for a completed step
func NewRunAuditEntry(stepType RunStepType, ranAt time.Time, message string, count int) RunAuditEntry {
	return RunAuditEntry{
		ID:      uuid.New(),
		Type:    stepType,
		RanAt:   ranAt,
		Message: message,
		Count:   count,
		Success: true,
	}
}

// NewFailedRunAuditEntry creates an audit entry for a failed step
func NewFailedRunAuditEntry(stepType RunStepType, ranAt time.Time, message string, count int, err error) RunAuditEntry {
	entry := NewRunAuditEntry(stepType, ranAt, message, count)
	entry.Success = false
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

// AuditLogRepository is the append-only sink for run audit entries
type AuditLogRepository interface {
	// Append persists one audit entry; failures here must never abort a run
	Append(ctx context.Context, entry RunAuditEntry) error
}
