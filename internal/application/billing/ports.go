package billing

import (
	"context"
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/latefee"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// Clock supplies the current time so runs are testable against fixed dates
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time {
	return time.Now()
}

// TxRepos bundles the repositories bound to one open transaction. The
// record mutation and its journal post for a single event always go through
// the same TxRepos so they commit or roll back together.
type TxRepos struct {
	Records  billing.Repository
	Journals ledger.Repository
}

// UnitOfWork runs fn inside one database transaction
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// RunLease is the cross-process guard against two instances running the
// billing cycle at once. Acquire fails when another holder has the lease.
type RunLease interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// PolicySource loads the current late fee policy. Implementations return a
// latefee.ConfigurationError for a missing or malformed policy document.
type PolicySource interface {
	LoadPolicy(ctx context.Context) (latefee.Policy, error)
}

// AdminDirectory resolves the admins that receive billing notifications
type AdminDirectory interface {
	ListActiveAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Notification is one message for one admin about one billing record
type Notification struct {
	AdminID  uuid.UUID `json:"admin_id"`
	RecordID uuid.UUID `json:"record_id"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
}

// NotificationSink delivers notifications to admins. Delivery happens after
// the triggering transaction commits and failures are isolated per admin.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}
