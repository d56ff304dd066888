package billing

import (
	"context"

	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Repository defines the interface for billing record persistence
type Repository interface {
	// FindByID finds a billing record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// TenancyIDsWithRecord returns the set of tenancy IDs that already have
	// a record of the given type for the period, for duplicate-creation
	// guarding with a single query instead of a lookup per tenancy
	TenancyIDsWithRecord(ctx context.Context, recordType RecordType, yearBS, monthBS int) (map[uuid.UUID]struct{}, error)

	// ListByStatusForPeriod lists records of a period in any of the given statuses
	ListByStatusForPeriod(ctx context.Context, yearBS, monthBS int, statuses []RecordStatus) ([]Record, error)

	// ListOverdueForFeePass lists overdue records in scope for a late fee
	// pass. One-time policies only look at records not yet charged
	// (includeCharged false); growing policies recompute every overdue
	// record (includeCharged true).
	ListOverdueForFeePass(ctx context.Context, recordType RecordType, includeCharged bool) ([]Record, error)

	// ListUnpaidWithoutReminder lists a period's unpaid records whose
	// reminder has not been sent yet
	ListUnpaidWithoutReminder(ctx context.Context, yearBS, monthBS int) ([]Record, error)

	// Create persists a new billing record
	Create(ctx context.Context, record *Record) error

	// Update persists changes to an existing billing record with an
	// optimistic version check
	Update(ctx context.Context, record *Record) error
}

// Tenancy is the read model for an active rental agreement, the source of
// the amounts billed each period. Tenancy management itself lives outside
// the billing engine.
type Tenancy struct {
	ID             uuid.UUID
	PropertyID     uuid.UUID
	TenantName     string
	MonthlyRent    valueobject.Money
	MonthlyCAM     valueobject.Money // zero when no CAM applies
	TaxWithholding valueobject.Money // TDS withheld at source per period
	DueDayOfMonth  int               // Bikram Sambat day of month rent falls due
}

// TenancyProvider supplies the active tenancies to bill each period
type TenancyProvider interface {
	// ListActive returns all tenancies that should be billed
	ListActive(ctx context.Context) ([]Tenancy, error)
}
