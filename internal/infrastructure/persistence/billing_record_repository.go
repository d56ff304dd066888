package persistence

import (
	"context"
	"errors"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/shared"
	"github.com/gharbeti/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBillingRecordRepository implements billing.Repository using GORM
type GormBillingRecordRepository struct {
	db *gorm.DB
}

// NewGormBillingRecordRepository creates a new GormBillingRecordRepository
func NewGormBillingRecordRepository(db *gorm.DB) *GormBillingRecordRepository {
	return &GormBillingRecordRepository{db: db}
}

// FindByID finds a billing record by its ID
func (r *GormBillingRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Record, error) {
	var model models.BillingRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// TenancyIDsWithRecord returns the tenancy ids that already have a record of
// the given type for the period, as a set for duplicate-creation guarding
func (r *GormBillingRecordRepository) TenancyIDsWithRecord(ctx context.Context, recordType billing.RecordType, yearBS, monthBS int) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Where("type = ? AND period_year_bs = ? AND period_month_bs = ?", recordType, yearBS, monthBS).
		Pluck("tenancy_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ListByStatusForPeriod lists records of a period in any of the given statuses
func (r *GormBillingRecordRepository) ListByStatusForPeriod(ctx context.Context, yearBS, monthBS int, statuses []billing.RecordStatus) ([]billing.Record, error) {
	var recordModels []models.BillingRecordModel
	err := r.db.WithContext(ctx).
		Where("period_year_bs = ? AND period_month_bs = ? AND status IN ?", yearBS, monthBS, statuses).
		Order("created_at").
		Find(&recordModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels)
}

// ListOverdueForFeePass lists overdue records in scope for a late fee pass.
// One-time policies only look at records not yet charged; growing policies
// recompute every overdue record.
func (r *GormBillingRecordRepository) ListOverdueForFeePass(ctx context.Context, recordType billing.RecordType, includeCharged bool) ([]billing.Record, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND type = ?", billing.RecordStatusOverdue, recordType)
	if !includeCharged {
		query = query.Where("late_fee_applied = ?", false)
	}

	var recordModels []models.BillingRecordModel
	if err := query.Order("due_date_ad").Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels)
}

// ListUnpaidWithoutReminder lists a period's unpaid records whose reminder
// has not been sent yet
func (r *GormBillingRecordRepository) ListUnpaidWithoutReminder(ctx context.Context, yearBS, monthBS int) ([]billing.Record, error) {
	unpaid := []billing.RecordStatus{
		billing.RecordStatusPending,
		billing.RecordStatusPartiallyPaid,
		billing.RecordStatusOverdue,
	}

	var recordModels []models.BillingRecordModel
	err := r.db.WithContext(ctx).
		Where("period_year_bs = ? AND period_month_bs = ? AND status IN ? AND reminder_sent_at IS NULL",
			yearBS, monthBS, unpaid).
		Order("created_at").
		Find(&recordModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels)
}

// Create persists a new billing record
func (r *GormBillingRecordRepository) Create(ctx context.Context, record *billing.Record) error {
	var model models.BillingRecordModel
	model.FromDomain(record)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing record with an optimistic version
// check. Returns a concurrency error if the row changed underneath us.
func (r *GormBillingRecordRepository) Update(ctx context.Context, record *billing.Record) error {
	var model models.BillingRecordModel
	model.FromDomain(record)

	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Select("*").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainRecords(recordModels []models.BillingRecordModel) ([]billing.Record, error) {
	records := make([]billing.Record, len(recordModels))
	for i := range recordModels {
		rec, err := recordModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		records[i] = *rec
	}
	return records, nil
}
