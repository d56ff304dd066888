package persistence

import (
	"context"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements billing.AuditLogRepository using GORM.
// The table is append-only; nothing ever updates or deletes a row.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append persists one run audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry billing.RunAuditEntry) error {
	var model models.RunAuditLogModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}
