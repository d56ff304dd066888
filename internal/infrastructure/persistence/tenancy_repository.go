package persistence

import (
	"context"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenancyRepository implements billing.TenancyProvider using GORM
type GormTenancyRepository struct {
	db *gorm.DB
}

// NewGormTenancyRepository creates a new GormTenancyRepository
func NewGormTenancyRepository(db *gorm.DB) *GormTenancyRepository {
	return &GormTenancyRepository{db: db}
}

// ListActive returns all tenancies billing should generate records for
func (r *GormTenancyRepository) ListActive(ctx context.Context) ([]billing.Tenancy, error) {
	var tenancyModels []models.TenancyModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at").
		Find(&tenancyModels).Error
	if err != nil {
		return nil, err
	}

	tenancies := make([]billing.Tenancy, len(tenancyModels))
	for i := range tenancyModels {
		tenancies[i] = tenancyModels[i].ToDomain()
	}
	return tenancies, nil
}
