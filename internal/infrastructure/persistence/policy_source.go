package persistence

import (
	"context"
	"errors"

	"github.com/gharbeti/backend/internal/domain/latefee"
	"github.com/gharbeti/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPolicySource loads the late fee policy document from the settings
// table. A missing or malformed document surfaces as a ConfigurationError
// so the fee pass degrades to a no-op instead of failing the run.
type GormPolicySource struct {
	db *gorm.DB
}

// NewGormPolicySource creates a new GormPolicySource
func NewGormPolicySource(db *gorm.DB) *GormPolicySource {
	return &GormPolicySource{db: db}
}

// LoadPolicy reads and parses the current late fee policy
func (s *GormPolicySource) LoadPolicy(ctx context.Context) (latefee.Policy, error) {
	var setting models.SettingModel
	err := s.db.WithContext(ctx).First(&setting, "key = ?", latefee.DocumentKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return latefee.Policy{}, &latefee.ConfigurationError{Reason: "no late fee policy configured"}
		}
		return latefee.Policy{}, err
	}
	return latefee.ParseDocument(setting.Value)
}
