package persistence

import (
	"context"

	appbilling "github.com/gharbeti/backend/internal/application/billing"
	"gorm.io/gorm"
)

// GormUnitOfWork implements the application UnitOfWork over a GORM
// transaction. Repositories handed to fn are bound to the open transaction,
// so a record mutation and its journal post commit or roll back together.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside one database transaction
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos appbilling.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, appbilling.TxRepos{
			Records:  NewGormBillingRecordRepository(tx),
			Journals: NewGormJournalRepository(tx),
		})
	})
}
