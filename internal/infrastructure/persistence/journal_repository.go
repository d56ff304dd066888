package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalRepository implements ledger.Repository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// Post validates and inserts a journal entry with its lines. The unique
// index on dedup_key is the idempotency guard: a second post of the same
// event comes back as a DuplicatePostError.
func (r *GormJournalRepository) Post(ctx context.Context, payload *ledger.Payload) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	var model models.JournalEntryModel
	model.FromDomain(payload, time.Now().UTC())

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ledger.DuplicatePostError{DedupKey: payload.DedupKey}
		}
		return err
	}
	return nil
}

// FindByReference loads all journal entries posted against one reference,
// oldest first, lines included
func (r *GormJournalRepository) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID) ([]*ledger.Payload, error) {
	var entryModels []models.JournalEntryModel
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no")
		}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at").
		Find(&entryModels).Error
	if err != nil {
		return nil, err
	}

	payloads := make([]*ledger.Payload, len(entryModels))
	for i := range entryModels {
		payload, err := entryModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		payloads[i] = payload
	}
	return payloads, nil
}
