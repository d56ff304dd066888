package models

import (
	"time"

	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// JournalEntryModel is the persistence model for one posted journal entry.
// The unique dedup key index is what enforces idempotent posting.
type JournalEntryModel struct {
	BaseModel
	TransactionType string    `gorm:"size:30;not null;index"`
	ReferenceType   string    `gorm:"size:30;not null;index:idx_journal_entries_reference"`
	ReferenceID     uuid.UUID `gorm:"type:uuid;not null;index:idx_journal_entries_reference"`
	DedupKey        string    `gorm:"size:128;not null;uniqueIndex"`

	TransactionDate time.Time `gorm:"not null"`
	DateBS          string    `gorm:"size:10;not null"`
	PeriodYearBS    int       `gorm:"not null"`
	PeriodMonthBS   int       `gorm:"not null"`

	Total       valueobject.Money `gorm:"type:bigint;not null"`
	Description string            `gorm:"size:500"`

	Lines []JournalLineModel `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for JournalEntryModel
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalLineModel is one debit or credit leg of a journal entry
type JournalLineModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key"`
	JournalEntryID uuid.UUID         `gorm:"type:uuid;not null;index"`
	LineNo         int               `gorm:"not null"`
	AccountCode    string            `gorm:"size:30;not null;index"`
	Debit          valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Credit         valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Description    string            `gorm:"size:500"`
}

// TableName returns the table name for JournalLineModel
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the persistence model to a domain Payload
func (m *JournalEntryModel) ToDomain() (*ledger.Payload, error) {
	dateBS, err := calendar.ParseDate(m.DateBS)
	if err != nil {
		return nil, err
	}

	lines := make([]ledger.Line, len(m.Lines))
	for i, lm := range m.Lines {
		lines[i] = ledger.Line{
			AccountCode: lm.AccountCode,
			Debit:       lm.Debit,
			Credit:      lm.Credit,
			Description: lm.Description,
		}
	}

	return &ledger.Payload{
		TransactionType: ledger.TransactionType(m.TransactionType),
		ReferenceType:   ledger.ReferenceType(m.ReferenceType),
		ReferenceID:     m.ReferenceID,
		DedupKey:        m.DedupKey,
		TransactionDate: m.TransactionDate,
		DateBS:          dateBS,
		PeriodYearBS:    m.PeriodYearBS,
		PeriodMonthBS:   m.PeriodMonthBS,
		Total:           m.Total,
		Lines:           lines,
		Description:     m.Description,
	}, nil
}

// FromDomain populates the persistence model from a domain Payload
func (m *JournalEntryModel) FromDomain(p *ledger.Payload, now time.Time) {
	m.ID = uuid.New()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.TransactionType = string(p.TransactionType)
	m.ReferenceType = string(p.ReferenceType)
	m.ReferenceID = p.ReferenceID
	m.DedupKey = p.DedupKey
	m.TransactionDate = p.TransactionDate
	m.DateBS = p.DateBS.String()
	m.PeriodYearBS = p.PeriodYearBS
	m.PeriodMonthBS = p.PeriodMonthBS
	m.Total = p.Total
	m.Description = p.Description

	m.Lines = make([]JournalLineModel, len(p.Lines))
	for i, line := range p.Lines {
		m.Lines[i] = JournalLineModel{
			ID:             uuid.New(),
			JournalEntryID: m.ID,
			LineNo:         i + 1,
			AccountCode:    line.AccountCode,
			Debit:          line.Debit,
			Credit:         line.Credit,
			Description:    line.Description,
		}
	}
}
