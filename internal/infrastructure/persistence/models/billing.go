package models

import (
	"time"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// BillingRecordModel is the persistence model for billing.Record. All money
// columns are integer paisa.
type BillingRecordModel struct {
	AuditedAggregateModel
	TenancyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_billing_records_tenancy_period"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"size:10;not null;uniqueIndex:idx_billing_records_tenancy_period"`

	PeriodYearBS  int `gorm:"not null;uniqueIndex:idx_billing_records_tenancy_period"`
	PeriodMonthBS int `gorm:"not null;uniqueIndex:idx_billing_records_tenancy_period"`
	PeriodYearAD  int `gorm:"not null"`
	PeriodMonthAD int `gorm:"not null"`

	AmountDue      valueobject.Money `gorm:"type:bigint;not null"`
	PaidAmount     valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxWithholding valueobject.Money `gorm:"type:bigint;not null;default:0"`
	LateFee        valueobject.Money `gorm:"type:bigint;not null;default:0"`

	LateFeeApplied     bool       `gorm:"not null;default:false"`
	LateFeeCompounding bool       `gorm:"not null;default:false"`
	LateFeeChargedAt   *time.Time `gorm:""`

	Status string `gorm:"size:20;not null;index"`

	DueDateBS string    `gorm:"size:10;not null"`
	DueDateAD time.Time `gorm:"not null"`

	ReminderSentAt *time.Time `gorm:""`
	PaidAt         *time.Time `gorm:""`
	CancelledAt    *time.Time `gorm:""`
	CancelReason   string     `gorm:"size:255"`
}

// TableName returns the table name for BillingRecordModel
func (BillingRecordModel) TableName() string {
	return "billing_records"
}

// ToDomain converts the persistence model to a domain Record
func (m *BillingRecordModel) ToDomain() (*billing.Record, error) {
	dueBS, err := calendar.ParseDate(m.DueDateBS)
	if err != nil {
		return nil, err
	}

	rec := &billing.Record{
		TenancyID:          m.TenancyID,
		PropertyID:         m.PropertyID,
		Type:               billing.RecordType(m.Type),
		PeriodYearBS:       m.PeriodYearBS,
		PeriodMonthBS:      m.PeriodMonthBS,
		PeriodYearAD:       m.PeriodYearAD,
		PeriodMonthAD:      m.PeriodMonthAD,
		AmountDue:          m.AmountDue,
		PaidAmount:         m.PaidAmount,
		TaxWithholding:     m.TaxWithholding,
		LateFee:            m.LateFee,
		LateFeeApplied:     m.LateFeeApplied,
		LateFeeCompounding: m.LateFeeCompounding,
		LateFeeChargedAt:   m.LateFeeChargedAt,
		Status:             billing.RecordStatus(m.Status),
		DueDateBS:          dueBS,
		DueDateAD:          m.DueDateAD,
		ReminderSentAt:     m.ReminderSentAt,
		PaidAt:             m.PaidAt,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
	}
	m.PopulateAuditedAggregateRoot(&rec.AuditedAggregateRoot)
	return rec, nil
}

// FromDomain populates the persistence model from a domain Record
func (m *BillingRecordModel) FromDomain(rec *billing.Record) {
	m.FromDomainAuditedAggregateRoot(rec.AuditedAggregateRoot)
	m.TenancyID = rec.TenancyID
	m.PropertyID = rec.PropertyID
	m.Type = string(rec.Type)
	m.PeriodYearBS = rec.PeriodYearBS
	m.PeriodMonthBS = rec.PeriodMonthBS
	m.PeriodYearAD = rec.PeriodYearAD
	m.PeriodMonthAD = rec.PeriodMonthAD
	m.AmountDue = rec.AmountDue
	m.PaidAmount = rec.PaidAmount
	m.TaxWithholding = rec.TaxWithholding
	m.LateFee = rec.LateFee
	m.LateFeeApplied = rec.LateFeeApplied
	m.LateFeeCompounding = rec.LateFeeCompounding
	m.LateFeeChargedAt = rec.LateFeeChargedAt
	m.Status = string(rec.Status)
	m.DueDateBS = rec.DueDateBS.String()
	m.DueDateAD = rec.DueDateAD
	m.ReminderSentAt = rec.ReminderSentAt
	m.PaidAt = rec.PaidAt
	m.CancelledAt = rec.CancelledAt
	m.CancelReason = rec.CancelReason
}

// TenancyModel is the read model for active rental agreements
type TenancyModel struct {
	BaseModel
	PropertyID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	TenantName     string            `gorm:"size:255;not null"`
	MonthlyRent    valueobject.Money `gorm:"type:bigint;not null"`
	MonthlyCAM     valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxWithholding valueobject.Money `gorm:"type:bigint;not null;default:0"`
	DueDayOfMonth  int               `gorm:"not null;default:1"`
	Active         bool              `gorm:"not null;default:true;index"`
}

// TableName returns the table name for TenancyModel
func (TenancyModel) TableName() string {
	return "tenancies"
}

// ToDomain converts the persistence model to the domain read model
func (m *TenancyModel) ToDomain() billing.Tenancy {
	return billing.Tenancy{
		ID:             m.ID,
		PropertyID:     m.PropertyID,
		TenantName:     m.TenantName,
		MonthlyRent:    m.MonthlyRent,
		MonthlyCAM:     m.MonthlyCAM,
		TaxWithholding: m.TaxWithholding,
		DueDayOfMonth:  m.DueDayOfMonth,
	}
}

// RunAuditLogModel is the append-only audit row for orchestrator steps
type RunAuditLogModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Type    string    `gorm:"size:30;not null;index"`
	RanAt   time.Time `gorm:"not null;index"`
	Message string    `gorm:"size:500;not null"`
	Count   int       `gorm:"not null;default:0"`
	Success bool      `gorm:"not null"`
	Error   string    `gorm:"size:1000"`
}

// TableName returns the table name for RunAuditLogModel
func (RunAuditLogModel) TableName() string {
	return "run_audit_logs"
}

// FromDomain populates the model from a domain audit entry
func (m *RunAuditLogModel) FromDomain(entry billing.RunAuditEntry) {
	m.ID = entry.ID
	m.Type = string(entry.Type)
	m.RanAt = entry.RanAt
	m.Message = entry.Message
	m.Count = entry.Count
	m.Success = entry.Success
	m.Error = entry.Error
}

// AdminUserModel is the directory row for billing notification recipients
type AdminUserModel struct {
	BaseModel
	Name   string `gorm:"size:255;not null"`
	Email  string `gorm:"size:255;not null;uniqueIndex"`
	Active bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for AdminUserModel
func (AdminUserModel) TableName() string {
	return "admin_users"
}

// SettingModel is a key-value document store row. The late fee policy
// document lives here under its well-known key.
type SettingModel struct {
	Key       string    `gorm:"size:100;primary_key"`
	Value     []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for SettingModel
func (SettingModel) TableName() string {
	return "settings"
}
