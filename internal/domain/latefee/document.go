package latefee

import (
	"encoding/json"
	"fmt"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DocumentKey is the settings key the policy document is stored under
const DocumentKey = "lateFeePolicy"

// Document is the raw late fee policy configuration document as stored in
// the settings collection. It is parsed and validated at the boundary on
// every fee pass; the engine only ever sees the typed Policy.
type Document struct {
	Enabled          bool            `json:"enabled"`
	GracePeriodDays  int             `json:"gracePeriodDays" validate:"min=0"`
	Type             string          `json:"type" validate:"required,oneof=fixed percentage simple_daily"`
	Amount           decimal.Decimal `json:"amount"`
	Compounding      bool            `json:"compounding"`
	MaxLateFeeAmount decimal.Decimal `json:"maxLateFeeAmount"` // rupees, 0 = uncapped
	AppliesTo        string          `json:"appliesTo" validate:"required,oneof=rent cam"`
}

var validate = validator.New()

// ParseDocument decodes and validates a raw policy document into a Policy.
// Any defect is reported as a ConfigurationError so the caller can treat
// the run as a no-op instead of failing.
func ParseDocument(raw []byte) (Policy, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Policy{}, &ConfigurationError{Reason: fmt.Sprintf("malformed policy document: %v", err)}
	}
	return doc.ToPolicy()
}

// ToPolicy converts the validated document into the engine's Policy type
func (d Document) ToPolicy() (Policy, error) {
	if err := validate.Struct(d); err != nil {
		return Policy{}, &ConfigurationError{Reason: err.Error()}
	}

	var appliesTo billing.RecordType
	switch d.AppliesTo {
	case "rent":
		appliesTo = billing.RecordTypeRent
	case "cam":
		appliesTo = billing.RecordTypeCAM
	}

	p := Policy{
		Enabled:         d.Enabled,
		GracePeriodDays: d.GracePeriodDays,
		Type:            PolicyType(d.Type),
		Amount:          d.Amount,
		Compounding:     d.Compounding,
		MaxLateFee:      valueobject.FromRupees(d.MaxLateFeeAmount),
		AppliesTo:       appliesTo,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
