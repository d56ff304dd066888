package latefee

import (
	"fmt"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PolicyType selects the late fee formula
type PolicyType string

const (
	PolicyTypeFixed       PolicyType = "fixed"        // flat amount, charged once
	PolicyTypePercentage  PolicyType = "percentage"   // percent of overdue balance
	PolicyTypeSimpleDaily PolicyType = "simple_daily" // percent of overdue balance per day late
)

// IsValid checks if the policy type is valid
func (t PolicyType) IsValid() bool {
	switch t {
	case PolicyTypeFixed, PolicyTypePercentage, PolicyTypeSimpleDaily:
		return true
	}
	return false
}

// String returns the string representation of PolicyType
func (t PolicyType) String() string {
	return string(t)
}

// ConfigurationError reports a disabled or malformed late fee policy. The
// billing run treats it as "no fees this run", never as a fatal failure.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("late fee policy configuration: %s", e.Reason)
}

// Policy is the validated late fee policy for a deployment. It is loaded
// fresh from the policy configuration document at the start of every fee
// pass and is read-only from the engine's perspective.
type Policy struct {
	Enabled         bool
	GracePeriodDays int
	Type            PolicyType
	// Amount is the policy magnitude: rupees for fixed policies, a percent
	// rate for percentage and simple_daily policies.
	Amount      decimal.Decimal
	Compounding bool // only meaningful with PolicyTypePercentage
	// MaxLateFee caps the accumulated fee total; zero means uncapped.
	MaxLateFee valueobject.Money
	AppliesTo  billing.RecordType
}

// Validate checks the per-variant policy constraints
func (p Policy) Validate() error {
	if !p.Type.IsValid() {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown policy type %q", p.Type)}
	}
	if p.GracePeriodDays < 0 {
		return &ConfigurationError{Reason: "grace period cannot be negative"}
	}
	if !p.Amount.IsPositive() {
		return &ConfigurationError{Reason: "policy amount must be positive"}
	}
	if p.MaxLateFee.IsNegative() {
		return &ConfigurationError{Reason: "max late fee cannot be negative"}
	}
	if !p.AppliesTo.IsValid() {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown appliesTo scope %q", p.AppliesTo)}
	}
	if p.Compounding && p.Type != PolicyTypePercentage {
		return &ConfigurationError{Reason: fmt.Sprintf("compounding is only valid for percentage policies, not %q", p.Type)}
	}
	return nil
}

// IsGrowing reports whether the fee grows on each subsequent eligible run.
// Growing policies recompute the total daily and post only the delta;
// everything else charges exactly once.
func (p Policy) IsGrowing() bool {
	return p.Type == PolicyTypeSimpleDaily || (p.Type == PolicyTypePercentage && p.Compounding)
}
