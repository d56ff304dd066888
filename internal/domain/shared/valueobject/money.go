package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaisaPerRupee is the number of minor units in one rupee.
const PaisaPerRupee = 100

// Money is a value object representing a monetary amount in integer paisa,
// the smallest currency subdivision. Storing and computing exclusively in
// integer minor units eliminates floating-point drift in balances and fees.
// It is immutable - all operations return new Money instances.
type Money struct {
	paisa int64
}

// NewMoney creates Money from an integer paisa amount
func NewMoney(paisa int64) Money {
	return Money{paisa: paisa}
}

// Zero returns a zero-value Money
func Zero() Money {
	return Money{}
}

// FromRupees converts a rupee amount to Money, applying banker's rounding
// to the nearest paisa
func FromRupees(rupees decimal.Decimal) Money {
	return Money{paisa: rupees.Mul(decimal.NewFromInt(PaisaPerRupee)).RoundBank(0).IntPart()}
}

// FromRupeesString parses a rupee amount string into Money
func FromRupeesString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid rupee amount %q: %w", s, err)
	}
	return FromRupees(d), nil
}

// Paisa returns the amount in integer paisa
func (m Money) Paisa() int64 {
	return m.paisa
}

// Rupees returns the amount as a decimal rupee value
func (m Money) Rupees() decimal.Decimal {
	return decimal.New(m.paisa, -2)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.paisa == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.paisa > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.paisa < 0
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{paisa: m.paisa + other.paisa}
}

// Sub returns a new Money with the difference
func (m Money) Sub(other Money) Money {
	return Money{paisa: m.paisa - other.paisa}
}

// Neg returns a new Money with the sign reversed
func (m Money) Neg() Money {
	return Money{paisa: -m.paisa}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	if m.paisa < 0 {
		return Money{paisa: -m.paisa}
	}
	return m
}

// Cmp compares two Money values: -1 if m < other, 0 if equal, +1 if m > other
func (m Money) Cmp(other Money) int {
	switch {
	case m.paisa < other.paisa:
		return -1
	case m.paisa > other.paisa:
		return 1
	}
	return 0
}

// Equals returns true if both Money values are equal
func (m Money) Equals(other Money) bool {
	return m.paisa == other.paisa
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) bool {
	return m.paisa < other.paisa
}

// LessThanOrEqual returns true if this Money is less than or equal to the other
func (m Money) LessThanOrEqual(other Money) bool {
	return m.paisa <= other.paisa
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.paisa > other.paisa
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.paisa >= other.paisa
}

// MulPercent returns percent% of the amount with banker's rounding to paisa
func (m Money) MulPercent(percent decimal.Decimal) Money {
	result := decimal.NewFromInt(m.paisa).
		Mul(percent).
		Div(decimal.NewFromInt(100)).
		RoundBank(0)
	return Money{paisa: result.IntPart()}
}

// MulDecimal returns the amount multiplied by an arbitrary decimal factor
// with banker's rounding to paisa
func (m Money) MulDecimal(factor decimal.Decimal) Money {
	result := decimal.NewFromInt(m.paisa).Mul(factor).RoundBank(0)
	return Money{paisa: result.IntPart()}
}

// MulInt returns the amount multiplied by an integer factor
func (m Money) MulInt(factor int64) Money {
	return Money{paisa: m.paisa * factor}
}

// CapAt returns the smaller of this Money and the given limit
func (m Money) CapAt(limit Money) Money {
	if m.paisa > limit.paisa {
		return limit
	}
	return m
}

// String returns a human-readable rupee representation
func (m Money) String() string {
	return fmt.Sprintf("Rs %s", m.Rupees().StringFixed(2))
}

// MarshalJSON encodes the amount as integer paisa
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.paisa)
}

// UnmarshalJSON decodes an integer paisa amount
func (m *Money) UnmarshalJSON(data []byte) error {
	var paisa int64
	if err := json.Unmarshal(data, &paisa); err != nil {
		return fmt.Errorf("invalid paisa amount: %w", err)
	}
	m.paisa = paisa
	return nil
}

// Value implements driver.Valuer for database storage as a bigint
func (m Money) Value() (driver.Value, error) {
	return m.paisa, nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	if value == nil {
		m.paisa = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		m.paisa = v
	case int32:
		m.paisa = int64(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", string(v), err)
		}
		m.paisa = d.IntPart()
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}
