package coinjournal

import (
	"bytes"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value. The currency is weak: a zero-value
// Money carries no currency and adopts the other operand's on the first
// binary operation. Journals that never declare one report in USD.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

// NewMoney creates a Money in an explicit currency.
func NewMoney[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// currency returns the money's currency, defaulting to USD.
func (m Money) currency() *money.Currency {
	cur := m.cur
	if cur == "" {
		cur = money.USD
	}
	// the Money constructor guarantees a non-nil currency.
	return money.New(0, cur).Currency()
}

// String formats the value with its currency symbol.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// SignedString is like String with an explicit sign, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string         { return m.cur }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) Neg() Money               { return Money{value: m.value.Neg(), cur: m.cur} }

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Mul scales the value by a quantity.
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value), cur: m.cur} }

// Div computes a unit price from a total and a quantity.
// Dividing by a zero quantity yields zero, never a panic.
func (m Money) Div(q Quantity) Money {
	if q.IsZero() {
		return Money{cur: m.cur}
	}
	return Money{value: m.value.Div(q.value), cur: m.cur}
}

// PercentOf expresses m as a percentage of base, or 0 when base is zero.
func (m Money) PercentOf(base Money) Percent {
	if base.value.IsZero() {
		return 0
	}
	return Percent(100 * m.value.Div(base.value).InexactFloat64())
}

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	return a.cur
}

// AsFloat converts to float64 at the formatting boundary only; all
// accounting stays in decimal.
func (m Money) AsFloat() float64 { return m.value.InexactFloat64() }

// MarshalJSON implements the json.Marshaler interface. Money persists as a
// bare decimal number, the journal currency is implicit.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface, coercing
// malformed values to zero like Quantity does.
func (m *Money) UnmarshalJSON(data []byte) error {
	m.value = lenientDecimal(data)
	return nil
}

// lenientDecimal parses a JSON scalar into a decimal, tolerating quoted
// numbers and mapping anything non-numeric (null, text, objects) to zero.
func lenientDecimal(data []byte) decimal.Decimal {
	s := string(bytes.TrimSpace(data))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
