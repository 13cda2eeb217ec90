// Package types provides the numeric value types of the engine.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
// Stored as BIGINT (scaled) so kg fractions add and subtract exactly.
type Quantity int64

const QuantityScale int64 = 10_000

// quantityExp is the decimal exponent matching QuantityScale.
const quantityExp int32 = -4

// maxQuantityUnits is the largest whole-unit part a Quantity can hold.
const maxQuantityUnits = math.MaxInt64 / QuantityScale

// ErrQuantityOutOfRange is returned when a parsed value does not fit a Quantity.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

// NewQuantity builds a whole-unit quantity (3 pieces, 12 kg).
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

// NewQuantityFromDecimal truncates d to 4 fractional digits.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Shift(-quantityExp).Truncate(0).IntPart())
}

// MustQuantity parses s, panics on error. Tests and constants only.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

// Decimal returns the exact decimal value of q.
func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), quantityExp) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

// FloorZero clamps negative values to zero.
func (q Quantity) FloorZero() Quantity {
	if q < 0 {
		return 0
	}
	return q
}

// Ptr returns a pointer to a copy of q, for optional fields.
func (q Quantity) Ptr() *Quantity { return &q }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	// unsigned negation keeps MinInt64 exact
	u := uint64(q)
	sign := ""
	if q < 0 {
		u = -u
		sign = "-"
	}
	scale := uint64(QuantityScale)
	return fmt.Sprintf("%s%d.%04d", sign, u/scale, u%scale)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses a plain decimal string ("12", "-0.5", ".75").
// Digits past the fourth fractional place are truncated. Exponent forms
// are rejected, as is any value outside ±922337203685477.5807.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	intStr, fracStr, _ := strings.Cut(s, ".")
	if intStr == "" && fracStr == "" {
		return 0, fmt.Errorf("parse quantity %q: no digits", s)
	}
	if !isDigits(intStr) || !isDigits(fracStr) {
		return 0, fmt.Errorf("parse quantity %q: invalid syntax", s)
	}
	if intStr == "" {
		intStr = "0"
	}

	intPart, err := strconv.ParseInt(intStr, 10, 64)
	if err != nil || intPart > maxQuantityUnits {
		return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
	}

	if len(fracStr) > 4 {
		fracStr = fracStr[:4]
	}
	fracStr += strings.Repeat("0", 4-len(fracStr))
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity fractional part: %w", err)
	}
	if intPart == maxQuantityUnits && frac > math.MaxInt64%QuantityScale {
		return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
	}

	v := intPart*QuantityScale + frac
	if neg {
		v = -v
	}
	return Quantity(v), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
