// Package convert provides the converter contract and the expression number
// converters the provider registry builds. Converters are pure values: they
// hold no mutable state and are safe for concurrent use once constructed.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ExpressionNumberKind selects the representation used when a plain number is
// promoted to an ExpressionNumber.
type ExpressionNumberKind string

const (
	KindDecimal ExpressionNumberKind = "decimal" // arbitrary precision
	KindDouble  ExpressionNumberKind = "double"  // float64
)

// ParseExpressionNumberKind parses a kind name. Empty selects KindDecimal.
func ParseExpressionNumberKind(s string) (ExpressionNumberKind, error) {
	switch ExpressionNumberKind(s) {
	case "", KindDecimal:
		return KindDecimal, nil
	case KindDouble:
		return KindDouble, nil
	default:
		return "", fmt.Errorf("unknown expression number kind %q", s)
	}
}

// Create wraps d in an ExpressionNumber of this kind. A double fails when d
// lies outside the float64 range.
func (k ExpressionNumberKind) Create(d decimal.Decimal) (ExpressionNumber, error) {
	if k == KindDouble {
		f, err := toFloat64(d)
		if err != nil {
			return ExpressionNumber{}, err
		}
		return NewDouble(f), nil
	}
	return NewDecimal(d), nil
}

// ExpressionNumber is the number type used by expression evaluation. It is
// either a decimal or a double, never both.
type ExpressionNumber struct {
	kind ExpressionNumberKind
	dec  decimal.Decimal
	dbl  float64
}

// NewDecimal returns a decimal ExpressionNumber.
func NewDecimal(d decimal.Decimal) ExpressionNumber {
	return ExpressionNumber{kind: KindDecimal, dec: d}
}

// NewDouble returns a double ExpressionNumber.
func NewDouble(f float64) ExpressionNumber {
	return ExpressionNumber{kind: KindDouble, dbl: f}
}

// Kind returns the representation of n.
func (n ExpressionNumber) Kind() ExpressionNumberKind {
	return n.kind
}

// Value returns the wrapped number: a decimal.Decimal or a float64.
func (n ExpressionNumber) Value() any {
	if n.kind == KindDouble {
		return n.dbl
	}
	return n.dec
}

// Decimal returns n as a decimal. A double must be finite.
func (n ExpressionNumber) Decimal() decimal.Decimal {
	if n.kind == KindDouble {
		return decimal.NewFromFloat(n.dbl)
	}
	return n.dec
}

func (n ExpressionNumber) String() string {
	if n.kind == KindDouble {
		if math.IsNaN(n.dbl) || math.IsInf(n.dbl, 0) {
			return strconv.FormatFloat(n.dbl, 'g', -1, 64)
		}
		return decimal.NewFromFloat(n.dbl).String()
	}
	return n.dec.String()
}

// MarshalJSON renders n as a JSON number. Non-finite doubles have no JSON
// form.
func (n ExpressionNumber) MarshalJSON() ([]byte, error) {
	if n.kind == KindDouble && (math.IsNaN(n.dbl) || math.IsInf(n.dbl, 0)) {
		return nil, fmt.Errorf("%s is not a finite number", n)
	}
	return []byte(n.String()), nil
}

// IsNumber reports whether v is a plain (non expression) number.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, decimal.Decimal, json.Number, *big.Int:
		return true
	}
	return false
}

// toDecimal normalises any plain number to a decimal.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case *big.Int:
		return decimal.NewFromBigInt(n, 0), nil
	case float32, float64:
		f, err := cast.ToFloat64E(n)
		if err != nil {
			return decimal.Zero, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("%v is not a finite number", f)
		}
		return decimal.NewFromFloat(f), nil
	case uint, uint8, uint16, uint32, uint64:
		u, err := cast.ToUint64E(n)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0), nil
	case int, int8, int16, int32, int64:
		i, err := cast.ToInt64E(n)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(i), nil
	}
	return decimal.Zero, fmt.Errorf("%T is not a number", v)
}

var (
	minInt   = decimal.NewFromInt(math.MinInt)
	maxInt   = decimal.NewFromInt(math.MaxInt)
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// fromDecimal converts d to the numeric target, failing on lossy integer
// conversions.
func fromDecimal(d decimal.Decimal, target Target) (any, error) {
	switch target {
	case TargetDecimal:
		return d, nil
	case TargetFloat64:
		return toFloat64(d)
	case TargetInt:
		if !d.IsInteger() || d.LessThan(minInt) || d.GreaterThan(maxInt) {
			return nil, fmt.Errorf("%s does not fit in int", d)
		}
		return int(d.IntPart()), nil
	case TargetInt64:
		if !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
			return nil, fmt.Errorf("%s does not fit in int64", d)
		}
		return d.IntPart(), nil
	}
	return nil, fmt.Errorf("%s is not a number target", target)
}

// toFloat64 converts d, failing when it overflows float64.
func toFloat64(d decimal.Decimal) (float64, error) {
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s does not fit in float64", d)
	}
	return f, nil
}
