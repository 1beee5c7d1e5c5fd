package convert

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NumberToNumber converts between plain number representations. Integer
// targets reject values with a fractional part or out of range.
func NumberToNumber() Converter {
	return numberToNumber{}
}

type numberToNumber struct{}

func (c numberToNumber) CanConvert(value any, target Target, _ Context) bool {
	return IsNumber(value) && target.IsNumber()
}

func (c numberToNumber) Convert(value any, target Target, ctx Context) (any, error) {
	if !c.CanConvert(value, target, ctx) {
		return nil, fail(c, value, target, nil)
	}
	d, err := toDecimal(value)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	out, err := fromDecimal(d, target)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	return out, nil
}

func (numberToNumber) String() string { return "number-to-number" }

// NumberOrExpressionNumberToNumber is NumberToNumber that also accepts
// ExpressionNumber values, unwrapping them first.
func NumberOrExpressionNumberToNumber() Converter {
	return numberOrExpressionNumberToNumber{}
}

type numberOrExpressionNumberToNumber struct{}

func (c numberOrExpressionNumberToNumber) CanConvert(value any, target Target, ctx Context) bool {
	if n, ok := value.(ExpressionNumber); ok {
		value = n.Value()
	}
	return numberToNumber{}.CanConvert(value, target, ctx)
}

func (c numberOrExpressionNumberToNumber) Convert(value any, target Target, ctx Context) (any, error) {
	in := value
	if n, ok := value.(ExpressionNumber); ok {
		in = n.Value()
	}
	out, err := numberToNumber{}.Convert(in, target, ctx)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	return out, nil
}

func (numberOrExpressionNumberToNumber) String() string {
	return "number-or-expression-number-to-number"
}

// ToNumberOrExpressionNumber converts to a plain number with the given
// converter. When the target is an ExpressionNumber the value is first
// converted to a decimal and then wrapped using the context kind.
func ToNumberOrExpressionNumber(c Converter) Converter {
	return toNumberOrExpressionNumber{number: c}
}

type toNumberOrExpressionNumber struct {
	number Converter
}

func (c toNumberOrExpressionNumber) CanConvert(value any, target Target, ctx Context) bool {
	if target == TargetExpressionNumber {
		return c.number.CanConvert(value, TargetDecimal, ctx)
	}
	return c.number.CanConvert(value, target, ctx)
}

func (c toNumberOrExpressionNumber) Convert(value any, target Target, ctx Context) (any, error) {
	if target != TargetExpressionNumber {
		return c.number.Convert(value, target, ctx)
	}
	out, err := c.number.Convert(value, TargetDecimal, ctx)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	d, err := toDecimal(out)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	n, err := ctx.ExpressionNumberKind().Create(d)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	return n, nil
}

func (c toNumberOrExpressionNumber) String() string {
	return fmt.Sprintf("to-number-or-expression-number(%s)", c.number)
}

// ToExpressionNumberThen converts a value to an ExpressionNumber with
// toExpressionNumber and then to the final target with then.
func ToExpressionNumberThen(toExpressionNumber, then Converter) Converter {
	return toExpressionNumberThen{first: toExpressionNumber, then: then}
}

type toExpressionNumberThen struct {
	first Converter
	then  Converter
}

func (c toExpressionNumberThen) CanConvert(value any, target Target, ctx Context) bool {
	if !c.first.CanConvert(value, TargetExpressionNumber, ctx) {
		return false
	}
	if target == TargetExpressionNumber {
		return true
	}
	return c.then.CanConvert(NewDecimal(decimal.Zero), target, ctx)
}

func (c toExpressionNumberThen) Convert(value any, target Target, ctx Context) (any, error) {
	n, err := c.first.Convert(value, TargetExpressionNumber, ctx)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	if target == TargetExpressionNumber {
		return n, nil
	}
	out, err := c.then.Convert(n, target, ctx)
	if err != nil {
		return nil, fail(c, value, target, err)
	}
	return out, nil
}

func (c toExpressionNumberThen) String() string {
	return fmt.Sprintf("to-expression-number-then(%s, %s)", c.first, c.then)
}
