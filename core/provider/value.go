package provider

import (
	"strconv"

	"github.com/artpar/convreg/domain/convert"
	"github.com/shopspring/decimal"
)

// ValueKind discriminates Value.
type ValueKind int

const (
	ValueConverter ValueKind = iota + 1
	ValueString
	ValueNumber
)

func (k ValueKind) String() string {
	switch k {
	case ValueConverter:
		return "converter"
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	}
	return "unknown"
}

// Value is an immutable constructor argument: an already built converter or a
// literal.
type Value struct {
	kind      ValueKind
	converter convert.Converter
	text      string
	number    decimal.Decimal
}

// ConverterValue wraps a built converter.
func ConverterValue(c convert.Converter) Value {
	return Value{kind: ValueConverter, converter: c}
}

// StringValue wraps a string literal.
func StringValue(s string) Value {
	return Value{kind: ValueString, text: s}
}

// NumberValue wraps a number literal.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: ValueNumber, number: d}
}

// Kind returns the value kind.
func (v Value) Kind() ValueKind { return v.kind }

// Converter returns the wrapped converter, if v holds one.
func (v Value) Converter() (convert.Converter, bool) {
	return v.converter, v.kind == ValueConverter && v.converter != nil
}

// Text returns the string literal, if v holds one.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == ValueString
}

// Number returns the number literal, if v holds one.
func (v Value) Number() (decimal.Decimal, bool) {
	return v.number, v.kind == ValueNumber
}

// String renders v for diagnostics; string literals are quoted.
func (v Value) String() string {
	switch v.kind {
	case ValueConverter:
		if v.converter == nil {
			return "<nil>"
		}
		return v.converter.String()
	case ValueString:
		return strconv.Quote(v.text)
	case ValueNumber:
		return v.number.String()
	}
	return "<invalid>"
}
