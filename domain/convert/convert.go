package convert

import (
	"errors"
	"fmt"
	"strings"
)

// Target names the representation a conversion should produce.
type Target string

const (
	TargetInt              Target = "int"
	TargetInt64            Target = "int64"
	TargetFloat64          Target = "float64"
	TargetDecimal          Target = "decimal"
	TargetExpressionNumber Target = "expression-number"
)

// Targets lists every supported target.
func Targets() []Target {
	return []Target{TargetInt, TargetInt64, TargetFloat64, TargetDecimal, TargetExpressionNumber}
}

// ParseTarget parses a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown conversion target %q", s)
}

// IsNumber reports whether t is a plain number target.
func (t Target) IsNumber() bool {
	switch t {
	case TargetInt, TargetInt64, TargetFloat64, TargetDecimal:
		return true
	}
	return false
}

// Context is what a converter may consult while converting.
type Context interface {
	// ExpressionNumberKind is used when a number is promoted to an
	// ExpressionNumber.
	ExpressionNumberKind() ExpressionNumberKind
}

type kindContext ExpressionNumberKind

func (k kindContext) ExpressionNumberKind() ExpressionNumberKind {
	return ExpressionNumberKind(k)
}

// NewContext returns a Context creating expression numbers of kind.
func NewContext(kind ExpressionNumberKind) Context {
	return kindContext(kind)
}

// Converter converts a value to a target.
type Converter interface {
	// CanConvert reports whether Convert could succeed for value and target.
	CanConvert(value any, target Target, ctx Context) bool
	// Convert converts value to target.
	Convert(value any, target Target, ctx Context) (any, error)
	// String renders the converter as selector text.
	String() string
}

// ErrUnsupported is matched by every ConversionError.
var ErrUnsupported = errors.New("conversion failed")

// ConversionError reports a value the converter could not convert.
type ConversionError struct {
	Converter string
	Value     any
	Target    Target
	Err       error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s: cannot convert %v (%T) to %s", e.Converter, e.Value, e.Value, e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrUnsupported }

func fail(c Converter, value any, target Target, err error) error {
	return &ConversionError{Converter: c.String(), Value: value, Target: target, Err: err}
}
