package provider

import (
	"errors"
	"fmt"

	"github.com/artpar/convreg/domain/selector"
)

// Sentinels matched with errors.Is by the corresponding error types.
var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrArity            = errors.New("wrong number of parameters")
	ErrParameterType    = errors.New("wrong parameter type")
)

// SelectorSyntaxError reports malformed selector text.
type SelectorSyntaxError = selector.SyntaxError

// UnknownComponentError is returned for a name missing from the registry.
type UnknownComponentError struct {
	Name selector.Name
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown converter %q", e.Name)
}

func (e *UnknownComponentError) Is(target error) bool { return target == ErrUnknownComponent }

// ArityError is returned when the number of parameters does not match the
// fixed arity of the named component.
type ArityError struct {
	Name     selector.Name
	Expected int
	Actual   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d values got %d", e.Name, e.Expected, e.Actual)
}

func (e *ArityError) Is(target error) bool { return target == ErrArity }

// ParameterTypeError is returned when a parameter that must be a converter is
// something else.
type ParameterTypeError struct {
	Name  selector.Name
	Index int
	Value string // rendered offending value
}

func (e *ParameterTypeError) Error() string {
	return fmt.Sprintf("%s: expected converter in value %d but got %s", e.Name, e.Index, e.Value)
}

func (e *ParameterTypeError) Is(target error) bool { return target == ErrParameterType }
