package app

import (
	"errors"

	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/domain/selector"
	"github.com/artpar/convreg/ports"
)

// Outcome labels used for metrics, audit records and API error codes.
const (
	OutcomeOK            = "ok"
	OutcomeSyntax        = "selector_syntax"
	OutcomeUnknown       = "unknown_component"
	OutcomeArity         = "arity_mismatch"
	OutcomeParameterType = "parameter_type"
	OutcomeConversion    = "conversion_failed"
	OutcomeNotFound      = "not_found"
	OutcomeInvalid       = "validation_error"
	OutcomeInternal      = "internal"
)

var (
	// ErrInvalidName is returned for a saved selector name that is not a
	// valid component name.
	ErrInvalidName = errors.New("invalid selector name")

	// ErrReservedName is returned when a saved selector would shadow a
	// built-in converter.
	ErrReservedName = errors.New("name is reserved by a converter")
)

// Outcome classifies err. A nil error is OutcomeOK.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, selector.ErrSyntax):
		return OutcomeSyntax
	case errors.Is(err, provider.ErrUnknownComponent):
		return OutcomeUnknown
	case errors.Is(err, provider.ErrArity):
		return OutcomeArity
	case errors.Is(err, provider.ErrParameterType):
		return OutcomeParameterType
	case errors.Is(err, convert.ErrUnsupported):
		return OutcomeConversion
	case errors.Is(err, ports.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrReservedName):
		return OutcomeInvalid
	}
	return OutcomeInternal
}
