// Package selector parses selector text into value types.
//
// A selector names a component and lists its positional arguments:
//
//	number-to-number
//	to-number-or-expression-number(number-to-number)
//	to-expression-number-then(number-to-number, number-to-number)
//
// Arguments are nested selectors, quoted string literals or number literals.
// This package only deals with syntax; resolving a selector into a component
// is done by the provider registry.
package selector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Name identifies a buildable component kind. Names are case sensitive.
type Name string

func (n Name) String() string {
	return string(n)
}

// ParseName validates text as a bare component name. Surrounding whitespace
// is trimmed.
func ParseName(text string) (Name, error) {
	trimmed := strings.TrimSpace(text)
	if err := checkName(trimmed); err != "" {
		return "", &SyntaxError{Text: text, Pos: strings.Index(text, trimmed), Msg: err}
	}
	return Name(trimmed), nil
}

// checkName returns a message describing why s is not a name, or "".
func checkName(s string) string {
	if s == "" {
		return "missing name"
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isLetter(c):
		case i > 0 && (isDigit(c) || c == '-' || c == '_' || c == '.'):
		case i == 0:
			return fmt.Sprintf("name must start with a letter, got %q", c)
		default:
			return fmt.Sprintf("invalid character %q in name %q", c, s)
		}
	}
	return ""
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// ArgKind discriminates Arg.
type ArgKind int

const (
	ArgSelector ArgKind = iota + 1
	ArgString
	ArgNumber
)

func (k ArgKind) String() string {
	switch k {
	case ArgSelector:
		return "selector"
	case ArgString:
		return "string"
	case ArgNumber:
		return "number"
	}
	return "unknown"
}

// Arg is a single syntactic argument of a selector.
type Arg struct {
	Kind     ArgKind
	Selector Selector        // ArgSelector
	Text     string          // ArgString, unquoted
	Number   decimal.Decimal // ArgNumber
}

// SelectorArg returns a nested selector argument.
func SelectorArg(s Selector) Arg { return Arg{Kind: ArgSelector, Selector: s} }

// StringArg returns a string literal argument.
func StringArg(s string) Arg { return Arg{Kind: ArgString, Text: s} }

// NumberArg returns a number literal argument.
func NumberArg(d decimal.Decimal) Arg { return Arg{Kind: ArgNumber, Number: d} }

// String renders the argument as it would appear in selector text.
func (a Arg) String() string {
	switch a.Kind {
	case ArgSelector:
		return a.Selector.String()
	case ArgString:
		return strconv.Quote(a.Text)
	case ArgNumber:
		return a.Number.String()
	}
	return ""
}

// Selector is a component name with its ordered arguments.
type Selector struct {
	Name Name
	Args []Arg
}

// New returns a selector for name with args.
func New(name Name, args ...Arg) Selector {
	return Selector{Name: name, Args: args}
}

// String renders canonical selector text: the bare name when there are no
// arguments, otherwise name(arg, arg).
func (s Selector) String() string {
	if len(s.Args) == 0 {
		return string(s.Name)
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return string(s.Name) + "(" + strings.Join(parts, ", ") + ")"
}

// Equal reports whether s and other are structurally identical.
func (s Selector) Equal(other Selector) bool {
	if s.Name != other.Name || len(s.Args) != len(other.Args) {
		return false
	}
	for i, a := range s.Args {
		b := other.Args[i]
		if a.Kind != b.Kind {
			return false
		}
		switch a.Kind {
		case ArgSelector:
			if !a.Selector.Equal(b.Selector) {
				return false
			}
		case ArgString:
			if a.Text != b.Text {
				return false
			}
		case ArgNumber:
			if !a.Number.Equal(b.Number) {
				return false
			}
		}
	}
	return true
}

// Names returns every component name referenced by s, outermost first.
func (s Selector) Names() []Name {
	names := []Name{s.Name}
	for _, a := range s.Args {
		if a.Kind == ArgSelector {
			names = append(names, a.Selector.Names()...)
		}
	}
	return names
}

// ErrSyntax is matched by every SyntaxError.
var ErrSyntax = errors.New("selector syntax error")

// SyntaxError reports malformed selector text.
type SyntaxError struct {
	Text string // the complete text being parsed
	Pos  int    // byte offset of the problem in Text
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid selector %q at %d: %s", e.Text, e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }
