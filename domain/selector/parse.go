package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDepth bounds selector nesting. The outermost selector is depth 1.
const MaxDepth = 64

// Parse parses selector text. Whitespace around names, parentheses and commas
// is ignored; "name()" has no arguments.
func Parse(text string) (Selector, error) {
	p := parser{text: text}
	return p.selector(0, len(text), 1)
}

// MustParse is Parse that panics on error. Intended for tests and
// package-level values.
func MustParse(text string) Selector {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

type parser struct {
	text string
}

func (p *parser) fail(pos int, format string, args ...any) error {
	return &SyntaxError{Text: p.text, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// trim narrows [start,end) to exclude surrounding whitespace.
func (p *parser) trim(start, end int) (int, int) {
	for start < end && isSpace(p.text[start]) {
		start++
	}
	for end > start && isSpace(p.text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// selector parses text[start:end] as NAME or NAME(ARG, ...).
func (p *parser) selector(start, end, depth int) (Selector, error) {
	if depth > MaxDepth {
		return Selector{}, p.fail(start, "selector nested deeper than %d", MaxDepth)
	}
	start, end = p.trim(start, end)
	if start == end {
		return Selector{}, p.fail(start, "empty selector")
	}

	open := strings.IndexByte(p.text[start:end], '(')
	if open < 0 {
		name, err := p.name(start, end)
		if err != nil {
			return Selector{}, err
		}
		return Selector{Name: name}, nil
	}
	open += start

	name, err := p.name(start, open)
	if err != nil {
		return Selector{}, err
	}

	closing, err := p.matchClose(open, end)
	if err != nil {
		return Selector{}, err
	}
	if closing != end-1 {
		return Selector{}, p.fail(closing+1, "unexpected %q after closing parenthesis", p.text[closing+1:end])
	}

	args, err := p.args(open+1, closing, depth)
	if err != nil {
		return Selector{}, err
	}
	return Selector{Name: name, Args: args}, nil
}

func (p *parser) name(start, end int) (Name, error) {
	s, e := p.trim(start, end)
	if msg := checkName(p.text[s:e]); msg != "" {
		return "", p.fail(s, "%s", msg)
	}
	return Name(p.text[s:e]), nil
}

// matchClose returns the index of the parenthesis closing the one at open,
// skipping string literals.
func (p *parser) matchClose(open, end int) (int, error) {
	depth := 0
	for i := open; i < end; i++ {
		switch p.text[i] {
		case '"':
			j, err := p.skipString(i, end)
			if err != nil {
				return 0, err
			}
			i = j
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, p.fail(open, "missing closing parenthesis")
}

// skipString returns the index of the quote terminating the literal that
// starts at i.
func (p *parser) skipString(i, end int) (int, error) {
	for j := i + 1; j < end; j++ {
		switch p.text[j] {
		case '\\':
			j++
		case '"':
			return j, nil
		}
	}
	return 0, p.fail(i, "unterminated string literal")
}

// args splits text[start:end] at top level commas and parses every argument.
func (p *parser) args(start, end, depth int) ([]Arg, error) {
	if s, e := p.trim(start, end); s == e {
		return nil, nil
	}

	var args []Arg
	level := 0
	argStart := start
	for i := start; i <= end; i++ {
		if i < end {
			switch p.text[i] {
			case '"':
				j, err := p.skipString(i, end)
				if err != nil {
					return nil, err
				}
				i = j
				continue
			case '(':
				level++
				continue
			case ')':
				level--
				continue
			case ',':
				if level != 0 {
					continue
				}
			default:
				continue
			}
		}
		arg, err := p.arg(argStart, i, depth)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		argStart = i + 1
	}
	return args, nil
}

func (p *parser) arg(start, end, depth int) (Arg, error) {
	s, e := p.trim(start, end)
	if s == e {
		return Arg{}, p.fail(s, "empty argument")
	}

	switch c := p.text[s]; {
	case c == '"':
		closing, err := p.skipString(s, e)
		if err != nil {
			return Arg{}, err
		}
		if closing != e-1 {
			return Arg{}, p.fail(closing+1, "unexpected %q after string literal", p.text[closing+1:e])
		}
		text, err := strconv.Unquote(p.text[s:e])
		if err != nil {
			return Arg{}, p.fail(s, "invalid string literal %s", p.text[s:e])
		}
		return StringArg(text), nil
	case isDigit(c) || c == '-' || c == '+' || c == '.':
		d, err := decimal.NewFromString(p.text[s:e])
		if err != nil {
			return Arg{}, p.fail(s, "invalid number literal %q", p.text[s:e])
		}
		return NumberArg(d), nil
	}

	sel, err := p.selector(s, e, depth+1)
	if err != nil {
		return Arg{}, err
	}
	return SelectorArg(sel), nil
}
