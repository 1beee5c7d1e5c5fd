// Package provider resolves converter selectors into built converters.
//
// The Registry maps every known converter name to a fixed arity and a
// builder. Selector text is parsed by package selector and evaluated here:
// nested selectors are built first and handed to the enclosing builder as
// converter values, literals are passed through unchanged. The dispatch table
// and the catalogue are fixed when the registry is created and never mutated,
// so a Registry is safe for concurrent use without locking.
package provider

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/domain/selector"
)

// DefaultBaseURL is the documentation base every catalogue URL is built from.
const DefaultBaseURL = "https://github.com/mP1/walkingkooka-tree/Converter"

// Converter names known to the registry.
const (
	NumberOrExpressionNumberToNumber selector.Name = "number-or-expression-number-to-number"
	NumberToNumber                   selector.Name = "number-to-number"
	ToExpressionNumberThen           selector.Name = "to-expression-number-then"
	ToNumberOrExpressionNumber       selector.Name = "to-number-or-expression-number"
)

// Info is a catalogue entry.
type Info struct {
	Name selector.Name `json:"name" yaml:"name"`
	URL  string        `json:"url" yaml:"url"`
}

// String renders the entry as "<url> <name>".
func (i Info) String() string {
	return i.URL + " " + string(i.Name)
}

type builder func(name selector.Name, values []Value, ctx Context) (convert.Converter, error)

type rule struct {
	arity int
	build builder
}

var dispatch = map[selector.Name]rule{
	NumberOrExpressionNumberToNumber: {
		arity: 0,
		build: func(selector.Name, []Value, Context) (convert.Converter, error) {
			return convert.NumberOrExpressionNumberToNumber(), nil
		},
	},
	NumberToNumber: {
		arity: 0,
		build: func(selector.Name, []Value, Context) (convert.Converter, error) {
			return convert.NumberToNumber(), nil
		},
	},
	ToExpressionNumberThen: {
		arity: 2,
		build: func(name selector.Name, values []Value, _ Context) (convert.Converter, error) {
			first, err := converterAt(name, values, 0)
			if err != nil {
				return nil, err
			}
			then, err := converterAt(name, values, 1)
			if err != nil {
				return nil, err
			}
			return convert.ToExpressionNumberThen(first, then), nil
		},
	},
	ToNumberOrExpressionNumber: {
		arity: 1,
		build: func(name selector.Name, values []Value, _ Context) (convert.Converter, error) {
			number, err := converterAt(name, values, 0)
			if err != nil {
				return nil, err
			}
			return convert.ToNumberOrExpressionNumber(number), nil
		},
	},
}

// catalogue lists every name with a documentation page. It must match the
// keys of dispatch exactly; NewRegistry checks this.
var catalogue = []selector.Name{
	NumberOrExpressionNumberToNumber,
	NumberToNumber,
	ToExpressionNumberThen,
	ToNumberOrExpressionNumber,
}

func converterAt(name selector.Name, values []Value, i int) (convert.Converter, error) {
	c, ok := values[i].Converter()
	if !ok {
		return nil, &ParameterTypeError{Name: name, Index: i, Value: values[i].String()}
	}
	return c, nil
}

// Registry builds converters by name.
type Registry struct {
	rules map[selector.Name]rule
	infos []Info
}

// NewRegistry creates the registry of the built-in converters. Catalogue URLs
// are baseURL joined with each name; empty selects DefaultBaseURL.
func NewRegistry(baseURL string) (*Registry, error) {
	return newRegistry(baseURL, dispatch, catalogue)
}

// MustNewRegistry is NewRegistry that panics on error.
func MustNewRegistry(baseURL string) *Registry {
	r, err := NewRegistry(baseURL)
	if err != nil {
		panic(err)
	}
	return r
}

func newRegistry(baseURL string, rules map[selector.Name]rule, names []selector.Name) (*Registry, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("documentation base url %q must be absolute", baseURL)
	}

	listed := make(map[selector.Name]bool, len(names))
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		if listed[name] {
			return nil, fmt.Errorf("converter %q listed twice in catalogue", name)
		}
		listed[name] = true
		if _, ok := rules[name]; !ok {
			return nil, fmt.Errorf("catalogue entry %q has no build rule", name)
		}
		infos = append(infos, Info{Name: name, URL: base.JoinPath(string(name)).String()})
	}
	for name := range rules {
		if !listed[name] {
			return nil, fmt.Errorf("build rule %q has no catalogue entry", name)
		}
	}

	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(string(a.Name), string(b.Name)) })
	return &Registry{rules: rules, infos: infos}, nil
}

// Converter builds the named converter from already materialised values.
func (r *Registry) Converter(name selector.Name, values []Value, ctx Context) (convert.Converter, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, &UnknownComponentError{Name: name}
	}
	if len(values) != rule.arity {
		return nil, &ArityError{Name: name, Expected: rule.arity, Actual: len(values)}
	}
	if ctx == nil {
		ctx = EmptyContext
	}
	return rule.build(name, slices.Clone(values), ctx)
}

// ConverterSelector parses text and builds the converter it describes.
func (r *Registry) ConverterSelector(text string, ctx Context) (convert.Converter, error) {
	sel, err := selector.Parse(text)
	if err != nil {
		return nil, err
	}
	return r.Evaluate(sel, ctx)
}

// Evaluate builds sel. Arguments are resolved in order before the enclosing
// builder runs; the first failure is returned unchanged.
func (r *Registry) Evaluate(sel selector.Selector, ctx Context) (convert.Converter, error) {
	values := make([]Value, 0, len(sel.Args))
	for _, arg := range sel.Args {
		switch arg.Kind {
		case selector.ArgSelector:
			c, err := r.Evaluate(arg.Selector, ctx)
			if err != nil {
				return nil, err
			}
			values = append(values, ConverterValue(c))
		case selector.ArgString:
			values = append(values, StringValue(arg.Text))
		case selector.ArgNumber:
			values = append(values, NumberValue(arg.Number))
		default:
			return nil, fmt.Errorf("selector %s: argument of unknown kind %d", sel.Name, arg.Kind)
		}
	}
	return r.Converter(sel.Name, values, ctx)
}

// Infos returns the catalogue sorted by name.
func (r *Registry) Infos() []Info {
	return slices.Clone(r.infos)
}

// Info returns the catalogue entry for name.
func (r *Registry) Info(name selector.Name) (Info, bool) {
	for _, info := range r.infos {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}

// Names returns every buildable name, sorted.
func (r *Registry) Names() []selector.Name {
	names := make([]selector.Name, len(r.infos))
	for i, info := range r.infos {
		names[i] = info.Name
	}
	return names
}

// Arity returns the number of parameters name requires.
func (r *Registry) Arity(name selector.Name) (int, bool) {
	rule, ok := r.rules[name]
	return rule.arity, ok
}

func (r *Registry) String() string {
	return "Registry"
}
