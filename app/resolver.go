// Package app provides application services that orchestrate the registry,
// stores and observers.
package app

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/domain/selector"
	"github.com/artpar/convreg/ports"
	"github.com/rs/zerolog"
)

// ResolverService resolves selector text into converters and applies them.
// Every resolution is logged, observed and written to the audit store.
type ResolverService struct {
	registry  *provider.Registry
	selectors ports.SelectorStore
	audit     ports.ResolutionStore
	observer  ports.Observer
	clock     ports.Clock
	idGen     ports.IDGenerator
	logger    zerolog.Logger

	// Hot-reloadable configuration
	dynamicCfg atomic.Pointer[ResolverConfig]
}

// ResolverDeps contains dependencies for ResolverService. Selectors, Audit
// and Observer are optional.
type ResolverDeps struct {
	Registry  *provider.Registry
	Selectors ports.SelectorStore
	Audit     ports.ResolutionStore
	Observer  ports.Observer
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    zerolog.Logger
}

// ResolverConfig contains hot-reloadable configuration.
type ResolverConfig struct {
	// Environment values exposed to builders through the provider context.
	Environment map[string]string

	// ExpressionNumberKind is used when converters promote numbers.
	ExpressionNumberKind convert.ExpressionNumberKind

	// Aliases maps alias names to selector text.
	Aliases map[string]string
}

// NewResolverService creates a new resolver service.
func NewResolverService(deps ResolverDeps, cfg ResolverConfig) *ResolverService {
	s := &ResolverService{
		registry:  deps.Registry,
		selectors: deps.Selectors,
		audit:     deps.Audit,
		observer:  deps.Observer,
		clock:     deps.Clock,
		idGen:     deps.IDGen,
		logger:    deps.Logger.With().Str("service", "resolver").Logger(),
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig swaps the hot-reloadable configuration.
// Safe to call while resolutions are in flight.
func (s *ResolverService) UpdateConfig(cfg ResolverConfig) {
	cfg.Environment = maps.Clone(cfg.Environment)
	cfg.Aliases = maps.Clone(cfg.Aliases)
	if cfg.ExpressionNumberKind == "" {
		cfg.ExpressionNumberKind = convert.KindDecimal
	}
	s.dynamicCfg.Store(&cfg)
}

// Config returns a copy of the current configuration.
func (s *ResolverService) Config() ResolverConfig {
	cfg := *s.dynamicCfg.Load()
	cfg.Environment = maps.Clone(cfg.Environment)
	cfg.Aliases = maps.Clone(cfg.Aliases)
	return cfg
}

// Registry returns the registry resolutions are built with.
func (s *ResolverService) Registry() *provider.Registry {
	return s.registry
}

// ConverterDescription is a catalogue entry with its arity.
type ConverterDescription struct {
	provider.Info `yaml:",inline"`
	Arity         int `json:"arity" yaml:"arity"`
}

// Catalogue lists every converter, sorted by name.
func (s *ResolverService) Catalogue() []ConverterDescription {
	infos := s.registry.Infos()
	result := make([]ConverterDescription, len(infos))
	for i, info := range infos {
		arity, _ := s.registry.Arity(info.Name)
		result[i] = ConverterDescription{Info: info, Arity: arity}
	}
	return result
}

// Describe returns the catalogue entry for name.
func (s *ResolverService) Describe(name string) (ConverterDescription, error) {
	info, ok := s.registry.Info(selector.Name(name))
	if !ok {
		return ConverterDescription{}, &provider.UnknownComponentError{Name: selector.Name(name)}
	}
	arity, _ := s.registry.Arity(info.Name)
	return ConverterDescription{Info: info, Arity: arity}, nil
}

// Resolved is a successfully built converter.
type Resolved struct {
	Input     string             // text as supplied
	Alias     string             // alias expanded, if any
	Selector  selector.Selector  // parsed selector that was built
	Converter convert.Converter
}

// Resolve builds the converter text describes. Text that is a bare name
// which is not a converter is looked up as an alias, first in configuration
// and then in the saved selector store.
func (s *ResolverService) Resolve(ctx context.Context, text string) (Resolved, error) {
	start := s.clock.Now()
	res, err := s.resolve(ctx, text)
	s.finish(ctx, text, start, err)
	return res, err
}

func (s *ResolverService) resolve(ctx context.Context, text string) (Resolved, error) {
	cfg := s.dynamicCfg.Load()
	res := Resolved{Input: text}

	expanded, alias, err := s.expandAlias(ctx, cfg, text)
	if err != nil {
		return res, err
	}
	res.Alias = alias

	sel, err := selector.Parse(expanded)
	if err != nil {
		return res, err
	}
	c, err := s.registry.Evaluate(sel, provider.NewContext(cfg.Environment))
	if err != nil {
		return res, err
	}

	res.Selector = sel
	res.Converter = c
	return res, nil
}

func (s *ResolverService) expandAlias(ctx context.Context, cfg *ResolverConfig, text string) (string, string, error) {
	name, err := selector.ParseName(strings.TrimSpace(text))
	if err != nil {
		return text, "", nil
	}
	if _, ok := s.registry.Arity(name); ok {
		return text, "", nil
	}
	if expanded, ok := cfg.Aliases[string(name)]; ok {
		return expanded, string(name), nil
	}
	if s.selectors == nil {
		return text, "", nil
	}

	saved, err := s.selectors.Get(ctx, string(name))
	if errors.Is(err, ports.ErrNotFound) {
		return text, "", nil
	}
	if err != nil {
		return "", "", err
	}
	return saved.Selector, string(name), nil
}

func (s *ResolverService) finish(ctx context.Context, text string, start time.Time, err error) {
	elapsed := s.clock.Now().Sub(start)
	outcome := Outcome(err)
	s.observer.ObserveResolution(outcome, elapsed)

	if err != nil {
		s.logger.Debug().Err(err).Str("selector", text).Str("outcome", outcome).Dur("duration", elapsed).Msg("resolution failed")
	} else {
		s.logger.Debug().Str("selector", text).Dur("duration", elapsed).Msg("resolved")
	}

	if s.audit == nil {
		return
	}
	record := ports.Resolution{
		ID:        s.idGen.New(),
		Selector:  text,
		Outcome:   outcome,
		Duration:  elapsed,
		CreatedAt: start,
	}
	if err != nil {
		record.Error = err.Error()
	}
	if auditErr := s.audit.Record(ctx, record); auditErr != nil {
		s.logger.Warn().Err(auditErr).Str("selector", text).Msg("failed to record resolution")
	}
}

// Check parses and builds text without aliases, logging or auditing, and
// returns the parsed selector.
func (s *ResolverService) Check(text string) (selector.Selector, error) {
	sel, err := selector.Parse(text)
	if err != nil {
		return selector.Selector{}, err
	}
	if _, err := s.registry.Evaluate(sel, provider.NewContext(s.dynamicCfg.Load().Environment)); err != nil {
		return selector.Selector{}, err
	}
	return sel, nil
}

// Conversion is the outcome of applying a resolved converter to a value.
type Conversion struct {
	Resolved
	Target convert.Target
	Value  any
}

// Convert resolves text and converts value to target with the result.
func (s *ResolverService) Convert(ctx context.Context, text string, value any, target convert.Target) (Conversion, error) {
	res, err := s.Resolve(ctx, text)
	if err != nil {
		return Conversion{Resolved: res, Target: target}, err
	}

	kind := s.dynamicCfg.Load().ExpressionNumberKind
	out, err := res.Converter.Convert(value, target, convert.NewContext(kind))
	s.observer.ObserveConversion(string(target), Outcome(err))
	if err != nil {
		s.logger.Debug().Err(err).Str("converter", res.Converter.String()).Str("target", string(target)).Msg("conversion failed")
		return Conversion{Resolved: res, Target: target}, err
	}
	return Conversion{Resolved: res, Target: target, Value: out}, nil
}

// Recent returns the latest audit records, newest first.
func (s *ResolverService) Recent(ctx context.Context, limit int) ([]ports.Resolution, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.Recent(ctx, limit)
}

// Node is one selector in a resolution tree. Literal arguments are leaves
// with only Literal set.
type Node struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
	Args    []Node `json:"args,omitempty" yaml:"args,omitempty"`
}

// Tree describes sel with catalogue URLs attached.
func (s *ResolverService) Tree(sel selector.Selector) Node {
	node := Node{Name: string(sel.Name)}
	if info, ok := s.registry.Info(sel.Name); ok {
		node.URL = info.URL
	}
	for _, arg := range sel.Args {
		if arg.Kind == selector.ArgSelector {
			node.Args = append(node.Args, s.Tree(arg.Selector))
			continue
		}
		node.Args = append(node.Args, Node{Literal: arg.String()})
	}
	return node
}

type nopObserver struct{}

func (nopObserver) ObserveResolution(string, time.Duration) {}
func (nopObserver) ObserveConversion(string, string)        {}
func (nopObserver) SetSavedSelectors(int)                   {}
