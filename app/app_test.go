package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/convreg/adapters/clock"
	"github.com/artpar/convreg/adapters/idgen"
	"github.com/artpar/convreg/adapters/memory"
	"github.com/artpar/convreg/app"
	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// recordingObserver implements ports.Observer for testing.
type recordingObserver struct {
	mu          sync.Mutex
	resolutions []string
	conversions []string
	saved       int
}

func (o *recordingObserver) ObserveResolution(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolutions = append(o.resolutions, outcome)
}

func (o *recordingObserver) ObserveConversion(target, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conversions = append(o.conversions, target+"/"+outcome)
}

func (o *recordingObserver) SetSavedSelectors(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.saved = n
}

// failingAudit implements ports.ResolutionStore and always fails.
type failingAudit struct{}

func (failingAudit) Record(context.Context, ports.Resolution) error {
	return errors.New("disk full")
}

func (failingAudit) Recent(context.Context, int) ([]ports.Resolution, error) {
	return nil, errors.New("disk full")
}

type fixture struct {
	resolver  *app.ResolverService
	selectors *app.SelectorService
	store     *memory.SelectorStore
	audit     *memory.ResolutionStore
	observer  *recordingObserver
	clock     *clock.Fake
}

func newFixture(t *testing.T, cfg app.ResolverConfig) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewSelectorStore(),
		audit:    memory.NewResolutionStore(100),
		observer: &recordingObserver{},
		clock:    clock.NewFake(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.clock.Step = time.Millisecond

	f.resolver = app.NewResolverService(app.ResolverDeps{
		Registry:  provider.MustNewRegistry(""),
		Selectors: f.store,
		Audit:     f.audit,
		Observer:  f.observer,
		Clock:     f.clock,
		IDGen:     idgen.NewSequential("res_"),
		Logger:    zerolog.Nop(),
	}, cfg)
	f.selectors = app.NewSelectorService(f.store, f.resolver, f.observer, f.clock, zerolog.Nop())
	return f
}

// -----------------------------------------------------------------------------
// ResolverService
// -----------------------------------------------------------------------------

func TestResolverService_Resolve(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	tests := []struct {
		text    string
		want    string
		outcome string
	}{
		{"to-number-or-expression-number (number-to-number)", "to-number-or-expression-number(number-to-number)", app.OutcomeOK},
		{"number-to-number(", "", app.OutcomeSyntax},
		{"missing", "", app.OutcomeUnknown},
		{"to-expression-number-then(number-to-number)", "", app.OutcomeArity},
		{`to-number-or-expression-number("number-to-number")`, "", app.OutcomeParameterType},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := f.resolver.Resolve(ctx, tt.text)
			if got := app.Outcome(err); got != tt.outcome {
				t.Fatalf("Outcome = %s (err %v), want %s", got, err, tt.outcome)
			}
			if err != nil {
				return
			}
			if res.Converter.String() != tt.want {
				t.Errorf("converter = %s, want %s", res.Converter, tt.want)
			}
			if res.Selector.String() != tt.want {
				t.Errorf("selector = %s, want %s", res.Selector, tt.want)
			}
		})
	}

	if len(f.observer.resolutions) != len(tests) {
		t.Errorf("observed %d resolutions, want %d", len(f.observer.resolutions), len(tests))
	}
}

func TestResolverService_AuditRecords(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	f.resolver.Resolve(ctx, "number-to-number")
	f.resolver.Resolve(ctx, "unknown")

	recent, err := f.resolver.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(recent))
	}

	latest := recent[0]
	if latest.ID != "res_000002" || latest.Selector != "unknown" || latest.Outcome != app.OutcomeUnknown {
		t.Errorf("latest = %+v", latest)
	}
	if latest.Error != `unknown converter "unknown"` {
		t.Errorf("Error = %q", latest.Error)
	}
	if latest.Duration != time.Millisecond {
		t.Errorf("Duration = %v, want 1ms from fake clock step", latest.Duration)
	}
	if recent[1].Outcome != app.OutcomeOK || recent[1].Error != "" {
		t.Errorf("first = %+v", recent[1])
	}
}

func TestResolverService_AuditFailureDoesNotFailResolution(t *testing.T) {
	r := app.NewResolverService(app.ResolverDeps{
		Registry: provider.MustNewRegistry(""),
		Audit:    failingAudit{},
		Clock:    clock.Real{},
		IDGen:    idgen.UUID{},
		Logger:   zerolog.Nop(),
	}, app.ResolverConfig{})

	if _, err := r.Resolve(context.Background(), "number-to-number"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestResolverService_Aliases(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{
		Aliases: map[string]string{
			"money":            "to-number-or-expression-number(number-to-number)",
			"number-to-number": "number-or-expression-number-to-number",
		},
	})
	ctx := context.Background()
	f.store.Save(ctx, ports.SavedSelector{Name: "saved", Selector: "number-or-expression-number-to-number"})
	f.store.Save(ctx, ports.SavedSelector{Name: "money", Selector: "number-to-number"})

	tests := []struct {
		text      string
		wantAlias string
		want      string
	}{
		{"money", "money", "to-number-or-expression-number(number-to-number)"},
		{" saved ", "saved", "number-or-expression-number-to-number"},
		{"number-to-number", "", "number-to-number"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := f.resolver.Resolve(ctx, tt.text)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.Alias != tt.wantAlias {
				t.Errorf("Alias = %q, want %q", res.Alias, tt.wantAlias)
			}
			if res.Converter.String() != tt.want {
				t.Errorf("converter = %s, want %s", res.Converter, tt.want)
			}
		})
	}
}

func TestResolverService_UpdateConfig(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	if _, err := f.resolver.Resolve(ctx, "money"); !errors.Is(err, provider.ErrUnknownComponent) {
		t.Fatalf("before update error = %v", err)
	}

	aliases := map[string]string{"money": "number-to-number"}
	f.resolver.UpdateConfig(app.ResolverConfig{Aliases: aliases, ExpressionNumberKind: convert.KindDouble})
	aliases["money"] = "mutated"

	if _, err := f.resolver.Resolve(ctx, "money"); err != nil {
		t.Fatalf("after update error = %v", err)
	}
	cfg := f.resolver.Config()
	if cfg.ExpressionNumberKind != convert.KindDouble || cfg.Aliases["money"] != "number-to-number" {
		t.Errorf("Config() = %+v", cfg)
	}
}

func TestResolverService_Convert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    convert.ExpressionNumberKind
		text    string
		value   any
		target  convert.Target
		want    any
		outcome string
	}{
		{"int64", "", "number-to-number", 12, convert.TargetInt64, int64(12), app.OutcomeOK},
		{"decimal kind", convert.KindDecimal, "to-number-or-expression-number(number-to-number)", 2.5, convert.TargetExpressionNumber,
			convert.NewDecimal(decimal.NewFromFloat(2.5)), app.OutcomeOK},
		{"double kind", convert.KindDouble, "to-number-or-expression-number(number-to-number)", 2.5, convert.TargetExpressionNumber,
			convert.NewDouble(2.5), app.OutcomeOK},
		{"lossy int", "", "number-to-number", 2.5, convert.TargetInt, nil, app.OutcomeConversion},
		{"not a number", "", "number-to-number", "x", convert.TargetInt, nil, app.OutcomeConversion},
		{"unknown", "", "nope", 1, convert.TargetInt, nil, app.OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, app.ResolverConfig{ExpressionNumberKind: tt.kind})
			got, err := f.resolver.Convert(ctx, tt.text, tt.value, tt.target)
			if app.Outcome(err) != tt.outcome {
				t.Fatalf("Outcome = %s (err %v), want %s", app.Outcome(err), err, tt.outcome)
			}
			if err != nil {
				if tt.outcome == app.OutcomeConversion && len(f.observer.conversions) != 1 {
					t.Errorf("conversions observed = %v", f.observer.conversions)
				}
				return
			}
			if want, ok := tt.want.(convert.ExpressionNumber); ok {
				n, ok := got.Value.(convert.ExpressionNumber)
				if !ok || n.Kind() != want.Kind() || n.String() != want.String() {
					t.Errorf("Value = %v, want %v", got.Value, want)
				}
				return
			}
			if got.Value != tt.want {
				t.Errorf("Value = %v (%T), want %v (%T)", got.Value, got.Value, tt.want, tt.want)
			}
			if got.Target != tt.target {
				t.Errorf("Target = %s", got.Target)
			}
		})
	}
}

func TestResolverService_CatalogueAndDescribe(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})

	catalogue := f.resolver.Catalogue()
	if len(catalogue) != 4 {
		t.Fatalf("len(Catalogue) = %d, want 4", len(catalogue))
	}
	arities := map[string]int{}
	for _, d := range catalogue {
		arities[string(d.Name)] = d.Arity
	}
	if arities["to-expression-number-then"] != 2 || arities["to-number-or-expression-number"] != 1 || arities["number-to-number"] != 0 {
		t.Errorf("arities = %v", arities)
	}

	d, err := f.resolver.Describe("to-expression-number-then")
	if err != nil || d.Arity != 2 || d.URL != provider.DefaultBaseURL+"/to-expression-number-then" {
		t.Errorf("Describe() = %+v, %v", d, err)
	}
	if _, err := f.resolver.Describe("nope"); !errors.Is(err, provider.ErrUnknownComponent) {
		t.Errorf("Describe(nope) error = %v", err)
	}
}

func TestResolverService_Tree(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})

	res, err := f.resolver.Resolve(context.Background(), "to-expression-number-then(number-to-number, number-or-expression-number-to-number)")
	if err != nil {
		t.Fatal(err)
	}
	tree := f.resolver.Tree(res.Selector)

	if tree.Name != "to-expression-number-then" || len(tree.Args) != 2 {
		t.Fatalf("tree = %+v", tree)
	}
	if tree.Args[1].Name != "number-or-expression-number-to-number" || tree.Args[1].URL == "" {
		t.Errorf("second arg = %+v", tree.Args[1])
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, app.OutcomeOK},
		{ports.ErrNotFound, app.OutcomeNotFound},
		{app.ErrReservedName, app.OutcomeInvalid},
		{errors.New("boom"), app.OutcomeInternal},
	}
	for _, tt := range tests {
		if got := app.Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------
// SelectorService
// -----------------------------------------------------------------------------

func TestSelectorService_Save(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	saved, err := f.selectors.Save(ctx, "money", "to-number-or-expression-number ( number-to-number )", "expression numbers")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Selector != "to-number-or-expression-number(number-to-number)" {
		t.Errorf("Selector = %s, want canonical text", saved.Selector)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if f.observer.saved != 1 {
		t.Errorf("saved gauge = %d, want 1", f.observer.saved)
	}

	res, err := f.resolver.Resolve(ctx, "money")
	if err != nil || res.Alias != "money" {
		t.Errorf("Resolve(money) = %+v, %v", res, err)
	}
}

func TestSelectorService_SaveRejects(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	tests := []struct {
		name    string
		alias   string
		text    string
		outcome string
	}{
		{"invalid name", "1abc", "number-to-number", app.OutcomeInvalid},
		{"reserved name", "number-to-number", "number-to-number", app.OutcomeInvalid},
		{"syntax", "a", "number-to-number(", app.OutcomeSyntax},
		{"unknown", "a", "nope", app.OutcomeUnknown},
		{"arity", "a", "to-expression-number-then(number-to-number)", app.OutcomeArity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.selectors.Save(ctx, tt.alias, tt.text, "")
			if got := app.Outcome(err); got != tt.outcome {
				t.Errorf("Outcome = %s (err %v), want %s", got, err, tt.outcome)
			}
		})
	}

	list, _ := f.selectors.List(ctx)
	if len(list) != 0 {
		t.Errorf("rejected selectors were stored: %+v", list)
	}
}

func TestSelectorService_Delete(t *testing.T) {
	f := newFixture(t, app.ResolverConfig{})
	ctx := context.Background()

	f.selectors.Save(ctx, "a", "number-to-number", "")
	f.selectors.Save(ctx, "b", "number-to-number", "")

	if err := f.selectors.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.selectors.Get(ctx, "a"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get(a) error = %v", err)
	}
	if err := f.selectors.Delete(ctx, "a"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
	if f.observer.saved != 1 {
		t.Errorf("saved gauge = %d, want 1", f.observer.saved)
	}
}
