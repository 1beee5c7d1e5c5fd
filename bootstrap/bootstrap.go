// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/convreg/adapters/clock"
	apihttp "github.com/artpar/convreg/adapters/http"
	"github.com/artpar/convreg/adapters/idgen"
	"github.com/artpar/convreg/adapters/memory"
	"github.com/artpar/convreg/adapters/metrics"
	"github.com/artpar/convreg/adapters/sqlite"
	"github.com/artpar/convreg/app"
	"github.com/artpar/convreg/config"
	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB // nil when running on the in-memory stores
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	Registry  *provider.Registry
	Resolver  *app.ResolverService
	Selectors *app.SelectorService

	metricsRegistry *prometheus.Registry
}

// Options controls application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. When it does not exist the
	// configuration comes from CONVREG_* environment variables.
	ConfigPath string

	// Version is reported by /version.
	Version string

	// LogOutput defaults to stdout.
	LogOutput io.Writer
}

// New creates and initializes the application without starting the server.
func New(opts Options) (*App, error) {
	holder, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger := NewLogger(cfg.Logging.Level, cfg.Logging.Format, opts.LogOutput)
	holder.SetLogger(logger)
	logger.Info().Str("config", holder.Path()).Msg("initializing convreg")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	if err := a.initCore(context.Background(), cfg); err != nil {
		a.close()
		return nil, err
	}
	a.initHTTPServer(cfg, opts.Version)

	holder.OnChange(a.applyConfig)
	return a, nil
}

// openConfig returns a file-backed holder when path exists, otherwise a
// static holder built from the environment.
func openConfig(path string) (*config.Holder, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			h, err := config.NewHolder(path, zerolog.Nop())
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			return h, nil
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return config.NewStaticHolder(cfg, zerolog.Nop()), nil
}

// NewCore builds the registry and services from cfg without an HTTP
// server. The CLI uses it for one-shot commands. The returned close func
// releases the database.
func NewCore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, func(), error) {
	a := &App{
		Logger: logger,
		Config: config.NewStaticHolder(cfg, logger),
	}
	if err := a.initCore(ctx, cfg); err != nil {
		a.close()
		return nil, nil, err
	}
	return a, a.close, nil
}

func (a *App) initCore(ctx context.Context, cfg *config.Config) error {
	registry, err := provider.NewRegistry(cfg.Docs.BaseURL)
	if err != nil {
		return fmt.Errorf("init registry: %w", err)
	}
	a.Registry = registry

	if cfg.Metrics.Enabled {
		a.metricsRegistry = prometheus.NewRegistry()
		a.metricsRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.metricsRegistry)
		a.Config.SetObserver(a.Metrics)
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	selectors, audit, err := a.initStores(ctx, cfg)
	if err != nil {
		return err
	}

	var observer ports.Observer
	if a.Metrics != nil {
		observer = a.Metrics
	}

	resolverCfg, err := ResolverConfig(cfg)
	if err != nil {
		return err
	}
	a.Resolver = app.NewResolverService(app.ResolverDeps{
		Registry:  registry,
		Selectors: selectors,
		Audit:     audit,
		Observer:  observer,
		Clock:     clock.Real{},
		IDGen:     idgen.UUID{Prefix: "res_"},
		Logger:    a.Logger,
	}, resolverCfg)
	a.Selectors = app.NewSelectorService(selectors, a.Resolver, observer, clock.Real{}, a.Logger)

	if err := a.Selectors.Refresh(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to count saved selectors")
	}
	return nil
}

func (a *App) initStores(ctx context.Context, cfg *config.Config) (ports.SelectorStore, ports.ResolutionStore, error) {
	if cfg.Database.Path == "" {
		a.Logger.Info().Int("audit_entries", cfg.Database.AuditEntries).Msg("using in-memory stores")
		return memory.NewSelectorStore(), memory.NewResolutionStore(cfg.Database.AuditEntries), nil
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = db
	if err := db.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	a.Logger.Info().Str("path", cfg.Database.Path).Msg("database initialized")
	return sqlite.NewSelectorStore(db), sqlite.NewResolutionStore(db), nil
}

func (a *App) initHTTPServer(cfg *config.Config, version string) {
	var health *apihttp.HealthHandler
	if a.DB != nil {
		health = apihttp.NewHealthHandler(a.DB)
	} else {
		health = apihttp.NewHealthHandler(nil)
	}

	routerCfg := apihttp.RouterConfig{
		Version:        version,
		Metrics:        a.Metrics,
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		RequestTimeout: cfg.Server.RequestTimeout,
		Admin: func() apihttp.AdminCredentials {
			auth := a.Config.Get().Auth
			return apihttp.AdminCredentials{
				KeyHash:     auth.AdminKeyHash,
				TokenSecret: auth.TokenSecret,
				TokenTTL:    auth.TokenTTL,
			}
		},
	}
	if a.metricsRegistry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.metricsRegistry, promhttp.HandlerOpts{})
	}

	router := apihttp.NewRouter(
		apihttp.NewHandler(a.Resolver, a.Selectors, a.Logger),
		health,
		a.Logger,
		routerCfg,
	)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// applyConfig pushes the reloadable parts of cfg into the running services.
func (a *App) applyConfig(cfg *config.Config) {
	resolverCfg, err := ResolverConfig(cfg)
	if err != nil {
		a.Logger.Error().Err(err).Msg("ignoring reloaded resolver config")
		return
	}
	a.Resolver.UpdateConfig(resolverCfg)
	SetLogLevel(cfg.Logging.Level)
	a.Logger.Info().Int("aliases", len(resolverCfg.Aliases)).Msg("resolver config updated")
}

// ResolverConfig maps the file configuration onto the resolver's
// reloadable settings.
func ResolverConfig(cfg *config.Config) (app.ResolverConfig, error) {
	kind, err := convert.ParseExpressionNumberKind(cfg.Conversion.ExpressionNumberKind)
	if err != nil {
		return app.ResolverConfig{}, err
	}
	return app.ResolverConfig{
		Environment:          cfg.Environment,
		ExpressionNumberKind: kind,
		Aliases:              cfg.Selectors,
	}, nil
}

// Run starts the HTTP server and blocks until shutdown. Configuration
// reloads on file change and SIGHUP while the server runs.
func (a *App) Run() error {
	if err := a.Config.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	if a.Config.Path() != "" {
		a.Config.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.close()
	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) close() {
	if a.Config != nil {
		a.Config.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}
}
