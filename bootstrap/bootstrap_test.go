package bootstrap_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/convreg/adapters/auth"
	"github.com/artpar/convreg/adapters/clock"
	"github.com/artpar/convreg/bootstrap"
	"github.com/artpar/convreg/config"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convreg.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestBootstrap_Integration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "convreg.db")
	path := writeConfig(t, `
database:
  path: "`+dbPath+`"
logging:
  level: debug
  format: console
selectors:
  money: "to-number-or-expression-number(number-to-number)"
`)

	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, Version: "test", LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if a.DB == nil {
		t.Error("DB should not be nil")
	}
	if a.HTTPServer == nil || a.Metrics == nil {
		t.Fatal("HTTPServer and Metrics should be set")
	}

	srv := httptest.NewServer(a.HTTPServer.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/resolve", "application/json", strings.NewReader(`{"selector":"money"}`))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("resolve status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{"convreg_resolutions_total", "go_goroutines"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("metrics missing %s", want)
		}
	}

	records, err := a.Resolver.Recent(context.Background(), 10)
	if err != nil || len(records) != 1 {
		t.Errorf("audit records = %v, %v; want 1 persisted", records, err)
	}
}

func TestBootstrap_DatabaseMigration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	path := writeConfig(t, "database:\n  path: \""+dbPath+"\"\n")

	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"saved_selectors", "resolutions", "schema_migrations"} {
		var count int
		if err := a.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("query %s table: %v", table, err)
		}
	}
}

func TestBootstrap_InMemoryFromEnv(t *testing.T) {
	t.Setenv("CONVREG_METRICS_ENABLED", "false")

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		LogOutput:  io.Discard,
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if a.DB != nil {
		t.Error("DB should be nil without database.path")
	}
	if a.Metrics != nil {
		t.Error("metrics should be disabled")
	}
	if a.Config.Path() != "" {
		t.Errorf("Config.Path = %q, want static holder", a.Config.Path())
	}
	if a.HTTPServer.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %s", a.HTTPServer.Addr)
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "docs:\n  base_url: not-absolute\n")
	if _, err := bootstrap.New(bootstrap.Options{ConfigPath: path, LogOutput: io.Discard}); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestBootstrap_ReloadUpdatesResolver(t *testing.T) {
	path := writeConfig(t, `
selectors:
  money: "to-number-or-expression-number(number-to-number)"
`)

	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if err := os.WriteFile(path, []byte(`
conversion:
  expression_number_kind: double
selectors:
  plain: number-to-number
`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Config.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	cfg := a.Resolver.Config()
	if cfg.ExpressionNumberKind != "double" {
		t.Errorf("kind = %s, want double", cfg.ExpressionNumberKind)
	}
	if _, ok := cfg.Aliases["money"]; ok {
		t.Error("old alias should be gone")
	}
	if _, err := a.Resolver.Resolve(context.Background(), "plain"); err != nil {
		t.Errorf("resolve new alias: %v", err)
	}
}

func TestBootstrap_GracefulShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shutdown.db")
	path := writeConfig(t, "database:\n  path: \""+dbPath+"\"\n")

	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
	if _, err := a.DB.Query("SELECT 1"); err == nil {
		t.Error("expected error querying closed database")
	}
}

func TestNewCore(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	a, closeFn, err := bootstrap.NewCore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer closeFn()

	if a.HTTPServer != nil {
		t.Error("NewCore should not build an HTTP server")
	}
	if len(a.Resolver.Catalogue()) != 4 {
		t.Errorf("catalogue size = %d, want 4", len(a.Resolver.Catalogue()))
	}
}

func TestNewLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := bootstrap.NewLogger("warn", "json", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("log output = %q", out)
	}

	bootstrap.SetLogLevel("nonsense")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %s", zerolog.GlobalLevel())
	}
}

func TestBootstrap_AdminToken(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	path := writeConfig(t, "auth:\n  token_secret: \""+secret+"\"\n  token_ttl: 5m\n")

	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	srv := httptest.NewServer(a.HTTPServer.Handler)
	defer srv.Close()

	put := func(token string) int {
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/selectors/money",
			strings.NewReader(`{"selector":"to-number-or-expression-number(number-to-number)"}`))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := put(""); code != http.StatusUnauthorized {
		t.Errorf("without token = %d, want 401", code)
	}

	tokens, err := auth.NewTokenService(secret, time.Minute, clock.Real{})
	if err != nil {
		t.Fatal(err)
	}
	token, _, _ := tokens.Issue("test")
	if code := put(token); code != http.StatusOK {
		t.Errorf("with token = %d, want 200", code)
	}
}
