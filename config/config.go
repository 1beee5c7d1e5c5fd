// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/domain/selector"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "convreg.yaml"

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	OpenAPI     OpenAPIConfig     `yaml:"openapi"`
	Auth        AuthConfig        `yaml:"auth"`
	Docs        DocsConfig        `yaml:"docs"`
	Environment map[string]string `yaml:"environment"`
	Conversion  ConversionConfig  `yaml:"conversion"`
	Selectors   map[string]string `yaml:"selectors"` // alias -> selector text
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures persistence of saved selectors and the
// resolution audit log. An empty path keeps both in memory.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	AuditEntries int    `yaml:"audit_entries"` // ring size for the in-memory audit log
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AuthConfig guards the mutating selector endpoints.
type AuthConfig struct {
	AdminKeyHash string        `yaml:"admin_key_hash,omitempty"` // bcrypt hash, see `convreg hash-key`
	TokenSecret  string        `yaml:"token_secret,omitempty"`   // HS256 secret for admin tokens, see `convreg token`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// DocsConfig configures the catalogue documentation links.
type DocsConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ConversionConfig configures the conversion context.
type ConversionConfig struct {
	ExpressionNumberKind string `yaml:"expression_number_kind"` // "decimal" or "double"
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML bytes. Environment references in the
// document are expanded and CONVREG_* variables override file values.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	// Metrics and OpenAPI are on unless the document turns them off.
	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONVREG_SERVER_HOST             - Server host (default: 0.0.0.0)
//	CONVREG_SERVER_PORT             - Server port (default: 8080)
//	CONVREG_DATABASE_PATH           - SQLite path (default: in-memory stores)
//	CONVREG_DATABASE_AUDIT_ENTRIES  - In-memory audit capacity (default: 1000)
//	CONVREG_LOG_LEVEL               - debug, info, warn, error (default: info)
//	CONVREG_LOG_FORMAT              - json or console (default: json)
//	CONVREG_METRICS_ENABLED         - Enable /metrics (default: true)
//	CONVREG_OPENAPI_ENABLED         - Enable /swagger (default: true)
//	CONVREG_ADMIN_KEY_HASH          - bcrypt hash of the admin key
//	CONVREG_ADMIN_TOKEN_SECRET      - Signing secret for admin tokens
//	CONVREG_ADMIN_TOKEN_TTL         - Admin token lifetime (default: 1h)
//	CONVREG_DOCS_BASE_URL           - Catalogue documentation base URL
//	CONVREG_EXPRESSION_NUMBER_KIND  - decimal or double (default: decimal)
func LoadFromEnv() (*Config, error) {
	return Parse(nil)
}

// LoadWithFallback loads path when it exists, otherwise falls back to the
// environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONVREG_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONVREG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CONVREG_SERVER_PORT"); v != "" {
		if port, err := cast.ToIntE(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("CONVREG_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("CONVREG_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("CONVREG_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	if v := os.Getenv("CONVREG_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CONVREG_DATABASE_AUDIT_ENTRIES"); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			cfg.Database.AuditEntries = n
		}
	}

	if v := os.Getenv("CONVREG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONVREG_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("CONVREG_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONVREG_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}

	if v := os.Getenv("CONVREG_ADMIN_KEY_HASH"); v != "" {
		cfg.Auth.AdminKeyHash = v
	}
	if v := os.Getenv("CONVREG_ADMIN_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
	envDuration("CONVREG_ADMIN_TOKEN_TTL", &cfg.Auth.TokenTTL)
	if v := os.Getenv("CONVREG_DOCS_BASE_URL"); v != "" {
		cfg.Docs.BaseURL = v
	}
	if v := os.Getenv("CONVREG_EXPRESSION_NUMBER_KIND"); v != "" {
		cfg.Conversion.ExpressionNumberKind = v
	}
}

// envDuration sets *d from a duration such as "30s". A bare integer is
// read as seconds. Unparseable values are ignored.
func envDuration(key string, d *time.Duration) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if secs, err := cast.ToInt64E(v); err == nil {
		*d = time.Duration(secs) * time.Second
		return
	}
	if parsed, err := cast.ToDurationE(v); err == nil {
		*d = parsed
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}

	if cfg.Database.AuditEntries == 0 {
		cfg.Database.AuditEntries = 1000
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Conversion.ExpressionNumberKind == "" {
		cfg.Conversion.ExpressionNumberKind = string(convert.KindDecimal)
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Database.AuditEntries < 0 {
		return fmt.Errorf("database.audit_entries must not be negative")
	}

	if cfg.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}
	if cfg.Auth.TokenSecret != "" && len(cfg.Auth.TokenSecret) < 32 {
		return fmt.Errorf("auth.token_secret must be at least 32 characters")
	}

	if cfg.Docs.BaseURL != "" {
		u, err := url.Parse(cfg.Docs.BaseURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("docs.base_url must be an absolute URL, got %q", cfg.Docs.BaseURL)
		}
	}

	if _, err := convert.ParseExpressionNumberKind(cfg.Conversion.ExpressionNumberKind); err != nil {
		return fmt.Errorf("conversion.expression_number_kind: %w", err)
	}

	for _, alias := range sortedKeys(cfg.Selectors) {
		if _, err := selector.ParseName(alias); err != nil {
			return fmt.Errorf("selectors.%s: invalid alias: %w", alias, err)
		}
		if _, err := selector.Parse(cfg.Selectors[alias]); err != nil {
			return fmt.Errorf("selectors.%s: %w", alias, err)
		}
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
