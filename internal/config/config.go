// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/coi-gateway/config.toml",
	"configs/config.toml",
}

// TokenEnv is the environment variable holding the Origami bearer token.
const TokenEnv = "ORIGAMI_TOKEN"

// Fixed downstream coordinates of the Origami incident-entry page.
const (
	DefaultBaseEndpoint = "https://live.origamirisk.com/Origami/IncidentEntry/Direct"
	DefaultCollectionID = "46"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config        string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host          string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port          int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	Token         string `kong:"help='Origami bearer token (overrides config).',env='ORIGAMI_TOKEN'"`
	AllowedOrigin string `kong:"help='Allowed browser origin, e.g. https://structcor.github.io (overrides config).',env='ALLOWED_ORIGIN'"`
	StoreDSN      string `kong:"help='Submission store DSN (overrides config).',env='DATABASE_URL'"`
	LogLevel      string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`

	Version kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Gateway GatewayConfig `toml:"gateway"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8787); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// GatewayConfig holds the redirect gateway settings.
//
// An empty AllowedOrigin disables the origin check unless RequireAllowedOrigin
// is set, in which case Load fails.
type GatewayConfig struct {
	AllowedOrigin        string `toml:"allowed_origin"`
	Token                string `toml:"token"`
	BaseEndpoint         string `toml:"base_endpoint"`
	CollectionID         string `toml:"collection_id"`
	RequireAllowedOrigin bool   `toml:"require_allowed_origin"`
}

// StoreConfig holds the submission store settings.
type StoreConfig struct {
	Driver              string `toml:"driver"`
	DSN                 string `toml:"dsn"`
	MaxOpenConns        int    `toml:"max_open_conns"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// reservedRoutes are served by the gateway itself and cannot host metrics.
var reservedRoutes = []string{"/submit-calculation", "/healthz", "/gateway/status"}

// Load reads the TOML config file (if any) and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/coi-gateway/config.toml then configs/config.toml. If neither exists the
// configuration is built from defaults and environment alone.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.Token != "" {
		c.Gateway.Token = cli.Token
	}
	if cli.AllowedOrigin != "" {
		c.Gateway.AllowedOrigin = cli.AllowedOrigin
	}
	if cli.StoreDSN != "" {
		c.Store.DSN = cli.StoreDSN
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	if c.Gateway.Token == "YOUR_TOKEN_HERE" {
		return fmt.Errorf("gateway.token contains placeholder value; set a real token via %s", TokenEnv)
	}

	// Allowed origin: optional, but when present it must look like an origin.
	if o := c.Gateway.AllowedOrigin; o != "" {
		u, err := url.Parse(o)
		if err != nil {
			return fmt.Errorf("gateway.allowed_origin is not a valid URL: %w", err)
		}
		if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("gateway.allowed_origin must be an http(s) origin; got %q", o)
		}
	} else if c.Gateway.RequireAllowedOrigin {
		return fmt.Errorf("gateway.allowed_origin is required when gateway.require_allowed_origin is set")
	}

	// Base endpoint: optional override, must be absolute HTTPS.
	if c.Gateway.BaseEndpoint != "" {
		u, err := url.Parse(c.Gateway.BaseEndpoint)
		if err != nil {
			return fmt.Errorf("gateway.base_endpoint is not a valid URL: %w", err)
		}
		if u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("gateway.base_endpoint must be an absolute HTTPS URL; got %q", c.Gateway.BaseEndpoint)
		}
	}

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "":
		// valid
	default:
		return fmt.Errorf("store.driver must be sqlite; got %q", c.Store.Driver)
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Store.MaxOpenConns < 0 {
		return fmt.Errorf("store.max_open_conns must be non-negative; got %d", c.Store.MaxOpenConns)
	}
	if c.Store.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("store.query_timeout_seconds must be non-negative; got %d", c.Store.QueryTimeoutSeconds)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if p == "/" {
			return fmt.Errorf("metrics.path %q conflicts with the gateway route", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1 << 20 // 1 MB
	}
	if c.Gateway.BaseEndpoint == "" {
		c.Gateway.BaseEndpoint = DefaultBaseEndpoint
	}
	if c.Gateway.CollectionID == "" {
		c.Gateway.CollectionID = DefaultCollectionID
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Store.DSN == "" {
		c.Store.DSN = "file:coi-gateway.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	if c.Store.MaxOpenConns == 0 {
		c.Store.MaxOpenConns = 4
	}
	if c.Store.QueryTimeoutSeconds == 0 {
		c.Store.QueryTimeoutSeconds = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
// The file may carry the gateway token.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}

// WarnGateway logs startup warnings about gateway settings that degrade
// request handling: an unset origin allow-list and a missing token.
func (c *Config) WarnGateway(logger *slog.Logger) {
	if c.Gateway.AllowedOrigin == "" {
		logger.Warn("gateway.allowed_origin is not set; origin check is disabled")
	}
	if c.Gateway.Token == "" {
		logger.Warn("gateway token is not set; redirects will fail with 500", "env", TokenEnv)
	}
}
