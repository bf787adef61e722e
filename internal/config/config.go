package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relight-dev/relight/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "relight.yaml"

	// DefaultAddress is the default server listen address.
	DefaultAddress = ":8080"
)

// Store backend names accepted in relight.yaml.
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
	StoreRedis  = "redis"
	StoreS3     = "s3"
)

// Config represents the complete relight.yaml configuration.
type Config struct {
	// Name is the project name.
	Name string `yaml:"name,omitempty"`

	// Server contains server settings.
	Server ServerConfig `yaml:"server,omitempty"`

	// Session contains session lifecycle and persistence settings.
	Session SessionConfig `yaml:"session,omitempty"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string `yaml:"address,omitempty"`

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int `yaml:"maxSessions,omitempty"`

	// EventQueueSize is the per-session event buffer size.
	EventQueueSize int `yaml:"eventQueueSize,omitempty"`

	// RenderBudget caps render passes per flush.
	RenderBudget int `yaml:"renderBudget,omitempty"`

	// Metrics enables the Prometheus /metrics endpoint.
	Metrics bool `yaml:"metrics,omitempty"`

	// TrustedProxies lists IPs or CIDRs whose X-Forwarded-For headers
	// are honored.
	TrustedProxies []string `yaml:"trustedProxies,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g. "15s").
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// SessionConfig contains session lifecycle and persistence settings.
type SessionConfig struct {
	// ResumeWindow is how long a detached session stays resumable
	// (e.g. "5m").
	ResumeWindow string `yaml:"resumeWindow,omitempty"`

	// MaxDetached caps detached sessions held in memory.
	MaxDetached int `yaml:"maxDetached,omitempty"`

	// MaxPerIP caps sessions per client IP.
	MaxPerIP int `yaml:"maxPerIP,omitempty"`

	// Store selects the persistence backend: memory, sql, redis, or s3.
	Store string `yaml:"store,omitempty"`

	// DSN is the database connection string for the sql backend.
	DSN string `yaml:"dsn,omitempty"`

	// Table is the table name for the sql backend.
	Table string `yaml:"table,omitempty"`

	// Prefix is the key prefix for the redis backend or the object
	// prefix for the s3 backend.
	Prefix string `yaml:"prefix,omitempty"`

	// Bucket is the bucket name for the s3 backend.
	Bucket string `yaml:"bucket,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `yaml:"level,omitempty"`

	// Format is the output format: text or json.
	Format string `yaml:"format,omitempty"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			EventQueueSize:  64,
			ShutdownTimeout: "15s",
		},
		Session: SessionConfig{
			ResumeWindow: "5m",
			MaxDetached:  10000,
			MaxPerIP:     100,
			Store:        StoreMemory,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the configuration at path, layering the file
// over defaults and environment variables over the file.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E140").Wrap(err)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.New("E120").Wrap(err).
			WithSuggestion("check relight.yaml for indentation or quoting mistakes")
	}
	c.configPath = path

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromDir loads relight.yaml from dir, falling back to defaults
// (plus environment overrides) when the file does not exist.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := Default()
		c.applyEnv()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	return Load(path)
}

// Path returns where the configuration was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// applyEnv overlays RELIGHT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("RELIGHT_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("RELIGHT_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.MaxSessions = n
		}
	}
	if v := os.Getenv("RELIGHT_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.Metrics = b
		}
	}
	if v := os.Getenv("RELIGHT_RESUME_WINDOW"); v != "" {
		c.Session.ResumeWindow = v
	}
	if v := os.Getenv("RELIGHT_SESSION_STORE"); v != "" {
		c.Session.Store = v
	}
	if v := os.Getenv("RELIGHT_SESSION_DSN"); v != "" {
		c.Session.DSN = v
	}
	if v := os.Getenv("RELIGHT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RELIGHT_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// Validate checks the configuration for well-known mistakes.
func (c *Config) Validate() error {
	if c.Server.Address != "" {
		if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
			return errors.New("E122").Wrap(err).
				WithSuggestion(`use "host:port" or ":port", e.g. ":8080"`)
		}
	}

	if _, err := c.ResumeWindow(); err != nil {
		return errors.New("E120").Wrap(err).
			WithSuggestion(`resumeWindow takes a Go duration, e.g. "5m" or "90s"`)
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return errors.New("E120").Wrap(err).
			WithSuggestion(`shutdownTimeout takes a Go duration, e.g. "15s"`)
	}

	switch c.Session.Store {
	case "", StoreMemory:
	case StoreSQL:
		if c.Session.DSN == "" {
			return errors.New("E121").
				WithDetail("the sql session store requires a dsn").
				WithSuggestion("set session.dsn or RELIGHT_SESSION_DSN")
		}
	case StoreRedis:
	case StoreS3:
		if c.Session.Bucket == "" {
			return errors.New("E121").
				WithDetail("the s3 session store requires a bucket").
				WithSuggestion("set session.bucket")
		}
	default:
		return errors.New("E123").
			WithDetail("got store " + strconv.Quote(c.Session.Store))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New("E120").
			WithDetail("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New("E120").
			WithDetail("log.format must be text or json")
	}

	return nil
}

// ResumeWindow parses the session resume window.
func (c *Config) ResumeWindow() (time.Duration, error) {
	if c.Session.ResumeWindow == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(c.Session.ResumeWindow)
}

// ShutdownTimeout parses the graceful shutdown bound.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return 15 * time.Second, nil
	}
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E120").Wrap(err)
	}
	c.configPath = path
	return nil
}
