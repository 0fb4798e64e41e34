package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"-"`
		WriteTimeout    time.Duration `yaml:"-"`
		ShutdownTimeout time.Duration `yaml:"-"`

		// Raw string values for YAML unmarshaling
		ReadTimeoutRaw     string `yaml:"read_timeout"`
		WriteTimeoutRaw    string `yaml:"write_timeout"`
		ShutdownTimeoutRaw string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Auth struct {
		Password     string        `yaml:"password"`
		CookieMaxAge time.Duration `yaml:"-"`

		CookieMaxAgeRaw string `yaml:"cookie_max_age"`
	} `yaml:"auth"`
	Backend struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"-"`
		PollInterval time.Duration `yaml:"-"`

		TimeoutRaw      string `yaml:"timeout"`
		PollIntervalRaw string `yaml:"poll_interval"`
	} `yaml:"backend"`
	Cache struct {
		Redis    bool          `yaml:"redis"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"-"`

		TTLRaw string `yaml:"ttl"`
	} `yaml:"cache"`
	Events struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// The dashboard password and backend URL are deployment secrets and normally
// arrive through the environment rather than the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DASHBOARD_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("BACKEND_API_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse config: parsing POLL_INTERVAL %q: %w", v, err)
		}
		c.Backend.PollInterval = d
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis = true
		c.Cache.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Enabled = true
		c.Events.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// load parses without validating so env overrides can fill required fields.
func load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.parseDurations(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func (c *Config) parseDurations() error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeoutRaw, &c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeoutRaw, &c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeoutRaw, &c.Server.ShutdownTimeout},
		{"auth.cookie_max_age", c.Auth.CookieMaxAgeRaw, &c.Auth.CookieMaxAge},
		{"backend.timeout", c.Backend.TimeoutRaw, &c.Backend.Timeout},
		{"backend.poll_interval", c.Backend.PollIntervalRaw, &c.Backend.PollInterval},
		{"cache.ttl", c.Cache.TTLRaw, &c.Cache.TTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Auth.CookieMaxAge == 0 {
		c.Auth.CookieMaxAge = 24 * time.Hour
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.PollInterval == 0 {
		c.Backend.PollInterval = 15 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Minute
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "sigboard.signal-changes"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Auth.Password == "" {
		return fmt.Errorf("auth.password is required (set DASHBOARD_PASSWORD)")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required (set BACKEND_API_URL)")
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	return nil
}
