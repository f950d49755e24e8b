package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration. It is built once before the
// server starts and handed to every component by value.
type Config struct {
	ExternalAddr  string `mapstructure:"externalAddr" yaml:"externalAddr"`
	InternalAddr  string `mapstructure:"internalAddr" yaml:"internalAddr"`
	ContentDir    string `mapstructure:"contentDir" yaml:"contentDir" validate:"required"`
	WithCSS       bool   `mapstructure:"withCSS" yaml:"withCSS"`
	SiteTitle     string `mapstructure:"siteTitle" yaml:"siteTitle" validate:"required"`
	PostTitle     string `mapstructure:"postTitle" yaml:"postTitle"`
	AbsoluteLinks bool   `mapstructure:"absoluteLinks" yaml:"absoluteLinks"`
	OutputDir     string `mapstructure:"outputDir" yaml:"outputDir" validate:"required"`

	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=json console"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// RateLimitConfig limits requests per client IP. Zero Requests disables it;
// otherwise Window must be positive.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" yaml:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window" yaml:"window" validate:"required_unless=Requests 0,gte=0"`
}

// ServerConfig holds HTTP server timeouts
type ServerConfig struct {
	ReadTimeout     time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("externalAddr", "")
	v.SetDefault("internalAddr", "")
	v.SetDefault("contentDir", ".")
	v.SetDefault("withCSS", false)
	v.SetDefault("siteTitle", "blog")
	v.SetDefault("postTitle", "")
	v.SetDefault("absoluteLinks", false)
	v.SetDefault("outputDir", "public")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("rateLimit.requests", 0)
	v.SetDefault("rateLimit.window", "1m")

	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "15s")
	v.SetDefault("server.shutdownTimeout", "10s")
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateServe additionally requires an external address.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := validate.Var(c.ExternalAddr, "required"); err != nil {
		return fmt.Errorf("invalid configuration: external address is required")
	}
	return nil
}

// ListenAddr is the address the listening socket opens on. It falls back to
// the external address when no internal one is set.
func (c Config) ListenAddr() string {
	if c.InternalAddr != "" {
		return c.InternalAddr
	}
	return c.ExternalAddr
}

// PostPageTitle is the title post pages carry. It falls back to SiteTitle.
func (c Config) PostPageTitle() string {
	if c.PostTitle != "" {
		return c.PostTitle
	}
	return c.SiteTitle
}

// BaseURL is the externally visible address as an absolute URL without a
// trailing slash.
func (c Config) BaseURL() string {
	base := strings.TrimRight(c.ExternalAddr, "/")
	if base == "" {
		return ""
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return base
}
