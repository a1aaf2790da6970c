package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Wikimedia WikimediaConfig `mapstructure:"wikimedia"`
	Backoff   BackoffConfig   `mapstructure:"backoff"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// WikimediaConfig scopes the relay instance to one language edition of one
// upstream stream.
type WikimediaConfig struct {
	Language string `mapstructure:"language"`
	Stream   string `mapstructure:"stream"`
	BaseURL  string `mapstructure:"base_url"`
}

// BackoffConfig holds the linear reconnect backoff parameters.
type BackoffConfig struct {
	Start     time.Duration `mapstructure:"start"`
	Increment time.Duration `mapstructure:"increment"`
	Max       time.Duration `mapstructure:"max"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults. Required keys default to empty so environment overrides
	// bind; validate rejects them when still unset.
	v.SetDefault("wikimedia.language", "")
	v.SetDefault("wikimedia.stream", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("wikimedia.base_url", "https://stream.wikimedia.org")
	v.SetDefault("backoff.start", "1s")
	v.SetDefault("backoff.increment", "1s")
	v.SetDefault("backoff.max", "30s")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/wikirelay/relay")
	}

	// Environment variables override
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Wikimedia.Language == "" {
		return fmt.Errorf("wikimedia.language is required")
	}
	if c.Wikimedia.Stream == "" {
		return fmt.Errorf("wikimedia.stream is required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Backoff.Start < 0 || c.Backoff.Increment < 0 || c.Backoff.Max < 0 {
		return fmt.Errorf("backoff durations must be non-negative")
	}
	if c.Backoff.Start > c.Backoff.Max {
		return fmt.Errorf("backoff.start (%s) must not exceed backoff.max (%s)", c.Backoff.Start, c.Backoff.Max)
	}
	return nil
}

// Origin returns the server identity events must claim to be processed by
// this instance, e.g. "en.wikipedia.org".
func (c *Config) Origin() string {
	return c.Wikimedia.Language + ".wikipedia.org"
}

// StreamURL returns the fully-qualified URL of the configured event stream.
func (c *Config) StreamURL() string {
	return fmt.Sprintf("%s/v2/stream/%s", strings.TrimRight(c.Wikimedia.BaseURL, "/"), c.Wikimedia.Stream)
}

// SpecURL returns the URL of the upstream capability document.
func (c *Config) SpecURL() string {
	return strings.TrimRight(c.Wikimedia.BaseURL, "/") + "/?spec"
}
