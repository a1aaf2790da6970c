package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wikirelay/wikirelay/common/messaging"
)

// MaxBatchSize caps how many messages one receive call may return.
const MaxBatchSize = 10

type Config struct {
	NATS       NATSConfig       `mapstructure:"nats"`
	Consumer   ConsumerConfig   `mapstructure:"consumer"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ConsumerConfig struct {
	Stream       string        `mapstructure:"stream"`
	Name         string        `mapstructure:"name"`
	BatchSize    int           `mapstructure:"batch_size"`
	FetchWait    time.Duration `mapstructure:"fetch_wait"`
	RestartDelay time.Duration `mapstructure:"restart_delay"`
}

// OpenSearchConfig configures the optional indexing sink. Disabled by
// default: consumed events are always logged, and only additionally indexed
// when enabled.
type OpenSearchConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
	IndexPrefix   string `mapstructure:"index_prefix"`
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

	// Set defaults. nats.url defaults to empty so the environment override
	// binds; validate rejects it when still unset.
	v.SetDefault("nats.url", "")
	v.SetDefault("consumer.stream", messaging.ChangeEventsStreamName)
	v.SetDefault("consumer.name", messaging.SinkConsumerName)
	v.SetDefault("consumer.batch_size", MaxBatchSize)
	v.SetDefault("consumer.fetch_wait", "5s")
	v.SetDefault("consumer.restart_delay", "5s")
	v.SetDefault("opensearch.enabled", false)
	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "")
	v.SetDefault("opensearch.tls_skip_verify", true)
	v.SetDefault("opensearch.index_prefix", "wikirelay-changes")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/wikirelay/sink")
	}

	// Environment variables override
	v.SetEnvPrefix("SINK")
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
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Consumer.BatchSize < 1 || c.Consumer.BatchSize > MaxBatchSize {
		return fmt.Errorf("consumer.batch_size must be between 1 and %d", MaxBatchSize)
	}
	if c.Consumer.RestartDelay < 0 {
		return fmt.Errorf("consumer.restart_delay must be non-negative")
	}
	return nil
}
