package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type DetectorConfig struct {
	Enabled       *bool    `yaml:"enabled"`
	Sensitivity   *float64 `yaml:"sensitivity"`
	MinConfidence *float64 `yaml:"min_confidence"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		PostsTopic  string   `yaml:"posts_topic"`
		OrdersTopic string   `yaml:"orders_topic"`
		Compression string   `yaml:"compression"`
		Producer    struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"sentiment"`
	Engine struct {
		AggregationMethod string        `yaml:"aggregation_method"` // weighted|consensus|highest|custom
		MinSignalStrength float64       `yaml:"min_signal_strength"`
		MinConfidence     float64       `yaml:"min_confidence"`
		RequiredTypes     []string      `yaml:"required_types"`
		HistoryCap        int           `yaml:"history_cap"`
		EnableStreaming   bool          `yaml:"enable_streaming"`
		StreamingInterval time.Duration `yaml:"streaming_interval"`
		DetectTimeout     time.Duration `yaml:"detect_timeout"`
		BatchWorkers      int           `yaml:"batch_workers"`
		Alerts            struct {
			CriticalStrength     float64 `yaml:"critical_strength"`
			CriticalConfidence   float64 `yaml:"critical_confidence"`
			CombinationThreshold float64 `yaml:"combination_threshold"`
		} `yaml:"alerts"`
		Detectors map[string]DetectorConfig `yaml:"detectors"`
	} `yaml:"engine"`
	Pipeline struct {
		MaxRPS     int `yaml:"max_rps"`
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"pipeline"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_POSTS_TOPIC"); v != "" {
		c.Kafka.PostsTopic = v
	}
	if v := os.Getenv("KAFKA_ORDERS_TOPIC"); v != "" {
		c.Kafka.OrdersTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Sentiment.ServiceURL = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Kafka.PostsTopic == "" {
		return fmt.Errorf("kafka.posts_topic is required")
	}
	switch c.Engine.AggregationMethod {
	case "", "weighted", "consensus", "highest", "custom":
	default:
		return fmt.Errorf("engine.aggregation_method must be weighted, consensus, highest or custom, got '%s'", c.Engine.AggregationMethod)
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
