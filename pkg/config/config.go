package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MarketPulse/pkg/util"
)

type GroupConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Tickers []string `yaml:"tickers" validate:"min=1,dive,required"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimit       struct {
			Capacity int     `yaml:"capacity" default:"20" validate:"gte=0"`
			Refill   float64 `yaml:"refill_per_second" default:"1" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout" validate:"required"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	MarketData struct {
		BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart" validate:"required,url"`
		Range     string        `yaml:"range" default:"3mo"`
		Interval  string        `yaml:"interval" default:"1d"`
		Timeout   time.Duration `yaml:"timeout" default:"5s"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; MarketPulse/1.0)"`
	} `yaml:"market_data"`
	Groups   []GroupConfig `yaml:"groups" validate:"dive"`
	Snapshot struct {
		HistoryCapacity int           `yaml:"history_capacity" default:"30" validate:"gte=1"`
		Parallel        bool          `yaml:"parallel" default:"true"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"0s"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"0s"`
	} `yaml:"snapshot"`
	Cache struct {
		Backend string `yaml:"backend" default:"memory"`
		Memory  struct {
			MaxEntries      int           `yaml:"max_entries" default:"64" validate:"gte=1"`
			CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		} `yaml:"memory"`
		Redis struct {
			Addr         string        `yaml:"addr" default:"localhost:6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			KeyPrefix    string        `yaml:"key_prefix" default:"marketpulse:"`
			PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			OpTimeout    time.Duration `yaml:"op_timeout" default:"1s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"marketpulse.snapshots"`
		LogTopic     string        `yaml:"log_topic"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
}

// DefaultGroups is used when the file configures none.
func DefaultGroups() []GroupConfig {
	return []GroupConfig{
		{Name: "Global", Tickers: []string{"^GSPC", "^DJI", "^IXIC"}},
		{Name: "Crypto", Tickers: []string{"BTC-USD", "ETH-USD"}},
		{Name: "Europe", Tickers: []string{"^STOXX50E", "^FCHI"}},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML on top of them and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Groups) == 0 {
		c.Groups = DefaultGroups()
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
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("YAHOO_BASE_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	return nil
}

// Validate checks struct tags first, then rules that span several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Groups))
	for _, g := range c.Groups {
		if strings.EqualFold(g.Name, "summary") {
			return errors.New("group name 'summary' is reserved")
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("duplicate group name '%s'", g.Name)
		}
		seen[g.Name] = struct{}{}
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
