package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment overrides, e.g. PRICEWISE_STORAGE_BACKEND.
const EnvPrefix = "PRICEWISE"

const (
	StorageClickHouse = "clickhouse"
	StoragePostgres   = "postgres"
	StorageMemory     = "memory"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"pricewise.logs"`
			TimeInterval   time.Duration `yaml:"time_interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Pricing struct {
		ScenarioCount int `yaml:"scenario_count" default:"12"`
	} `yaml:"pricing"`
	Storage struct {
		Backend string `yaml:"backend" default:"memory"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"pricewise"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN            string        `yaml:"dsn"`
		MaxConns       int32         `yaml:"max_conns" default:"10"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"5s"`
		MigrateOnStart bool          `yaml:"migrate_on_start"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		TTL         time.Duration `yaml:"ttl" default:"24h"`
		MemoryItems int           `yaml:"memory_items" default:"10000"`
		Prefix      string        `yaml:"prefix" default:"pricewise:"`
	} `yaml:"cache"`
	Queue struct {
		Enabled     bool          `yaml:"enabled"`
		Name        string        `yaml:"name" default:"pricewise:jobs"`
		Workers     int           `yaml:"workers" default:"4"`
		MaxRetries  int           `yaml:"max_retries" default:"3"`
		PollTimeout time.Duration `yaml:"poll_timeout" default:"2s"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Analyses    string `yaml:"analyses" default:"pricing.analyses"`
			Competitors string `yaml:"competitors" default:"competitor.listings"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
			// EventBuffer holds analysis events that failed to publish until Kafka recovers.
			EventBuffer int `yaml:"event_buffer" default:"1000"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"pricewise"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Sources struct {
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		MaxResults int           `yaml:"max_results" default:"50"`
		// Outbound calls per second per marketplace, with Burst calls allowed at once.
		// Zero disables throttling.
		RequestsPerSecond float64 `yaml:"requests_per_second" default:"5"`
		Burst             int     `yaml:"burst" default:"5"`
		Etsy       struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url" default:"https://openapi.etsy.com/v3/application"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"etsy"`
		Ebay struct {
			Enabled      bool   `yaml:"enabled"`
			BaseURL      string `yaml:"base_url" default:"https://api.ebay.com"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"ebay"`
		Amazon struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url" default:"https://real-time-amazon-data.p.rapidapi.com"`
			Host    string `yaml:"host" default:"real-time-amazon-data.p.rapidapi.com"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"amazon"`
	} `yaml:"sources"`
}

// envOverrides holds the settings that may come from the environment (or a .env file).
// Only non-empty values replace what the YAML file says.
type envOverrides struct {
	Environment      string   `envconfig:"ENVIRONMENT"`
	Port             int      `envconfig:"PORT"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	StorageBackend   string   `envconfig:"STORAGE_BACKEND"`
	PostgresDSN      string   `envconfig:"POSTGRES_DSN"`
	ClickHouseHost   string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePass   string   `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisAddr        string   `envconfig:"REDIS_ADDR"`
	RedisPassword    string   `envconfig:"REDIS_PASSWORD"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	EtsyAPIKey       string   `envconfig:"ETSY_API_KEY"`
	EbayClientID     string   `envconfig:"EBAY_CLIENT_ID"`
	EbayClientSecret string   `envconfig:"EBAY_CLIENT_SECRET"`
	RapidAPIKey      string   `envconfig:"RAPIDAPI_KEY"`
}

// Default returns a configuration populated only from struct defaults, with metrics on.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	c.Metrics.Enabled = true
	return &c
}

// Load reads and parses a YAML configuration file, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	c, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML content, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func readFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads the YAML file (or defaults when path is empty), then applies
// PRICEWISE_* environment overrides. A .env file in the working directory is honoured.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else if c, err = readFile(path); err != nil {
		return nil, err
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from PRICEWISE_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setString(&c.Environment, env.Environment)
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Storage.Backend, env.StorageBackend)
	setString(&c.Postgres.DSN, env.PostgresDSN)
	setString(&c.ClickHouse.Host, env.ClickHouseHost)
	setString(&c.ClickHouse.Password, env.ClickHousePass)
	setString(&c.Redis.Addr, env.RedisAddr)
	setString(&c.Redis.Password, env.RedisPassword)
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	setString(&c.Sources.Etsy.APIKey, env.EtsyAPIKey)
	setString(&c.Sources.Ebay.ClientID, env.EbayClientID)
	setString(&c.Sources.Ebay.ClientSecret, env.EbayClientSecret)
	setString(&c.Sources.Amazon.APIKey, env.RapidAPIKey)
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Pricing.ScenarioCount < 2 {
		return fmt.Errorf("pricing.scenario_count must be at least 2, got %d", c.Pricing.ScenarioCount)
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageClickHouse:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required when storage.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("storage.backend must be one of 'memory', 'clickhouse', 'postgres', got '%s'", c.Storage.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis.enabled")
	}
	if c.Logging.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collector requires kafka.enabled")
	}
	return nil
}
