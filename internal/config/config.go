package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	API      APIConfig      `yaml:"api"`
	Loader   LoaderConfig   `yaml:"loader"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Progress ProgressConfig `yaml:"progress"`
	Sync     SyncConfig     `yaml:"sync"`
	LogLevel string         `yaml:"log_level"`
}

// RabbitMQConfig configures the lifecycle event publisher. An empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "postgres"
	Path     string `yaml:"path"`   // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
	Retry       RetryConfig   `yaml:"retry"`
	// ScoreRatePerSecond paces requests to the remote scoring endpoint.
	ScoreRatePerSecond float64 `yaml:"score_rate_per_second"`
	// RemoteScoring enables the augmented scoring path.
	RemoteScoring bool `yaml:"remote_scoring"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type LoaderConfig struct {
	PageSize   int           `yaml:"page_size"`
	MaxRecords int           `yaml:"max_records"`
	BatchDelay time.Duration `yaml:"batch_delay"`
}

type ScoringConfig struct {
	ChunkSize     int           `yaml:"chunk_size"`
	ProgressEvery int           `yaml:"progress_every"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	Variant       string        `yaml:"variant"` // "full" or "quick"
}

type ProgressConfig struct {
	MessageInterval time.Duration `yaml:"message_interval"`
	ResetDelay      time.Duration `yaml:"reset_delay"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Schedule is an optional cron expression with a seconds field. When
	// set it replaces Interval.
	Schedule        string        `yaml:"schedule"`
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "mail_loader.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "mail_loader"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "load_events"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "mail_loader_events"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 1 * time.Second
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 30 * time.Second
	}
	if c.API.ScoreRatePerSecond == 0 {
		c.API.ScoreRatePerSecond = 5
	}
	if c.Loader.PageSize == 0 {
		c.Loader.PageSize = 500
	}
	if c.Loader.MaxRecords == 0 {
		c.Loader.MaxRecords = 10000
	}
	if c.Loader.BatchDelay == 0 {
		c.Loader.BatchDelay = 200 * time.Millisecond
	}
	if c.Scoring.ChunkSize == 0 {
		c.Scoring.ChunkSize = 50
	}
	if c.Scoring.ProgressEvery == 0 {
		c.Scoring.ProgressEvery = 4
	}
	if c.Scoring.CacheTTL == 0 {
		c.Scoring.CacheTTL = 5 * time.Minute
	}
	if c.Scoring.Variant == "" {
		c.Scoring.Variant = "full"
	}
	if c.Progress.MessageInterval == 0 {
		c.Progress.MessageInterval = 2500 * time.Millisecond
	}
	if c.Progress.ResetDelay == 0 {
		c.Progress.ResetDelay = 3 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	if c.Sync.FreshnessWindow == 0 {
		c.Sync.FreshnessWindow = time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Scoring.Variant {
	case "full", "quick":
	default:
		return fmt.Errorf("unsupported scoring variant %q", c.Scoring.Variant)
	}
	if c.Loader.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Loader.PageSize)
	}
	if c.Loader.MaxRecords <= 0 {
		return fmt.Errorf("max records must be positive, got %d", c.Loader.MaxRecords)
	}
	if c.Loader.BatchDelay < 0 {
		return fmt.Errorf("batch delay must not be negative, got %s", c.Loader.BatchDelay)
	}
	if c.Scoring.ChunkSize < 0 {
		return fmt.Errorf("scoring chunk size must not be negative, got %d", c.Scoring.ChunkSize)
	}
	if c.Scoring.ProgressEvery < 0 {
		return fmt.Errorf("scoring progress interval must not be negative, got %d", c.Scoring.ProgressEvery)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync interval must not be negative, got %s", c.Sync.Interval)
	}
	if c.Loader.PageSize > c.Loader.MaxRecords {
		return fmt.Errorf("page size %d exceeds max records %d", c.Loader.PageSize, c.Loader.MaxRecords)
	}
	return nil
}
