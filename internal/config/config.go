// Package config loads and validates the stock-publisher service
// configuration from a YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeoutSeconds is the default HTTP read timeout in seconds.
	DefaultReadTimeoutSeconds = 10
	// DefaultWriteTimeoutSeconds is the default HTTP write timeout in seconds.
	DefaultWriteTimeoutSeconds = 30

	// DefaultMaxPostsPerDay is the absolute per-site daily post cap applied
	// when MAX_POSTS_PER_DAY_PER_SITE is not set.
	DefaultMaxPostsPerDay = 20
	// DefaultMinGapMinutes is the default minimum scheduling gap.
	DefaultMinGapMinutes = 45
	// DefaultMaxGapMinutes is the default maximum scheduling gap.
	DefaultMaxGapMinutes = 68
)

// Config is the root configuration for both the publisher CLI and the API
// server.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	State         StateConfig         `yaml:"state"`
	Redis         RedisConfig         `yaml:"redis"`
	Mongo         MongoConfig         `yaml:"mongo"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Publishing    PublishingConfig    `yaml:"publishing"`
	ReportService ReportServiceConfig `yaml:"report_service"`
	TickerSource  TickerSourceConfig  `yaml:"ticker_source"`
	FeatureImage  FeatureImageConfig  `yaml:"feature_image"`
	ProfilesFile  string              `yaml:"profiles_file"` // CLI mode profile list
}

// ServerConfig configures the API HTTP server.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StateConfig selects and configures the publisher state store.
type StateConfig struct {
	Backend  string         `yaml:"backend"` // "file" or "postgres"
	Path     string         `yaml:"path"`    // file backend: state document path
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds connection settings for the postgres state backend.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig configures the optional run lock. When URL is empty the lock is
// disabled and callers must serialize runs themselves.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig configures the optional multi-tenant profile store.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// ElasticsearchConfig configures the optional audit-log shipper.
type ElasticsearchConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

// PublishingConfig holds the scheduling and quota knobs consumed by the run
// orchestrator.
type PublishingConfig struct {
	MaxPostsPerDay int    `yaml:"max_posts_per_day"` // absolute per-profile daily cap
	MinGapMinutes  int    `yaml:"min_gap_minutes"`   // default when profile has none
	MaxGapMinutes  int    `yaml:"max_gap_minutes"`
	TempImageDir   string `yaml:"temp_image_dir"`
}

// ReportServiceConfig points at the external report generator service.
type ReportServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TickerSourceConfig selects where per-profile ticker sheets come from.
type TickerSourceConfig struct {
	Backend string        `yaml:"backend"` // "http" or "dir"
	URL     string        `yaml:"url"`     // http backend: sheet service base URL
	Dir     string        `yaml:"dir"`     // dir backend: directory of <sheet>.csv files
	Timeout time.Duration `yaml:"timeout"`
}

// FeatureImageConfig configures best-effort feature image rendering.
type FeatureImageConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	Background     string `yaml:"background"`
	TextColor      string `yaml:"text_color"`
	WatermarkColor string `yaml:"watermark_color"`
}

// Validate checks the server configuration and sets defaults.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		c.Address = ":8074"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return errors.New("state.path is required for the file backend")
		}
	case "postgres":
		if c.State.Postgres.Host == "" || c.State.Postgres.DBName == "" {
			return errors.New("state.postgres.host and state.postgres.dbname are required")
		}
	default:
		return fmt.Errorf("state.backend must be \"file\" or \"postgres\", got %q", c.State.Backend)
	}

	if c.Publishing.MaxPostsPerDay <= 0 {
		return fmt.Errorf("publishing.max_posts_per_day must be positive, got %d", c.Publishing.MaxPostsPerDay)
	}
	if c.Publishing.MinGapMinutes <= 0 || c.Publishing.MaxGapMinutes <= 0 {
		return errors.New("publishing gap minutes must be positive")
	}
	if c.Publishing.MinGapMinutes > c.Publishing.MaxGapMinutes {
		return fmt.Errorf("publishing.min_gap_minutes %d exceeds max_gap_minutes %d",
			c.Publishing.MinGapMinutes, c.Publishing.MaxGapMinutes)
	}

	switch c.TickerSource.Backend {
	case "", "dir":
		// dir backend tolerates a missing directory at load time
	case "http":
		if c.TickerSource.URL == "" {
			return errors.New("ticker_source.url is required for the http backend")
		}
	default:
		return fmt.Errorf("ticker_source.backend must be \"http\" or \"dir\", got %q", c.TickerSource.Backend)
	}

	if c.ReportService.URL == "" {
		return errors.New("report_service.url is required")
	}
	return nil
}

// setDefaults sets default values for configuration fields.
func setDefaults(cfg *Config) {
	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.Backend == "file" && cfg.State.Path == "" {
		cfg.State.Path = "publisher_state.json"
	}
	if cfg.State.Postgres.Port == "" {
		cfg.State.Postgres.Port = "5432"
	}
	if cfg.State.Postgres.SSLMode == "" {
		cfg.State.Postgres.SSLMode = "disable"
	}
	if cfg.Publishing.MaxPostsPerDay == 0 {
		cfg.Publishing.MaxPostsPerDay = DefaultMaxPostsPerDay
	}
	if cfg.Publishing.MinGapMinutes == 0 {
		cfg.Publishing.MinGapMinutes = DefaultMinGapMinutes
	}
	if cfg.Publishing.MaxGapMinutes == 0 {
		cfg.Publishing.MaxGapMinutes = DefaultMaxGapMinutes
	}
	if cfg.Publishing.TempImageDir == "" {
		cfg.Publishing.TempImageDir = os.TempDir()
	}
	if cfg.ReportService.Timeout == 0 {
		cfg.ReportService.Timeout = 120 * time.Second
	}
	if cfg.TickerSource.Backend == "" {
		cfg.TickerSource.Backend = "dir"
	}
	if cfg.TickerSource.Timeout == 0 {
		cfg.TickerSource.Timeout = 30 * time.Second
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "publisher-audit"
	}
	if cfg.FeatureImage.Width == 0 {
		cfg.FeatureImage.Width = 1200
	}
	if cfg.FeatureImage.Height == 0 {
		cfg.FeatureImage.Height = 630
	}
	if cfg.FeatureImage.Background == "" {
		cfg.FeatureImage.Background = "#F0F0F0"
	}
	if cfg.FeatureImage.TextColor == "" {
		cfg.FeatureImage.TextColor = "#333333"
	}
	if cfg.FeatureImage.WatermarkColor == "" {
		cfg.FeatureImage.WatermarkColor = "#AAAAAA80"
	}
	if cfg.ProfilesFile == "" {
		cfg.ProfilesFile = "profiles.json"
	}
}

// overrideWithEnvVars overrides configuration with environment variables.
// Variable names match the original deployment environment.
func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("ES_URL"); v != "" {
		cfg.Elasticsearch.URL = v
	}
	if v := os.Getenv("REPORT_SERVICE_URL"); v != "" {
		cfg.ReportService.URL = v
	}
	if v := os.Getenv("TICKER_SHEET_URL"); v != "" {
		cfg.TickerSource.Backend = "http"
		cfg.TickerSource.URL = v
	}
	if v := os.Getenv("MAX_POSTS_PER_DAY_PER_SITE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Publishing.MaxPostsPerDay = n
		}
	}
	if v := os.Getenv("MIN_SCHEDULING_GAP_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Publishing.MinGapMinutes = n
		}
	}
	if v := os.Getenv("MAX_SCHEDULING_GAP_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Publishing.MaxGapMinutes = n
		}
	}
	if port := os.Getenv("PUBLISHER_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
}

// loadEnvFiles loads .env files before env overrides are applied.
// ENV_FILE takes priority; otherwise .env.local then .env are loaded when
// present. Missing files are not an error.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the YAML config at path, applies defaults, .env files and
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	overrideWithEnvVars(&cfg)

	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server config validation: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
