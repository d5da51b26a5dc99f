// Package config loads the huddle CLI configuration from huddle.yaml, a
// sibling .env file and HUDDLE_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huddle-sports/huddle-client/pkg/client"
	"github.com/huddle-sports/huddle-client/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is read from the working directory when no path is given.
	DefaultFile = "huddle.yaml"

	// EnvFile is loaded from the directory of the config file.
	EnvFile = ".env"

	// SecretsFile is the secure store file name inside Home.
	SecretsFile = "secrets.json"
)

// Environment variables that override the file.
const (
	EnvAPIURL     = "HUDDLE_API_URL"
	EnvLogLevel   = "HUDDLE_LOG_LEVEL"
	EnvRedisURL   = "REDIS_URL"
	EnvHome       = "HUDDLE_HOME"
	EnvPassphrase = "HUDDLE_PASSPHRASE"
	EnvRPS        = "HUDDLE_REQUESTS_PER_SECOND"
)

// Config is the CLI configuration: defaults, then the YAML file, then the
// environment.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	Feed    FeedConfig    `yaml:"feed"`
	Push    PushConfig    `yaml:"push"`

	// Home holds the secure store.
	Home string `yaml:"home"`

	// Passphrase unlocks the secure store. It is only read from the environment.
	Passphrase string `yaml:"-"`
}

// APIConfig configures the Huddle API client.
type APIConfig struct {
	URL               string        `yaml:"url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxRetries        int           `yaml:"max_retries"`
}

// RedisConfig enables the response cache when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// FeedConfig configures paginated feeds.
type FeedConfig struct {
	PageSize int `yaml:"page_size"`

	// Workers is the BatchFetcher concurrency for "events all".
	Workers int `yaml:"workers"`
}

// PushConfig configures push device registration.
type PushConfig struct {
	Platform string `yaml:"platform"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	home := ".huddle"
	if dir, err := os.UserHomeDir(); err == nil {
		home = filepath.Join(dir, ".huddle")
	}
	return Config{
		API: APIConfig{
			URL:               "https://api.huddle.app/v1",
			UserAgent:         "huddle-cli/0.1.0",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			MaxRetries:        3,
		},
		Logging: LoggingConfig{Level: "info", Pretty: true},
		Feed:    FeedConfig{PageSize: 10, Workers: 4},
		Push:    PushConfig{Platform: "cli"},
		Home:    home,
	}
}

// Load reads path (DefaultFile when empty), then .env next to it, then the
// environment. A missing default file is not an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	envPath := filepath.Join(filepath.Dir(path), EnvFile)
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv(EnvHome); v != "" {
		c.Home = v
	}
	if v := os.Getenv(EnvPassphrase); v != "" {
		c.Passphrase = v
	}
	if v := os.Getenv(EnvRPS); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRPS, err)
		}
		c.API.RequestsPerSecond = rps
	}
	return nil
}

// Validate checks the configuration for values the client would reject.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.url %q is not an absolute URL", c.API.URL)
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must be >= 0 (got %v)", c.API.RequestsPerSecond)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0 (got %d)", c.API.MaxRetries)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be > 0 (got %d)", c.Feed.PageSize)
	}
	if c.Feed.Workers <= 0 {
		return fmt.Errorf("feed.workers must be > 0 (got %d)", c.Feed.Workers)
	}
	if c.Home == "" {
		return fmt.Errorf("home is required")
	}
	return nil
}

// SecretsPath returns the secure store file.
func (c Config) SecretsPath() string {
	return filepath.Join(c.Home, SecretsFile)
}

// LoggerConfig returns the logger setup for this configuration.
func (c Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Pretty = c.Logging.Pretty
	lc.Service = "huddle"
	return lc
}

// RedisOptions parses Redis.URL. Both redis:// URLs and bare host:port
// addresses are accepted. It returns nil when no URL is set.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.Redis.URL == "" {
		return nil, nil
	}
	if !strings.Contains(c.Redis.URL, "://") {
		return &redis.Options{Addr: c.Redis.URL}, nil
	}
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("redis.url: %w", err)
	}
	return opts, nil
}

// ClientConfig builds the HTTP client configuration. rdb may be nil.
func (c Config) ClientConfig(rdb *redis.Client, tokens client.TokenSource) client.Config {
	cc := client.DefaultConfig(c.API.URL, c.API.UserAgent)
	cc.Timeout = c.API.Timeout
	cc.RequestsPerSecond = c.API.RequestsPerSecond
	cc.Burst = c.API.Burst
	cc.MaxRetries = c.API.MaxRetries
	cc.Redis = rdb
	cc.Tokens = tokens
	return cc
}
