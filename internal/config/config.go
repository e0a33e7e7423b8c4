package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the copilot engine.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Collection  CollectionConfig  `yaml:"collection"`
	Cache       CacheConfig       `yaml:"cache"`
	Rules       RulesConfig       `yaml:"rules"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig controls the metrics listener and shutdown behaviour.
type ServerConfig struct {
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProvidersConfig groups per-vendor endpoint overrides. Base URLs are only
// set in local development, where the mock vendor serves all three.
type ProvidersConfig struct {
	AWS   ProviderConfig `yaml:"aws"`
	Azure ProviderConfig `yaml:"azure"`
	GCP   ProviderConfig `yaml:"gcp"`
}

// ProviderConfig tunes one vendor adapter.
type ProviderConfig struct {
	BaseURL        string        `yaml:"baseURL"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`
}

// CredentialsConfig locates the account credential key.
type CredentialsConfig struct {
	KeyPath string `yaml:"keyPath"`
}

// CollectionConfig controls the background collection loop.
type CollectionConfig struct {
	Interval   time.Duration `yaml:"interval"`
	WindowDays int           `yaml:"windowDays"`
}

// CacheConfig controls the in-memory signal cache.
type CacheConfig struct {
	SignalTTL time.Duration `yaml:"signalTTL"`
}

// RulesConfig controls rule-pack loading for the advisor.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("COPILOT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	provider := ProviderConfig{
		Timeout:        15 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
	return Config{
		Server: ServerConfig{
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "host=localhost user=copilot password=copilot dbname=copilot port=5432 sslmode=disable",
		},
		Providers: ProvidersConfig{
			AWS:   provider,
			Azure: provider,
			GCP:   provider,
		},
		Credentials: CredentialsConfig{KeyPath: "configs/credential.key"},
		Collection: CollectionConfig{
			Interval:   time.Hour,
			WindowDays: 30,
		},
		Cache:   CacheConfig{SignalTTL: 5 * time.Minute},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COPILOT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("COPILOT_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("COPILOT_AWS_BASE_URL"); v != "" {
		cfg.Providers.AWS.BaseURL = v
	}
	if v := os.Getenv("COPILOT_AZURE_BASE_URL"); v != "" {
		cfg.Providers.Azure.BaseURL = v
	}
	if v := os.Getenv("COPILOT_GCP_BASE_URL"); v != "" {
		cfg.Providers.GCP.BaseURL = v
	}
	if v := os.Getenv("COPILOT_CREDENTIAL_KEY_PATH"); v != "" {
		cfg.Credentials.KeyPath = v
	}
	if v := os.Getenv("COPILOT_COLLECTION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Collection.Interval = d
		}
	}
	if v := os.Getenv("COPILOT_COLLECTION_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Collection.WindowDays = days
		}
	}
	if v := os.Getenv("COPILOT_SIGNAL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SignalTTL = d
		}
	}
	if v := os.Getenv("COPILOT_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("COPILOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COPILOT_LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
}
