// Package config handles configuration loading for finny.
// It supports YAML config files with environment variable overrides, and
// loads a .env file into the environment first when one is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINNY_SEC_USER_AGENT.
const EnvPrefix = "FINNY"

// Config represents the complete application configuration.
type Config struct {
	SEC     SECConfig     `mapstructure:"sec"     yaml:"sec"`
	Yahoo   YahooConfig   `mapstructure:"yahoo"   yaml:"yahoo"`
	HTTP    HTTPConfig    `mapstructure:"http"    yaml:"http"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SECConfig holds SEC EDGAR settings.
type SECConfig struct {
	UserAgent        string        `mapstructure:"user_agent"        yaml:"user_agent"` // SEC asks for "name email"
	Host             string        `mapstructure:"host"              yaml:"host"`
	DataHost         string        `mapstructure:"data_host"         yaml:"data_host"`
	DirectoryURL     string        `mapstructure:"directory_url"     yaml:"directory_url"`
	FallbackPath     string        `mapstructure:"fallback_path"     yaml:"fallback_path"`
	DirectoryRetries int           `mapstructure:"directory_retries" yaml:"directory_retries"`
	DirectoryDelay   time.Duration `mapstructure:"directory_delay"   yaml:"directory_delay"`
	DirectoryTTL     time.Duration `mapstructure:"directory_ttl"     yaml:"directory_ttl"` // 0 disables caching
	MaxRetries       int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	FilingsSource    string        `mapstructure:"filings_source"    yaml:"filings_source"` // "submissions", "html", "atom"
	Count            int           `mapstructure:"count"             yaml:"count"`
	RateLimit        float64       `mapstructure:"rate_limit"        yaml:"rate_limit"` // requests/second, 0 = off
}

// YahooConfig holds Yahoo Finance settings.
type YahooConfig struct {
	BaseURL            string        `mapstructure:"base_url"            yaml:"base_url"`
	UserAgent          string        `mapstructure:"user_agent"          yaml:"user_agent"`
	Interval           string        `mapstructure:"interval"            yaml:"interval"`
	MaxRetries         int           `mapstructure:"max_retries"         yaml:"max_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"         yaml:"retry_delay"`
	HistoryConcurrency int           `mapstructure:"history_concurrency" yaml:"history_concurrency"`
}

// HTTPConfig holds outbound HTTP settings shared by all providers.
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	Backoff    string        `mapstructure:"backoff"     yaml:"backoff"` // "fixed" or "exponential"
	MaxBackoff time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Verbose reports whether per-request fetch tracing should be logged.
func (l LoggingConfig) Verbose() bool {
	switch strings.ToLower(l.Level) {
	case "warn", "warning", "error":
		return false
	default:
		return true
	}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finny/config.yaml (home directory)
//  3. /etc/finny/config.yaml (system)
//
// Environment variables override config file values.
// Format: FINNY_<SECTION>_<KEY>, e.g., FINNY_SEC_USER_AGENT
func Load() (*Config, error) {
	loadDotEnv()
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finny"))
	v.AddConfigPath("/etc/finny")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch strings.ToLower(c.SEC.FilingsSource) {
	case "", "submissions", "html", "atom":
	default:
		return fmt.Errorf("sec.filings_source: unknown source %q", c.SEC.FilingsSource)
	}
	switch strings.ToLower(c.HTTP.Backoff) {
	case "", "fixed", "exponential":
	default:
		return fmt.Errorf("http.backoff: unknown policy %q", c.HTTP.Backoff)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port: %d out of range", c.API.Port)
	}
	if c.Yahoo.HistoryConcurrency < 0 {
		return fmt.Errorf("yahoo.history_concurrency: must not be negative")
	}
	return nil
}

// Addr returns the API listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC defaults
	v.SetDefault("sec.user_agent", defaultUserAgent)
	v.SetDefault("sec.host", "https://www.sec.gov")
	v.SetDefault("sec.data_host", "https://data.sec.gov")
	v.SetDefault("sec.directory_url", "https://www.sec.gov/files/company_tickers.json")
	v.SetDefault("sec.fallback_path", "data/company_tickers.json")
	v.SetDefault("sec.directory_retries", 5)
	v.SetDefault("sec.directory_delay", "2s")
	v.SetDefault("sec.directory_ttl", "24h")
	v.SetDefault("sec.max_retries", 3)
	v.SetDefault("sec.retry_delay", "2s")
	v.SetDefault("sec.filings_source", "submissions")
	v.SetDefault("sec.count", 40)
	v.SetDefault("sec.rate_limit", 10.0) // SEC fair access: 10 req/s

	// Yahoo defaults
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.user_agent", "Mozilla/5.0")
	v.SetDefault("yahoo.interval", "1d")
	v.SetDefault("yahoo.max_retries", 3)
	v.SetDefault("yahoo.retry_delay", "2s")
	v.SetDefault("yahoo.history_concurrency", 1)

	// HTTP defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.backoff", "fixed")
	v.SetDefault("http.max_backoff", "30s")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// loadDotEnv loads ./.env into the process environment. Variables already
// set are not overridden; a missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
