package config

import (
	"os"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one operator-relevant setting.
type SettingStatus struct {
	Name    string        `json:"name"`
	Value   string        `json:"value"`
	Source  SettingSource `json:"source"`
	Warning string        `json:"warning,omitempty"`
}

// CheckSettings reports the settings operators most often need to change,
// with a warning where a value is likely to get requests refused.
func CheckSettings(cfg *Config) []SettingStatus {
	ua := checkSetting("SEC User-Agent", cfg.SEC.UserAgent, "sec.user_agent", defaultUserAgent)
	if !strings.Contains(cfg.SEC.UserAgent, "@") {
		ua.Warning = "SEC expects a contact email in the User-Agent"
	}

	fb := checkSetting("Ticker fallback file", cfg.SEC.FallbackPath, "sec.fallback_path", "data/company_tickers.json")
	if _, err := os.Stat(cfg.SEC.FallbackPath); err != nil {
		fb.Warning = "fallback file not readable: directory outages will fail lookups"
	}

	return []SettingStatus{
		ua,
		fb,
		checkSetting("Filings source", cfg.SEC.FilingsSource, "sec.filings_source", "submissions"),
		checkSetting("Yahoo base URL", cfg.Yahoo.BaseURL, "yahoo.base_url", "https://query1.finance.yahoo.com"),
		checkSetting("Retry policy", cfg.HTTP.Backoff, "http.backoff", "fixed"),
	}
}

const defaultUserAgent = "finny/1.0 (github.com/seenimoa/finny)"

// checkSetting determines whether a value came from env, config or defaults.
func checkSetting(name, value, key, def string) SettingStatus {
	status := SettingStatus{Name: name, Value: value}
	switch {
	case os.Getenv(EnvVar(key)) != "":
		status.Source = SourceEnv
	case value != def:
		status.Source = SourceConfig
	default:
		status.Source = SourceDefault
	}
	return status
}

// EnvVar returns the environment variable that overrides a config key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
