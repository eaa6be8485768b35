// Package common provides configuration, logging and shared utilities.
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration. Load order: defaults -> config
// files (later files override earlier ones) -> environment -> CLI flags.
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig  `toml:"logging"`
	Airtable    AirtableConfig `toml:"airtable"`
	Browser     BrowserConfig  `toml:"browser"`
	Run         RunConfig      `toml:"run"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// AirtableConfig holds the external record store credentials and location.
// Loaded once at startup, never mutated, never logged.
type AirtableConfig struct {
	PAT            string        `toml:"pat" validate:"required"`     // Personal access token (bearer credential)
	BaseID         string        `toml:"base_id" validate:"required"` // Base identifier
	Table          string        `toml:"table" validate:"required"`   // Table name
	BaseURL        string        `toml:"base_url"`                    // API root (default: https://api.airtable.com/v0)
	RequestTimeout time.Duration `toml:"request_timeout"`             // Per-request timeout
}

// BrowserConfig tunes the chromedp session. All settings are
// performance/stability tuning, not extraction semantics.
type BrowserConfig struct {
	Headless     bool          `toml:"headless"`
	UserAgent    string        `toml:"user_agent"`
	WindowWidth  int           `toml:"window_width" validate:"gt=0"`
	WindowHeight int           `toml:"window_height" validate:"gt=0"`
	ChromePath   string        `toml:"chrome_path"`   // Explicit browser binary, tried after the default launch
	NavTimeout   time.Duration `toml:"nav_timeout"`   // Page load timeout
	OpTimeout    time.Duration `toml:"op_timeout"`    // Element read / script timeout
	RequestDelay time.Duration `toml:"request_delay"` // Minimum delay between navigations to the same host
}

// RunConfig selects what a run processes.
type RunConfig struct {
	Platforms        []string `toml:"platforms" validate:"dive,oneof=twitter instagram facebook youtube"`
	ProfileOverrides string   `toml:"profile_overrides"` // Optional YAML selector-override file
	Schedule         string   `toml:"schedule"`          // Optional cron expression for periodic runs
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Airtable: AirtableConfig{
			BaseURL:        "https://api.airtable.com/v0",
			RequestTimeout: 30 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
			NavTimeout:   30 * time.Second,
			OpTimeout:    10 * time.Second,
			RequestDelay: time.Second,
		},
		Run: RunConfig{
			Platforms: []string{"twitter", "instagram", "facebook", "youtube"},
		},
	}
}

// LoadFromFiles loads configuration from the given TOML files, later files
// overriding earlier ones, then applies environment overrides. Passing no
// files is valid: defaults plus environment.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variables on top of file values.
// Credentials are commonly injected this way so they never live in files.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("AIRTABLE_PAT"); v != "" {
		config.Airtable.PAT = v
	}
	if v := os.Getenv("AIRTABLE_BASE_ID"); v != "" {
		config.Airtable.BaseID = v
	}
	if v := os.Getenv("AIRTABLE_TABLE"); v != "" {
		config.Airtable.Table = v
	}
	if v := os.Getenv("NUMERUS_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("NUMERUS_HEADLESS"); v != "" {
		config.Browser.Headless = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("NUMERUS_CHROME_PATH"); v != "" {
		config.Browser.ChromePath = v
	}
}

// Validate checks the loaded configuration. Called after all override
// layers have been applied.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag values, the highest
// priority layer. Empty values leave the configuration untouched.
func ApplyFlagOverrides(config *Config, platforms []string, schedule string, headless string) {
	if len(platforms) > 0 {
		config.Run.Platforms = platforms
	}
	if schedule != "" {
		config.Run.Schedule = schedule
	}
	if headless != "" {
		config.Browser.Headless = strings.EqualFold(headless, "true") || headless == "1"
	}
}
