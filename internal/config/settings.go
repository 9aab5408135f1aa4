package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/handiism/tlc-downloader/internal/download"
	"github.com/handiism/tlc-downloader/internal/http"
	"github.com/handiism/tlc-downloader/internal/model"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TLC_"

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("config: invalid settings")

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	Output      string `yaml:"output"`
	Concurrency int    `yaml:"concurrency"`
	Type        string `yaml:"type"`
	BaseURL     string `yaml:"base_url"`

	// StallTimeout aborts a transfer that receives no data for this long.
	// Zero disables the watchdog.
	StallTimeout time.Duration `yaml:"stall_timeout"`

	Retry RetrySettings `yaml:"retry"`

	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// RetrySettings defines retry behavior for each request.
type RetrySettings struct {
	// Attempts is the total number of attempts, including the first.
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Output:       "./data",
		Concurrency:  5,
		Type:         "yellow",
		BaseURL:      model.DefaultBaseURL,
		StallTimeout: download.DefaultStallTimeout,
		Retry: RetrySettings{
			Attempts:   3,
			Backoff:    500 * time.Millisecond,
			MaxBackoff: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

// DefaultPath returns the settings file location under the user config
// directory, or an empty string when it cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tlc-downloader", "settings.yaml")
}

// Load reads settings from a YAML file. Keys missing from the file keep
// their defaults; a missing file yields DefaultSettings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return settings, nil
}

// Save writes settings to a YAML file, creating parent directories.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides settings from environment variables prefixed with
// TLC_, e.g. TLC_OUTPUT or TLC_RETRY_ATTEMPTS. Unset variables are ignored.
func (s *Settings) ApplyEnv() error {
	if v, ok := lookupEnv("OUTPUT"); ok {
		s.Output = v
	}
	if v, ok := lookupEnv("TYPE"); ok {
		s.Type = v
	}
	if v, ok := lookupEnv("BASE_URL"); ok {
		s.BaseURL = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := lookupEnv("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sCONCURRENCY: %w", EnvPrefix, err)
		}
		s.Concurrency = n
	}
	if v, ok := lookupEnv("STALL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sSTALL_TIMEOUT: %w", EnvPrefix, err)
		}
		s.StallTimeout = d
	}
	if v, ok := lookupEnv("RETRY_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		s.Retry.Attempts = n
	}
	if v, ok := lookupEnv("RETRY_BACKOFF"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_BACKOFF: %w", EnvPrefix, err)
		}
		s.Retry.Backoff = d
	}
	if v, ok := lookupEnv("RETRY_MAX_BACKOFF"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_MAX_BACKOFF: %w", EnvPrefix, err)
		}
		s.Retry.MaxBackoff = d
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks settings for values a run cannot use.
func (s *Settings) Validate() error {
	if s.Output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidSettings)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidSettings, s.Concurrency)
	}
	if s.Retry.Attempts < 1 {
		return fmt.Errorf("%w: retry.attempts must be at least 1, got %d", ErrInvalidSettings, s.Retry.Attempts)
	}
	if s.StallTimeout < 0 {
		return fmt.Errorf("%w: stall_timeout must not be negative", ErrInvalidSettings)
	}
	if _, err := s.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (s *Settings) Level() (logrus.Level, error) {
	if s.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(s.LogLevel)
}

// HTTPOptions converts settings to transfer client options.
func (s *Settings) HTTPOptions() http.Options {
	opts := http.DefaultOptions()
	opts.MaxIdleConnsPerHost = s.Concurrency
	opts.RetryAttempts = s.Retry.Attempts
	if s.Retry.Backoff > 0 {
		opts.RetryBackoff = s.Retry.Backoff
	}
	if s.Retry.MaxBackoff > 0 {
		opts.RetryMaxBackoff = s.Retry.MaxBackoff
	}
	return opts
}

// ToOptions converts settings to run options for the given inclusive
// YYYY-MM range.
func (s *Settings) ToOptions(start, end string) download.Options {
	return download.Options{
		Type:        s.Type,
		Start:       start,
		End:         end,
		OutputDir:   s.Output,
		Concurrency: s.Concurrency,
	}
}

// ManagerOptions returns the Manager options these settings imply.
func (s *Settings) ManagerOptions() []download.Option {
	opts := []download.Option{
		download.WithHTTPOptions(s.HTTPOptions()),
		download.WithStallTimeout(s.StallTimeout),
	}
	if s.BaseURL != "" {
		opts = append(opts, download.WithBaseURL(s.BaseURL))
	}
	return opts
}
