package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/handiism/tlc-downloader/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Output != "./data" {
		t.Errorf("expected default output ./data, got %q", s.Output)
	}
	if s.Concurrency != 5 {
		t.Errorf("expected default concurrency 5, got %d", s.Concurrency)
	}
	if s.Type != "yellow" {
		t.Errorf("expected default type yellow, got %q", s.Type)
	}
	if s.BaseURL != model.DefaultBaseURL {
		t.Errorf("expected default base URL %q, got %q", model.DefaultBaseURL, s.BaseURL)
	}
	if s.Retry.Attempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", s.Retry.Attempts)
	}
	if s.StallTimeout != 60*time.Second {
		t.Errorf("expected default stall timeout 60s, got %v", s.StallTimeout)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *s != *DefaultSettings() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestLoad_YAML(t *testing.T) {
	content := `
output: /srv/tlc
concurrency: 8
type: green
stall_timeout: 2m
retry:
  attempts: 5
  backoff: 1s
log_level: debug
`
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Output != "/srv/tlc" {
		t.Errorf("expected output /srv/tlc, got %q", s.Output)
	}
	if s.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", s.Concurrency)
	}
	if s.Type != "green" {
		t.Errorf("expected type green, got %q", s.Type)
	}
	if s.StallTimeout != 2*time.Minute {
		t.Errorf("expected stall timeout 2m, got %v", s.StallTimeout)
	}
	if s.Retry.Attempts != 5 {
		t.Errorf("expected retry attempts 5, got %d", s.Retry.Attempts)
	}
	if s.Retry.Backoff != time.Second {
		t.Errorf("expected retry backoff 1s, got %v", s.Retry.Backoff)
	}
	// Keys absent from the file keep their defaults.
	if s.Retry.MaxBackoff != 10*time.Second {
		t.Errorf("expected default max backoff 10s, got %v", s.Retry.MaxBackoff)
	}
	if s.BaseURL != model.DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", s.BaseURL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("concurrency: [oops"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	s := DefaultSettings()
	s.Output = "/tmp/tlc"
	s.Concurrency = 3
	s.Type = "fhvhv"
	s.StallTimeout = 90 * time.Second

	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, s)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TLC_OUTPUT", "/env/out")
	t.Setenv("TLC_CONCURRENCY", "12")
	t.Setenv("TLC_TYPE", "fhv")
	t.Setenv("TLC_STALL_TIMEOUT", "30s")
	t.Setenv("TLC_RETRY_ATTEMPTS", "4")
	t.Setenv("TLC_LOG_LEVEL", "")

	s := DefaultSettings()
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if s.Output != "/env/out" {
		t.Errorf("expected output /env/out, got %q", s.Output)
	}
	if s.Concurrency != 12 {
		t.Errorf("expected concurrency 12, got %d", s.Concurrency)
	}
	if s.Type != "fhv" {
		t.Errorf("expected type fhv, got %q", s.Type)
	}
	if s.StallTimeout != 30*time.Second {
		t.Errorf("expected stall timeout 30s, got %v", s.StallTimeout)
	}
	if s.Retry.Attempts != 4 {
		t.Errorf("expected retry attempts 4, got %d", s.Retry.Attempts)
	}
	if s.LogLevel != "info" {
		t.Errorf("empty variable should be ignored, got log level %q", s.LogLevel)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"TLC_CONCURRENCY", "many"},
		{"TLC_STALL_TIMEOUT", "soon"},
		{"TLC_RETRY_ATTEMPTS", "x"},
		{"TLC_RETRY_BACKOFF", "1 parsec"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if err := DefaultSettings().ApplyEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"empty output", func(s *Settings) { s.Output = "" }},
		{"zero concurrency", func(s *Settings) { s.Concurrency = 0 }},
		{"zero attempts", func(s *Settings) { s.Retry.Attempts = 0 }},
		{"negative stall timeout", func(s *Settings) { s.StallTimeout = -time.Second }},
		{"unknown log level", func(s *Settings) { s.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(s)
			err := s.Validate()
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	s := DefaultSettings()
	s.LogLevel = ""
	if lvl, err := s.Level(); err != nil || lvl != logrus.InfoLevel {
		t.Errorf("empty level: got %v, %v", lvl, err)
	}

	s.LogLevel = "debug"
	if lvl, err := s.Level(); err != nil || lvl != logrus.DebugLevel {
		t.Errorf("debug level: got %v, %v", lvl, err)
	}
}

func TestConversions(t *testing.T) {
	s := DefaultSettings()
	s.Concurrency = 7
	s.Retry.Attempts = 2

	h := s.HTTPOptions()
	if h.MaxIdleConnsPerHost != 7 {
		t.Errorf("expected MaxIdleConnsPerHost 7, got %d", h.MaxIdleConnsPerHost)
	}
	if h.RetryAttempts != 2 {
		t.Errorf("expected RetryAttempts 2, got %d", h.RetryAttempts)
	}

	o := s.ToOptions("2023-01", "2023-03")
	if o.Type != "yellow" || o.Start != "2023-01" || o.End != "2023-03" || o.OutputDir != "./data" || o.Concurrency != 7 {
		t.Errorf("unexpected options %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("converted options should validate: %v", err)
	}

	if n := len(s.ManagerOptions()); n != 3 {
		t.Errorf("expected 3 manager options, got %d", n)
	}
}
