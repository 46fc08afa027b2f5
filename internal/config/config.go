// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/parley-tui/internal/reveal"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend connection
	API APIConfig `toml:"api" json:"api"`

	// Where plan, counters and activity are kept
	Store StoreConfig `toml:"store" json:"store"`

	// Reply reveal pacing
	Reveal RevealConfig `toml:"reveal" json:"reveal"`

	UI  UIConfig  `toml:"ui" json:"ui"`
	Log LogConfig `toml:"log" json:"log"`
}

// APIConfig configures the chat backend client.
type APIConfig struct {
	BaseURL            string  `toml:"base_url" json:"base_url"`
	SystemPrompt       string  `toml:"system_prompt" json:"system_prompt"`
	RequestTimeoutSecs int     `toml:"request_timeout_secs" json:"request_timeout_secs"`
	HistoryTimeoutSecs int     `toml:"history_timeout_secs" json:"history_timeout_secs"`
	RequestsPerSecond  float64 `toml:"requests_per_second" json:"requests_per_second"`
	Burst              int     `toml:"burst" json:"burst"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is one of file, sqlite, memory.
	Backend string `toml:"backend" json:"backend"`

	// Path overrides the backend's default location.
	Path string `toml:"path" json:"path,omitempty"`
}

// RevealConfig controls the character-by-character reveal.
type RevealConfig struct {
	FastIntervalMs    int `toml:"fast_interval_ms" json:"fast_interval_ms"`
	SlowIntervalMs    int `toml:"slow_interval_ms" json:"slow_interval_ms"`
	LongTextThreshold int `toml:"long_text_threshold" json:"long_text_threshold"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// GlamourStyle is auto, dark, light or notty.
	GlamourStyle   string `toml:"glamour_style" json:"glamour_style"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File defaults to ~/.parley/parley.log.
	File string `toml:"file" json:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:            "http://127.0.0.1:8000",
			SystemPrompt:       "You are a helpful and powerful AI assistant.",
			RequestTimeoutSecs: 30,
			HistoryTimeoutSecs: 10,
			RequestsPerSecond:  2,
			Burst:              4,
		},
		Store: StoreConfig{
			Backend: "file",
		},
		Reveal: RevealConfig{
			FastIntervalMs:    5,
			SlowIntervalMs:    12,
			LongTextThreshold: 500,
		},
		UI: UIConfig{
			GlamourStyle: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the chat call timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// HistoryTimeout returns the history fetch timeout.
func (c *Config) HistoryTimeout() time.Duration {
	return time.Duration(c.API.HistoryTimeoutSecs) * time.Second
}

// RevealPacing converts the [reveal] section for the scheduler.
func (c *Config) RevealPacing() reveal.Config {
	return reveal.Config{
		FastInterval:      time.Duration(c.Reveal.FastIntervalMs) * time.Millisecond,
		SlowInterval:      time.Duration(c.Reveal.SlowIntervalMs) * time.Millisecond,
		LongTextThreshold: c.Reveal.LongTextThreshold,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parley configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(tomlPath); statErr == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(jsonPath); statErr == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when none exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the active config file.
func Save(cfg *Config) error {
	path, err := ActivePath()
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# parley configuration file")
	fmt.Fprintln(&buf, "# Generated by parley - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path atomically with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends     = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validGlamourStyle = map[string]bool{"auto": true, "dark": true, "light": true, "notty": true}
	validLogLevels    = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.API.BaseURL),
		})
	}
	if c.API.RequestTimeoutSecs < 1 || c.API.RequestTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.request_timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.API.RequestTimeoutSecs),
		})
	}
	if c.API.HistoryTimeoutSecs < 1 || c.API.HistoryTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.history_timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.API.HistoryTimeoutSecs),
		})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_second",
			Message: "must not be negative",
		})
	}
	if c.API.Burst < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.burst",
			Message: "must not be negative",
		})
	}

	// Store
	if !validBackends[strings.ToLower(c.Store.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Store.Backend),
		})
	}

	// Reveal
	if c.Reveal.FastIntervalMs < 1 || c.Reveal.FastIntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "reveal.fast_interval_ms",
			Message: fmt.Sprintf("must be between 1 and 1000, got %d", c.Reveal.FastIntervalMs),
		})
	}
	if c.Reveal.SlowIntervalMs < 1 || c.Reveal.SlowIntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "reveal.slow_interval_ms",
			Message: fmt.Sprintf("must be between 1 and 1000, got %d", c.Reveal.SlowIntervalMs),
		})
	}
	if c.Reveal.LongTextThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "reveal.long_text_threshold",
			Message: fmt.Sprintf("must be positive, got %d", c.Reveal.LongTextThreshold),
		})
	}

	// UI and log
	if !validGlamourStyle[strings.ToLower(c.UI.GlamourStyle)] {
		errs = append(errs, ValidationError{
			Field:   "ui.glamour_style",
			Message: fmt.Sprintf("invalid style '%s', must be one of: auto, dark, light, notty", c.UI.GlamourStyle),
		})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if strings.TrimSpace(c.API.SystemPrompt) == "" {
		c.API.SystemPrompt = defaults.API.SystemPrompt
	}
	if c.API.RequestTimeoutSecs == 0 {
		c.API.RequestTimeoutSecs = defaults.API.RequestTimeoutSecs
	}
	if c.API.HistoryTimeoutSecs == 0 {
		c.API.HistoryTimeoutSecs = defaults.API.HistoryTimeoutSecs
	}
	if c.API.Burst == 0 {
		c.API.Burst = defaults.API.Burst
	}

	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)

	if c.Reveal.FastIntervalMs == 0 {
		c.Reveal.FastIntervalMs = defaults.Reveal.FastIntervalMs
	}
	if c.Reveal.SlowIntervalMs == 0 {
		c.Reveal.SlowIntervalMs = defaults.Reveal.SlowIntervalMs
	}
	if c.Reveal.LongTextThreshold == 0 {
		c.Reveal.LongTextThreshold = defaults.Reveal.LongTextThreshold
	}

	if c.UI.GlamourStyle == "" {
		c.UI.GlamourStyle = defaults.UI.GlamourStyle
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PARLEY_API_URL: overrides api.base_url
//   - PARLEY_SYSTEM_PROMPT: overrides api.system_prompt
//   - PARLEY_STORE_BACKEND: overrides store.backend
//   - PARLEY_STORE_PATH: overrides store.path
//   - PARLEY_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PARLEY_SYSTEM_PROMPT"); v != "" {
		c.API.SystemPrompt = v
	}
	if v := os.Getenv("PARLEY_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("PARLEY_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "reveal.slow_interval_ms").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.system_prompt",
		"api.request_timeout_secs",
		"api.history_timeout_secs",
		"api.requests_per_second",
		"api.burst",
		"store.backend",
		"store.path",
		"reveal.fast_interval_ms",
		"reveal.slow_interval_ms",
		"reveal.long_text_threshold",
		"ui.glamour_style",
		"ui.show_timestamps",
		"log.level",
		"log.file",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns an indented JSON rendering for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
