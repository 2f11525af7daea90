// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/jeranaias/aplybot/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aplybot configuration.
type Config struct {
	Endpoint  EndpointConfig  `toml:"endpoint"`
	History   HistoryConfig   `toml:"history"`
	Input     InputConfig     `toml:"input"`
	Export    ExportConfig    `toml:"export"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	UI        UIConfig        `toml:"ui"`
	Logging   LoggingConfig   `toml:"logging"`
}

// EndpointConfig locates the chat endpoint and its CSRF token.
type EndpointConfig struct {
	// URL of the streaming chat endpoint
	URL string `toml:"url"`
	// PageURL is fetched for <meta name="csrf-token">; empty disables the lookup
	PageURL string `toml:"page_url"`
	// CSRFCookie is the cookie carrying the token
	CSRFCookie string `toml:"csrf_cookie"`
	// CSRFMeta is the meta tag name carrying the token
	CSRFMeta string `toml:"csrf_meta"`
	// CSRFHeader is the request header the token is sent in
	CSRFHeader string `toml:"csrf_header"`
	// ConnectTimeoutSecs bounds connecting and waiting for response headers
	ConnectTimeoutSecs int `toml:"connect_timeout_secs"`
}

// HistoryConfig bounds the conversation sent with each request.
type HistoryConfig struct {
	Limit int `toml:"limit"`
}

// InputConfig sizes the input field and its counter thresholds.
type InputConfig struct {
	MaxChars    int `toml:"max_chars"`
	WarnChars   int `toml:"warn_chars"`
	DangerChars int `toml:"danger_chars"`
}

// ExportConfig controls conversation export.
type ExportConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// TelemetryConfig controls usage events.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
	// BeaconURL receives events over HTTP; empty logs them instead
	BeaconURL     string `toml:"beacon_url"`
	Category      string `toml:"category"`
	Label         string `toml:"label"`
	RatePerMinute int    `toml:"rate_per_minute"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// StartOpen opens the widget on launch instead of showing the launcher
	StartOpen    bool   `toml:"start_open"`
	Brand        string `toml:"brand"`
	SupportEmail string `toml:"support_email"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error, disabled
	Level string `toml:"level"`
	// File receives logs; "-" discards them
	File string `toml:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	logFile := ""
	if dir, err := ConfigDir(); err == nil {
		logFile = filepath.Join(dir, "aplybot.log")
	}

	return &Config{
		Endpoint: EndpointConfig{
			URL:                "http://127.0.0.1:8000/api/chat/",
			CSRFCookie:         "csrftoken",
			CSRFMeta:           "csrf-token",
			CSRFHeader:         "X-CSRFToken",
			ConnectTimeoutSecs: 10,
		},
		History: HistoryConfig{
			Limit: 20,
		},
		Input: InputConfig{
			MaxChars:    500,
			WarnChars:   400,
			DangerChars: 450,
		},
		Export: ExportConfig{
			Dir:    ".",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			Category:      "chat_widget",
			Label:         "aplyfly_chat",
			RatePerMinute: 30,
		},
		UI: UIConfig{
			Theme:        "auto",
			Brand:        "AplyBot",
			SupportEmail: "info@aplyfly.com",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  logFile,
		},
	}
}

// ConnectTimeout returns the endpoint connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Endpoint.ConnectTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the aplybot configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".aplybot"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.aplybot/config.toml if it exists, then applies environment
// overrides, defaults and validation. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path, true)
}

// LoadFromPath loads the TOML file at path. With optional set, a missing file
// yields the defaults instead of an error.
func LoadFromPath(path string, optional bool) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if !(optional && os.IsNotExist(err)) {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		return finish(cfg)
	}

	if err := LoadTOML(cfg, path); err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", path)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadTOML decodes the file at path over cfg. Keys absent from the file keep
// their current values. Unknown keys are rejected.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to decode TOML file")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically with a header comment.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.TOML()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# aplybot configuration file\n")
	buf.WriteString("# Environment variables APLYBOT_* override these values.\n\n")
	buf.Write(data)

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// TOML encodes cfg.
func (c *Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	return buf.Bytes(), nil
}

// String returns the TOML encoding of the config.
func (c *Config) String() string {
	data, err := c.TOML()
	if err != nil {
		return err.Error()
	}
	return string(data)
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

// Validate checks the configuration and returns a ValidateErrors listing every
// problem, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	checkURL := func(field, raw string, required bool) {
		if raw == "" {
			if required {
				errs = append(errs, ValidationError{Field: field, Message: "must not be empty"})
			}
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)})
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme)})
		}
	}

	// Endpoint
	checkURL("endpoint.url", c.Endpoint.URL, true)
	checkURL("endpoint.page_url", c.Endpoint.PageURL, false)
	if c.Endpoint.ConnectTimeoutSecs < 1 || c.Endpoint.ConnectTimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "endpoint.connect_timeout_secs",
			Message: fmt.Sprintf("%d out of range, must be 1-300", c.Endpoint.ConnectTimeoutSecs),
		})
	}

	// History
	if c.History.Limit < 1 || c.History.Limit > 200 {
		errs = append(errs, ValidationError{
			Field:   "history.limit",
			Message: fmt.Sprintf("%d out of range, must be 1-200", c.History.Limit),
		})
	}

	// Input
	if c.Input.MaxChars < 1 {
		errs = append(errs, ValidationError{Field: "input.max_chars", Message: "must be positive"})
	}
	if !(0 < c.Input.WarnChars && c.Input.WarnChars <= c.Input.DangerChars && c.Input.DangerChars <= c.Input.MaxChars) {
		errs = append(errs, ValidationError{
			Field:   "input.warn_chars",
			Message: "thresholds must satisfy 0 < warn_chars <= danger_chars <= max_chars",
		})
	}

	// Export
	switch strings.ToLower(c.Export.Format) {
	case "json", "markdown", "md":
	default:
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, markdown", c.Export.Format),
		})
	}

	// Telemetry
	checkURL("telemetry.beacon_url", c.Telemetry.BeaconURL, false)
	if c.Telemetry.RatePerMinute < 1 {
		errs = append(errs, ValidationError{Field: "telemetry.rate_per_minute", Message: "must be positive"})
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}
	if c.UI.SupportEmail != "" && !strings.Contains(c.UI.SupportEmail, "@") {
		errs = append(errs, ValidationError{Field: "ui.support_email", Message: "not an email address"})
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults and normalizes case.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Endpoint.CSRFCookie == "" {
		c.Endpoint.CSRFCookie = defaults.Endpoint.CSRFCookie
	}
	if c.Endpoint.CSRFMeta == "" {
		c.Endpoint.CSRFMeta = defaults.Endpoint.CSRFMeta
	}
	if c.Endpoint.CSRFHeader == "" {
		c.Endpoint.CSRFHeader = defaults.Endpoint.CSRFHeader
	}
	if c.Endpoint.ConnectTimeoutSecs == 0 {
		c.Endpoint.ConnectTimeoutSecs = defaults.Endpoint.ConnectTimeoutSecs
	}
	if c.History.Limit == 0 {
		c.History.Limit = defaults.History.Limit
	}
	if c.Input.MaxChars == 0 {
		c.Input.MaxChars = defaults.Input.MaxChars
	}
	// Thresholds left over from a larger max_chars are rescaled.
	if c.Input.WarnChars == 0 || c.Input.WarnChars > c.Input.MaxChars {
		c.Input.WarnChars = c.Input.MaxChars * 4 / 5
	}
	if c.Input.DangerChars == 0 || c.Input.DangerChars > c.Input.MaxChars {
		c.Input.DangerChars = c.Input.MaxChars * 9 / 10
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
	c.Export.Dir = ExpandHome(c.Export.Dir)
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
	c.Export.Format = strings.ToLower(c.Export.Format)
	if c.Telemetry.Category == "" {
		c.Telemetry.Category = defaults.Telemetry.Category
	}
	if c.Telemetry.Label == "" {
		c.Telemetry.Label = defaults.Telemetry.Label
	}
	if c.Telemetry.RatePerMinute == 0 {
		c.Telemetry.RatePerMinute = defaults.Telemetry.RatePerMinute
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.UI.Brand == "" {
		c.UI.Brand = defaults.UI.Brand
	}
	if c.UI.SupportEmail == "" {
		c.UI.SupportEmail = defaults.UI.SupportEmail
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.File == "" {
		c.Logging.File = defaults.Logging.File
	}
	if c.Logging.File != "-" {
		c.Logging.File = ExpandHome(c.Logging.File)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - APLYBOT_ENDPOINT: overrides endpoint.url
//   - APLYBOT_PAGE_URL: overrides endpoint.page_url
//   - APLYBOT_LOG_LEVEL: overrides logging.level
//   - APLYBOT_TELEMETRY: "0"/"false" disables telemetry, "1"/"true" enables it
//   - APLYBOT_EXPORT_DIR: overrides export.dir
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("APLYBOT_ENDPOINT"); endpoint != "" {
		c.Endpoint.URL = endpoint
	}
	if page := os.Getenv("APLYBOT_PAGE_URL"); page != "" {
		c.Endpoint.PageURL = page
	}
	if level := os.Getenv("APLYBOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if telemetry := os.Getenv("APLYBOT_TELEMETRY"); telemetry != "" {
		if enabled, err := strconv.ParseBool(telemetry); err == nil {
			c.Telemetry.Enabled = enabled
		}
	}
	if dir := os.Getenv("APLYBOT_EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
}

// =============================================================================
// DOT-NOTATION LOOKUP
// =============================================================================

// Get retrieves a value by its TOML key in dot notation (e.g., "history.limit").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()

	for i, part := range parts {
		field, ok := fieldByTOMLTag(v, part)
		if !ok {
			return nil, errors.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, errors.Errorf("key '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, errors.Errorf("invalid key: %s", key)
}

// Keys returns every leaf key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

func fieldByTOMLTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
