// Package config loads spira's settings: defaults, then the TOML config
// file, then SPIRA_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultAPIPrefix is the REST path of the SpiraTeam v5.0 service.
const DefaultAPIPrefix = "/services/v5_0/RestService.svc/"

// Config is the complete application configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
	Logging     LoggingConfig     `toml:"logging"`
	Credentials CredentialsConfig `toml:"credentials"`
}

type ServerConfig struct {
	APIPrefix string `toml:"api_prefix" validate:"required,startswith=/,endswith=/"` // REST path appended to the base URL
	Timeout   string `toml:"timeout" validate:"duration"`                            // e.g. "30s"; "0" disables the timeout
	RateLimit int    `toml:"rate_limit" validate:"min=0"`                            // Requests per second; 0 is unlimited
}

type SyncConfig struct {
	Concurrency    int    `toml:"concurrency" validate:"min=1,max=32"`              // Parallel per-project incident searches
	PageSize       int    `toml:"page_size" validate:"min=1,max=10000"`             // number_rows sent with each incident search
	IncidentSource string `toml:"incident_source" validate:"oneof=search assigned"` // "assigned" needs SpiraTeam 5.3+
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=file console stdout"` // "file", "console"
	File   string   `toml:"file"`                                             // Log file path when output includes "file"
}

type CredentialsConfig struct {
	Path string `toml:"path" validate:"required"` // credentials.toml location
}

// Dir returns spira's configuration directory (~/.config/spira on Linux).
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "spira")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Server: ServerConfig{
			APIPrefix: DefaultAPIPrefix,
			Timeout:   "30s",
		},
		Sync: SyncConfig{
			Concurrency:    4,
			PageSize:       1000,
			IncidentSource: "search",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"file"},
			File:   filepath.Join(dir, "spira.log"),
		},
		Credentials: CredentialsConfig{
			Path: filepath.Join(dir, "credentials.toml"),
		},
	}
}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	config := NewDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; defaults apply
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	// Server configuration
	if prefix := os.Getenv("SPIRA_API_PREFIX"); prefix != "" {
		config.Server.APIPrefix = prefix
	}
	if timeout := os.Getenv("SPIRA_TIMEOUT"); timeout != "" {
		config.Server.Timeout = timeout
	}
	if limit := os.Getenv("SPIRA_RATE_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Server.RateLimit = l
		}
	}

	// Sync configuration
	if concurrency := os.Getenv("SPIRA_SYNC_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Sync.Concurrency = c
		}
	}
	if pageSize := os.Getenv("SPIRA_SYNC_PAGE_SIZE"); pageSize != "" {
		if p, err := strconv.Atoi(pageSize); err == nil {
			config.Sync.PageSize = p
		}
	}
	if source := os.Getenv("SPIRA_INCIDENT_SOURCE"); source != "" {
		config.Sync.IncidentSource = source
	}

	// Logging configuration
	if level := os.Getenv("SPIRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SPIRA_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if file := os.Getenv("SPIRA_LOG_FILE"); file != "" {
		config.Logging.File = file
	}

	// Credentials
	if path := os.Getenv("SPIRA_CREDENTIALS_PATH"); path != "" {
		config.Credentials.Path = path
	}
}

// ApplyFlagOverrides applies command-line flags (highest priority).
// Zero values leave the configuration untouched.
func ApplyFlagOverrides(config *Config, logLevel string, logOutput []string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if len(logOutput) > 0 {
		config.Logging.Output = logOutput
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := parseTimeout(fl.Field().String())
		return err == nil
	})
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s: value %v does not satisfy %q", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequestTimeout returns the HTTP timeout. Zero means no timeout.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := parseTimeout(c.Server.Timeout)
	return d
}

// LogsToFile reports whether file output is enabled.
func (c *Config) LogsToFile() bool {
	return c.hasOutput("file")
}

// LogsToConsole reports whether console output is enabled.
func (c *Config) LogsToConsole() bool {
	return c.hasOutput("console") || c.hasOutput("stdout")
}

func (c *Config) hasOutput(name string) bool {
	for _, o := range c.Logging.Output {
		if o == name {
			return true
		}
	}
	return false
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
