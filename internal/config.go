package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config is the full application configuration, loaded from YAML.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds server-level settings.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	SSE      SSEConfig  `yaml:"sse"`
}

func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.SSE.Validate()
}

// HTTPConfig holds the listen settings for the HTTP server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the listen address for the configured port.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SSEConfig tunes the server-sent events broker. GraphThrottle is the
// minimum interval between graph.updated events; note events are never
// throttled.
type SSEConfig struct {
	GraphThrottle time.Duration `yaml:"graph_throttle"`
}

func (c *SSEConfig) Validate() error {
	if c.GraphThrottle < 0 {
		return fmt.Errorf("sse: graph_throttle must not be negative, got %s", c.GraphThrottle)
	}
	return nil
}

// VaultConfig locates the markdown vault on disk. Watch controls whether the
// filesystem watcher keeps the index live; with it off the index is only
// built at start-up.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig locates the index database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig controls API authentication.
//
// Mode is one of:
//   - "disabled" (default): no authentication, for local use.
//   - "token": Bearer token authentication; Token must be set.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

func (c *AuthConfig) Validate() error {
	// An unset mode means disabled.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled reports whether requests must carry credentials.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns the configuration used when no file overrides it.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Port: 8080},
			SSE:      SSEConfig{GraphThrottle: 2 * time.Second},
		},
		Vault: VaultConfig{
			Path:  "./vault",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./varden.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
