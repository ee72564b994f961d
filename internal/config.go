package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/callerid/internal/resolver"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Notify      NotifyConfig      `yaml:"notify"`
	Permissions PermissionsConfig `yaml:"permissions"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	return c.Notify.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// CORSOrigins lists origins allowed to call the API from a browser UI.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// DispatchConfig sizes the event worker pool.
type DispatchConfig struct {
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	HandleTimeout time.Duration `yaml:"handle_timeout"`
}

// Validate validates the dispatch configuration.
func (c *DispatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.QueueSize, validation.Required, validation.Min(1)),
		validation.Field(&c.HandleTimeout, validation.Min(time.Duration(0))),
	)
}

// IngestConfig holds the per-client rate limit for event ingestion.
// A zero RateInterval disables limiting.
type IngestConfig struct {
	RateInterval time.Duration `yaml:"rate_interval"`
	RateBurst    int           `yaml:"rate_burst"`
	ClientCache  int           `yaml:"client_cache"`
	ClientTTL    time.Duration `yaml:"client_ttl"`
}

// Validate validates the ingest configuration.
func (c *IngestConfig) Validate() error {
	if c.RateInterval == 0 {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.RateInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.RateBurst, validation.Required, validation.Min(1)),
		validation.Field(&c.ClientCache, validation.Required, validation.Min(1)),
		validation.Field(&c.ClientTTL, validation.Required),
	)
}

// RateLimited returns true when ingestion is rate limited.
func (c *IngestConfig) RateLimited() bool {
	return c.RateInterval > 0
}

// NotifyConfig controls notification rendering and delivery.
type NotifyConfig struct {
	Locale       string        `yaml:"locale"`
	SSEHeartbeat time.Duration `yaml:"sse_heartbeat"`
}

// Validate validates the notify configuration.
func (c *NotifyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Locale, validation.Required, validation.In(resolver.LocaleEnglish, resolver.LocaleIndonesian)),
		validation.Field(&c.SSEHeartbeat, validation.Min(time.Duration(0))),
	)
}

// PermissionsConfig holds the host permission grants.
//
// Granted is the static list from the config file. GrantsFile, if set, is a
// YAML file ("granted: [...]") that is watched and merged with Granted.
type PermissionsConfig struct {
	Granted    []string `yaml:"granted"`
	GrantsFile string   `yaml:"grants_file"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./contacts.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Dispatch: DispatchConfig{
			Workers:       4,
			QueueSize:     128,
			HandleTimeout: 10 * time.Second,
		},
		Ingest: IngestConfig{
			RateInterval: 100 * time.Millisecond,
			RateBurst:    20,
			ClientCache:  1024,
			ClientTTL:    10 * time.Minute,
		},
		Notify: NotifyConfig{
			Locale:       resolver.LocaleEnglish,
			SSEHeartbeat: 15 * time.Second,
		},
		Permissions: PermissionsConfig{
			GrantsFile: "./grants.yaml",
		},
	}
}
