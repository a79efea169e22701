package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/stencil/internal/logging"
	"github.com/starford/stencil/internal/markdown"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Editor   EditorConfig      `yaml:"editor"`
	Sessions SessionsConfig    `yaml:"sessions"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Store, &c.SQLite, &c.Auth, &c.Editor, &c.Sessions} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.Formats...)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// StoreConfig locates the document directory. Exclude holds doublestar
// patterns, relative to Path, of files and directories to ignore.
type StoreConfig struct {
	Path    string   `yaml:"path"`
	Exclude []string `yaml:"exclude"`
}

var validGlob = validation.By(func(v any) error {
	if s, _ := v.(string); !doublestar.ValidatePattern(s) {
		return errors.New("invalid glob pattern")
	}
	return nil
})

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Exclude, validation.Each(validation.Required, validGlob)),
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

// EditorConfig tunes the wire format grammar. Empty patterns select the
// built-in defaults.
type EditorConfig struct {
	VariablePattern    string `yaml:"variable_pattern"`
	StorageHostPattern string `yaml:"storage_host_pattern"`
}

// Codec compiles the configured grammar.
func (c *EditorConfig) Codec() (*markdown.Codec, error) {
	return markdown.New(markdown.Options{
		VariablePattern:    c.VariablePattern,
		StorageHostPattern: c.StorageHostPattern,
	})
}

// Validate checks that both patterns compile.
func (c *EditorConfig) Validate() error {
	if _, err := c.Codec(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

// SessionsConfig bounds the lifetime of idle editing sessions.
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Validate validates the sessions configuration.
func (c *SessionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CleanupInterval, validation.Required, validation.Min(time.Second)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values. The
// index lives under the XDG data directory.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path:    "./documents",
			Exclude: []string{".git/**", "node_modules/**"},
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(xdg.DataHome, "stencil", "index.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Sessions: SessionsConfig{
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
	}
}
