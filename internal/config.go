package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Build     BuildConfig       `yaml:"build"`
	Rules     RulesConfig       `yaml:"rules"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Build.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// StateDirPath resolves the state directory against the workspace root.
func (c *Config) StateDirPath() string {
	return c.Workspace.resolve(c.Workspace.StateDir)
}

// RulesPath resolves the skill-rules file against the workspace root.
func (c *Config) RulesPath() string {
	return c.Workspace.resolve(c.Rules.Path)
}

// SQLitePath resolves the history database against the workspace root.
func (c *Config) SQLitePath() string {
	return c.Workspace.resolve(c.SQLite.Path)
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

// HTTPConfig holds serve-mode HTTP configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig locates the workspace root and the state directory
// holding the edit record.
type WorkspaceConfig struct {
	Root     string `yaml:"root"`
	StateDir string `yaml:"state_dir"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.StateDir, validation.Required),
	)
}

func (c *WorkspaceConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// BuildConfig holds the build command run at session end. The command
// string is opaque: it is handed to the shell untouched.
type BuildConfig struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the build timeout as a duration.
func (c *BuildConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(3600)),
	)
}

// RulesConfig holds the path to the skill-rules file. The file is optional
// at runtime; a missing file means zero trigger rules.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// SQLiteConfig holds the history database path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds serve-mode authentication configuration.
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
	// Normalise empty mode to "disabled" for backward compatibility.
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

// NewDefaultConfig returns a new Config with sensible default values.
// Defaults are chosen so hook subcommands work with no config file at all.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8624,
			},
		},
		Workspace: WorkspaceConfig{
			Root:     ".",
			StateDir: ".raido",
		},
		Build: BuildConfig{
			Command:        "go build ./...",
			TimeoutSeconds: 30,
		},
		Rules: RulesConfig{
			Path: "skill-rules.json",
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(".raido", "raido.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
