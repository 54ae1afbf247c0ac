package internal

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	History HistoryConfig     `yaml:"history"`
	Serve   ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// VaultConfig locates the journaling tree. InputDir, OutputDir, and
// ArchiveDir are directory names inside the vault, not paths.
type VaultConfig struct {
	Path       string `yaml:"path"`
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	ArchiveDir string `yaml:"archive_dir"`
	Extension  string `yaml:"extension"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.InputDir, validation.Required),
		validation.Field(&c.ArchiveDir, validation.Required),
		validation.Field(&c.Extension, validation.Required),
	); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("vault: extension must start with a dot: %q", c.Extension)
	}
	return nil
}

// ResolvedOutputDir returns the output directory name, defaulting to the
// input directory name suffixed with まとめ when unset.
func (c *VaultConfig) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return c.InputDir + "まとめ"
}

// ArchivePath returns the vault-relative archive directory.
func (c *VaultConfig) ArchivePath() string {
	return path.Join(c.InputDir, c.ArchiveDir)
}

// HistoryConfig holds the run-ledger database location.
// An empty path disables the ledger.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the run ledger is configured.
func (c *HistoryConfig) Enabled() bool {
	return c.Path != ""
}

// ServeConfig holds the status server and watch-mode configuration.
type ServeConfig struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Auth  AuthConfig  `yaml:"auth"`
	Watch WatchConfig `yaml:"watch"`
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// AuthConfig holds authentication configuration for the status server.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
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

// WatchConfig controls the input-root watcher in serve mode.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// NewDefaultConfig returns a new Config with sensible default values.
// Directory defaults mirror the tool's original Japanese vault layout.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Path:       "./vault",
			InputDir:   "日々の記録",
			ArchiveDir: "oldfiles",
			Extension:  ".md",
		},
		History: HistoryConfig{
			Path: "./matome.db",
		},
		Serve: ServeConfig{
			HTTP: HTTPConfig{
				Port: 8080,
			},
			Auth: AuthConfig{
				Mode: AuthModeDisabled,
			},
			Watch: WatchConfig{
				Enabled:    true,
				DebounceMS: 500,
			},
		},
	}
}
