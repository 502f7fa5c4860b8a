package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cravetown/internal/datadir"
	"github.com/starford/cravetown/internal/versions"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Data     DataConfig        `yaml:"data"`
	Versions VersionsConfig    `yaml:"versions"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Events   EventsConfig      `yaml:"events"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Data, &c.Versions, &c.Catalog, &c.Events, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
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

// DataConfig describes where the data directory lives.
//
// In development mode the data directory is two levels above ManifestDir.
// In production mode it is <user config dir>/<AppName>/data. A non-empty
// Dir overrides both.
type DataConfig struct {
	Mode        string `yaml:"mode"`
	ManifestDir string `yaml:"manifest_dir"`
	AppName     string `yaml:"app_name"`
	Dir         string `yaml:"dir"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(string(datadir.ModeDevelopment), string(datadir.ModeProduction))),
		validation.Field(&c.ManifestDir,
			validation.When(c.Dir == "" && c.Mode == string(datadir.ModeDevelopment), validation.Required)),
		validation.Field(&c.AppName,
			validation.When(c.Dir == "" && c.Mode == string(datadir.ModeProduction), validation.Required)),
	)
}

// Resolver returns the data directory resolver described by c.
func (c *DataConfig) Resolver() datadir.Resolver {
	return datadir.Resolver{
		Mode:        datadir.Mode(c.Mode),
		ManifestDir: c.ManifestDir,
		ConfigDir:   datadir.UserConfigDir(c.AppName),
		Override:    c.Dir,
	}
}

// VersionsConfig holds version lifecycle settings.
type VersionsConfig struct {
	CreatePolicy versions.CreatePolicy `yaml:"create_policy"`
}

// Validate validates the versions configuration.
func (c *VersionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CreatePolicy, validation.In(
			versions.PolicyOverwrite, versions.PolicyError, versions.PolicySkip)),
	)
}

// CatalogConfig holds the SQLite file catalog configuration. An empty
// Path disables the catalog and the watcher.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("catalog: watch requires a path")
	}
	return nil
}

// Enabled reports whether the catalog is configured.
func (c *CatalogConfig) Enabled() bool {
	return c.Path != ""
}

// EventsConfig holds SSE broadcasting settings.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 1420,
			},
		},
		Data: DataConfig{
			Mode:        string(datadir.ModeProduction),
			ManifestDir: ".",
			AppName:     "cravetown",
		},
		Versions: VersionsConfig{
			CreatePolicy: versions.PolicyOverwrite,
		},
		Catalog: CatalogConfig{
			Path:  "./cravetown.db",
			Watch: true,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
