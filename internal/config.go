package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Posts  PostsConfig       `yaml:"posts"`
	Render RenderConfig      `yaml:"render"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Posts.Validate(); err != nil {
		return fmt.Errorf("posts: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return c.Auth.Validate()
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

// PostsConfig describes where posts and their images live and how often
// they are re-read.
type PostsConfig struct {
	Path       string        `yaml:"path"`
	Pattern    string        `yaml:"pattern"`
	AssetsPath string        `yaml:"assets_path"`
	Refresh    string        `yaml:"refresh"`
	TTL        time.Duration `yaml:"ttl"`
	CacheSize  int           `yaml:"cache_size"`
}

// Validate validates the posts configuration.
func (c *PostsConfig) Validate() error {
	if c.Refresh == "" {
		c.Refresh = string(content.RefreshAlways)
	}
	if c.Pattern == "" {
		c.Pattern = storage.DefaultPattern
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Pattern, validation.By(validPattern)),
		validation.Field(&c.Refresh, validation.In(string(content.RefreshAlways), string(content.RefreshTTL))),
		validation.Field(&c.TTL, validation.When(c.Refresh == string(content.RefreshTTL), validation.Required), validation.Min(time.Duration(0))),
		validation.Field(&c.CacheSize, validation.Min(0)),
	)
}

func validPattern(value any) error {
	s, _ := value.(string)
	if !doublestar.ValidatePattern(s) {
		return errors.New("invalid glob pattern")
	}
	return nil
}

// RenderConfig configures markdown rendering.
type RenderConfig struct {
	Extensions []string `yaml:"extensions"`
	UnsafeHTML bool     `yaml:"unsafe_html"`
	HardWraps  bool     `yaml:"hard_wraps"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Extensions, validation.Each(validation.By(knownExtension))),
	)
}

func knownExtension(value any) error {
	s, _ := value.(string)
	if !render.KnownExtension(s) {
		return fmt.Errorf("unknown extension %q", s)
	}
	return nil
}

// Options converts the section into renderer options.
func (c *RenderConfig) Options() render.Options {
	return render.Options{
		Extensions: c.Extensions,
		UnsafeHTML: c.UnsafeHTML,
		HardWraps:  c.HardWraps,
	}
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

// AuthConfig holds authentication configuration for the admin routes.
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
				Port: 8080,
			},
		},
		Posts: PostsConfig{
			Path:       "./posts",
			Pattern:    storage.DefaultPattern,
			AssetsPath: "./public/images",
			Refresh:    string(content.RefreshAlways),
			TTL:        content.DefaultTTL,
			CacheSize:  content.DefaultCacheSize,
		},
		Render: RenderConfig{
			Extensions: render.DefaultExtensions,
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
