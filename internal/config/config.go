package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Sync          SyncConfig          `toml:"sync"`
	Kaggle        KaggleConfig        `toml:"kaggle"`
	GitHub        GitHubConfig        `toml:"github"`
	Notifications NotificationsConfig `toml:"notifications"`
	Watch         WatchConfig         `toml:"watch"`
}

// Duration lets TOML strings like "30s" decode into a duration field.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// SyncConfig holds the knobs of the sync loop
type SyncConfig struct {
	Visibility     string   `toml:"visibility"`      // "public" or "private", consulted at repository creation
	MaxAttempts    int      `toml:"max_attempts"`    // per-operation attempt bound, clamped to 1..5
	Parallel       int      `toml:"parallel"`        // notebooks in flight, 1 = strictly sequential
	RequestTimeout Duration `toml:"request_timeout"` // cap on any single API call
}

// Private reports whether created repositories should be private
func (c SyncConfig) Private() bool {
	return c.Visibility == "private"
}

// KaggleConfig holds source platform settings
type KaggleConfig struct {
	User     string `toml:"user"`      // defaults to the credential username
	PageSize int    `toml:"page_size"` // listing page size
}

// GitHubConfig holds target platform settings
type GitHubConfig struct {
	Owner string `toml:"owner"` // defaults to the token's authenticated user
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WatchConfig holds the schedule for repeated runs
type WatchConfig struct {
	Cron string `toml:"cron"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Visibility:     "public",
			MaxAttempts:    4,
			Parallel:       1,
			RequestTimeout: Duration(30 * time.Second),
		},
		Kaggle: KaggleConfig{
			PageSize: 100,
		},
		Watch: WatchConfig{
			Cron: "@hourly",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Sync.Visibility = strings.ToLower(c.Sync.Visibility)
	switch c.Sync.Visibility {
	case "public", "private":
	default:
		return fmt.Errorf("sync.visibility must be %q or %q, got %q", "public", "private", c.Sync.Visibility)
	}

	// The retry bound is deliberately small; anything above 5 only delays
	// the failure verdict.
	if c.Sync.MaxAttempts < 1 {
		c.Sync.MaxAttempts = 1
	}
	if c.Sync.MaxAttempts > 5 {
		c.Sync.MaxAttempts = 5
	}

	if c.Sync.Parallel < 1 {
		c.Sync.Parallel = 1
	}
	if c.Sync.RequestTimeout <= 0 {
		c.Sync.RequestTimeout = Duration(30 * time.Second)
	}
	if c.Kaggle.PageSize < 1 || c.Kaggle.PageSize > 100 {
		c.Kaggle.PageSize = 100
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kaggle-sync", "config.toml")
}
