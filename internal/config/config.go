package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix marks environment overrides. A double underscore nests, so
// TASKMATE_REMINDERS__LEAD sets reminders.lead.
const EnvPrefix = "TASKMATE_"

// Theme names
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Reminders RemindersConfig `koanf:"reminders"`
	UI        UIConfig        `koanf:"ui"`
	Log       LogConfig       `koanf:"log"`
}

type StoreConfig struct {
	Path   string `koanf:"path"`   // empty means $XDG_DATA_HOME/taskmate/taskmate.db
	Driver string `koanf:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Watch  bool   `koanf:"watch"`
}

type RemindersConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Lead         time.Duration `koanf:"lead"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

type UIConfig struct {
	Theme  string `koanf:"theme"`
	Recent int    `koanf:"recent"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// Load layers defaults, the YAML file at configPath (if it exists) and the
// environment. An empty configPath uses GetDefaultConfigPath.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	configPath = expandPath(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	if cfg.Log.File == "" {
		cfg.Log.File = GetDefaultLogPath()
	}

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unknown store driver: %s (supported: sqlite3, sqlite)", c.Store.Driver)
	}

	if c.Reminders.Lead <= 0 {
		return fmt.Errorf("reminders.lead must be positive")
	}
	if c.Reminders.PollInterval <= 0 {
		return fmt.Errorf("reminders.poll_interval must be positive")
	}

	if c.UI.Theme != ThemeLight && c.UI.Theme != ThemeDark {
		return fmt.Errorf("unknown theme: %s (supported: %s, %s)", c.UI.Theme, ThemeLight, ThemeDark)
	}
	if c.UI.Recent < 0 {
		return fmt.Errorf("ui.recent must not be negative")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	return path
}
