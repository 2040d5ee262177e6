package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"store": map[string]interface{}{
			"path":   "",
			"driver": "sqlite3",
			"watch":  true,
		},
		"reminders": map[string]interface{}{
			"enabled":       true,
			"lead":          "30m",
			"poll_interval": "15s",
		},
		"ui": map[string]interface{}{
			"theme":  "dark",
			"recent": 3,
		},
		"log": map[string]interface{}{
			"level": "info",
			"file":  "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

// GetDefaultConfigPath returns $XDG_CONFIG_HOME/taskmate/config.yaml, falling
// back to ~/.config.
func GetDefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "taskmate", "config.yaml")
}

// GetDefaultLogPath returns $XDG_STATE_HOME/taskmate/taskmate.log
func GetDefaultLogPath() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), "taskmate", "taskmate.log")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return expandPath(filepath.Join("~", fallback))
}
