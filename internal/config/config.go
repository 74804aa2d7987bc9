// Package config loads the engine configuration from defaults, an optional
// JSON or YAML file and CHESSHASH_* environment variables, in increasing
// order of priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CHESSHASH_"

// Config keys.
const (
	KeyHash       = "hash"
	KeyThreads    = "threads"
	KeyLogLevel   = "log-level"
	KeyLogHandler = "log-handler"
	KeyDataDir    = "data-dir"
	KeyPersist    = "persist"
)

// ErrInvalid is returned for a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the engine configuration.
type Config struct {
	Hash       int    `koanf:"hash"`
	Threads    int    `koanf:"threads"`
	LogLevel   string `koanf:"log-level"`
	LogHandler string `koanf:"log-handler"`
	DataDir    string `koanf:"data-dir"`
	Persist    bool   `koanf:"persist"`

	explicit map[string]bool
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		KeyHash:       16,
		KeyThreads:    1,
		KeyLogLevel:   "info",
		KeyLogHandler: "dev",
		KeyDataDir:    "",
		KeyPersist:    true,
	}
}

// Load builds the configuration. If path is empty the standard locations are
// searched for chesshash.json, chesshash.yaml or chesshash.yml.
func Load(path string, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	// Values set by the user, kept apart so callers can tell them from defaults
	user := koanf.New(".")
	if path != "" {
		if err := loadFile(user, path); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		log.Info("using config", "file", path)
	} else if found := findFile(log); found != "" {
		if err := loadFile(user, found); err != nil {
			log.Warn("error reading config file", "file", found, "error", err)
		} else {
			log.Info("using config", "file", found)
		}
	}

	if err := user.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := k.Merge(user); err != nil {
		return nil, fmt.Errorf("config: merge: %w", err)
	}

	cfg := &Config{explicit: make(map[string]bool)}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	for _, key := range user.Keys() {
		cfg.explicit[key] = true
	}
	return cfg, cfg.Validate()
}

// envKey maps CHESSHASH_LOG_LEVEL to log-level.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "_", "-"))
}

func loadFile(k *koanf.Koanf, path string) error {
	ext := filepath.Ext(path)

	var parser koanf.Parser
	switch ext {
	case ".json":
		parser = json.Parser()
	default:
		parser = yaml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		// Files without an extension may still be JSON
		if ext == "" {
			if err := k.Load(file.Provider(path), json.Parser()); err != nil {
				return fmt.Errorf("config file must be JSON or YAML: %w", err)
			}
			return nil
		}
		return err
	}
	return nil
}

var configNames = []string{"chesshash.json", "chesshash.yaml", "chesshash.yml"}

// findFile returns the first config file in the current directory or
// ~/.config/chesshash, or "".
func findFile(log *slog.Logger) string {
	var dirs []string
	if cwd, err := os.Getwd(); err != nil {
		log.Warn("error getting current directory", "error", err)
	} else {
		dirs = append(dirs, cwd)
	}
	if home, err := os.UserHomeDir(); err != nil {
		log.Debug("error getting home directory", "error", err)
	} else {
		dirs = append(dirs, filepath.Join(home, ".config", "chesshash"))
	}

	for _, dir := range dirs {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Hash < 1 {
		return fmt.Errorf("%w: hash %d", ErrInvalid, c.Hash)
	}
	if c.Threads < 1 {
		return fmt.Errorf("%w: threads %d", ErrInvalid, c.Threads)
	}
	return nil
}

// Explicit reports whether key was set by a file or the environment rather
// than taken from the defaults.
func (c *Config) Explicit(key string) bool {
	return c.explicit[key]
}
