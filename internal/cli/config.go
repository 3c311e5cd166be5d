package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backends selectable in the config file.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
)

// Config is the user configuration loaded from
// ~/.config/skeltree/config.toml. All fields are optional; the zero value
// falls back to built-in defaults.
type Config struct {
	// Threshold is the default minimum section length for merging.
	Threshold float64 `toml:"threshold"`

	// Scale is the default output scale factor.
	Scale float64 `toml:"scale"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects and configures the conversion cache backend.
type CacheConfig struct {
	// Backend is "file" (default) or "redis".
	Backend string `toml:"backend"`

	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`

	// RedisAddr is the redis host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `toml:"addr"`

	// MongoURI enables the MongoDB morphology store when set; without it
	// stored morphologies live in process memory.
	MongoURI string `toml:"mongo_uri"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{Backend: cacheBackendFile},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// LoadConfig reads the user config file, returning defaults when none
// exists. A malformed file is an error so typos do not silently vanish.
func LoadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cacheBackendFile
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	return cfg, nil
}

// configPath returns the config file location using XDG standard
// (~/.config/skeltree/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
