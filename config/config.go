package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// dataDir is joined onto relative state paths when it exists, so container
// deployments keep their state on the mounted volume.
var dataDir = "/data"

type Config struct {
	ListenAddr  string  `mapstructure:"listen_addr"`
	Alpha       float64 `mapstructure:"alpha"`
	Gamma       float64 `mapstructure:"gamma"`
	Exploration float64 `mapstructure:"exploration"`
	LogLevel    string  `mapstructure:"log_level"`
	Store       Store   `mapstructure:"store"`
}

type Store struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// Load reads the optional config file at path, then lets TTT_* environment
// variables override it (TTT_ALPHA, TTT_STORE_BACKEND, ...). With an empty
// path it looks for config.yaml in the working directory and is happy to
// find nothing.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("alpha", 0.1)
	v.SetDefault("gamma", 0.9)
	v.SetDefault("exploration", 0.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "agent_state.json")
	v.SetDefault("store.flush_interval", 30*time.Second)

	v.SetEnvPrefix("TTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Store.Path = resolveStatePath(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %v", c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.Exploration < 0 || c.Exploration > 1 {
		return fmt.Errorf("exploration must be in [0, 1], got %v", c.Exploration)
	}
	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	return nil
}

// resolveStatePath keeps absolute paths as given and parks relative ones
// under dataDir when that volume exists.
func resolveStatePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if info, err := os.Stat(dataDir); err == nil && info.IsDir() {
		return filepath.Join(dataDir, path)
	}
	return path
}
