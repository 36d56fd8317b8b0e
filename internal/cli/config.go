package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/whale/viewer"
	"github.com/tailscale/hujson"
)

// ConfigFileName is the default config file name.
const ConfigFileName = ".whalectl.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config")
)

// Config holds all configuration options.
type Config struct {
	Store       string `json:"store"`
	Compression string `json:"compression,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
	LogLevel    string `json:"log_level,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Store:       "file://.whale",
		Compression: "none",
		Timeout:     "30s",
		LogLevel:    "warn",
	}
}

// Settings is a validated Config.
type Settings struct {
	Store       string
	Compression viewer.Compression
	Timeout     time.Duration
	LogLevel    slog.Level
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Config file (.whalectl.json in workDir, or configPath if non-empty)
// 3. CLI overrides (non-empty fields of overrides).
//
// It returns the merged config and the path of the loaded file, if any.
func LoadConfig(workDir, configPath string, overrides Config) (Config, string, error) {
	cfg := DefaultConfig()

	fileCfg, path, err := loadConfigFile(workDir, configPath)
	if err != nil {
		return Config{}, "", err
	}

	cfg = mergeConfig(cfg, fileCfg)
	cfg = mergeConfig(cfg, overrides)

	return cfg, path, nil
}

func loadConfigFile(workDir, configPath string) (Config, string, error) {
	path := configPath
	mustExist := path != ""
	if !mustExist {
		path = ConfigFileName
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
			}
			return Config{}, "", nil
		}
		return Config{}, "", fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, path, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Store != "" {
		base.Store = overlay.Store
	}
	if overlay.Compression != "" {
		base.Compression = overlay.Compression
	}
	if overlay.Timeout != "" {
		base.Timeout = overlay.Timeout
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	return base
}

// Validate parses the fields of cfg.
func (cfg Config) Validate() (Settings, error) {
	var s Settings

	if strings.TrimSpace(cfg.Store) == "" {
		return Settings{}, fmt.Errorf("%w: store is empty", errConfigInvalid)
	}
	s.Store = cfg.Store

	c, err := viewer.ParseCompression(cfg.Compression)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	s.Compression = c

	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: timeout: %w", errConfigInvalid, err)
		}
		if d < 0 {
			return Settings{}, fmt.Errorf("%w: negative timeout %s", errConfigInvalid, cfg.Timeout)
		}
		s.Timeout = d
	}

	if err := s.LogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return Settings{}, fmt.Errorf("%w: log_level: %w", errConfigInvalid, err)
	}

	return s, nil
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
