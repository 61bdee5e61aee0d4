package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/CTAG07/Sundew/pkg/markdown"
	"github.com/CTAG07/Sundew/pkg/templating"
	"github.com/natefinch/atomic"
)

// BuildConfig holds the settings for site builds.
type BuildConfig struct {
	LogLevel       string `json:"log_level"`
	SiteDir        string `json:"site_dir"`
	OutputDir      string `json:"output_dir"`
	ManifestPath   string `json:"manifest_path"`
	MarkdownEngine string `json:"markdown_engine"`
	CopyAssets     bool   `json:"copy_assets"`
	SkipUnchanged  bool   `json:"skip_unchanged"`
}

// ServerConfig holds the settings for the preview server.
type ServerConfig struct {
	Addr       string `json:"addr"`
	Watch      bool   `json:"watch"`
	DebounceMs int    `json:"debounce_ms"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Build     *BuildConfig               `json:"build_config"`
	Server    *ServerConfig              `json:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
}

// DefaultBuildConfig creates a build configuration with default values.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		LogLevel:       "info",
		SiteDir:        ".",
		OutputDir:      "./public",
		ManifestPath:   "./sundew_manifest.db?_journal_mode=WAL&_busy_timeout=5000",
		MarkdownEngine: markdown.EngineClassic,
		CopyAssets:     true,
		SkipUnchanged:  true,
	}
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:       "127.0.0.1:7280",
		Watch:      false,
		DebounceMs: 300,
	}
}

// DefaultConfig returns the configuration written when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Build:     DefaultBuildConfig(),
		Server:    DefaultServerConfig(),
		Templates: templating.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("failed to write default config file: %w", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.fillDefaults()
	return config, nil
}

// fillDefaults replaces sections missing from the file with their defaults.
func (c *Config) fillDefaults() {
	if c.Build == nil {
		c.Build = DefaultBuildConfig()
	}
	if c.Server == nil {
		c.Server = DefaultServerConfig()
	}
	if c.Templates == nil {
		c.Templates = templating.DefaultConfig()
	}
	if c.Server.DebounceMs <= 0 {
		c.Server.DebounceMs = DefaultServerConfig().DebounceMs
	}
}

// ConfigManager handles thread-safe access to the configuration shared by
// the build loop and the API handlers.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager wraps an already loaded config.
func NewConfigManager(config *Config, path string, logger *slog.Logger) *ConfigManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConfigManager{config: config, configPath: path, logger: logger}
}

// Get returns a copy of the current configuration. Sections are copied too.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	build, server, tmpl := *cm.config.Build, *cm.config.Server, *cm.config.Templates
	return Config{Build: &build, Server: &server, Templates: &tmpl}
}

// Update replaces the configuration and saves it to disk. Changes to the
// build settings apply on the next restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	newConfig.fillDefaults()
	data, err := json.MarshalIndent(&newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	*cm.config = newConfig
	cm.logger.Info("Configuration updated", "path", cm.configPath)
	return nil
}

// parseLogLevel maps a config level name to a slog level. Unknown names
// select info.
func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
