package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server and its collaborators.
type ServerConfig struct {
	ApiAddr         string `json:"api_addr"`
	LogLevel        string `json:"log_level"`
	DatabasePath    string `json:"database_path"`
	ImportSourceDir string `json:"import_source_dir"`
	ImportOutputDir string `json:"import_output_dir"`
	WatchImports    bool   `json:"watch_imports"`
	SparqlEndpoint  string `json:"sparql_endpoint"`
	SparqlToken     string `json:"sparql_token"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig      `json:"server_config"`
	Wikitext *wikitext.Settings `json:"wikitext_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:         ":7280",
		LogLevel:        "info",
		DatabasePath:    "./data/wikitext.db?_journal_mode=WAL&_busy_timeout=5000",
		ImportSourceDir: "./data/documents",
		ImportOutputDir: "",
		WatchImports:    false,
		SparqlEndpoint:  "",
		SparqlToken:     "",
	}
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	settings := wikitext.DefaultSettings()
	return &Config{
		Server:   DefaultServerConfig(),
		Wikitext: &settings,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// A file with the sections removed still gets usable values.
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Wikitext == nil {
		settings := wikitext.DefaultSettings()
		config.Wikitext = &settings
	}

	return config, nil
}

// ConfigManager handles thread-safe access to the configuration and keeps the
// process-wide wikitext settings in line with it.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	cm := &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}
	applySettings(*cfg.Wikitext)

	return cm, nil
}

// SetLogger replaces the manager's logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server := *cm.config.Server
	settings := *cm.config.Wikitext
	return Config{Server: &server, Wikitext: &settings}
}

// Update replaces the configuration, saves it to disk and applies the
// wikitext settings immediately. Server settings take effect on restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if newConfig.Server == nil || newConfig.Wikitext == nil {
		return fmt.Errorf("config must contain both server_config and wikitext_config")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	server := *newConfig.Server
	settings := *newConfig.Wikitext
	cm.config = &Config{Server: &server, Wikitext: &settings}
	applySettings(settings)

	return cm.save()
}

// UpdateWikitext merges o into the wikitext settings, persists the result and
// returns it.
func (cm *ConfigManager) UpdateWikitext(o wikitext.Overrides) (wikitext.Settings, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	merged := cm.config.Wikitext.Merge(o)
	cm.config.Wikitext = &merged
	applySettings(merged)

	cm.logger.Info("Wikitext settings updated",
		slog.String("arraymap_separator", merged.ArraymapSeparator),
		slog.String("indent", merged.WikitextIndent),
		slog.String("linebreak", merged.WikitextLinebreak),
	)
	return merged, cm.save()
}

// save writes the configuration to disk. The caller must hold mu.
func (cm *ConfigManager) save() error {
	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applySettings makes s the process-wide wikitext settings. Every field is
// overridden, so nothing of the previous settings survives.
func applySettings(s wikitext.Settings) {
	wikitext.SetSettings(wikitext.Overrides{
		ArraymapSeparator: &s.ArraymapSeparator,
		WikitextIndent:    &s.WikitextIndent,
		WikitextLinebreak: &s.WikitextLinebreak,
	})
}
