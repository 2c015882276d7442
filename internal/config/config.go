package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Player   PlayerConfig   `mapstructure:"player"`
	Playback PlaybackConfig `mapstructure:"playback"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds feed server configuration
type ServerConfig struct {
	URL      string `mapstructure:"url"`       // Miniflux-compatible server URL
	Token    string `mapstructure:"token"`     // API token
	ClientID string `mapstructure:"client_id"` // stable installation id, generated on first run
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`    // mpv binary
	Args      []string `mapstructure:"args"`       // extra args for every launch
	SocketDir string   `mapstructure:"socket_dir"` // IPC socket directory, temp dir when empty
}

// PlaybackConfig holds playback behavior settings
type PlaybackConfig struct {
	RecentLimit int `mapstructure:"recent_limit"` // queue size cap for play-all-recent
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme       string `mapstructure:"theme"`
	ShowRead    bool   `mapstructure:"show_read"`     // include read entries in lists
	EntryLimit  int    `mapstructure:"entry_limit"`   // entries fetched per feed
	CacheMaxAge int64  `mapstructure:"cache_max_age"` // seconds before a cached list refetches
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{},
		Player: PlayerConfig{
			Command: "mpv",
		},
		Playback: PlaybackConfig{
			RecentLimit: 25,
		},
		UI: UIConfig{
			Theme:       "default",
			ShowRead:    false,
			EntryLimit:  100,
			CacheMaxAge: 300,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rill", "rill.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "rill", "rill.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rill")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "rill")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "rill", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "rill", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("RILL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// First run: mint the installation id and persist it.
	if cfg.Server.ClientID == "" {
		cfg.Server.ClientID = uuid.NewString()
		if err := SaveConfig(cfg); err != nil {
			// Not fatal; the id just won't be stable until a save works.
			return cfg, nil
		}
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.token", cfg.Server.Token)
	viper.Set("server.client_id", cfg.Server.ClientID)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)
	viper.Set("player.socket_dir", cfg.Player.SocketDir)

	viper.Set("playback.recent_limit", cfg.Playback.RecentLimit)

	viper.Set("ui.theme", cfg.UI.Theme)
	viper.Set("ui.show_read", cfg.UI.ShowRead)
	viper.Set("ui.entry_limit", cfg.UI.EntryLimit)
	viper.Set("ui.cache_max_age", cfg.UI.CacheMaxAge)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// CachePath returns the cache directory path
func CachePath() string {
	return defaultCachePath()
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
