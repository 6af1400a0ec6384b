package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MEDBOOK"

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Polling PollingConfig `mapstructure:"polling"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig holds booking API connection settings
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst     int           `mapstructure:"burst"`
}

// CacheConfig holds query cache tuning
type CacheConfig struct {
	StaleTime time.Duration `mapstructure:"stale_time"`
	GCTime    time.Duration `mapstructure:"gc_time"`
	Persist   bool          `mapstructure:"persist"` // keep query snapshots on disk for warm start
}

// PollingConfig holds background refetch intervals
type PollingConfig struct {
	UnreadInterval time.Duration `mapstructure:"unread_interval"`
	ChatInterval   time.Duration `mapstructure:"chat_interval"`
}

// StorageConfig holds the on-disk data location
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the metrics endpoint address
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9464", empty disables
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
			Burst:   1,
		},
		Cache: CacheConfig{
			StaleTime: 0,
			GCTime:    5 * time.Minute,
			Persist:   true,
		},
		Polling: PollingConfig{
			UnreadInterval: 30 * time.Second,
			ChatInterval:   5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "medbook.log"),
			Level: "INFO",
		},
	}
}

// IsConfigured returns true if the API base URL is set
func (c *Config) IsConfigured() bool {
	return c.API.BaseURL != ""
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "medbook")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "medbook")
	}
}

// Path returns the default config directory for the current OS
func Path() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "medbook")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "medbook")
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	return LoadFrom(Path(), ".")
}

// LoadFrom reads config.yaml from the first of dirs that has one. Environment
// variables such as MEDBOOK_API_BASE_URL override file values.
func LoadFrom(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()

	v := newViper(cfg)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default config directory
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the configuration as config.yaml under dir
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	set(v, cfg)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// newViper builds a viper instance with cfg registered as defaults. Registering
// every key is what lets AutomaticEnv see variables for keys absent from the file.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Environment variable overrides
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range fields(cfg) {
		v.SetDefault(key, value)
	}
	return v
}

func set(v *viper.Viper, cfg *Config) {
	for key, value := range fields(cfg) {
		v.Set(key, value)
	}
}

func fields(cfg *Config) map[string]any {
	return map[string]any{
		"api.base_url":            cfg.API.BaseURL,
		"api.timeout":             cfg.API.Timeout,
		"api.rate_limit":          cfg.API.RateLimit,
		"api.burst":               cfg.API.Burst,
		"cache.stale_time":        cfg.Cache.StaleTime,
		"cache.gc_time":           cfg.Cache.GCTime,
		"cache.persist":           cfg.Cache.Persist,
		"polling.unread_interval": cfg.Polling.UnreadInterval,
		"polling.chat_interval":   cfg.Polling.ChatInterval,
		"storage.data_dir":        cfg.Storage.DataDir,
		"logging.file":            cfg.Logging.File,
		"logging.level":           cfg.Logging.Level,
		"metrics.listen":          cfg.Metrics.Listen,
	}
}
