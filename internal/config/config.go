// Package config provides configuration management for the journal application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Storage Storage `mapstructure:"storage"`
	Remote  Remote  `mapstructure:"remote"`
	Backup  Backup  `mapstructure:"backup"`
	Logging Logging `mapstructure:"logging"`
}

// Storage holds local persistence configuration.
type Storage struct {
	// Path to the SQLite database backing the local collection store.
	DBPath string `mapstructure:"db_path"`
}

// Remote holds cloud sync configuration. When the Redis address is empty
// the application runs local-only; sign-in requires a reachable remote.
type Remote struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	// Identity is the remote owner identity used by `sync signin` when no
	// identity argument is given.
	Identity string `mapstructure:"identity"`
}

// Backup holds export/import configuration.
type Backup struct {
	// Dir is where auto-exports and `backup export` files are written.
	Dir string `mapstructure:"dir"`
}

// Logging holds logging configuration.
type Logging struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradevault"
	}
	return filepath.Join(home, ".config", "tradevault")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// First run: write a template so the user has something to edit.
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADEVAULT_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("TRADEVAULT_REDIS_ADDR"); v != "" {
		cfg.Remote.RedisAddr = v
	}
	if v := os.Getenv("TRADEVAULT_REDIS_PASSWORD"); v != "" {
		cfg.Remote.RedisPassword = v
	}
	if v := os.Getenv("TRADEVAULT_IDENTITY"); v != "" {
		cfg.Remote.Identity = v
	}
	if v := os.Getenv("TRADEVAULT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(configDir, "tradevault.db")
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(configDir, "backups")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	if c.Remote.RedisDB < 0 {
		return fmt.Errorf("invalid redis db %d", c.Remote.RedisDB)
	}
	return nil
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	template := `# tradevault configuration

[storage]
# db_path = "~/.config/tradevault/tradevault.db"

[remote]
# redis_addr = "localhost:6379"
# redis_password = ""
# redis_db = 0
# identity = "you@example.com"

[backup]
# dir = "~/.config/tradevault/backups"

[logging]
level = "info"
console = true
file = true
`

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(template), 0644)
}
