package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration from three sources in priority order:
// 1. Default values
// 2. The configuration file, when path is non-empty (swapd.toml)
// 3. Environment variables (SWAPD_ prefix, dots become underscores)
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		if err := loadFile(v, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	v.SetEnvPrefix("SWAPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// LoadDefault builds the configuration without a file.
func LoadDefault() (*Config, error) {
	return Load("")
}

func loadFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", path)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}
