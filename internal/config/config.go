// Package config loads the application configuration: the shared core
// settings plus the bot's own knobs.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "collectbot/core/config"
	"collectbot/core/database"
)

// BotConfig holds collection-bot specific settings.
type BotConfig struct {
	// MaintenanceMessage is the fallback text shown while maintenance mode is
	// on and no message override is stored in settings.
	MaintenanceMessage string `yaml:"maintenance_message" envconfig:"BOT_MAINTENANCE_MESSAGE"`
}

// Config aggregates everything the bot needs to run.
type Config struct {
	Core     coreconfig.Config `yaml:",inline"`
	Database database.Config   `yaml:"database"`
	Bot      BotConfig         `yaml:"bot"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Load reads the YAML file, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Bot.MaintenanceMessage == "" {
		cfg.Bot.MaintenanceMessage = "The bot is under maintenance, please try again later."
	}
	return &cfg, nil
}
