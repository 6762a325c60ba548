package config

import (
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator"
	"github.com/spf13/viper"
)

var Validate = validator.New()

type Config struct {
	ServerPort    int    `mapstructure:"SERVER_PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
}

func Load() (*Config, error) {
	viper.SetDefault("SERVER_PORT", 3000)

	viper.SetEnvPrefix("MS")
	viper.AutomaticEnv()

	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("SESSION_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/medisync/")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if key, err := base64.StdEncoding.DecodeString(cfg.SessionSecret); err != nil || len(key) != 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be a base64-encoded 32-byte key")
	}

	return &cfg, nil
}
