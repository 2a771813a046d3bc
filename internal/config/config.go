// Package config provides configuration types and helpers for logsift.
package config

import "github.com/spf13/viper"

// Config holds the application-wide configuration.
type Config struct {
	Format      string `mapstructure:"format"`
	Verbose     bool   `mapstructure:"verbose"`
	BaseDir     string `mapstructure:"base_dir"`
	PatternFile string `mapstructure:"pattern_file"`
}

// FromViper builds a Config from the current viper state.
func FromViper() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	return cfg, nil
}
