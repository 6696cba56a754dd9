package config

import (
	"github.com/rs/zerolog"
)

// LogConfig sets the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	_, err := zerolog.ParseLevel(c.Level)
	return err
}
