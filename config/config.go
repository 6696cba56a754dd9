// Package config loads the service configuration from a yaml or json file
// with K_ prefixed environment overrides (K_MQTT__BROKER sets mqtt.broker).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/infra/monitoring"
	"github.com/kilianp07/iqrfdash/infra/mqtt"
	"github.com/kilianp07/iqrfdash/simulator"
)

type Config struct {
	MQTT      mqtt.Config       `json:"mqtt"`
	Gateway   GatewayConfig     `json:"gateway"`
	Dashboard DashboardConfig   `json:"dashboard"`
	HTTP      HTTPConfig        `json:"http"`
	History   history.Config    `json:"history"`
	Metrics   metrics.Config    `json:"metrics"`
	Sentry    monitoring.Config `json:"sentry"`
	Simulator simulator.Config  `json:"simulator"`
	Log       LogConfig         `json:"log"`
}

// Load reads path (when not empty), applies environment overrides, fills
// defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Gateway.SetDefaults()
	c.Dashboard.SetDefaults()
	c.HTTP.SetDefaults()
	c.History.SetDefaults()
	c.Simulator.SetDefaults()
	c.Log.SetDefaults()
	if c.Simulator.DeviceID == "" {
		c.Simulator.DeviceID = c.Gateway.DeviceID
	}
}

// Validate joins the errors of every section.
func (c Config) Validate() error {
	errs := []error{c.MQTT.Validate(), c.History.Validate()}
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("dashboard", c.Dashboard.Validate())
	add("simulator", c.Simulator.Validate())
	add("metrics", c.Metrics.Validate())
	add("log", c.Log.Validate())
	return errors.Join(errs...)
}
