package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/iqrfdash/core/presentation"
	"github.com/kilianp07/iqrfdash/core/topics"
)

// GatewayConfig names the gateway whose topics are used.
type GatewayConfig struct {
	DeviceID string `json:"device_id"`
}

func (c *GatewayConfig) SetDefaults() {
	if c.DeviceID == "" {
		c.DeviceID = topics.DefaultDeviceID
	}
}

// DashboardConfig tunes the presentation state.
type DashboardConfig struct {
	PulsePeriod time.Duration `json:"pulse_period"`
	StatsWindow int           `json:"stats_window"`
	// AutoConnect connects to the broker at startup.
	AutoConnect bool `json:"auto_connect"`
}

func (c *DashboardConfig) SetDefaults() {
	if c.PulsePeriod <= 0 {
		c.PulsePeriod = presentation.DefaultPulsePeriod
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = presentation.DefaultStatsWindow
	}
}

func (c DashboardConfig) Validate() error {
	if c.PulsePeriod < 10*time.Millisecond {
		return fmt.Errorf("pulse_period %s is too short", c.PulsePeriod)
	}
	return nil
}

// HTTPConfig configures the dashboard API. An empty Token disables
// authentication on mutating routes.
type HTTPConfig struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}
