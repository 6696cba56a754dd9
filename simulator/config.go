package simulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/iqrfdash/core/model"
)

// Config holds parameters for the gateway simulator.
type Config struct {
	DeviceID            string        `json:"device_id"`
	TemperatureInterval time.Duration `json:"temperature_interval"`
	BaseTemperature     float64       `json:"base_temperature"`
	Jitter              float64       `json:"jitter"`
	LowPower            bool          `json:"low_power"`
	ResponseDelay       time.Duration `json:"response_delay"`
	FailureRate         float64       `json:"failure_rate"`
	FailureCode         string        `json:"failure_code"`
	DropRate            float64       `json:"drop_rate"`
	Workers             int           `json:"workers"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TemperatureInterval <= 0 {
		c.TemperatureInterval = 5 * time.Second
	}
	if c.BaseTemperature == 0 {
		c.BaseTemperature = 22
	}
	if c.FailureCode == "" {
		c.FailureCode = string(model.RCodeErrorFail)
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
}

// Validate checks rates and the failure code.
func (c Config) Validate() error {
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure_rate %v out of [0,1]", c.FailureRate)
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("drop_rate %v out of [0,1]", c.DropRate)
	}
	if c.Jitter < 0 {
		return errors.New("jitter must not be negative")
	}
	if rc := model.RCode(c.FailureCode); c.FailureCode != "" && (rc.OK() || !rc.Known()) {
		return fmt.Errorf("failure_code %q is not a DPA error code", c.FailureCode)
	}
	return nil
}
