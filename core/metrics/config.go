package metrics

import (
	"errors"
	"fmt"
	"net"

	"github.com/kilianp07/iqrfdash/core/factory"
)

// Config selects where dashboard traffic is recorded. PrometheusPort is the
// listen address of the /metrics endpoint, e.g. ":2112"; empty disables it.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort string                 `json:"prometheus_port"`
}

// Validate checks that every sink names a type and that the endpoint address
// parses.
func (c Config) Validate() error {
	var errs []error
	for i, s := range c.Sinks {
		if s.Type == "" {
			errs = append(errs, fmt.Errorf("sinks[%d]: type required", i))
		}
	}
	if c.PrometheusPort != "" {
		if _, _, err := net.SplitHostPort(c.PrometheusPort); err != nil {
			errs = append(errs, fmt.Errorf("prometheus_port %q: %w", c.PrometheusPort, err))
		}
	}
	return errors.Join(errs...)
}
