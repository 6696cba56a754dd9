// Package topics holds the fixed routing keys used by the IQRF demo gateway.
//
// Each key exists in a standard and a low-power variant; the low-power keys
// carry "lp" as their second path segment:
//
//	<device>/sensors/thermometers     <device>/lp/sensors/thermometers
//	<device>/actuators/leds           <device>/lp/actuators/leds
//	<device>/asynchronous/responses   <device>/lp/asynchronous/responses
package topics

import (
	"strings"

	"github.com/kilianp07/iqrfdash/core/model"
)

const (
	// DefaultDeviceID is the gateway identifier used as topic prefix.
	DefaultDeviceID = "b827eb26c73d"
	// QoS is used for every subscription and publication.
	QoS byte = 2
	// LowPowerSegment marks the low-power network in a routing key.
	LowPowerSegment = "lp"

	thermometers = "sensors/thermometers"
	leds         = "actuators/leds"
	async        = "asynchronous/responses"
)

// Set builds routing keys for one gateway.
type Set struct {
	DeviceID string
}

// New returns a Set for deviceID, falling back to DefaultDeviceID.
func New(deviceID string) Set {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	return Set{DeviceID: deviceID}
}

func (s Set) key(v model.Variant, suffix string) string {
	if v == model.VariantLowPower {
		return s.DeviceID + "/" + LowPowerSegment + "/" + suffix
	}
	return s.DeviceID + "/" + suffix
}

// Thermometers returns the sensor report topic.
func (s Set) Thermometers(v model.Variant) string { return s.key(v, thermometers) }

// LEDs returns the actuator report topic.
func (s Set) LEDs(v model.Variant) string { return s.key(v, leds) }

// AsyncResponses returns the asynchronous response topic.
func (s Set) AsyncResponses(v model.Variant) string { return s.key(v, async) }

// CommandTopic is where LED commands are published.
func (s Set) CommandTopic() string { return s.LEDs(model.VariantStandard) }

// Subscriptions returns the six routing keys the dashboard listens to.
func (s Set) Subscriptions() []string {
	var out []string
	for _, v := range []model.Variant{model.VariantStandard, model.VariantLowPower} {
		out = append(out, s.Thermometers(v), s.LEDs(v), s.AsyncResponses(v))
	}
	return out
}

// VariantOf inspects the second path segment of a routing key.
func VariantOf(topic string) model.Variant {
	parts := strings.Split(topic, "/")
	if len(parts) > 1 && parts[1] == LowPowerSegment {
		return model.VariantLowPower
	}
	return model.VariantStandard
}
