package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownActuator is returned for LED codes other than r/g (or ledr/ledg).
	ErrUnknownActuator = errors.New("unknown actuator")
	// ErrUnknownAction is returned for actions other than on/off/pulse.
	ErrUnknownAction = errors.New("unknown action")
)

// Actuator names an LED on the demo node.
type Actuator string

const (
	ActuatorRed   Actuator = "ledr"
	ActuatorGreen Actuator = "ledg"
)

// Actuators lists every LED in display order.
var Actuators = []Actuator{ActuatorRed, ActuatorGreen}

// ParseActuator accepts the short button codes ("r", "g") as well as the
// semantic names used on the wire.
func ParseActuator(s string) (Actuator, error) {
	switch s {
	case "r", string(ActuatorRed):
		return ActuatorRed, nil
	case "g", string(ActuatorGreen):
		return ActuatorGreen, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownActuator, s)
	}
}

// IsActuator reports whether the semantic name n refers to an LED.
func IsActuator(n string) bool {
	return n == string(ActuatorRed) || n == string(ActuatorGreen)
}

// Action is the requested or reported LED state.
type Action string

const (
	ActionOn    Action = "on"
	ActionOff   Action = "off"
	ActionPulse Action = "pulse"
)

// ParseAction validates an LED action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionOn, ActionOff, ActionPulse:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Variant distinguishes the standard network from the low-power one.
type Variant int

const (
	VariantStandard Variant = iota
	VariantLowPower
)

func (v Variant) String() string {
	if v == VariantLowPower {
		return "lp"
	}
	return "std"
}

// MarshalText encodes the variant as "std" or "lp".
func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText accepts "std" and "lp".
func (v *Variant) UnmarshalText(b []byte) error {
	switch string(b) {
	case "lp":
		*v = VariantLowPower
	case "std", "":
		*v = VariantStandard
	default:
		return fmt.Errorf("unknown variant %q", string(b))
	}
	return nil
}
