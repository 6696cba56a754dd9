// Package codec converts between the gateway's JSON envelopes and the
// dashboard records. Decode interprets inbound reports; Encoder builds LED
// commands with a per-session request counter.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/topics"
)

// ErrMalformedPayload is returned when the payload is not a usable envelope.
var ErrMalformedPayload = errors.New("malformed payload")

// Decode parses raw as an envelope received on topic.
func Decode(topic string, raw []byte) (model.Record, error) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	ev, ok := env.FirstEvent()
	if !ok || ev.N == "" {
		return nil, fmt.Errorf("%w: missing e[0].n", ErrMalformedPayload)
	}
	variant := topics.VariantOf(topic)

	switch {
	case ev.N == model.SemanticTemperature:
		if ev.V == nil {
			return nil, fmt.Errorf("%w: temperature without value", ErrMalformedPayload)
		}
		return model.TemperatureReading{
			Value:   *ev.V,
			Unit:    ev.U,
			Variant: variant,
			Topic:   topic,
		}, nil
	case model.IsActuator(ev.N):
		rep := model.ActuatorReport{
			Actuator: model.Actuator(ev.N),
			Action:   model.Action(ev.SV),
			Variant:  variant,
			Topic:    topic,
		}
		if r, ok := env.FirstReport(); ok {
			rep.RCode = model.RCode(r.RCode)
			rep.PID = r.PID
			rep.DPAValue = r.DPAValue
		}
		return rep, nil
	default:
		return model.Unrecognized{Name: ev.N, Topic: topic}, nil
	}
}
