package codec

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kilianp07/iqrfdash/core/model"
)

// Peripheral addressing used by the demo node.
const (
	ledNodeAddress        = 1
	ledPeripheral         = 6
	thermometerPeripheral = 10
	ledHWPID              = 0
)

// Encoder builds LED commands. Its request counter starts at zero and is
// incremented before every successful encode, so the first pid is 1.
type Encoder struct {
	mu  sync.Mutex
	pid int
}

// NewEncoder returns an Encoder with a fresh counter.
func NewEncoder() *Encoder { return &Encoder{} }

// LastPID returns the most recently issued pid, 0 when none was issued.
func (e *Encoder) LastPID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pid
}

// Encode builds the command envelope for actuator ("r", "g", "ledr" or
// "ledg") and action. Invalid input leaves the counter untouched.
func (e *Encoder) Encode(actuator, action string) (model.Command, error) {
	led, err := model.ParseActuator(actuator)
	if err != nil {
		return model.Command{}, err
	}
	act, err := model.ParseAction(action)
	if err != nil {
		return model.Command{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	pid := e.pid + 1
	env := model.Envelope{
		E: []model.Event{{N: string(led), SV: string(act)}},
		IQRF: []model.DeviceReport{{
			PID:   pid,
			DPA:   model.DPARequest,
			NAdr:  ledNodeAddress,
			PNum:  ledPeripheral,
			PCmd:  string(act),
			HWPID: ledHWPID,
		}},
		BN: model.BaseName,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return model.Command{}, fmt.Errorf("encode command: %w", err)
	}
	e.pid = pid
	return model.Command{Actuator: led, Action: act, PID: pid, Payload: payload}, nil
}
