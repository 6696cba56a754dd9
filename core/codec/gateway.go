package codec

import (
	"encoding/json"
	"fmt"

	"github.com/kilianp07/iqrfdash/core/model"
)

// CelsiusUnit is the unit reported by the gateway thermometers.
const CelsiusUnit = "Cel"

// EncodeTemperature builds the envelope a gateway publishes for a thermometer
// reading. dpaValue is the raw sensor value.
func EncodeTemperature(pid int, value float64, dpaValue int) ([]byte, error) {
	v := value
	dv := dpaValue
	env := model.Envelope{
		E: []model.Event{{N: model.SemanticTemperature, U: CelsiusUnit, V: &v}},
		IQRF: []model.DeviceReport{{
			PID:      pid,
			DPA:      model.DPAResponse,
			NAdr:     ledNodeAddress,
			PNum:     thermometerPeripheral,
			PCmd:     "read",
			HWPID:    ledHWPID,
			RCode:    string(model.RCodeNoError),
			DPAValue: &dv,
		}},
		BN: model.BaseName,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode temperature: %w", err)
	}
	return b, nil
}

// EncodeResponse builds the gateway answer to an LED request envelope: the
// same event and pid, dpa set to "resp" and the given result code.
func EncodeResponse(request model.Envelope, rcode model.RCode, dpaValue int) ([]byte, error) {
	ev, ok := request.FirstEvent()
	if !ok {
		return nil, fmt.Errorf("%w: request without event", ErrMalformedPayload)
	}
	rep, _ := request.FirstReport()
	dv := dpaValue
	rep.DPA = model.DPAResponse
	rep.RCode = string(rcode)
	rep.DPAValue = &dv
	env := model.Envelope{
		E:    []model.Event{{N: ev.N, SV: ev.SV}},
		IQRF: []model.DeviceReport{rep},
		BN:   request.BN,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return b, nil
}
