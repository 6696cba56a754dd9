package model

// BaseName identifies the demo device in every envelope published by the dashboard.
const BaseName = "urn:dev:mid:8100543A"

// DPA direction markers carried in DeviceReport.DPA.
const (
	DPARequest  = "req"
	DPAResponse = "resp"
)

// Envelope is the JSON payload exchanged with the gateway: one semantic event
// and one IQRF device report.
type Envelope struct {
	E    []Event        `json:"e"`
	IQRF []DeviceReport `json:"iqrf"`
	BN   string         `json:"bn"`
}

// Event is the semantic part of an envelope. V is set for sensor readings and
// SV for actuator state.
type Event struct {
	N  string   `json:"n"`
	U  string   `json:"u,omitempty"`
	V  *float64 `json:"v,omitempty"`
	SV string   `json:"sv,omitempty"`
}

// DeviceReport carries the DPA transaction details for an event.
type DeviceReport struct {
	PID      int    `json:"pid"`
	DPA      string `json:"dpa"`
	NAdr     int    `json:"nadr"`
	PNum     int    `json:"pnum"`
	PCmd     string `json:"pcmd"`
	HWPID    int    `json:"hwpid"`
	RCode    string `json:"rcode,omitempty"`
	DPAValue *int   `json:"dpavalue,omitempty"`
}

// FirstEvent returns e[0] when present.
func (e Envelope) FirstEvent() (Event, bool) {
	if len(e.E) == 0 {
		return Event{}, false
	}
	return e.E[0], true
}

// FirstReport returns iqrf[0] when present.
func (e Envelope) FirstReport() (DeviceReport, bool) {
	if len(e.IQRF) == 0 {
		return DeviceReport{}, false
	}
	return e.IQRF[0], true
}

// Command is an encoded outbound LED request.
type Command struct {
	Actuator Actuator `json:"actuator"`
	Action   Action   `json:"action"`
	PID      int      `json:"pid"`
	Topic    string   `json:"topic,omitempty"`
	Payload  []byte   `json:"-"`
}
