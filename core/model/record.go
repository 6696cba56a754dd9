package model

// SemanticTemperature is the event name used by thermometer reports.
const SemanticTemperature = "temperature"

// RecordKind classifies a decoded message.
type RecordKind int

const (
	KindUnrecognized RecordKind = iota
	KindTemperature
	KindActuator
)

func (k RecordKind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindActuator:
		return "actuator"
	default:
		return "unrecognized"
	}
}

// Record is the result of decoding an inbound envelope.
type Record interface {
	Kind() RecordKind
	RoutingKey() string
}

// TemperatureReading is a thermometer value routed to the standard or the
// low-power display slot.
type TemperatureReading struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit,omitempty"`
	Variant Variant `json:"variant"`
	Topic   string  `json:"topic"`
}

func (TemperatureReading) Kind() RecordKind     { return KindTemperature }
func (r TemperatureReading) RoutingKey() string { return r.Topic }

// ActuatorReport is an LED state report. An empty RCode means the report
// carried no result code and must not change any displayed state.
type ActuatorReport struct {
	Actuator Actuator `json:"actuator"`
	Action   Action   `json:"action"`
	RCode    RCode    `json:"rcode,omitempty"`
	PID      int      `json:"pid"`
	DPAValue *int     `json:"dpavalue,omitempty"`
	Variant  Variant  `json:"variant"`
	Topic    string   `json:"topic"`
}

func (ActuatorReport) Kind() RecordKind     { return KindActuator }
func (r ActuatorReport) RoutingKey() string { return r.Topic }

// Handled reports whether the report carries a result code.
func (r ActuatorReport) Handled() bool { return r.RCode != "" }

// Unrecognized is any envelope whose semantic name is not handled.
type Unrecognized struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

func (Unrecognized) Kind() RecordKind     { return KindUnrecognized }
func (r Unrecognized) RoutingKey() string { return r.Topic }
