// Package presentation holds the dashboard state rendered for operators:
// temperature slots, LED status and images, the pulse animation, the message
// history and the last-message table. Every change is published as an Update.
package presentation

import (
	"sync"
	"time"

	"github.com/kilianp07/iqrfdash/core/logger"
	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/internal/eventbus"
)

// DefaultStatsWindow is the number of readings kept per temperature slot.
const DefaultStatsWindow = 60

// Row is one entry of the history or last-message table.
type Row struct {
	Topic   string    `json:"topic"`
	Payload string    `json:"payload"`
	Time    time.Time `json:"time"`
	QoS     byte      `json:"qos"`
}

// TemperatureSlot is one temperature display area.
type TemperatureSlot struct {
	Variant model.Variant `json:"variant"`
	Text    string        `json:"text"`
	Value   float64       `json:"value"`
	Unit    string        `json:"unit,omitempty"`
	Time    time.Time     `json:"time"`
	Set     bool          `json:"set"`
}

// ActuatorState is the displayed state of one LED.
type ActuatorState struct {
	Actuator  model.Actuator `json:"actuator"`
	Image     string         `json:"image"`
	Status    string         `json:"status,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	RCode     model.RCode    `json:"rcode,omitempty"`
	Animating bool           `json:"animating"`
	Time      time.Time      `json:"time"`
}

// ConnectionView mirrors the session's connection status and button flags.
type ConnectionView struct {
	Status            string `json:"status"`
	Connected         bool   `json:"connected"`
	ConnectEnabled    bool   `json:"connect_enabled"`
	DisconnectEnabled bool   `json:"disconnect_enabled"`
}

// UpdateKind tells which part of the dashboard an Update carries.
type UpdateKind string

const (
	UpdateTemperature  UpdateKind = "temperature"
	UpdateActuator     UpdateKind = "actuator"
	UpdateHistory      UpdateKind = "history"
	UpdateHistoryClear UpdateKind = "history_clear"
	UpdateConnection   UpdateKind = "connection"
)

// Update is published on every dashboard change.
type Update struct {
	Kind        UpdateKind       `json:"kind"`
	Temperature *TemperatureSlot `json:"temperature,omitempty"`
	Actuator    *ActuatorState   `json:"actuator,omitempty"`
	Row         *Row             `json:"row,omitempty"`
	Connection  *ConnectionView  `json:"connection,omitempty"`
}

// Snapshot is a consistent copy of the whole dashboard.
type Snapshot struct {
	Connection   ConnectionView                    `json:"connection"`
	Temperatures map[model.Variant]TemperatureSlot `json:"temperatures"`
	Actuators    map[model.Actuator]ActuatorState  `json:"actuators"`
	Stats        map[model.Variant]Stats           `json:"stats"`
}

// Options configures a Dashboard. Zero values select the defaults.
type Options struct {
	PulsePeriod time.Duration
	StatsWindow int
	Clock       Clock
	Bus         *eventbus.TypedBus[Update]
	Logger      logger.Logger
}

// Dashboard is safe for concurrent use.
type Dashboard struct {
	mu      sync.Mutex
	clock   Clock
	period  time.Duration
	bus     *eventbus.TypedBus[Update]
	log     logger.Logger
	conn    ConnectionView
	temps   map[model.Variant]TemperatureSlot
	leds    map[model.Actuator]ActuatorState
	toggles map[model.Actuator]*toggle
	windows map[model.Variant]*window
	history []Row
	last    map[string]Row
	order   []string
}

// New creates an empty dashboard.
func New(opts Options) *Dashboard {
	if opts.PulsePeriod <= 0 {
		opts.PulsePeriod = DefaultPulsePeriod
	}
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = DefaultStatsWindow
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.NewTyped[Update]()
	}
	d := &Dashboard{
		clock:   opts.Clock,
		period:  opts.PulsePeriod,
		bus:     opts.Bus,
		log:     logger.OrNop(opts.Logger),
		temps:   map[model.Variant]TemperatureSlot{},
		leds:    map[model.Actuator]ActuatorState{},
		toggles: map[model.Actuator]*toggle{},
		windows: map[model.Variant]*window{},
		last:    map[string]Row{},
	}
	for _, v := range []model.Variant{model.VariantStandard, model.VariantLowPower} {
		d.temps[v] = TemperatureSlot{Variant: v}
		d.windows[v] = newWindow(opts.StatsWindow)
	}
	for _, a := range model.Actuators {
		d.leds[a] = ActuatorState{Actuator: a, Image: OffImage(a)}
	}
	return d
}

// Updates returns the bus carrying dashboard changes.
func (d *Dashboard) Updates() *eventbus.TypedBus[Update] { return d.bus }

// Apply renders one accepted inbound message and its decoded record. Every
// message reaches the history; only temperature readings and handled LED
// reports change the displayed state.
func (d *Dashboard) Apply(msg model.Message, rec model.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := msg.Arrived
	if at.IsZero() {
		at = d.clock.Now()
	}
	row := Row{Topic: msg.Topic, Payload: EscapePayload(msg.Payload), Time: at, QoS: msg.QoS}
	d.history = append([]Row{row}, d.history...)
	if _, ok := d.last[row.Topic]; !ok {
		d.order = append([]string{row.Topic}, d.order...)
	}
	d.last[row.Topic] = row
	d.bus.Publish(Update{Kind: UpdateHistory, Row: &row})

	switch r := rec.(type) {
	case model.TemperatureReading:
		d.applyTemperatureLocked(r, at)
	case model.ActuatorReport:
		d.applyActuatorLocked(r, at)
	case model.Unrecognized:
		d.log.Debugf("unrecognized event %q on %s", r.Name, r.Topic)
	}
}

func (d *Dashboard) applyTemperatureLocked(r model.TemperatureReading, at time.Time) {
	slot := TemperatureSlot{
		Variant: r.Variant,
		Text:    TemperatureText(r.Variant, r.Value),
		Value:   r.Value,
		Unit:    r.Unit,
		Time:    at,
		Set:     true,
	}
	d.temps[r.Variant] = slot
	d.windows[r.Variant].add(r.Value)
	d.bus.Publish(Update{Kind: UpdateTemperature, Temperature: &slot})
}

func (d *Dashboard) applyActuatorLocked(r model.ActuatorReport, at time.Time) {
	if !r.Handled() {
		return
	}
	st := d.leds[r.Actuator]
	st.Actuator = r.Actuator
	st.Time = at
	st.RCode = r.RCode
	if !r.RCode.OK() {
		st.Status = ErrorStatusText(r.RCode)
		st.Detail = r.RCode.Description()
		d.leds[r.Actuator] = st
		d.publishActuatorLocked(r.Actuator)
		return
	}
	st.Status = StatusText(r.Action)
	st.Detail = ""
	d.leds[r.Actuator] = st

	switch r.Action {
	case model.ActionPulse:
		d.startToggleLocked(r.Actuator)
		return
	case model.ActionOn:
		d.stopToggleLocked(r.Actuator)
		d.setImageLocked(r.Actuator, OnImage(r.Actuator), false)
		return
	case model.ActionOff:
		d.stopToggleLocked(r.Actuator)
		d.setImageLocked(r.Actuator, OffImage(r.Actuator), false)
		return
	}
	d.publishActuatorLocked(r.Actuator)
}

func (d *Dashboard) setImageLocked(a model.Actuator, image string, animating bool) {
	st := d.leds[a]
	st.Image = image
	st.Animating = animating
	d.leds[a] = st
	d.publishActuatorLocked(a)
}

func (d *Dashboard) publishActuatorLocked(a model.Actuator) {
	st := d.leds[a]
	d.bus.Publish(Update{Kind: UpdateActuator, Actuator: &st})
}

// CancelToggle stops the pulse animation of a, leaving the current frame in
// place. It reports whether an animation was running.
func (d *Dashboard) CancelToggle(a model.Actuator) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopToggleLocked(a) {
		return false
	}
	st := d.leds[a]
	st.Animating = false
	d.leds[a] = st
	d.publishActuatorLocked(a)
	return true
}

// Animating reports whether a pulse animation runs for a.
func (d *Dashboard) Animating(a model.Actuator) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.toggles[a]
	return ok
}

// ClearHistory empties the history table. The last-message table is kept.
func (d *Dashboard) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
	d.bus.Publish(Update{Kind: UpdateHistoryClear})
}

// SetConnection records the session's connection view.
func (d *Dashboard) SetConnection(v ConnectionView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn = v
	d.bus.Publish(Update{Kind: UpdateConnection, Connection: &v})
}

// History returns up to limit rows, newest first, optionally filtered by topic.
// A limit <= 0 returns every matching row.
func (d *Dashboard) History(topic string, limit int) []Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Row, 0, len(d.history))
	for _, r := range d.history {
		if topic != "" && r.Topic != topic {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// LastMessages returns one row per topic, most recently discovered topic first.
func (d *Dashboard) LastMessages() []Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Row, 0, len(d.order))
	for _, t := range d.order {
		out = append(out, d.last[t])
	}
	return out
}

// Stats returns the rolling statistics of the given slot.
func (d *Dashboard) Stats(v model.Variant) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[v].stats()
}

// Snapshot copies the current state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Snapshot{
		Connection:   d.conn,
		Temperatures: make(map[model.Variant]TemperatureSlot, len(d.temps)),
		Actuators:    make(map[model.Actuator]ActuatorState, len(d.leds)),
		Stats:        make(map[model.Variant]Stats, len(d.windows)),
	}
	for k, v := range d.temps {
		s.Temperatures[k] = v
	}
	for k, v := range d.leds {
		s.Actuators[k] = v
	}
	for k, w := range d.windows {
		s.Stats[k] = w.stats()
	}
	return s
}

// Close stops every running animation.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for a := range d.toggles {
		d.stopToggleLocked(a)
	}
}
