package presentation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/iqrfdash/core/codec"
	"github.com/kilianp07/iqrfdash/core/model"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()                  { t.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tickers {
		if t.stopped.Load() {
			continue
		}
		select {
		case t.ch <- c.now:
		default:
		}
	}
}

func (c *fakeClock) activeTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped.Load() {
			n++
		}
	}
	return n
}

func apply(t *testing.T, d *Dashboard, topic, payload string) {
	t.Helper()
	rec, err := codec.Decode(topic, []byte(payload))
	require.NoError(t, err)
	d.Apply(model.Message{Topic: topic, Payload: []byte(payload), QoS: 2}, rec)
}

func ledReport(led, action, rcode string) string {
	return `{"e":[{"n":"` + led + `","sv":"` + action + `"}],"iqrf":[{"pid":3,"dpa":"resp","nadr":1,"pnum":6,"pcmd":"` + action + `","hwpid":0,"rcode":"` + rcode + `","dpavalue":76}],"bn":"urn:dev:mid:8100543A"}`
}

func image(d *Dashboard, a model.Actuator) string {
	return d.Snapshot().Actuators[a].Image
}

func TestTemperatureStandardSlot(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	apply(t, d, "dev123/sensors/thermometers", `{"e":[{"n":"temperature","v":24.8}]}`)

	s := d.Snapshot()
	std := s.Temperatures[model.VariantStandard]
	assert.True(t, std.Set)
	assert.Equal(t, "TEMPERATURE: 24.8 °C", std.Text)
	assert.False(t, s.Temperatures[model.VariantLowPower].Set)
}

func TestTemperatureLowPowerSlot(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	apply(t, d, "dev123/lp/sensors/thermometers", `{"e":[{"n":"temperature","u":"Cel","v":19}]}`)

	s := d.Snapshot()
	assert.Equal(t, "TEMPERATURE 2: 19 °C", s.Temperatures[model.VariantLowPower].Text)
	assert.False(t, s.Temperatures[model.VariantStandard].Set)
}

func TestPulseTogglesUntilOn(t *testing.T) {
	clk := newFakeClock()
	d := New(Options{Clock: clk})
	defer d.Close()

	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "pulse", "no_error"))
	assert.Equal(t, "img/ledr-off.png", image(d, model.ActuatorRed))
	assert.True(t, d.Animating(model.ActuatorRed))
	assert.Equal(t, "STATUS: pulse", d.Snapshot().Actuators[model.ActuatorRed].Status)

	clk.Tick()
	assert.Eventually(t, func() bool { return image(d, model.ActuatorRed) == "img/ledr-on.png" }, time.Second, time.Millisecond)
	clk.Tick()
	assert.Eventually(t, func() bool { return image(d, model.ActuatorRed) == "img/ledr-off.png" }, time.Second, time.Millisecond)

	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "on", "no_error"))
	assert.False(t, d.Animating(model.ActuatorRed))
	assert.Equal(t, "img/ledr-on.png", image(d, model.ActuatorRed))
	assert.Eventually(t, func() bool { return clk.activeTickers() == 0 }, time.Second, time.Millisecond)

	clk.Tick()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, "img/ledr-on.png", image(d, model.ActuatorRed))
}

func TestPulseIsPerActuator(t *testing.T) {
	clk := newFakeClock()
	d := New(Options{Clock: clk})
	defer d.Close()

	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "pulse", "no_error"))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledg", "pulse", "no_error"))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledg", "off", "no_error"))

	assert.True(t, d.Animating(model.ActuatorRed))
	assert.False(t, d.Animating(model.ActuatorGreen))
	assert.Equal(t, "img/ledg-off.png", image(d, model.ActuatorGreen))
}

func TestRepeatedPulseKeepsOneToggle(t *testing.T) {
	clk := newFakeClock()
	d := New(Options{Clock: clk})
	defer d.Close()

	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "pulse", "no_error"))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "pulse", "no_error"))
	assert.Eventually(t, func() bool { return clk.activeTickers() == 1 }, time.Second, time.Millisecond)
}

func TestCancelToggle(t *testing.T) {
	clk := newFakeClock()
	d := New(Options{Clock: clk})

	assert.False(t, d.CancelToggle(model.ActuatorGreen))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledg", "pulse", "no_error"))
	assert.True(t, d.CancelToggle(model.ActuatorGreen))
	assert.False(t, d.Animating(model.ActuatorGreen))
	assert.False(t, d.Snapshot().Actuators[model.ActuatorGreen].Animating)
}

func TestErrorRCodeKeepsImage(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledg", "on", "no_error"))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledg", "off", "error_nadr"))

	st := d.Snapshot().Actuators[model.ActuatorGreen]
	assert.Equal(t, "STATUS: ERROR error_nadr", st.Status)
	assert.Equal(t, "Incorrect NADR", st.Detail)
	assert.Equal(t, "img/ledg-on.png", st.Image)
}

func TestErrorRCodeDuringPulseKeepsToggling(t *testing.T) {
	clk := newFakeClock()
	d := New(Options{Clock: clk})
	defer d.Close()

	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "pulse", "no_error"))
	apply(t, d, "b827eb26c73d/actuators/leds", ledReport("ledr", "on", "error_nadr"))

	assert.True(t, d.Animating(model.ActuatorRed))
	st := d.Snapshot().Actuators[model.ActuatorRed]
	assert.Equal(t, "STATUS: ERROR error_nadr", st.Status)
	assert.True(t, st.Animating)
	assert.Equal(t, 1, clk.activeTickers())

	clk.Tick()
	assert.Eventually(t, func() bool { return image(d, model.ActuatorRed) == "img/ledr-on.png" }, time.Second, time.Millisecond)
}

func TestUnhandledReportOnlyHistory(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	before := d.Snapshot().Actuators[model.ActuatorRed]
	apply(t, d, "b827eb26c73d/actuators/leds", `{"e":[{"n":"ledr","sv":"on"}],"iqrf":[{"pid":1,"dpa":"req","nadr":1,"pnum":6,"pcmd":"on","hwpid":0}],"bn":"urn:dev:mid:8100543A"}`)

	assert.Equal(t, before, d.Snapshot().Actuators[model.ActuatorRed])
	assert.Len(t, d.History("", 0), 1)
}

func TestHistoryAndLastMessages(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	apply(t, d, "a/sensors/thermometers", `{"e":[{"n":"temperature","v":1}]}`)
	apply(t, d, "a/lp/sensors/thermometers", `{"e":[{"n":"temperature","v":2}]}`)
	apply(t, d, "a/sensors/thermometers", `{"e":[{"n":"temperature","v":3}]}`)
	apply(t, d, "a/asynchronous/responses", `{"e":[{"n":"x<y>&z"}]}`)

	h := d.History("", 0)
	require.Len(t, h, 4)
	assert.Equal(t, "a/asynchronous/responses", h[0].Topic)
	assert.Equal(t, `{"e":[{"n":"x&lt;y&gt;&amp;z"}]}`, h[0].Payload)
	assert.Equal(t, byte(2), h[0].QoS)
	assert.Len(t, d.History("a/sensors/thermometers", 0), 2)
	assert.Len(t, d.History("", 2), 2)

	last := d.LastMessages()
	require.Len(t, last, 3)
	assert.Equal(t, "a/asynchronous/responses", last[0].Topic)
	assert.Equal(t, "a/sensors/thermometers", last[2].Topic)
	assert.Contains(t, last[2].Payload, `"v":3`)

	d.ClearHistory()
	assert.Empty(t, d.History("", 0))
	assert.Len(t, d.LastMessages(), 3)
}

func TestStats(t *testing.T) {
	d := New(Options{Clock: newFakeClock(), StatsWindow: 3})
	for _, v := range []string{"10", "20", "30", "40"} {
		apply(t, d, "a/sensors/thermometers", `{"e":[{"n":"temperature","v":`+v+`}]}`)
	}
	s := d.Stats(model.VariantStandard)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 30, s.Mean, 1e-9)
	assert.InDelta(t, 10, s.StdDev, 1e-9)
	assert.Equal(t, 20.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
	assert.Equal(t, Stats{}, d.Stats(model.VariantLowPower))
}

func TestUpdatesPublished(t *testing.T) {
	d := New(Options{Clock: newFakeClock()})
	sub := d.Updates().Subscribe()
	defer d.Updates().Unsubscribe(sub)

	apply(t, d, "a/sensors/thermometers", `{"e":[{"n":"temperature","v":5}]}`)
	u := <-sub
	assert.Equal(t, UpdateHistory, u.Kind)
	u = <-sub
	require.Equal(t, UpdateTemperature, u.Kind)
	assert.Equal(t, 5.0, u.Temperature.Value)

	d.SetConnection(ConnectionView{Status: "Connected to: h:1883", Connected: true})
	u = <-sub
	assert.Equal(t, UpdateConnection, u.Kind)
	assert.Equal(t, "Connected to: h:1883", d.Snapshot().Connection.Status)
}
