// Package simulator emulates the IQRF demo gateway on an MQTT broker: it
// answers LED requests with "resp" envelopes carrying the request pid and
// periodically publishes thermometer readings.
package simulator

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/iqrfdash/core/codec"
	"github.com/kilianp07/iqrfdash/core/logger"
	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/session"
	"github.com/kilianp07/iqrfdash/core/topics"
)

// dpaLedValue is the dpavalue reported for LED responses.
const dpaLedValue = 76

// Stats counts what the gateway did.
type Stats struct {
	Requests     uint64 `json:"requests"`
	Responses    uint64 `json:"responses"`
	Dropped      uint64 `json:"dropped"`
	Temperatures uint64 `json:"temperatures"`
}

// Gateway is a simulated IQRF gateway. Feed transport callbacks to Handle.
type Gateway struct {
	cfg       Config
	transport session.Transport
	topics    topics.Set
	responder Responder
	log       logger.Logger

	requests chan request
	rng      *rand.Rand
	pid      int

	requestsN, responsesN, droppedN, tempsN atomic.Uint64
}

type request struct {
	topic string
	env   model.Envelope
}

// New creates a gateway publishing through transport.
func New(cfg Config, transport session.Transport, responder Responder, log logger.Logger) *Gateway {
	cfg.SetDefaults()
	if responder == nil {
		responder = AutoResponse{}
	}
	return &Gateway{
		cfg:       cfg,
		transport: transport,
		topics:    topics.New(cfg.DeviceID),
		responder: responder,
		log:       logger.OrNop(log),
		requests:  make(chan request, 64),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Stats returns the counters.
func (g *Gateway) Stats() Stats {
	return Stats{
		Requests:     g.requestsN.Load(),
		Responses:    g.responsesN.Load(),
		Dropped:      g.droppedN.Load(),
		Temperatures: g.tempsN.Load(),
	}
}

// Handle consumes one transport callback. It never blocks on the broker.
func (g *Gateway) Handle(ev session.Event) {
	switch ev.Kind {
	case session.EventConnected:
		go g.subscribe()
	case session.EventConnectionLost:
		g.log.Warnf("gateway connection lost: %v", ev.Err)
	case session.EventMessageArrived:
		g.onMessage(ev.Message)
	}
}

func (g *Gateway) subscribe() {
	for _, v := range []model.Variant{model.VariantStandard, model.VariantLowPower} {
		t := g.topics.LEDs(v)
		if err := g.transport.Subscribe(t, topics.QoS); err != nil {
			g.log.Errorf("subscribe %s: %v", t, err)
		}
	}
}

func (g *Gateway) onMessage(m model.Message) {
	var env model.Envelope
	if err := json.Unmarshal(m.Payload, &env); err != nil {
		g.log.Debugf("ignore payload on %s: %v", m.Topic, err)
		return
	}
	rep, ok := env.FirstReport()
	if !ok || rep.DPA != model.DPARequest {
		return
	}
	if ev, ok := env.FirstEvent(); !ok || !model.IsActuator(ev.N) {
		return
	}
	g.requestsN.Add(1)
	select {
	case g.requests <- request{topic: m.Topic, env: env}:
	default:
		g.droppedN.Add(1)
		g.log.Warnf("request queue full, dropping pid %d", rep.PID)
	}
}

// Run connects, answers requests and publishes readings until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.transport.Connect(ctx); err != nil {
		return err
	}
	defer g.transport.Disconnect()

	var wg sync.WaitGroup
	for i := 0; i < g.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.worker(ctx)
		}()
	}

	ticker := time.NewTicker(g.cfg.TemperatureInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-ticker.C:
			g.PublishTemperatures()
		}
	}
}

func (g *Gateway) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-g.requests:
			if g.cfg.ResponseDelay > 0 {
				select {
				case <-time.After(g.cfg.ResponseDelay):
				case <-ctx.Done():
					return
				}
			}
			g.respond(req)
		}
	}
}

func (g *Gateway) respond(req request) {
	rc, ok := g.responder.Respond(req.env)
	if !ok {
		g.droppedN.Add(1)
		return
	}
	payload, err := codec.EncodeResponse(req.env, rc, dpaLedValue)
	if err != nil {
		g.log.Errorf("encode response: %v", err)
		return
	}
	if err := g.transport.Publish(req.topic, payload, topics.QoS); err != nil {
		g.log.Errorf("publish response: %v", err)
		return
	}
	g.responsesN.Add(1)
}

// PublishTemperatures publishes one reading on the standard thermometer
// topic and, when enabled, one on the low-power topic.
func (g *Gateway) PublishTemperatures() {
	variants := []model.Variant{model.VariantStandard}
	if g.cfg.LowPower {
		variants = append(variants, model.VariantLowPower)
	}
	for _, v := range variants {
		g.pid++
		value := g.sample()
		payload, err := codec.EncodeTemperature(g.pid, value, int(math.Round(value*16)))
		if err != nil {
			g.log.Errorf("encode temperature: %v", err)
			continue
		}
		if err := g.transport.Publish(g.topics.Thermometers(v), payload, topics.QoS); err != nil {
			g.log.Errorf("publish temperature: %v", err)
			continue
		}
		g.tempsN.Add(1)
	}
}

// sample returns a reading rounded to one decimal.
func (g *Gateway) sample() float64 {
	v := g.cfg.BaseTemperature
	if g.cfg.Jitter > 0 {
		v += (g.rng.Float64()*2 - 1) * g.cfg.Jitter
	}
	return math.Round(v*10) / 10
}
