// Package session owns the state of one dashboard connection: the command
// encoder and its request counter, the connection status line and the
// connect/disconnect button flags. Transport callbacks are turned into
// Events and handled one at a time by Dispatch.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/iqrfdash/core/codec"
	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/logger"
	"github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/monitoring"
	"github.com/kilianp07/iqrfdash/core/presentation"
	"github.com/kilianp07/iqrfdash/core/topics"
	"github.com/kilianp07/iqrfdash/internal/eventbus"
)

// Status lines shown next to the connection buttons.
const (
	StatusIdle         = "Not connected"
	StatusConnecting   = "Connecting..."
	StatusConnectedTo  = "Connected to: "
	StatusDisconnected = "Connection - Disconnected."
)

// DefaultEventBuffer is the capacity of the event queue between the
// transport callbacks and Run.
const DefaultEventBuffer = 256

const component = "session"

// Options wires a Session to its collaborators. Only Transport is required.
type Options struct {
	Transport Transport
	Topics    topics.Set
	Dashboard *presentation.Dashboard
	Store     history.Store
	Metrics   metrics.MetricsSink
	Logger    logger.Logger
	Buffer    int
	Now       func() time.Time
}

// Session is safe for concurrent use. Events are processed sequentially by Run.
type Session struct {
	transport Transport
	topics    topics.Set
	dash      *presentation.Dashboard
	store     history.Store
	sink      metrics.MetricsSink
	log       logger.Logger
	now       func() time.Time
	enc       *codec.Encoder
	records   *eventbus.TypedBus[model.Record]

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	view presentation.ConnectionView
}

// New creates a disconnected session with a fresh pid counter.
func New(opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, errors.New("session: transport required")
	}
	if opts.Topics.DeviceID == "" {
		opts.Topics = topics.New("")
	}
	if opts.Store == nil {
		opts.Store = history.NopStore{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultEventBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		transport: opts.Transport,
		topics:    opts.Topics,
		dash:      opts.Dashboard,
		store:     opts.Store,
		sink:      opts.Metrics,
		log:       logger.OrNop(opts.Logger),
		now:       opts.Now,
		enc:       codec.NewEncoder(),
		records:   eventbus.NewTyped[model.Record](),
		events:    make(chan Event, opts.Buffer),
		done:      make(chan struct{}),
	}
	s.setView(presentation.ConnectionView{Status: StatusIdle, ConnectEnabled: true})
	return s, nil
}

// Records carries every decoded inbound record.
func (s *Session) Records() *eventbus.TypedBus[model.Record] { return s.records }

// View returns the connection status and button flags.
func (s *Session) View() presentation.ConnectionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// LastPID returns the pid of the most recent command.
func (s *Session) LastPID() int { return s.enc.LastPID() }

func (s *Session) setView(v presentation.ConnectionView) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	if s.dash != nil {
		s.dash.SetConnection(v)
	}
}

func (s *Session) setState(status string, connected bool) {
	s.setView(presentation.ConnectionView{
		Status:            status,
		Connected:         connected,
		ConnectEnabled:    !connected,
		DisconnectEnabled: connected,
	})
}

func (s *Session) recordConnection(state string, err error) {
	ev := metrics.ConnectionEvent{State: state, Endpoint: s.transport.Endpoint(), Time: s.now()}
	if err != nil {
		ev.Error = err.Error()
	}
	if r, ok := s.sink.(metrics.ConnectionRecorder); ok {
		if rerr := r.RecordConnection(ev); rerr != nil {
			s.log.Warnf("record connection: %v", rerr)
		}
	}
}

// Notify queues a transport callback for Run. It blocks while the queue is
// full and returns immediately once the session is closed.
func (s *Session) Notify(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run dispatches queued events until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	defer monitoring.Recover()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case ev := <-s.events:
			if err := s.Dispatch(ctx, ev); err != nil {
				s.log.Errorf("%s: %v", ev.Kind, err)
			}
		}
	}
}

// Close stops Run and releases blocked Notify calls. It does not disconnect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.records.Close()
	})
}

// Dispatch handles one event.
func (s *Session) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventConnected:
		return s.onConnected()
	case EventConnectionLost:
		return s.onConnectionLost(ctx, ev.Err)
	case EventMessageArrived:
		s.onMessage(ctx, ev.Message)
		return nil
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Connect starts a connection attempt. Success is reported asynchronously
// through an EventConnected. It returns ErrAlreadyConnected unless the
// connect button is enabled.
func (s *Session) Connect(ctx context.Context) error {
	if !s.beginConnect() {
		return ErrAlreadyConnected
	}
	return s.dial(ctx)
}

// beginConnect moves an idle session to the connecting state.
func (s *Session) beginConnect() bool {
	s.mu.Lock()
	if !s.view.ConnectEnabled {
		s.mu.Unlock()
		return false
	}
	v := presentation.ConnectionView{Status: StatusConnecting, DisconnectEnabled: true}
	s.view = v
	s.mu.Unlock()
	if s.dash != nil {
		s.dash.SetConnection(v)
	}
	return true
}

func (s *Session) dial(ctx context.Context) error {
	s.recordConnection(metrics.ConnConnecting, nil)
	s.log.Infof("connecting to %s", s.transport.Endpoint())
	if err := s.transport.Connect(ctx); err != nil {
		s.setState(StatusDisconnected, false)
		s.recordConnection(metrics.ConnDisconnected, err)
		monitoring.Capture(err, component, "connect")
		return fmt.Errorf("connect %s: %w", s.transport.Endpoint(), err)
	}
	return nil
}

// Disconnect closes the connection and resets the button flags.
func (s *Session) Disconnect() {
	s.log.Infof("disconnecting from %s", s.transport.Endpoint())
	s.transport.Disconnect()
	s.setState(StatusDisconnected, false)
	s.recordConnection(metrics.ConnDisconnected, nil)
}

// onConnected subscribes before the view reports connected.
func (s *Session) onConnected() error {
	s.log.Infof("connected to %s", s.transport.Endpoint())
	var errs []error
	for _, t := range s.topics.Subscriptions() {
		s.log.Debugw("subscribe", map[string]any{"topic": t, "qos": topics.QoS})
		if err := s.transport.Subscribe(t, topics.QoS); err != nil {
			monitoring.Capture(err, component, "subscribe")
			errs = append(errs, fmt.Errorf("subscribe %s: %w", t, err))
		}
	}
	s.setState(StatusConnectedTo+s.transport.Endpoint(), true)
	s.recordConnection(metrics.ConnConnected, nil)
	return errors.Join(errs...)
}

// onConnectionLost makes exactly one reconnect attempt when the loss carries
// an error. A nil error is a requested close and is left alone.
func (s *Session) onConnectionLost(ctx context.Context, cause error) error {
	s.recordConnection(metrics.ConnLost, cause)
	if cause == nil {
		s.setState(StatusDisconnected, false)
		s.log.Infof("connection closed")
		return nil
	}
	s.log.Warnf("connection lost: %v", cause)
	s.setView(presentation.ConnectionView{Status: StatusConnecting, DisconnectEnabled: true})
	return s.dial(ctx)
}

func (s *Session) onMessage(ctx context.Context, m model.Message) {
	if m.Arrived.IsZero() {
		m.Arrived = s.now()
	}
	rec, err := codec.Decode(m.Topic, m.Payload)
	if err != nil {
		s.log.Warnf("drop message on %s: %v", m.Topic, err)
		if r, ok := s.sink.(metrics.DecodeFailureRecorder); ok {
			_ = r.RecordDecodeFailure(metrics.DecodeFailureEvent{Topic: m.Topic, Reason: err.Error(), Time: m.Arrived})
		}
		return
	}

	variant := topics.VariantOf(m.Topic)
	entry := history.Entry{
		Time:    m.Arrived,
		Topic:   m.Topic,
		Payload: string(m.Payload),
		QoS:     m.QoS,
		Kind:    rec.Kind().String(),
		Variant: variant.String(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		s.log.Errorf("persist message: %v", err)
		monitoring.Capture(err, component, "history")
	}

	s.recordMetrics(rec, variant, m.Arrived)
	if s.dash != nil {
		s.dash.Apply(m, rec)
	}
	s.records.Publish(rec)
}

func (s *Session) recordMetrics(rec model.Record, variant model.Variant, at time.Time) {
	var errs []error
	errs = append(errs, s.sink.RecordMessage(metrics.MessageEvent{
		Topic: rec.RoutingKey(), Kind: rec.Kind(), Variant: variant, Time: at,
	}))
	switch r := rec.(type) {
	case model.TemperatureReading:
		if tr, ok := s.sink.(metrics.TemperatureRecorder); ok {
			errs = append(errs, tr.RecordTemperature(metrics.TemperatureEvent{
				Variant: r.Variant, Value: r.Value, Unit: r.Unit, Time: at,
			}))
		}
	case model.ActuatorReport:
		if ar, ok := s.sink.(metrics.ActuatorReportRecorder); ok && r.Handled() {
			errs = append(errs, ar.RecordActuatorReport(metrics.ActuatorReportEvent{
				Actuator: r.Actuator, Action: r.Action, RCode: r.RCode, PID: r.PID, Variant: r.Variant, Time: at,
			}))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Warnf("record metrics: %v", err)
	}
}

// SendCommand encodes and publishes an LED command. actuator is "r", "g",
// "ledr" or "ledg"; action is "on", "off" or "pulse".
func (s *Session) SendCommand(_ context.Context, actuator, action string) (model.Command, error) {
	if !s.View().Connected {
		return model.Command{}, ErrNotConnected
	}
	cmd, err := s.enc.Encode(actuator, action)
	if err != nil {
		return model.Command{}, err
	}
	cmd.Topic = s.topics.CommandTopic()
	s.log.Debugw("publish command", map[string]any{"topic": cmd.Topic, "pid": cmd.PID, "payload": string(cmd.Payload)})

	perr := s.transport.Publish(cmd.Topic, cmd.Payload, topics.QoS)
	ev := metrics.CommandEvent{Actuator: cmd.Actuator, Action: cmd.Action, PID: cmd.PID, Time: s.now()}
	if perr != nil {
		ev.Error = perr.Error()
	}
	if r, ok := s.sink.(metrics.CommandRecorder); ok {
		if err := r.RecordCommand(ev); err != nil {
			s.log.Warnf("record command: %v", err)
		}
	}
	if perr != nil {
		monitoring.Capture(perr, component, "publish")
		return cmd, fmt.Errorf("publish %s: %w", cmd.Topic, perr)
	}
	return cmd, nil
}
