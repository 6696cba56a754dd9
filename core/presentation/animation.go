package presentation

import (
	"time"

	"github.com/kilianp07/iqrfdash/core/model"
)

// DefaultPulsePeriod is the frame period of the pulse animation.
const DefaultPulsePeriod = time.Second

// Ticker is the subset of time.Ticker used by the animation.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Clock abstracts time so the animation can be driven from tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock uses the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker { return systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) Chan() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()                  { s.t.Stop() }

// toggle is one running pulse animation. At most one exists per actuator.
type toggle struct {
	stop  chan struct{}
	frame int
}

// startToggleLocked replaces any running toggle for a and shows frame 0.
func (d *Dashboard) startToggleLocked(a model.Actuator) {
	d.stopToggleLocked(a)
	tg := &toggle{stop: make(chan struct{})}
	d.toggles[a] = tg
	d.setImageLocked(a, Frames(a)[0], true)

	t := d.clock.NewTicker(d.period)
	go d.runToggle(a, tg, t)
}

func (d *Dashboard) runToggle(a model.Actuator, tg *toggle, t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-tg.stop:
			return
		case <-t.Chan():
			d.mu.Lock()
			if d.toggles[a] != tg {
				d.mu.Unlock()
				return
			}
			tg.frame = (tg.frame + 1) % 2
			d.setImageLocked(a, Frames(a)[tg.frame], true)
			d.mu.Unlock()
		}
	}
}

// stopToggleLocked cancels the toggle for a. It reports whether one was running.
func (d *Dashboard) stopToggleLocked(a model.Actuator) bool {
	tg, ok := d.toggles[a]
	if !ok {
		return false
	}
	close(tg.stop)
	delete(d.toggles, a)
	return true
}
