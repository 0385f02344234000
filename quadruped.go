package quadruped

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// If the legs haven't halted this long after a shutdown was requested, Run
// returns anyway.
const shutdownGrace = 3 * time.Second

var log = logrus.WithFields(logrus.Fields{
	"pkg": "quadruped",
})

// Intent is what the operator wants the robot to do, already scaled into
// gait units.
type Intent struct {
	Forward  float64
	Right    float64
	Rotation float64

	// Path points to advance every tick. Negative walks backwards.
	StepCount int
}

// State is shared by every component. It's only ever touched from the control
// loop, so needs no locking.
type State struct {
	Intent Intent

	// Time between gait ticks.
	Interval time.Duration

	// Stale is true while the control link is silent.
	Stale bool

	// Components can set this to true to indicate that the robot should sit
	// down and stop.
	Shutdown bool

	// Halted is set once the servos have been relaxed. Run returns after that.
	Halted bool
}

type Component interface {
	Boot() error
	Tick(now time.Time, state *State) error
}

type Robot struct {
	Components []Component
	State      State

	last time.Time
}

func New(interval time.Duration) *Robot {
	return &Robot{
		Components: []Component{},
		State: State{
			Interval: interval,
		},
	}
}

// Add registers a component to receive ticks. Components are ticked in the
// order they were added.
func (r *Robot) Add(c Component) {
	r.Components = append(r.Components, c)
}

// Boot calls Boot on each component, and stops at the first error.
func (r *Robot) Boot() error {
	for _, c := range r.Components {
		err := c.Boot()
		if err != nil {
			return errors.Wrapf(err, "booting %T", c)
		}
	}

	return nil
}

// Tick calls Tick on each component, if more than the interval has passed
// since the last time it did. It returns whether it did.
func (r *Robot) Tick(now time.Time) bool {
	if !r.last.IsZero() && now.Sub(r.last) <= r.State.Interval {
		return false
	}

	r.last = now

	for _, c := range r.Components {
		if err := c.Tick(now, &r.State); err != nil {
			log.Errorf("%T: %s", c, err)
		}
	}

	return true
}

// Run polls Tick until the robot has halted. Closing stop requests a
// shutdown, which gives the components a chance to sit down first.
func (r *Robot) Run(stop <-chan struct{}, poll time.Duration) {
	t := time.NewTicker(poll)
	defer t.Stop()

	var deadline <-chan time.Time

	for {
		select {
		case <-stop:
			log.Info("shutdown requested")
			r.State.Shutdown = true
			stop = nil

		case <-deadline:
			log.Warnf("not halted after %s, giving up", shutdownGrace)
			return

		case now := <-t.C:
			r.Tick(now)
		}

		if r.State.Halted {
			log.Info("halted")
			return
		}

		if r.State.Shutdown && deadline == nil {
			deadline = time.After(shutdownGrace)
		}
	}
}
