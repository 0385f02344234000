// Package servos turns joint angles into PWM duty cycles, and sends them to
// whichever board the servos are plugged into.
package servos

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const NumChannels = 16

var ErrChannel = errors.New("invalid channel")

var log = logrus.WithFields(logrus.Fields{
	"pkg": "servos",
})

// Driver is a PWM board with sixteen channels.
type Driver interface {
	SetDuty(channel int, duty uint16) error

	// Relax stops sending pulses to every channel, so the servos go limp.
	Relax() error

	Close() error
}

// Actuator owns a Driver, and remembers which channels it has moved, so they
// can be relaxed at shutdown even if something failed half way.
type Actuator struct {
	driver Driver
	live   map[int]uint16
}

func NewActuator(d Driver) *Actuator {
	return &Actuator{
		driver: d,
		live:   map[int]uint16{},
	}
}

// SetJointAngle moves the servo on the given channel to the angle, where min
// and max are the angles at either end of its travel.
func (a *Actuator) SetJointAngle(channel int, angle, min, max float64) error {
	return a.SetPulse(channel, PulseWidth(angle, min, max))
}

// SetPulse sends a raw pulse width (in microseconds) to a channel.
func (a *Actuator) SetPulse(channel int, pulse float64) error {
	if channel < 0 || channel >= NumChannels {
		return errors.Wrapf(ErrChannel, "channel %d", channel)
	}

	duty := Duty(pulse)
	if err := a.driver.SetDuty(channel, duty); err != nil {
		return errors.Wrapf(err, "setting channel %d to %.0fus", channel, pulse)
	}

	a.live[channel] = duty
	return nil
}

// Channels returns the channels which have been set since the last Relax, in
// order.
func (a *Actuator) Channels() []int {
	out := make([]int, 0, len(a.live))
	for ch := range a.live {
		out = append(out, ch)
	}

	sort.Ints(out)
	return out
}

// Relax powers off all servos. This should be called before terminating the
// program, so servos don't stay powered up indefinitely.
func (a *Actuator) Relax() error {
	log.Infof("relaxing %d channels", len(a.live))

	if err := a.driver.Relax(); err != nil {
		return errors.Wrap(err, "relaxing servos")
	}

	a.live = map[int]uint16{}
	return nil
}

func (a *Actuator) Close() error {
	return a.driver.Close()
}
