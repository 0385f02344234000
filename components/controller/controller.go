package controller

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped"
	"github.com/quadwalker/quadruped/config"
	"github.com/quadwalker/quadruped/link"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "controller",
})

// Source is where commands come from. It's satisfied by *link.Link.
type Source interface {
	Latest() link.Command
	TimeSinceLast() time.Duration
}

// Controller copies the latest command from the link into the shared state,
// scaled into gait units. If the link goes quiet for longer than the
// watchdog, the robot is brought to a stop until it comes back.
type Controller struct {
	src      Source
	settings *config.Settings

	stale Latch
	fresh Latch
}

func New(src Source, s *config.Settings) *Controller {
	return &Controller{
		src:      src,
		settings: s,
	}
}

func (c *Controller) Boot() error {
	return nil
}

func (c *Controller) Configure(s *config.Settings) {
	c.settings = s
}

func (c *Controller) Tick(now time.Time, state *quadruped.State) error {
	g := c.settings.General
	age := c.src.TimeSinceLast()

	if age > c.settings.Watchdog() {
		c.fresh.Run(false)
		if c.stale.Run(true) {
			if age == link.Never {
				log.Warn("no commands yet, standing still")
			} else {
				log.Warnf("no commands for %s, stopping", age.Round(time.Millisecond))
			}
		}

		state.Stale = true
		state.Intent = quadruped.Intent{}
		state.Interval = c.settings.Interval()
		return nil
	}

	c.stale.Run(false)
	if c.fresh.Run(true) {
		log.Info("receiving commands")
	}

	cmd := c.src.Latest()
	steps := int(cmd.StepCount)

	// Senders which only set speeds get the configured cadence.
	if steps == 0 && (cmd.Forward != 0 || cmd.Right != 0 || cmd.Rotation != 0) {
		steps = g.StepCount
	}

	state.Stale = false
	state.Intent = quadruped.Intent{
		Forward:   float64(cmd.Forward) * g.CollinearMaxSpeed,
		Right:     float64(cmd.Right) * g.PerpMaxSpeed,
		Rotation:  float64(cmd.Rotation) * g.RotationMaxSpeed,
		StepCount: clampSteps(steps, g.MaxStepCount),
	}

	if cmd.DelayMs > 0 {
		state.Interval = time.Duration(cmd.DelayMs) * time.Millisecond
	} else {
		state.Interval = c.settings.Interval()
	}

	log.Debugf("intent=%+v interval=%s", state.Intent, state.Interval)
	return nil
}

func clampSteps(n, max int) int {
	if n > max {
		return max
	}

	if n < -max {
		return -max
	}

	return n
}
