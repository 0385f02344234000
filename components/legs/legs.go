package legs

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped"
	"github.com/quadwalker/quadruped/components/legs/gait"
	"github.com/quadwalker/quadruped/config"
	"github.com/quadwalker/quadruped/servos"
)

type State string

const (
	sDefault State = ""
	sStandUp State = "sStandUp"
	sWalking State = "sWalking"
	sSitDown State = "sSitDown"
	sHalt    State = "sHalt"

	// How far (in mm) the feet move per tick while standing up or sitting
	// down.
	rampStep = 1.0
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "legs",
})

type Legs struct {
	Actuator *servos.Actuator

	// The state that the legs are currently in.
	State        State
	stateCounter int

	Gait *gait.Gait
	Legs [gait.NumLegs]*Leg

	settings *config.Settings

	// How far above the envelope the feet are. This is the sitting offset at
	// boot, and zero once standing.
	offset float64
}

func New(act *servos.Actuator, s *config.Settings) *Legs {
	l := &Legs{
		Actuator: act,
		State:    sDefault,
		settings: s,
		offset:   s.General.SitOffset,
	}

	for _, id := range gait.Legs {
		l.Legs[id] = NewLeg(id, s)
	}

	l.Gait = gait.New(s.Path(), s.Envelope())
	l.Gait.Levers = s.Levers()

	return l
}

// Boot puts every leg into the sitting position, and returns an error if any
// servo can't be moved.
func (l *Legs) Boot() error {
	log.Infof("path has %d points", l.Gait.Len())
	return l.move()
}

func (l *Legs) SetState(s State) {
	log.Infof("state=%v", s)
	l.stateCounter = 0
	l.State = s
}

// Configure switches to new settings. The path is only rebuilt (which resets
// the phase of every leg) if the settings which shape it have changed.
func (l *Legs) Configure(s *config.Settings) {
	old := l.settings.General
	l.settings = s

	if s.General.PathStep != old.PathStep || s.General.Dwell != old.Dwell {
		log.Infof("rebuilding path (step=%.1f, dwell=%v)", s.General.PathStep, s.General.Dwell)
		l.Gait = gait.New(s.Path(), s.Envelope())
	}

	l.Gait.Levers = s.Levers()
	for _, leg := range l.Legs {
		leg.Configure(s)
	}
}

func (l *Legs) Tick(now time.Time, state *quadruped.State) error {
	l.stateCounter += 1

	switch l.State {
	case sDefault:
		l.SetState(sStandUp)

	// Lower the feet from the sitting offset to the envelope, which raises the
	// body off the ground.
	case sStandUp:
		if state.Shutdown {
			l.SetState(sSitDown)
			break
		}

		l.offset = math.Max(0, l.offset-rampStep)
		if l.offset <= 0 {
			l.SetState(sWalking)
		}

	case sWalking:
		if state.Shutdown {
			l.SetState(sSitDown)
			break
		}

		i := state.Intent
		l.Gait.SetSpeeds(i.Forward, i.Right, i.Rotation, i.StepCount)
		l.Gait.Advance()

	// Stop walking and raise the feet until the body is resting on the ground.
	case sSitDown:
		l.Gait.SetSpeeds(0, 0, 0, 0)

		sit := l.settings.General.SitOffset
		l.offset = math.Min(sit, l.offset+rampStep)
		if l.offset >= sit {
			l.SetState(sHalt)
		}

	case sHalt:
		if l.stateCounter == 1 {
			state.Halted = true
			return l.Actuator.Relax()
		}

		return nil

	default:
		return errors.Errorf("unknown state: %#v", l.State)
	}

	return l.move()
}

// move sends every leg to its current target. A leg which fails doesn't stop
// the others from moving; the first error is returned.
func (l *Legs) move() error {
	env := l.settings.Envelope()
	env.Top += l.offset
	env.Bottom += l.offset
	l.Gait.Envelope = env

	var first error
	for id, t := range l.Gait.Targets() {
		leg := l.Legs[id]
		log.Debugf("%s target=%v cursor=%d", leg.ID, t, l.Gait.Cursor(leg.ID))

		if err := leg.SetGoal(l.Actuator, t); err != nil && first == nil {
			first = err
		}
	}

	if first != nil {
		return errors.Wrap(first, "moving legs")
	}

	return nil
}
