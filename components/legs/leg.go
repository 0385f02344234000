package legs

import (
	"github.com/pkg/errors"

	"github.com/quadwalker/quadruped/components/legs/gait"
	"github.com/quadwalker/quadruped/config"
	"github.com/quadwalker/quadruped/ik"
	"github.com/quadwalker/quadruped/math3d"
	"github.com/quadwalker/quadruped/servos"
)

// Leg is one leg of the robot: a solver, plus the three servo channels it
// drives.
type Leg struct {
	ID gait.Leg

	solver   *ik.Solver
	channels [3]int
	limits   config.JointLimits
}

func NewLeg(id gait.Leg, s *config.Settings) *Leg {
	l := &Leg{ID: id}
	l.solver = ik.NewSolver(s.Geometry(id))
	l.Configure(s)
	return l
}

// Configure switches the leg to new settings. The solver keeps its current
// angles, so the leg doesn't jump to the other knee branch.
func (leg *Leg) Configure(s *config.Settings) {
	leg.solver.SetGeometry(s.Geometry(leg.ID))
	leg.channels = config.Channels(s.Leg(leg.ID))
	leg.limits = s.ServoLimits(leg.ID)
}

func (leg *Leg) Angles() ik.Angles {
	return leg.solver.Current()
}

// SetGoal solves for the target (in the leg's own space) and moves the
// servos. If the target can't be reached, the servos are left where they are.
func (leg *Leg) SetGoal(act *servos.Actuator, t math3d.Vector3) error {
	target := t

	// Planar legs have no base joint, so work in the plane of the leg: X is
	// down and Y is forwards.
	if leg.solver.Geometry().Topology == ik.Planar {
		target = math3d.Vector3{X: -t.Z, Y: t.Y}
	}

	a, err := leg.solver.Solve(target)
	if err != nil {
		return errors.Wrapf(err, "%s (while solving for %s)", leg.ID, t)
	}

	lim := leg.limits
	joints := []struct {
		angle float64
		limit ik.Limit
	}{
		{a.Base, lim.Base},
		{a.Hip, lim.Hip},
		{a.Knee, lim.Knee},
	}

	for i, j := range joints {
		err := act.SetJointAngle(leg.channels[i], j.angle, j.limit.Min, j.limit.Max)
		if err != nil {
			return errors.Wrap(err, leg.ID.String())
		}
	}

	return nil
}
