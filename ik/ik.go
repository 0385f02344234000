// Package ik solves leg joint angles for a foot target.
//
// Every leg goes through the same Solver. The differences between legs
// (mirroring, limits, which topology the leg has) live in its Geometry, so
// left and right legs can't drift apart the way hand-copied solvers do.
package ik

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped/math3d"
	"github.com/quadwalker/quadruped/utils"
)

// Targets which are this close outside of the planar envelope are still
// solved, to absorb floating point error at full extension.
const reachTolerance = 1e-9

// ErrUnreachable is returned by the planar topology when the target is
// outside of the ring which the thigh and shank can reach.
var ErrUnreachable = errors.New("target unreachable")

var log = logrus.WithFields(logrus.Fields{
	"pkg": "ik",
})

type Topology int

const (
	// Planar legs have a hip and a knee, and reach targets in the X/Y plane.
	Planar Topology = iota

	// Spatial legs have a base joint which swings the whole leg sideways,
	// followed by an upper segment, then the planar hip and knee.
	Spatial
)

func (t Topology) String() string {
	switch t {
	case Planar:
		return "planar"
	case Spatial:
		return "spatial"
	default:
		return "unknown"
	}
}

// Limit is the range (in degrees) which a joint may be moved to. Servo
// limits are occasionally written backwards; they're treated as swapped.
type Limit struct {
	Min float64
	Max float64
}

var Unlimited = Limit{Min: math.Inf(-1), Max: math.Inf(1)}

func (l Limit) Clamp(v float64) float64 {
	return utils.Clamp(v, l.Min, l.Max)
}

type Joint struct {
	Limit Limit

	// Sign maps the geometric angle onto the direction the servo turns. Any
	// negative value means -1, anything else +1.
	Sign float64
}

func (j Joint) sign() float64 {
	if j.Sign < 0 {
		return -1
	}

	return 1
}

// Geometry is everything the solver needs to know about one leg.
type Geometry struct {
	Topology Topology

	// Segment lengths. Upper is ignored by planar legs.
	Upper float64
	Thigh float64
	Shank float64

	Base Joint
	Hip  Joint
	Knee Joint

	// LateralSign flips the X axis of targets, so mirrored (left vs right)
	// legs can share a single gait. Zero means +1.
	LateralSign float64
}

func (g Geometry) lateralSign() float64 {
	if g.LateralSign < 0 {
		return -1
	}

	return 1
}

// Angles are joint angles in degrees, in the servo frame (i.e. after signs
// and limits have been applied).
type Angles struct {
	Base float64
	Hip  float64
	Knee float64
}

// Solver converts foot targets into joint angles for a single leg. It
// remembers the last angles it returned, and prefers whichever solution is
// nearest to them.
type Solver struct {
	geo     Geometry
	current Angles
}

func NewSolver(g Geometry) *Solver {
	return &Solver{geo: g}
}

func (s *Solver) Geometry() Geometry {
	return s.geo
}

// SetGeometry replaces the leg geometry. The current angles are kept, so the
// next solution stays continuous with the last one.
func (s *Solver) SetGeometry(g Geometry) {
	s.geo = g
}

// Current returns the angles most recently returned by Solve.
func (s *Solver) Current() Angles {
	return s.current
}

// Reset overwrites the current angles, e.g. with the servo positions at boot.
func (s *Solver) Reset(a Angles) {
	s.current = a
}

// Solve returns the joint angles which put the foot at the target. Only the
// planar topology can fail; spatial legs pull the target into reach instead,
// because the live gait must never stall on a bad frame.
func (s *Solver) Solve(target math3d.Vector3) (Angles, error) {
	var a Angles

	switch s.geo.Topology {
	case Planar:
		l1 := s.geo.Thigh
		l2 := s.geo.Shank
		d := math.Hypot(target.X, target.Y)

		if d > l1+l2+reachTolerance || d < math.Abs(l1-l2)-reachTolerance {
			return s.current, errors.Wrapf(ErrUnreachable, "distance %.2f outside [%.2f, %.2f]", d, math.Abs(l1-l2), l1+l2)
		}

		a.Hip, a.Knee = s.pick(target.X, target.Y)

	case Spatial:
		a = s.spatial(target)

	default:
		return s.current, errors.Errorf("unknown topology: %d", s.geo.Topology)
	}

	s.current = a
	return a, nil
}

// spatial points the base joint at the target, removes the upper segment,
// and solves the remainder in the plane of the leg.
func (s *Solver) spatial(t math3d.Vector3) Angles {
	g := s.geo
	lateral := g.lateralSign() * t.X

	// Zero base angle hangs the upper segment straight down.
	want := 0.0
	if lateral != 0 || t.Z != 0 {
		want = utils.Deg(math.Atan2(lateral, -t.Z))
	}

	base := g.Base.Limit.Clamp(g.Base.sign() * want)
	b := g.Base.sign() * base

	// Rotate the target by the (clamped) base angle, so the upper segment lies
	// along -Z. Anything left on the X axis is out of plane, and is dropped.
	m := math3d.RotationMatrix(*math3d.MakeSingularEulerAngle(math3d.RotationHeading, b))
	local := math3d.Vector3{X: lateral, Y: t.Y, Z: t.Z}.MultiplyByMatrix44(m)

	down := -local.Z - g.Upper
	fwd := local.Y

	lo := math.Abs(g.Thigh - g.Shank)
	hi := g.Thigh + g.Shank
	d := math.Hypot(down, fwd)

	if d < lo || d > hi {
		alpha := 0.0
		if down != 0 || fwd != 0 {
			alpha = math.Atan2(fwd, down)
		}

		d = utils.Clamp(d, lo, hi)
		down = d * math.Cos(alpha)
		fwd = d * math.Sin(alpha)
		log.Debugf("clamped target %v to planar distance %.2f", t, d)
	}

	hip, knee := s.pick(down, fwd)
	return Angles{Base: base, Hip: hip, Knee: knee}
}

// pick returns the (hip, knee) solution, in limited servo degrees, which is
// closest to the current angles. Ties go to the positive knee.
func (s *Solver) pick(x, y float64) (float64, float64) {
	best := math.Inf(1)
	var hip, knee float64

	for _, b := range branches(x, y, s.geo.Thigh, s.geo.Shank) {
		h := s.geo.Hip.Limit.Clamp(s.geo.Hip.sign() * utils.Deg(b[0]))
		k := s.geo.Knee.Limit.Clamp(s.geo.Knee.sign() * utils.Deg(b[1]))

		cost := math.Abs(h-s.current.Hip) + math.Abs(k-s.current.Knee)
		if cost < best {
			best = cost
			hip = h
			knee = k
		}
	}

	return hip, knee
}

// branches returns both two-link solutions (hip, knee), in radians, for the
// target (x, y). The first has a positive knee.
func branches(x, y, l1, l2 float64) [2][2]float64 {
	c := (x*x + y*y - l1*l1 - l2*l2) / (2 * l1 * l2)
	k := math.Acos(utils.Clamp(c, -1, 1))
	a := math.Atan2(y, x)

	var out [2][2]float64
	for i, kk := range [2]float64{k, -k} {
		out[i] = [2]float64{a - math.Atan2(l2*math.Sin(kk), l1+l2*math.Cos(kk)), kk}
	}

	return out
}

// Forward returns the foot position for the given angles. It's the inverse of
// Solve for targets which are reachable and within limits.
func Forward(g Geometry, a Angles) math3d.Vector3 {
	h := utils.Rad(g.Hip.sign() * a.Hip)
	k := utils.Rad(g.Knee.sign() * a.Knee)

	x := g.Thigh*math.Cos(h) + g.Shank*math.Cos(h+k)
	y := g.Thigh*math.Sin(h) + g.Shank*math.Sin(h+k)

	if g.Topology == Planar {
		return math3d.Vector3{X: x, Y: y}
	}

	b := g.Base.sign() * a.Base
	local := math3d.Vector3{X: 0, Y: y, Z: -(x + g.Upper)}
	v := local.MultiplyByMatrix44(math3d.RotationMatrix(*math3d.MakeSingularEulerAngle(math3d.RotationHeading, -b)))
	v.X *= g.lateralSign()

	return v
}
