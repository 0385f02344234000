package gait

import (
	"fmt"

	"github.com/quadwalker/quadruped/math3d"
)

type Leg int

const (
	FrontLeft Leg = iota
	FrontRight
	RearLeft
	RearRight

	NumLegs = 4
)

var legNames = [NumLegs]string{"front_left", "front_right", "rear_left", "rear_right"}

// Legs is every leg, in cursor order.
var Legs = [NumLegs]Leg{FrontLeft, FrontRight, RearLeft, RearRight}

func (l Leg) String() string {
	if l < 0 || int(l) >= NumLegs {
		return fmt.Sprintf("leg(%d)", int(l))
	}

	return legNames[l]
}

// Lever is the quadrant of a foot relative to the center of the body, as a
// pair of signs. Multiplying it by the rotation speed gives the tangential
// velocity the foot needs to spin the body in place.
type Lever struct {
	X float64
	Y float64
}

// DefaultLevers turn the body clockwise (seen from above) for a positive
// rotation.
var DefaultLevers = [NumLegs]Lever{
	FrontLeft:  {-1, -1},
	FrontRight: {-1, +1},
	RearLeft:   {+1, -1},
	RearRight:  {+1, +1},
}

// Envelope is the vertical band the feet move in. Top is the height of the
// foot at the highest point of the path, and Bottom at the lowest. Both are
// usually negative, since feet are below the hips.
type Envelope struct {
	Top    float64
	Bottom float64
}

// Gait walks four legs around a single shared path, a quarter of the path
// apart, and turns the point under each leg into a foot target. It has no
// clock; every call to Advance is one step along the path.
type Gait struct {
	path    Path
	cursors [NumLegs]int

	forward  float64
	right    float64
	rotation float64
	steps    int

	Envelope Envelope
	Levers   [NumLegs]Lever
}

// New returns a gait walking the given path. It panics if the path is empty,
// since there would be nothing to put the feet on.
func New(path Path, env Envelope) *Gait {
	if len(path) == 0 {
		panic("gait: empty path")
	}

	g := &Gait{
		path:     path,
		Envelope: env,
		Levers:   DefaultLevers,
	}

	q := len(path) / 4
	for i := range g.cursors {
		g.cursors[i] = i * q
	}

	return g
}

// Len returns the number of points in the path.
func (g *Gait) Len() int {
	return len(g.path)
}

// SetSpeeds stores the intent used by the following calls to Target and
// Advance. Positive right is stored negated, since rightwards is negative X
// in the path.
func (g *Gait) SetSpeeds(forward, right, rotation float64, steps int) {
	g.forward = forward
	g.right = -right
	g.rotation = rotation
	g.steps = steps
}

// Advance moves every cursor along the path by the step count. Negative step
// counts walk the path backwards.
func (g *Gait) Advance() {
	n := len(g.path)
	for i := range g.cursors {
		g.cursors[i] = ((g.cursors[i]+g.steps)%n + n) % n
	}
}

func (g *Gait) Cursor(leg Leg) int {
	return g.cursors[leg]
}

// Target returns the foot target for the given leg, at its current cursor.
func (g *Gait) Target(leg Leg) math3d.Vector3 {
	p := g.path[g.cursors[leg]]
	lv := g.Levers[leg]
	env := g.Envelope

	return math3d.Vector3{
		X: p.X*g.right + g.rotation*lv.X*p.X,
		Y: p.Y*g.forward + g.rotation*lv.Y*p.Y,
		Z: p.Z*(env.Top-env.Bottom) + env.Top,
	}
}

// Targets returns the target of every leg.
func (g *Gait) Targets() [NumLegs]math3d.Vector3 {
	var out [NumLegs]math3d.Vector3
	for _, leg := range Legs {
		out[leg] = g.Target(leg)
	}

	return out
}
