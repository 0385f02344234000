package gait

import (
	"math"

	"github.com/quadwalker/quadruped/math3d"
)

// Waypoint is a control point of the foot path. X, Y and Z are normalized
// (roughly -1 to 1), and Weight stretches the sampling density of the
// segments either side of it.
type Waypoint struct {
	X      float64
	Y      float64
	Z      float64
	Weight float64
}

func (w Waypoint) vector() math3d.Vector3 {
	return math3d.Vector3{X: w.X, Y: w.Y, Z: w.Z}
}

// Path is a densely sampled foot path. It's built once and only read after
// that, so it's safe to share between legs.
type Path []math3d.Vector3

// ReferenceWaypoints is the closed foot path which the robot walks with: push
// back along the ground, lift at the rear, swing forwards through the
// highest point, and put the foot back down at the front.
var ReferenceWaypoints = []Waypoint{
	{0, 0, 0, 0},
	{1, 1, -1, 20},
	{0, 0, -1, 200},
	{-1, -1, -1, 20},
	{0, 0, 0, 0},
}

// Interpolate walks the waypoints in order, emitting points no more than step
// apart along each segment. The end of every segment is always included
// exactly. Weights are ignored.
func Interpolate(waypoints []Waypoint, step float64) Path {
	return interpolate(waypoints, step, func(a, b Waypoint) float64 {
		return a.vector().Distance(b.vector())
	})
}

// InterpolateWeighted is like Interpolate, but measures the length of each
// segment with the difference in weight as a fourth dimension. Segments
// between waypoints with very different weights get more points, so the feet
// linger there.
func InterpolateWeighted(waypoints []Waypoint, step float64) Path {
	return interpolate(waypoints, step, func(a, b Waypoint) float64 {
		d := b.vector().Subtract(a.vector())
		dw := b.Weight - a.Weight
		return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z + dw*dw)
	})
}

func interpolate(waypoints []Waypoint, step float64, length func(a, b Waypoint) float64) Path {
	if len(waypoints) == 0 {
		return Path{}
	}

	if len(waypoints) == 1 {
		return Path{waypoints[0].vector()}
	}

	var path Path
	for i := 0; i < len(waypoints)-1; i++ {
		seg := segment(waypoints[i], waypoints[i+1], step, length)

		// The first point of each segment is the last of the previous one.
		if i > 0 {
			seg = seg[1:]
		}

		path = append(path, seg...)
	}

	return path
}

// segment samples the line from a to b. The points are spread evenly over the
// 3D line, but there are as many as the (possibly longer) measured length
// needs.
func segment(a, b Waypoint, step float64, length func(a, b Waypoint) float64) Path {
	start := a.vector()
	end := b.vector()
	d := length(a, b)

	if d == 0 || step <= 0 {
		return Path{start}
	}

	delta := end.Subtract(start)
	n := int(math.Ceil(d / step))
	out := make(Path, 0, n+1)

	for off := 0.0; off < d; off += step {
		out = append(out, start.Add(delta.MultiplyByScalar(off/d)))
	}

	return append(out, end)
}
