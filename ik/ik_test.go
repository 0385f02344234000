package ik

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadwalker/quadruped/math3d"
	"github.com/quadwalker/quadruped/utils"
)

func planar(l1, l2 float64) Geometry {
	return Geometry{
		Topology: Planar,
		Thigh:    l1,
		Shank:    l2,
		Base:     Joint{Limit: Unlimited},
		Hip:      Joint{Limit: Unlimited},
		Knee:     Joint{Limit: Unlimited},
	}
}

func spatial() Geometry {
	return Geometry{
		Topology: Spatial,
		Upper:    38,
		Thigh:    44,
		Shank:    50,
		Base:     Joint{Limit: Unlimited},
		Hip:      Joint{Limit: Unlimited},
		Knee:     Joint{Limit: Unlimited},
	}
}

func assertNear(t *testing.T, exp, act math3d.Vector3, msgAndArgs ...interface{}) {
	t.Helper()
	tol := 1e-6 * math.Max(1, exp.Magnitude())
	assert.InDelta(t, exp.X, act.X, tol, msgAndArgs...)
	assert.InDelta(t, exp.Y, act.Y, tol, msgAndArgs...)
	assert.InDelta(t, exp.Z, act.Z, tol, msgAndArgs...)
}

func TestPlanarRoundTrip(t *testing.T) {
	g := planar(10, 7)

	examples := []math3d.Vector3{
		{X: 17, Y: 0},
		{X: 3, Y: 0},
		{X: 0, Y: 12},
		{X: -8, Y: 5},
		{X: 9, Y: -9},
		{X: 11.5, Y: 4.25},
	}

	for i, eg := range examples {
		s := NewSolver(g)
		a, err := s.Solve(eg)
		require.NoError(t, err, "example #%d", i+1)
		assertNear(t, eg, Forward(g, a), "example #%d", i+1)
	}
}

func TestPlanarRoundTripRandom(t *testing.T) {
	g := planar(44, 50)
	s := NewSolver(g)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		d := 6 + r.Float64()*88
		th := r.Float64() * 2 * math.Pi
		target := math3d.Vector3{X: d * math.Cos(th), Y: d * math.Sin(th)}

		a, err := s.Solve(target)
		require.NoError(t, err)
		assertNear(t, target, Forward(g, a), "target %v", target)
	}
}

func TestPlanarUnreachable(t *testing.T) {
	g := planar(10, 7)
	s := NewSolver(g)
	s.Reset(Angles{Hip: 12, Knee: 34})

	for _, target := range []math3d.Vector3{{X: 17.5}, {X: 0, Y: -40}, {X: 2.9}, {}} {
		a, err := s.Solve(target)
		assert.True(t, errors.Is(err, ErrUnreachable), "target %v: %v", target, err)
		assert.Equal(t, Angles{Hip: 12, Knee: 34}, a)
		assert.Equal(t, Angles{Hip: 12, Knee: 34}, s.Current())
	}
}

func TestTieBreakFollowsCurrentBranch(t *testing.T) {
	g := planar(10, 10)
	target := math3d.Vector3{X: 12, Y: 5}
	b := branches(target.X, target.Y, g.Thigh, g.Shank)

	up := Angles{Hip: utils.Deg(b[0][0]), Knee: utils.Deg(b[0][1])}
	down := Angles{Hip: utils.Deg(b[1][0]), Knee: utils.Deg(b[1][1])}
	require.True(t, up.Knee > 0 && down.Knee < 0)

	for _, exp := range []Angles{up, down} {
		s := NewSolver(g)
		s.Reset(Angles{Hip: exp.Hip + 3, Knee: exp.Knee - 2})

		a, err := s.Solve(target)
		require.NoError(t, err)
		assert.InDelta(t, exp.Hip, a.Hip, 1e-9)
		assert.InDelta(t, exp.Knee, a.Knee, 1e-9)
		assertNear(t, target, Forward(g, a))
	}
}

func TestTieBreakIsStableAlongAPath(t *testing.T) {
	g := planar(10, 10)
	s := NewSolver(g)

	// Start on the negative knee branch, then sweep the target. The solver
	// should never flip over to the other branch.
	_, err := s.Solve(math3d.Vector3{X: 12, Y: 5})
	require.NoError(t, err)
	s.Reset(Angles{Hip: s.Current().Hip, Knee: -s.Current().Knee})
	a, err := s.Solve(math3d.Vector3{X: 12, Y: 5})
	require.NoError(t, err)
	require.True(t, a.Knee < 0)

	for x := 12.0; x <= 16; x += 0.25 {
		a, err := s.Solve(math3d.Vector3{X: x, Y: 5})
		require.NoError(t, err)
		assert.True(t, a.Knee < 0, "flipped at x=%v", x)
	}
}

func TestPlanarLimitsClampAfterSolving(t *testing.T) {
	g := planar(10, 10)
	g.Hip.Limit = Limit{Min: -5, Max: 5}
	g.Knee.Limit = Limit{Min: 90, Max: 0}

	s := NewSolver(g)
	a, err := s.Solve(math3d.Vector3{X: 3, Y: 15})
	require.NoError(t, err)

	assert.True(t, a.Hip >= -5 && a.Hip <= 5, "hip %v", a.Hip)
	assert.True(t, a.Knee >= 0 && a.Knee <= 90, "knee %v", a.Knee)
}

func TestSpatialRoundTrip(t *testing.T) {
	g := spatial()

	examples := []math3d.Vector3{
		{X: 0, Y: 0, Z: -80},
		{X: 10, Y: 5, Z: -70},
		{X: -12, Y: -20, Z: -75},
		{X: 0, Y: 30, Z: -100},
	}

	for i, eg := range examples {
		s := NewSolver(g)
		a, err := s.Solve(eg)
		require.NoError(t, err, "example #%d", i+1)
		assertNear(t, eg, Forward(g, a), "example #%d", i+1)
	}
}

func TestSpatialStraightDown(t *testing.T) {
	s := NewSolver(spatial())

	a, err := s.Solve(math3d.Vector3{X: 0, Y: 0, Z: -100})
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Base)
}

func TestSpatialClampsUnreachable(t *testing.T) {
	g := spatial()

	examples := []struct {
		in  math3d.Vector3
		out math3d.Vector3
	}{
		// Too far: the leg is pulled out to full extension.
		{math3d.Vector3{X: 0, Y: 0, Z: -500}, math3d.Vector3{X: 0, Y: 0, Z: -(38 + 94)}},

		// Too close: folded as far as the segments allow.
		{math3d.Vector3{X: 0, Y: 0, Z: -40}, math3d.Vector3{X: 0, Y: 0, Z: -(38 + 6)}},
	}

	for _, eg := range examples {
		s := NewSolver(g)
		a, err := s.Solve(eg.in)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(a.Hip) || math.IsNaN(a.Knee) || math.IsNaN(a.Base))
		assertNear(t, eg.out, Forward(g, a), "target %v", eg.in)
	}
}

func TestSpatialBaseLimit(t *testing.T) {
	g := spatial()
	g.Base.Limit = Limit{Min: -10, Max: 10}
	s := NewSolver(g)

	a, err := s.Solve(math3d.Vector3{X: 60, Y: 0, Z: -60})
	require.NoError(t, err)
	assert.Equal(t, 10.0, a.Base)

	a, err = s.Solve(math3d.Vector3{X: -60, Y: 0, Z: -60})
	require.NoError(t, err)
	assert.Equal(t, -10.0, a.Base)
}

func TestMirroringIsConfiguration(t *testing.T) {
	right := spatial()
	left := spatial()
	left.LateralSign = -1

	target := math3d.Vector3{X: 9, Y: 14, Z: -72}
	mirrored := math3d.Vector3{X: -9, Y: 14, Z: -72}

	a, err := NewSolver(right).Solve(target)
	require.NoError(t, err)
	b, err := NewSolver(left).Solve(mirrored)
	require.NoError(t, err)

	assert.InDelta(t, a.Base, b.Base, 1e-9)
	assert.InDelta(t, a.Hip, b.Hip, 1e-9)
	assert.InDelta(t, a.Knee, b.Knee, 1e-9)
	assertNear(t, mirrored, Forward(left, b))
}

func TestJointSignsFlipOutput(t *testing.T) {
	g := spatial()
	flipped := spatial()
	flipped.Base.Sign = -1
	flipped.Hip.Sign = -1
	flipped.Knee.Sign = -1

	target := math3d.Vector3{X: 9, Y: 14, Z: -72}
	a, err := NewSolver(g).Solve(target)
	require.NoError(t, err)
	b, err := NewSolver(flipped).Solve(target)
	require.NoError(t, err)

	assert.InDelta(t, -a.Base, b.Base, 1e-9)
	assert.InDelta(t, -a.Hip, b.Hip, 1e-9)
	assert.InDelta(t, -a.Knee, b.Knee, 1e-9)
}

func TestSetGeometryKeepsCurrent(t *testing.T) {
	s := NewSolver(spatial())
	_, err := s.Solve(math3d.Vector3{X: 5, Y: 5, Z: -80})
	require.NoError(t, err)
	before := s.Current()

	g := spatial()
	g.Thigh = 46
	s.SetGeometry(g)

	assert.Equal(t, before, s.Current())
	assert.Equal(t, 46.0, s.Geometry().Thigh)
}

func TestLimitClampSwapped(t *testing.T) {
	l := Limit{Min: 90, Max: 0}
	assert.Equal(t, 90.0, l.Clamp(120))
	assert.Equal(t, 0.0, l.Clamp(-3))
	assert.Equal(t, 45.0, l.Clamp(45))
}
