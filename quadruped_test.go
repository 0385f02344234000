package quadruped

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name    string
	log     *[]string
	bootErr error
	tickErr error
	tick    func(*State)
}

func (r *recorder) Boot() error {
	*r.log = append(*r.log, "boot "+r.name)
	return r.bootErr
}

func (r *recorder) Tick(now time.Time, state *State) error {
	*r.log = append(*r.log, "tick "+r.name)
	if r.tick != nil {
		r.tick(state)
	}

	return r.tickErr
}

func TestBootAndTickOrder(t *testing.T) {
	var calls []string
	r := New(20 * time.Millisecond)
	r.Add(&recorder{name: "a", log: &calls})
	r.Add(&recorder{name: "b", log: &calls, tickErr: errors.New("oops")})
	r.Add(&recorder{name: "c", log: &calls})

	require.NoError(t, r.Boot())
	assert.True(t, r.Tick(time.Now()))

	// An error from one component doesn't stop the others.
	assert.Equal(t, []string{"boot a", "boot b", "boot c", "tick a", "tick b", "tick c"}, calls)
}

func TestBootError(t *testing.T) {
	var calls []string
	r := New(0)
	r.Add(&recorder{name: "a", log: &calls, bootErr: errors.New("no servos")})
	r.Add(&recorder{name: "b", log: &calls})

	err := r.Boot()
	assert.EqualError(t, err, "booting *quadruped.recorder: no servos")
	assert.Equal(t, []string{"boot a"}, calls)
}

func TestTickInterval(t *testing.T) {
	type eg struct {
		offset time.Duration
		exp    bool
	}

	var calls []string
	r := New(20 * time.Millisecond)
	r.Add(&recorder{name: "a", log: &calls})

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	examples := []eg{
		{0, true},
		{10 * time.Millisecond, false},
		{20 * time.Millisecond, false},
		{21 * time.Millisecond, true},
		{40 * time.Millisecond, false},
		{42 * time.Millisecond, true},
	}

	for i, eg := range examples {
		assert.Equal(t, eg.exp, r.Tick(t0.Add(eg.offset)), "example #%d", i+1)
	}

	assert.Len(t, calls, 3)
}

func TestComponentsCanChangeInterval(t *testing.T) {
	var calls []string
	r := New(20 * time.Millisecond)
	r.Add(&recorder{name: "a", log: &calls, tick: func(s *State) {
		s.Interval = 100 * time.Millisecond
	}})

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, r.Tick(t0))
	assert.False(t, r.Tick(t0.Add(50*time.Millisecond)))
	assert.True(t, r.Tick(t0.Add(101*time.Millisecond)))
}

func TestRunHaltsAfterShutdown(t *testing.T) {
	var calls []string
	r := New(time.Millisecond)
	r.Add(&recorder{name: "legs", log: &calls, tick: func(s *State) {
		if s.Shutdown {
			s.Halted = true
		}
	}})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		r.Run(stop, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run didn't return after shutdown")
	}

	assert.True(t, r.State.Shutdown)
	assert.True(t, r.State.Halted)
}

func TestRunGivesUp(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the shutdown grace period")
	}

	var calls []string
	r := New(time.Millisecond)
	r.Add(&recorder{name: "stubborn", log: &calls})

	stop := make(chan struct{})
	close(stop)

	start := time.Now()
	r.Run(stop, time.Millisecond)

	assert.True(t, time.Since(start) >= shutdownGrace)
	assert.False(t, r.State.Halted)
}
