package reload

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped"
	"github.com/quadwalker/quadruped/config"
)

// The time between checks of the settings file. It's a single stat, so it's
// cheap, but there's no point doing it every tick.
const DefaultInterval = 1 * time.Second

var log = logrus.WithFields(logrus.Fields{
	"pkg": "reload",
})

// Configurable is anything which can switch to new settings while running.
type Configurable interface {
	Configure(s *config.Settings)
}

// Reload watches the settings file, and pushes a fresh copy to each target
// when it changes. It runs in the control loop like any other component, so
// targets never see settings change mid-tick.
type Reload struct {
	path     string
	interval time.Duration
	targets  []Configurable

	checked time.Time
	mtime   time.Time
}

func New(path string, targets ...Configurable) *Reload {
	return &Reload{
		path:     path,
		interval: DefaultInterval,
		targets:  targets,
	}
}

// SetInterval changes how often the file is checked.
func (r *Reload) SetInterval(d time.Duration) {
	r.interval = d
}

// Boot records the modification time of the settings file, which is assumed
// to have already been loaded.
func (r *Reload) Boot() error {
	fi, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	r.mtime = fi.ModTime()
	return nil
}

func (r *Reload) Tick(now time.Time, state *quadruped.State) error {
	if r.NeedsCheck(now) {
		return r.Check(now)
	}

	return nil
}

// NeedsCheck returns true if it's been a while since the file was checked.
func (r *Reload) NeedsCheck(now time.Time) bool {
	return now.Sub(r.checked) > r.interval
}

// Check reloads the settings file if it has been modified since last time. If
// the new file is broken, the old settings are kept, and an error returned.
func (r *Reload) Check(now time.Time) error {
	r.checked = now

	fi, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if fi.ModTime().Equal(r.mtime) {
		return nil
	}

	// Either way, don't try this version of the file again.
	r.mtime = fi.ModTime()

	s, err := config.Load(r.path)
	if err != nil {
		return err
	}

	log.Infof("reloaded %s", r.path)
	for _, t := range r.targets {
		t.Configure(s)
	}

	return nil
}
