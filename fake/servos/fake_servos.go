package servos

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithFields(log.Fields{
	"pkg": "fake/servos",
})

// FakeDriver is a PWM driver which remembers the last duty of each channel.
// It's used by tests, and by main for dry runs without any hardware.
type FakeDriver struct {
	mu     sync.Mutex
	duties map[int]uint16
	writes int
	relax  int
	closed bool

	// Err, if set, is returned by every SetDuty.
	Err error
}

func New() *FakeDriver {
	return &FakeDriver{duties: map[int]uint16{}}
}

func (d *FakeDriver) SetDuty(channel int, duty uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}

	logger.Debugf("channel %d: duty=%d", channel, duty)
	d.duties[channel] = duty
	d.writes++
	return nil
}

func (d *FakeDriver) Relax() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	logger.Debugf("relax")
	d.duties = map[int]uint16{}
	d.relax++
	return nil
}

func (d *FakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Duty returns the last duty sent to a channel, and whether any was sent
// since the last Relax.
func (d *FakeDriver) Duty(channel int) (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.duties[channel]
	return v, ok
}

// Duties returns a copy of every live channel's duty.
func (d *FakeDriver) Duties() map[int]uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[int]uint16, len(d.duties))
	for k, v := range d.duties {
		out[k] = v
	}

	return out
}

func (d *FakeDriver) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *FakeDriver) Relaxed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.relax
}

func (d *FakeDriver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
