package servos

import (
	"io"
	"math"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

const (
	maestroSetTarget = 0x84
	maestroBaud      = 115200
)

// Maestro drives a Pololu Maestro USB servo controller, using the compact
// serial protocol. It's handy for bench testing legs without a Pi.
type Maestro struct {
	port     io.ReadWriteCloser
	channels int
}

func OpenMaestro(portName string, channels int) (*Maestro, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              maestroBaud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", portName)
	}

	return NewMaestro(port, channels), nil
}

func NewMaestro(port io.ReadWriteCloser, channels int) *Maestro {
	if channels <= 0 || channels > NumChannels {
		channels = NumChannels
	}

	return &Maestro{port: port, channels: channels}
}

// SetDuty converts the duty back into a pulse width, since the Maestro takes
// targets in quarter-microseconds.
func (m *Maestro) SetDuty(channel int, duty uint16) error {
	if channel < 0 || channel >= m.channels {
		return errors.Wrapf(ErrChannel, "channel %d", channel)
	}

	return m.setTarget(channel, uint16(math.Round(PulseFromDuty(duty)*4)))
}

// Relax sets every target to zero, which tells the Maestro to stop sending
// pulses.
func (m *Maestro) Relax() error {
	for ch := 0; ch < m.channels; ch++ {
		if err := m.setTarget(ch, 0); err != nil {
			return err
		}
	}

	return nil
}

func (m *Maestro) Close() error {
	return m.port.Close()
}

func (m *Maestro) setTarget(channel int, target uint16) error {
	_, err := m.port.Write([]byte{
		maestroSetTarget,
		byte(channel),
		byte(target & 0x7F),
		byte((target >> 7) & 0x7F),
	})

	return errors.Wrapf(err, "setting maestro channel %d", channel)
}
